package domain

import "time"

// ItemPost is a listing offering an item to lend.
type ItemPost struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	OwnerUserID  string    `json:"ownerUserId"`
	OwnerName    string    `json:"owner"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	Deposit      float64   `json:"deposit"`
	Location     string    `json:"location"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	IsHidden     bool      `json:"isHidden"`
	HiddenReason string    `json:"hiddenReason"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DemandPost is a listing asking to borrow something.
type DemandPost struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	PublisherUserID string    `json:"publisherUserId"`
	PublisherName   string    `json:"publisher"`
	Category        string    `json:"category"`
	Budget          float64   `json:"budget"`
	Location        string    `json:"location"`
	Reward          string    `json:"reward"`
	Description     string    `json:"description"`
	Status          string    `json:"status"`
	IsHidden        bool      `json:"isHidden"`
	HiddenReason    string    `json:"hiddenReason"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Default listing statuses.
const (
	ItemStatusAvailable = "可借"
	DemandStatusOpen    = "求借中"
)
