package domain

import "time"

// Rating is one counterparty rating for a completed session. At most one
// rating exists per (session, rater) pair.
type Rating struct {
	SessionID    string    `json:"sessionId"`
	RaterUserID  string    `json:"raterUserId"`
	TargetUserID string    `json:"targetUserId"`
	Score        int       `json:"score"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ValidScore reports whether score is inside the 1..5 rating scale.
func ValidScore(score int) bool { return score >= 1 && score <= 5 }

// RatingSummary is the aggregated credit view of one user as a rating
// target.
type RatingSummary struct {
	TargetUserID string  `json:"targetUserId"`
	AverageScore float64 `json:"averageScore"`
	RatingCount  int     `json:"ratingCount"`
}

// User is the identity record the marketplace exposes to handlers. The
// password hash never leaves the store layer.
type User struct {
	ID       string `json:"id"`
	Phone    string `json:"phone"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"isAdmin"`
}
