// Package domain defines the core domain models for the lending marketplace.
package domain

import "time"

// SystemSenderID is the sentinel sender id for messages emitted by the
// transition engine. It is never a valid user id.
const SystemSenderID = "system"

// SystemSenderName is the display name attached to system messages.
const SystemSenderName = "系统"

// SessionStatus represents the status of a borrow session.
type SessionStatus string

const (
	StatusPendingLenderApproval     SessionStatus = "pending_lender_approval"
	StatusNegotiating               SessionStatus = "negotiating"
	StatusActive                    SessionStatus = "active"
	StatusPendingReturnConfirmation SessionStatus = "pending_return_confirmation"
	StatusCompleted                 SessionStatus = "completed"
	StatusRejected                  SessionStatus = "rejected"
	StatusCancelled                 SessionStatus = "cancelled"
)

// IsTerminal reports whether no further transition may leave the status.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsPendingLenderApproval reports whether the session is still waiting for
// the lender to accept. The negotiating sub-label counts as pending.
func (s SessionStatus) IsPendingLenderApproval() bool {
	return s == StatusPendingLenderApproval || s == StatusNegotiating
}

// MaxComparePhotos caps the before/after photo lists on a session.
const MaxComparePhotos = 3

// Session is one borrow negotiation between a lender and a borrower over an
// item. At most one non-terminal session exists per
// (item, lender, borrower) triple; session start reuses it instead of
// creating a duplicate.
type Session struct {
	ID             string        `json:"id"`
	ItemID         int64         `json:"itemId"`
	ItemTitle      string        `json:"itemTitle"`
	LenderUserID   string        `json:"lenderUserId"`
	LenderName     string        `json:"lenderName"`
	BorrowerUserID string        `json:"borrowerUserId"`
	BorrowerName   string        `json:"borrowerName"`
	Status         SessionStatus `json:"status"`
	BeforePhotos   []string      `json:"beforePhotos"`
	AfterPhotos    []string      `json:"afterPhotos"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// IsParticipant reports whether userID is one of the two session parties.
func (s *Session) IsParticipant(userID string) bool {
	return userID != "" && (userID == s.LenderUserID || userID == s.BorrowerUserID)
}

// Counterparty returns the other participant's user id, or "" when userID
// is not a participant.
func (s *Session) Counterparty(userID string) string {
	switch userID {
	case s.LenderUserID:
		return s.BorrowerUserID
	case s.BorrowerUserID:
		return s.LenderUserID
	}
	return ""
}

// Message is a single chat message in a session. IDs are assigned by the
// store and are strictly increasing within a session, in step with Time.
type Message struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"sessionId"`
	SenderUserID string    `json:"senderUserId"`
	SenderName   string    `json:"senderName"`
	Text         string    `json:"text"`
	Time         time.Time `json:"time"`
}

// IsSystem reports whether the message was synthesised by the transition
// engine rather than typed by a participant.
func (m *Message) IsSystem() bool {
	return m.SenderUserID == SystemSenderID
}

// ReadCursor tracks the highest message id a user has read in a session.
// Writes are monotonic; a lower id than the stored one is a no-op.
type ReadCursor struct {
	SessionID         string `json:"sessionId"`
	UserID            string `json:"userId"`
	LastReadMessageID int64  `json:"lastReadMessageId"`
}
