// Package store persists marketplace state.
package store

import (
	"context"

	"github.com/LusX0117/itemsharing/domain"
)

// Store is the persistence interface consumed by the API layer. Lookups
// return (nil, nil) when the record does not exist; the caller decides
// which not-found error that maps to.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *domain.User, passwordHash string) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, string, error)
	UpsertUser(ctx context.Context, user *domain.User, passwordHash string) error

	// Item and demand posts.
	CreateItemPost(ctx context.Context, post *domain.ItemPost) error
	GetItemPost(ctx context.Context, id int64) (*domain.ItemPost, error)
	UpdateItemPost(ctx context.Context, post *domain.ItemPost) error
	ListItemPosts(ctx context.Context, f PostFilter) ([]domain.ItemPost, error)
	CreateDemandPost(ctx context.Context, post *domain.DemandPost) error
	GetDemandPost(ctx context.Context, id string) (*domain.DemandPost, error)
	UpdateDemandPost(ctx context.Context, post *domain.DemandPost) error
	ListDemandPosts(ctx context.Context, f PostFilter) ([]domain.DemandPost, error)
	CountItemPosts(ctx context.Context) (int64, error)

	// Borrow sessions. CreateSession inserts the session and its initial
	// system message in one transaction. ApplyTransition commits the status
	// update and exactly one system message atomically, failing with
	// invalid_status_transition when the stored status left the expected
	// set since the caller read it.
	CreateSession(ctx context.Context, session *domain.Session, initialSystemText string) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	FindActiveSession(ctx context.Context, itemID int64, lenderUserID, borrowerUserID string) (*domain.Session, error)
	ListSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error)
	UpdateSessionPhotos(ctx context.Context, id string, beforePhotos, afterPhotos []string) (*domain.Session, error)
	ApplyTransition(ctx context.Context, sessionID string, expected []domain.SessionStatus, next domain.SessionStatus, systemText string) (*domain.Session, *domain.Message, error)

	// Message log. AppendMessage assigns the monotonic message id and
	// touches the session's updatedAt in the same transaction.
	AppendMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, sessionID string, afterID int64) ([]domain.Message, error)

	// Read cursors. MarkRead is a monotonic max; stale ids are no-ops.
	MarkRead(ctx context.Context, sessionID, userID string, lastReadMessageID int64) error
	GetReadCursor(ctx context.Context, sessionID, userID string) (int64, error)
	UnreadCount(ctx context.Context, sessionID, userID string) (int64, error)

	// Ratings.
	CreateRating(ctx context.Context, rating *domain.Rating) error
	GetRating(ctx context.Context, sessionID, raterUserID string) (*domain.Rating, error)
	RatingSummary(ctx context.Context, targetUserID string) (*domain.RatingSummary, error)

	Close() error
}

// PostFilter narrows post listings.
type PostFilter struct {
	// VisibleOnly drops moderated (hidden) posts.
	VisibleOnly bool
	// OwnerUserID limits to one owner/publisher when non-empty.
	OwnerUserID string
}
