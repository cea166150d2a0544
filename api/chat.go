package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/LusX0117/itemsharing/domain"
)

// StartSessionRequest is the body of POST /api/chat/session/start.
type StartSessionRequest struct {
	ItemID         int64  `json:"itemId" validate:"required"`
	ItemTitle      string `json:"itemTitle" validate:"required"`
	LenderUserID   string `json:"lenderUserId" validate:"required"`
	LenderName     string `json:"lenderName" validate:"required"`
	BorrowerUserID string `json:"borrowerUserId" validate:"required"`
	BorrowerName   string `json:"borrowerName" validate:"required"`
}

// StartSession creates a borrow session, or returns the existing
// non-terminal one for the same (item, lender, borrower) triple.
func (h *Handler) StartSession(c echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	ctx := c.Request().Context()
	existing, err := h.store.FindActiveSession(ctx, req.ItemID, req.LenderUserID, req.BorrowerUserID)
	if err != nil {
		return h.fail(c, err)
	}
	if existing != nil {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"session": existing,
			"existed": true,
		})
	}

	now := time.Now()
	session := &domain.Session{
		ID:             "session_" + uuid.New().String()[:8],
		ItemID:         req.ItemID,
		ItemTitle:      req.ItemTitle,
		LenderUserID:   req.LenderUserID,
		LenderName:     req.LenderName,
		BorrowerUserID: req.BorrowerUserID,
		BorrowerName:   req.BorrowerName,
		Status:         domain.StatusPendingLenderApproval,
		BeforePhotos:   []string{},
		AfterPhotos:    []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.store.CreateSession(ctx, session, "借用申请已发起，等待出借者同意。"); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session": session,
		"existed": false,
	})
}

// ListSessions lists the caller's sessions together with the unread badge
// total.
func (h *Handler) ListSessions(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("userId"))
	if userID == "" {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	ctx := c.Request().Context()
	sessions, err := h.store.ListSessionsForUser(ctx, userID)
	if err != nil {
		return h.fail(c, err)
	}

	var unreadTotal int64
	for i := range sessions {
		n, err := h.store.UnreadCount(ctx, sessions[i].ID, userID)
		if err != nil {
			return h.fail(c, err)
		}
		unreadTotal += n
	}

	if sessions == nil {
		sessions = []domain.Session{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions":    sessions,
		"unreadTotal": unreadTotal,
	})
}

// GetSession returns one session by id.
func (h *Handler) GetSession(c echo.Context) error {
	sessionID := strings.TrimSpace(c.QueryParam("sessionId"))
	if sessionID == "" {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	session, err := h.store.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		return h.fail(c, err)
	}
	if session == nil {
		return h.fail(c, domain.ErrSessionNotFound)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"session": session})
}

// SessionActionRequest is the body of PATCH /api/chat/session/action.
type SessionActionRequest struct {
	SessionID   string `json:"sessionId" validate:"required"`
	ActorUserID string `json:"actorUserId" validate:"required"`
	Action      string `json:"action" validate:"required"`
	Reason      string `json:"reason"`
}

// RunSessionAction validates and commits one status transition. The status
// update and its system message are written as one atomic unit; a request
// racing against a concurrent transition fails with
// invalid_status_transition and must refetch.
func (h *Handler) RunSessionAction(c echo.Context) error {
	var req SessionActionRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	ctx := c.Request().Context()
	session, err := h.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return h.fail(c, err)
	}
	if session == nil {
		return h.fail(c, domain.ErrSessionNotFound)
	}

	result, err := domain.Transition(session, domain.TransitionRequest{
		ActorUserID: req.ActorUserID,
		Action:      domain.Action(req.Action),
		Reason:      req.Reason,
	})
	if err != nil {
		return h.fail(c, err)
	}

	// Guard the commit on the status we validated against so a concurrent
	// winner is detected instead of overwritten.
	updated, _, err := h.store.ApplyTransition(ctx, session.ID,
		[]domain.SessionStatus{session.Status}, result.NextStatus, result.SystemText)
	if err != nil {
		return h.fail(c, err)
	}

	h.log.Info().
		Str("session", session.ID).
		Str("action", req.Action).
		Str("from", string(session.Status)).
		Str("to", string(result.NextStatus)).
		Msg("session transition")

	return c.JSON(http.StatusOK, map[string]interface{}{"session": updated})
}

// SessionPhotosRequest is the body of PATCH /api/chat/session/photos. Nil
// lists keep the stored value; present lists replace it.
type SessionPhotosRequest struct {
	SessionID    string   `json:"sessionId" validate:"required"`
	BeforePhotos []string `json:"beforePhotos"`
	AfterPhotos  []string `json:"afterPhotos"`
}

// UpdateSessionPhotos replaces the compare-photo lists. Every entry is
// normalised (inline blobs converted to durable URLs) before anything is
// written, so a failed conversion leaves the stored lists intact.
func (h *Handler) UpdateSessionPhotos(c echo.Context) error {
	var req SessionPhotosRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	ctx := c.Request().Context()
	session, err := h.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return h.fail(c, err)
	}
	if session == nil {
		return h.fail(c, domain.ErrSessionNotFound)
	}

	before := session.BeforePhotos
	if req.BeforePhotos != nil {
		if before, err = h.convertPhotos(req.BeforePhotos); err != nil {
			return h.fail(c, err)
		}
	}
	after := session.AfterPhotos
	if req.AfterPhotos != nil {
		if after, err = h.convertPhotos(req.AfterPhotos); err != nil {
			return h.fail(c, err)
		}
	}

	updated, err := h.store.UpdateSessionPhotos(ctx, session.ID,
		domain.CapPhotos(before), domain.CapPhotos(after))
	if err != nil {
		return h.fail(c, err)
	}
	if updated == nil {
		return h.fail(c, domain.ErrSessionNotFound)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"session": updated})
}

func (h *Handler) convertPhotos(raw []string) ([]string, error) {
	urls := make([]string, 0, len(raw))
	for _, entry := range raw {
		ref, err := domain.ParsePhotoRef(entry)
		if err != nil {
			return nil, err
		}
		url, err := h.media.Put(ref)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// MarkReadRequest is the body of POST /api/chat/session/read.
type MarkReadRequest struct {
	SessionID         string `json:"sessionId" validate:"required"`
	UserID            string `json:"userId" validate:"required"`
	LastReadMessageID int64  `json:"lastReadMessageId"`
}

// MarkRead advances the caller's read cursor. Stale ids are no-ops, so
// rapid duplicate polls are harmless.
func (h *Handler) MarkRead(c echo.Context) error {
	var req MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	ctx := c.Request().Context()
	session, err := h.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return h.fail(c, err)
	}
	if session == nil {
		return h.fail(c, domain.ErrSessionNotFound)
	}
	if !session.IsParticipant(req.UserID) {
		return h.fail(c, domain.ErrForbiddenActor)
	}

	if err := h.store.MarkRead(ctx, req.SessionID, req.UserID, req.LastReadMessageID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}
