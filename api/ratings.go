package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/LusX0117/itemsharing/domain"
)

// SubmitRatingRequest is the body of POST /api/chat/session/rating.
type SubmitRatingRequest struct {
	SessionID   string `json:"sessionId" validate:"required"`
	RaterUserID string `json:"raterUserId" validate:"required"`
	Score       int    `json:"score"`
	Comment     string `json:"comment"`
}

// SubmitRating records a counterparty rating for a completed session and
// returns the refreshed credit summary of the rated user.
func (h *Handler) SubmitRating(c echo.Context) error {
	var req SubmitRatingRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}
	if !domain.ValidScore(req.Score) {
		return h.fail(c, domain.ErrInvalidRatingScore)
	}

	ctx := c.Request().Context()
	session, err := h.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return h.fail(c, err)
	}
	if session == nil {
		return h.fail(c, domain.ErrSessionNotFound)
	}
	if !session.IsParticipant(req.RaterUserID) {
		return h.fail(c, domain.ErrForbiddenActor)
	}
	if session.Status != domain.StatusCompleted {
		return h.fail(c, domain.ErrSessionNotFinished)
	}

	rating := &domain.Rating{
		SessionID:    session.ID,
		RaterUserID:  req.RaterUserID,
		TargetUserID: session.Counterparty(req.RaterUserID),
		Score:        req.Score,
		Comment:      strings.TrimSpace(req.Comment),
		CreatedAt:    time.Now(),
	}
	if err := h.store.CreateRating(ctx, rating); err != nil {
		return h.fail(c, err)
	}

	summary, err := h.store.RatingSummary(ctx, rating.TargetUserID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"rating":        rating,
		"ratingSummary": summary,
	})
}

// GetRating returns the rating a user submitted for a session, if any. The
// client projector uses it to compute rating eligibility.
func (h *Handler) GetRating(c echo.Context) error {
	sessionID := strings.TrimSpace(c.QueryParam("sessionId"))
	userID := strings.TrimSpace(c.QueryParam("userId"))
	if sessionID == "" || userID == "" {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	rating, err := h.store.GetRating(c.Request().Context(), sessionID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"rating": rating})
}
