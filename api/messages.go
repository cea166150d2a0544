package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/LusX0117/itemsharing/domain"
)

// ListMessages returns a session's messages ordered by id, optionally only
// those after the afterId query parameter. Polling clients pass the last
// id they have seen.
func (h *Handler) ListMessages(c echo.Context) error {
	sessionID := strings.TrimSpace(c.QueryParam("sessionId"))
	if sessionID == "" {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}
	afterID, _ := strconv.ParseInt(c.QueryParam("afterId"), 10, 64)

	messages, err := h.store.ListMessages(c.Request().Context(), sessionID, afterID)
	if err != nil {
		return h.fail(c, err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": messages})
}

// SendMessageRequest is the body of POST /api/chat/messages.
type SendMessageRequest struct {
	SessionID    string `json:"sessionId" validate:"required"`
	SenderUserID string `json:"senderUserId" validate:"required"`
	SenderName   string `json:"senderName" validate:"required"`
	Text         string `json:"text"`
}

// SendMessage appends a chat message. The sender must be the system
// sentinel or one of the two participants.
func (h *Handler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
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

	if req.SenderUserID != domain.SystemSenderID && !session.IsParticipant(req.SenderUserID) {
		return h.fail(c, domain.ErrForbiddenSender)
	}

	msg := &domain.Message{
		SessionID:    req.SessionID,
		SenderUserID: req.SenderUserID,
		SenderName:   req.SenderName,
		Text:         text,
		Time:         time.Now(),
	}
	if err := h.store.AppendMessage(ctx, msg); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": msg})
}
