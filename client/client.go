// Package client is the consuming side of the marketplace API: a typed
// HTTP client, the role-aware session projector and the polling loop that
// keeps a chat view fresh.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LusX0117/itemsharing/domain"
)

// Client is an HTTP client for the marketplace API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends the request and decodes the JSON response into out. API error
// bodies ({"error": code}) come back as *domain.Error so callers can match
// on the wire code.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
			return domain.NewError(apiErr.Error)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StartSession creates or reuses the borrow session for the triple.
func (c *Client) StartSession(ctx context.Context, req StartSessionInput) (*domain.Session, bool, error) {
	var resp struct {
		Session *domain.Session `json:"session"`
		Existed bool            `json:"existed"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/session/start", nil, req, &resp); err != nil {
		return nil, false, err
	}
	return resp.Session, resp.Existed, nil
}

// StartSessionInput is the create-or-reuse session payload.
type StartSessionInput struct {
	ItemID         int64  `json:"itemId"`
	ItemTitle      string `json:"itemTitle"`
	LenderUserID   string `json:"lenderUserId"`
	LenderName     string `json:"lenderName"`
	BorrowerUserID string `json:"borrowerUserId"`
	BorrowerName   string `json:"borrowerName"`
}

// ListSessions returns the user's sessions and the unread badge total.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]domain.Session, int64, error) {
	var resp struct {
		Sessions    []domain.Session `json:"sessions"`
		UnreadTotal int64            `json:"unreadTotal"`
	}
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, http.MethodGet, "/api/chat/sessions", q, nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Sessions, resp.UnreadTotal, nil
}

// GetSession fetches one session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var resp struct {
		Session *domain.Session `json:"session"`
	}
	q := url.Values{"sessionId": {sessionID}}
	if err := c.do(ctx, http.MethodGet, "/api/chat/session", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// ListMessages fetches a session's messages, optionally after a known id.
func (c *Client) ListMessages(ctx context.Context, sessionID string, afterID int64) ([]domain.Message, error) {
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	q := url.Values{"sessionId": {sessionID}}
	if afterID > 0 {
		q.Set("afterId", strconv.FormatInt(afterID, 10))
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/messages", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage appends a chat message.
func (c *Client) SendMessage(ctx context.Context, sessionID, senderUserID, senderName, text string) (*domain.Message, error) {
	var resp struct {
		Message *domain.Message `json:"message"`
	}
	body := map[string]string{
		"sessionId":    sessionID,
		"senderUserId": senderUserID,
		"senderName":   senderName,
		"text":         text,
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/messages", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// RunAction performs a session transition.
func (c *Client) RunAction(ctx context.Context, sessionID, actorUserID string, action domain.Action, reason string) (*domain.Session, error) {
	var resp struct {
		Session *domain.Session `json:"session"`
	}
	body := map[string]string{
		"sessionId":   sessionID,
		"actorUserId": actorUserID,
		"action":      string(action),
		"reason":      reason,
	}
	if err := c.do(ctx, http.MethodPatch, "/api/chat/session/action", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// UpdatePhotos replaces the session's compare-photo lists.
func (c *Client) UpdatePhotos(ctx context.Context, sessionID string, beforePhotos, afterPhotos []string) (*domain.Session, error) {
	var resp struct {
		Session *domain.Session `json:"session"`
	}
	body := map[string]interface{}{
		"sessionId":    sessionID,
		"beforePhotos": beforePhotos,
		"afterPhotos":  afterPhotos,
	}
	if err := c.do(ctx, http.MethodPatch, "/api/chat/session/photos", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// MarkRead advances the read cursor.
func (c *Client) MarkRead(ctx context.Context, sessionID, userID string, lastReadMessageID int64) error {
	body := map[string]interface{}{
		"sessionId":         sessionID,
		"userId":            userID,
		"lastReadMessageId": lastReadMessageID,
	}
	return c.do(ctx, http.MethodPost, "/api/chat/session/read", nil, body, nil)
}

// GetRating returns the rating userID submitted for the session, nil when
// none exists yet.
func (c *Client) GetRating(ctx context.Context, sessionID, userID string) (*domain.Rating, error) {
	var resp struct {
		Rating *domain.Rating `json:"rating"`
	}
	q := url.Values{"sessionId": {sessionID}, "userId": {userID}}
	if err := c.do(ctx, http.MethodGet, "/api/chat/session/rating", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rating, nil
}

// SubmitRating rates the counterparty of a completed session.
func (c *Client) SubmitRating(ctx context.Context, sessionID, raterUserID string, score int, comment string) (*domain.Rating, *domain.RatingSummary, error) {
	var resp struct {
		Rating        *domain.Rating        `json:"rating"`
		RatingSummary *domain.RatingSummary `json:"ratingSummary"`
	}
	body := map[string]interface{}{
		"sessionId":   sessionID,
		"raterUserId": raterUserID,
		"score":       score,
		"comment":     comment,
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/session/rating", nil, body, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Rating, resp.RatingSummary, nil
}
