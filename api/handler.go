// Package api provides the HTTP handlers for the marketplace.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/LusX0117/itemsharing/domain"
	"github.com/LusX0117/itemsharing/policy"
	"github.com/LusX0117/itemsharing/storage"
	"github.com/LusX0117/itemsharing/store"
)

// Handler handles HTTP requests.
type Handler struct {
	store  store.Store
	policy *policy.Engine
	media  *storage.MediaStore
	log    zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(st store.Store, policyEngine *policy.Engine, media *storage.MediaStore, log zerolog.Logger) *Handler {
	return &Handler{
		store:  st,
		policy: policyEngine,
		media:  media,
		log:    log,
	}
}

// Validator adapts validator/v10 to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns the request validator wired into the echo server.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/auth/register", h.Register)
	e.POST("/api/auth/login", h.Login)

	e.GET("/api/posts/home", h.HomePosts)
	e.GET("/api/posts/manage", h.ManagePosts)
	e.POST("/api/posts/item", h.CreateItemPost)
	e.POST("/api/posts/demand", h.CreateDemandPost)
	e.PATCH("/api/posts/item/:id", h.PatchItemPost)
	e.PATCH("/api/posts/demand/:id", h.PatchDemandPost)

	e.POST("/api/chat/session/start", h.StartSession)
	e.GET("/api/chat/sessions", h.ListSessions)
	e.GET("/api/chat/session", h.GetSession)
	e.GET("/api/chat/messages", h.ListMessages)
	e.POST("/api/chat/messages", h.SendMessage)
	e.PATCH("/api/chat/session/action", h.RunSessionAction)
	e.PATCH("/api/chat/session/photos", h.UpdateSessionPhotos)
	e.POST("/api/chat/session/read", h.MarkRead)
	e.POST("/api/chat/session/rating", h.SubmitRating)
	e.GET("/api/chat/session/rating", h.GetRating)

	e.GET("/api/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":  true,
		"now": time.Now().UnixMilli(),
	})
}

// statusForCode maps stable wire codes onto HTTP status classes.
func statusForCode(code string) int {
	switch code {
	case domain.ErrForbidden.Code, domain.ErrForbiddenActor.Code, domain.ErrForbiddenSender.Code:
		return http.StatusForbidden
	case domain.ErrInvalidStatusTransition.Code, domain.ErrSessionNotFinished.Code,
		domain.ErrRatingAlreadySubmitted.Code, domain.ErrPhoneAlreadyRegistered.Code:
		return http.StatusConflict
	case domain.ErrSessionNotFound.Code, domain.ErrUserNotFound.Code,
		domain.ErrItemNotFound.Code, domain.ErrDemandNotFound.Code:
		return http.StatusNotFound
	case domain.ErrInvalidCredentials.Code:
		return http.StatusUnauthorized
	}
	// Everything else in the taxonomy is a validation failure.
	return http.StatusBadRequest
}

// fail writes the error as {"error": code}. Domain errors keep their code
// and mapped status; anything unclassified is logged and surfaced as a
// generic 500 so no internal detail leaks.
func (h *Handler) fail(c echo.Context, err error) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return c.JSON(statusForCode(derr.Code), map[string]string{"error": derr.Code})
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal_error"})
}
