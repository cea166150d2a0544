package api

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/LusX0117/itemsharing/auth"
	"github.com/LusX0117/itemsharing/domain"
)

var phonePattern = regexp.MustCompile(`^1\d{10}$`)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// Register creates a new account.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}

	phone := strings.TrimSpace(req.Phone)
	nickname := strings.TrimSpace(req.Nickname)
	if !phonePattern.MatchString(phone) || len(req.Password) < 6 || nickname == "" {
		return h.fail(c, domain.ErrInvalidParams)
	}

	ctx := c.Request().Context()
	existing, _, err := h.store.GetUserByPhone(ctx, phone)
	if err != nil {
		return h.fail(c, err)
	}
	if existing != nil {
		return h.fail(c, domain.ErrPhoneAlreadyRegistered)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return h.fail(c, err)
	}

	user := &domain.User{
		ID:       "u_" + uuid.New().String()[:8],
		Phone:    phone,
		Nickname: nickname,
	}
	if err := h.store.CreateUser(ctx, user, hash); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"user": user})
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login verifies credentials and returns the account.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}

	phone := strings.TrimSpace(req.Phone)
	if !phonePattern.MatchString(phone) || len(req.Password) < 6 {
		return h.fail(c, domain.ErrInvalidParams)
	}

	user, hash, err := h.store.GetUserByPhone(c.Request().Context(), phone)
	if err != nil {
		return h.fail(c, err)
	}
	if user == nil || !auth.VerifyPassword(req.Password, hash) {
		return h.fail(c, domain.ErrInvalidCredentials)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"user": user})
}

// currentUser resolves the acting user by id, failing with user_not_found.
func (h *Handler) currentUser(c echo.Context, userID string) (*domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrMissingRequiredFields
	}
	user, err := h.store.GetUser(c.Request().Context(), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
