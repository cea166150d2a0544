package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/LusX0117/itemsharing/domain"
	"github.com/LusX0117/itemsharing/policy"
	"github.com/LusX0117/itemsharing/store"
)

// HomePosts lists visible item and demand posts for the home feed.
func (h *Handler) HomePosts(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.store.ListItemPosts(ctx, store.PostFilter{VisibleOnly: true})
	if err != nil {
		return h.fail(c, err)
	}
	demands, err := h.store.ListDemandPosts(ctx, store.PostFilter{VisibleOnly: true})
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":   items,
		"demands": demands,
	})
}

// ManagePosts lists the caller's posts, or every post for admins.
func (h *Handler) ManagePosts(c echo.Context) error {
	user, err := h.currentUser(c, c.QueryParam("userId"))
	if err != nil {
		return h.fail(c, err)
	}

	filter := store.PostFilter{}
	if !user.IsAdmin {
		filter.OwnerUserID = user.ID
	}

	ctx := c.Request().Context()
	items, err := h.store.ListItemPosts(ctx, filter)
	if err != nil {
		return h.fail(c, err)
	}
	demands, err := h.store.ListDemandPosts(ctx, filter)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"isAdmin": user.IsAdmin,
		"items":   items,
		"demands": demands,
	})
}

// CreateItemPostRequest is the body of POST /api/posts/item.
type CreateItemPostRequest struct {
	Title       string  `json:"title" validate:"required"`
	OwnerUserID string  `json:"ownerUserId" validate:"required"`
	OwnerName   string  `json:"ownerName" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Price       float64 `json:"price"`
	Deposit     float64 `json:"deposit"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
}

// CreateItemPost publishes an item listing.
func (h *Handler) CreateItemPost(c echo.Context) error {
	var req CreateItemPostRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	owner, err := h.currentUser(c, req.OwnerUserID)
	if err != nil {
		return h.fail(c, err)
	}

	now := time.Now()
	post := &domain.ItemPost{
		Title:       strings.TrimSpace(req.Title),
		OwnerUserID: owner.ID,
		OwnerName:   req.OwnerName,
		Category:    req.Category,
		Price:       req.Price,
		Deposit:     req.Deposit,
		Location:    strings.TrimSpace(req.Location),
		Description: defaultString(req.Description, "暂无描述"),
		Status:      domain.ItemStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateItemPost(c.Request().Context(), post); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"item": post})
}

// CreateDemandPostRequest is the body of POST /api/posts/demand.
type CreateDemandPostRequest struct {
	Title           string  `json:"title" validate:"required"`
	PublisherUserID string  `json:"publisherUserId" validate:"required"`
	PublisherName   string  `json:"publisherName" validate:"required"`
	Category        string  `json:"category" validate:"required"`
	Budget          float64 `json:"budget"`
	Location        string  `json:"location"`
	Reward          string  `json:"reward"`
	Description     string  `json:"description"`
}

// CreateDemandPost publishes a borrow demand.
func (h *Handler) CreateDemandPost(c echo.Context) error {
	var req CreateDemandPostRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	publisher, err := h.currentUser(c, req.PublisherUserID)
	if err != nil {
		return h.fail(c, err)
	}

	now := time.Now()
	post := &domain.DemandPost{
		ID:              "d_" + uuid.New().String()[:8],
		Title:           strings.TrimSpace(req.Title),
		PublisherUserID: publisher.ID,
		PublisherName:   req.PublisherName,
		Category:        req.Category,
		Budget:          req.Budget,
		Location:        strings.TrimSpace(req.Location),
		Reward:          defaultString(req.Reward, "可协商"),
		Description:     defaultString(req.Description, "暂无补充说明"),
		Status:          domain.DemandStatusOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.store.CreateDemandPost(c.Request().Context(), post); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"demand": post})
}

// PatchPostRequest carries partial updates for either post kind, including
// moderation hide/unhide. Pointer fields distinguish "absent" from zero.
type PatchPostRequest struct {
	ActorUserID  string   `json:"actorUserId" validate:"required"`
	Title        *string  `json:"title"`
	Category     *string  `json:"category"`
	Price        *float64 `json:"price"`
	Deposit      *float64 `json:"deposit"`
	Budget       *float64 `json:"budget"`
	Location     *string  `json:"location"`
	Reward       *string  `json:"reward"`
	Description  *string  `json:"description"`
	Status       *string  `json:"status"`
	IsHidden     *bool    `json:"isHidden"`
	HiddenReason *string  `json:"hiddenReason"`
}

// authorizePostManage runs the moderation policy for the actor over the
// post owner.
func (h *Handler) authorizePostManage(c echo.Context, actorUserID, ownerUserID string) error {
	actor, err := h.currentUser(c, actorUserID)
	if err != nil {
		return err
	}
	allowed, err := h.policy.CanManagePost(c.Request().Context(), policy.ManagePostInput{
		ActorID:      actor.ID,
		ActorIsAdmin: actor.IsAdmin,
		OwnerID:      ownerUserID,
	})
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrForbidden
	}
	return nil
}

// PatchItemPost partially updates an item post.
func (h *Handler) PatchItemPost(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	var req PatchPostRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	ctx := c.Request().Context()
	post, err := h.store.GetItemPost(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	if post == nil {
		return h.fail(c, domain.ErrItemNotFound)
	}
	if err := h.authorizePostManage(c, req.ActorUserID, post.OwnerUserID); err != nil {
		return h.fail(c, err)
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Category != nil {
		post.Category = *req.Category
	}
	if req.Price != nil {
		post.Price = *req.Price
	}
	if req.Deposit != nil {
		post.Deposit = *req.Deposit
	}
	if req.Location != nil {
		post.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		post.Description = defaultString(*req.Description, "暂无描述")
	}
	if req.Status != nil {
		post.Status = *req.Status
	}
	if req.IsHidden != nil {
		post.IsHidden = *req.IsHidden
	}
	if req.HiddenReason != nil {
		post.HiddenReason = strings.TrimSpace(*req.HiddenReason)
	}
	if req.IsHidden != nil && !*req.IsHidden && req.HiddenReason == nil {
		post.HiddenReason = ""
	}
	post.UpdatedAt = time.Now()

	if err := h.store.UpdateItemPost(ctx, post); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"item": post})
}

// PatchDemandPost partially updates a demand post.
func (h *Handler) PatchDemandPost(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	var req PatchPostRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(c, domain.ErrInvalidParams)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, domain.ErrMissingRequiredFields)
	}

	ctx := c.Request().Context()
	post, err := h.store.GetDemandPost(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	if post == nil {
		return h.fail(c, domain.ErrDemandNotFound)
	}
	if err := h.authorizePostManage(c, req.ActorUserID, post.PublisherUserID); err != nil {
		return h.fail(c, err)
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Category != nil {
		post.Category = *req.Category
	}
	if req.Budget != nil {
		post.Budget = *req.Budget
	}
	if req.Location != nil {
		post.Location = strings.TrimSpace(*req.Location)
	}
	if req.Reward != nil {
		post.Reward = defaultString(*req.Reward, "可协商")
	}
	if req.Description != nil {
		post.Description = defaultString(*req.Description, "暂无补充说明")
	}
	if req.Status != nil {
		post.Status = *req.Status
	}
	if req.IsHidden != nil {
		post.IsHidden = *req.IsHidden
	}
	if req.HiddenReason != nil {
		post.HiddenReason = strings.TrimSpace(*req.HiddenReason)
	}
	if req.IsHidden != nil && !*req.IsHidden && req.HiddenReason == nil {
		post.HiddenReason = ""
	}
	post.UpdatedAt = time.Now()

	if err := h.store.UpdateDemandPost(ctx, post); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"demand": post})
}

func defaultString(s, fallback string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return fallback
}
