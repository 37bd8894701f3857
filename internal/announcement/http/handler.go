package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/cdn"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/request"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/response"
)

type Handler struct {
	service  announcement.Service
	resolver *cdn.Resolver
	now      func() time.Time
}

func NewHandler(service announcement.Service, resolver *cdn.Resolver) *Handler {
	return &Handler{service: service, resolver: resolver, now: time.Now}
}

func (h *Handler) respond(c *gin.Context, code int, a *announcement.Announcement) {
	c.JSON(code, NewResponse(a, h.resolver, h.now()))
}

func (h *Handler) page(c *gin.Context, list []*announcement.Announcement, params request.ListParams, total int) {
	now := h.now()
	items := make([]AnnouncementResponse, len(list))
	for i, a := range list {
		items[i] = NewResponse(a, h.resolver, now)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}

// writeError maps service errors to responses; failed names the operation
// for the generic 500 message.
func writeError(c *gin.Context, err error, failed string) {
	switch {
	case errors.Is(err, announcement.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "announcement not found"})
	case errors.Is(err, announcement.ErrNoMain):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, announcement.ErrTitleRequired),
		errors.Is(err, announcement.ErrContentRequired),
		errors.Is(err, announcement.ErrInvalidStatus),
		errors.Is(err, announcement.ErrInvalidSlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, announcement.ErrSlugTaken),
		errors.Is(err, announcement.ErrNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		response.Error(c, errors.Join(errors.New(failed), err))
	}
}

// === Public ===

// PublicList lists active announcements, optionally narrowed to the ones
// already visible or still scheduled.
func (h *Handler) PublicList(c *gin.Context) {
	var req PublicListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filter := announcement.Filter{
		Keyword:    req.Keyword,
		Status:     announcement.StatusActive,
		Visibility: announcement.Visibility(req.Filter),
		Now:        h.now(),
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortOrder:  req.SortOrder,
	}

	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "failed to list announcements")
		return
	}
	h.page(c, list, req.ListParams, total)
}

func (h *Handler) GetMain(c *gin.Context) {
	a, err := h.service.GetMain(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to get main announcement")
		return
	}
	h.respond(c, http.StatusOK, a)
}

// GetPublic serves an announcement by slug. Requests by id for a record that
// has a slug are redirected to the canonical slug URL.
func (h *Handler) GetPublic(c *gin.Context) {
	var req SlugOrIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	a, err := h.service.ResolveSlugOrID(c.Request.Context(), req.Key)
	if err != nil {
		writeError(c, err, "failed to get announcement")
		return
	}
	if !announcement.IsPublished(a, h.now()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "announcement not found"})
		return
	}

	if a.Slug != "" && req.Key != a.Slug {
		if _, err := uuid.Parse(req.Key); err == nil {
			c.Redirect(http.StatusMovedPermanently, "/v1/announcements/"+a.Slug)
			return
		}
	}

	h.respond(c, http.StatusOK, a)
}

// === Admin ===

func (h *Handler) List(c *gin.Context) {
	var req AdminListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filter := announcement.Filter{
		Keyword:    req.Keyword,
		Status:     announcement.Status(req.Status),
		Visibility: announcement.Visibility(req.Visibility),
		Now:        h.now(),
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortOrder:  req.SortOrder,
	}

	list, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "failed to list announcements")
		return
	}
	h.page(c, list, req.ListParams, total)
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		writeError(c, err, "failed to get announcement")
		return
	}
	h.respond(c, http.StatusOK, a)
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	a, err := h.service.Create(c.Request.Context(), body.toService())
	if err != nil {
		writeError(c, err, "failed to create announcement")
		return
	}
	h.respond(c, http.StatusCreated, a)
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	a, err := h.service.Update(c.Request.Context(), uri.ID, body.toService())
	if err != nil {
		writeError(c, err, "failed to update announcement")
		return
	}
	h.respond(c, http.StatusOK, a)
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		writeError(c, err, "failed to delete announcement")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleStatus(c *gin.Context) {
	h.transition(c, h.service.ToggleStatus, "failed to toggle announcement status")
}

func (h *Handler) SetMain(c *gin.Context) {
	h.transition(c, h.service.SetMain, "failed to set main announcement")
}

func (h *Handler) ClearMain(c *gin.Context) {
	h.transition(c, h.service.ClearMain, "failed to clear main announcement")
}

func (h *Handler) transition(c *gin.Context, action func(ctx context.Context, id string) (*announcement.Announcement, error), failed string) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	a, err := action(c.Request.Context(), req.ID)
	if err != nil {
		writeError(c, err, failed)
		return
	}
	h.respond(c, http.StatusOK, a)
}
