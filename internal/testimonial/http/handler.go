package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/request"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/response"
	"github.com/nekogravitycat/visa-cms-backend/internal/testimonial"
)

type Handler struct {
	service testimonial.Service
}

func NewHandler(service testimonial.Service) *Handler {
	return &Handler{service: service}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, testimonial.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "testimonial not found"})
	case errors.Is(err, testimonial.ErrNameRequired),
		errors.Is(err, testimonial.ErrDescriptionRequired),
		errors.Is(err, testimonial.ErrInvalidEmail),
		errors.Is(err, testimonial.ErrInvalidRating),
		errors.Is(err, testimonial.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		response.Error(c, err)
	}
}

// ListPublished is the public list of published testimonials.
func (h *Handler) ListPublished(c *gin.Context) {
	var req request.ListParams
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	list, total, err := h.service.ListPublished(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]PublicTestimonialResponse, len(list))
	for i, t := range list {
		items[i] = NewPublicResponse(t)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Submit(c *gin.Context) {
	var body SubmitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	t, err := h.service.Submit(c.Request.Context(), testimonial.SubmitRequest{
		Name:        body.Name,
		Email:       body.Email,
		Description: body.Description,
		Rating:      body.Rating,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": t.ID, "status": t.Status})
}

func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	list, total, err := h.service.List(c.Request.Context(), testimonial.Filter{
		Status:    testimonial.Status(req.Status),
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]TestimonialResponse, len(list))
	for i, t := range list {
		items[i] = NewResponse(t)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	t, err := h.service.SetStatus(c.Request.Context(), uri.ID, testimonial.Status(body.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(t))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
