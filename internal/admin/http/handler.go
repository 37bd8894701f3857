package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/visa-cms-backend/internal/admin"
	"github.com/nekogravitycat/visa-cms-backend/internal/auth"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/response"
)

type Handler struct {
	service admin.Service
}

func NewHandler(service admin.Service) *Handler {
	return &Handler{service: service}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, admin.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, admin.ErrAlreadyAdmin):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, admin.ErrStaticAdmin), errors.Is(err, admin.ErrRemoveSelf):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, admin.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		response.Error(c, err)
	}
}

func (h *Handler) List(c *gin.Context) {
	admins, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]AdminResponse, len(admins))
	for i, a := range admins {
		items[i] = NewAdminResponse(a)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Add(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	a, err := h.service.Add(c.Request.Context(), req.Email, auth.GetUserEmail(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewAdminResponse(a))
}

func (h *Handler) Remove(c *gin.Context) {
	var req ByEmailRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Remove(c.Request.Context(), req.Email, auth.GetUserEmail(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
