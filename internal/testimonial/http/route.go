package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/testimonials")
	{
		group.GET("", h.ListPublished)
		group.POST("", h.Submit)
	}
}

func RegisterAdminRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/testimonials")
	{
		group.GET("", h.List)
		group.PATCH("/:id/status", h.UpdateStatus)
		group.DELETE("/:id", h.Delete)
	}
}
