package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public announcement endpoints.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/announcements")
	{
		group.GET("", h.PublicList)
		group.GET("/main", h.GetMain)
		group.GET("/:slugOrId", h.GetPublic)
	}
}

// RegisterAdminRoutes mounts the CMS endpoints. g must already require an
// authenticated administrator.
func RegisterAdminRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/announcements")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
		group.POST("/:id/toggle-status", h.ToggleStatus)
		group.POST("/:id/main", h.SetMain)
		group.DELETE("/:id/main", h.ClearMain)
	}
}
