package http

import "github.com/gin-gonic/gin"

// RegisterAdminRoutes mounts allow-list management on an admin group.
func RegisterAdminRoutes(g *gin.RouterGroup, h *Handler) {
	admins := g.Group("/admins")
	{
		admins.GET("", h.List)
		admins.POST("", h.Add)
		admins.DELETE("/:email", h.Remove)
	}
}
