package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers login and the authenticated profile route.
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMiddleware gin.HandlerFunc) {
	authGroup := g.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", authMiddleware, h.Me)
	}
}

// RegisterAdminRoutes registers account management on an admin group.
func RegisterAdminRoutes(g *gin.RouterGroup, h *UserHandler) {
	users := g.Group("/users")
	{
		users.GET("", h.List)
		users.POST("", h.Register)
		users.DELETE("/:id", h.Deactivate)
	}
}
