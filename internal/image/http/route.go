package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public image delivery routes
func RegisterRoutes(r gin.IRouter, handler *Handler) {
	group := r.Group("/images")

	group.GET("/:id", handler.ServeFile)
	group.GET("/:id/thumbnail", handler.ServeThumbnail)
}

// RegisterAdminRoutes registers the image library routes
func RegisterAdminRoutes(r gin.IRouter, handler *Handler) {
	group := r.Group("/images")

	group.GET("", handler.List)
	group.GET("/pending-deletion", handler.PendingDeletion)
	group.GET("/:id", handler.Get)
	group.POST("", handler.Upload)
	group.POST("/register", handler.Register)
	group.DELETE("/:id", handler.Delete)
}
