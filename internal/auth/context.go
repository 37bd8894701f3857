package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
)

// SetIdentity stores the verified identity for later handlers.
func SetIdentity(c *gin.Context, userID, email string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxUserEmail, email)
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}
