package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/visa-cms-backend/internal/auth"
)

// AccountChecker reports whether a user account may still act. Tokens are
// stateless, so a deactivated account keeps a valid JWT until it expires.
type AccountChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin ensures the authenticated user is active and on the admin
// allow-list. It MUST be used after auth.AuthRequired middleware.
func RequireAdmin(svc Service, accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := auth.GetUserEmail(c)
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if accounts != nil {
			active, err := accounts.IsActive(c.Request.Context(), auth.GetUserID(c))
			if err != nil {
				zap.L().Error("account check failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			if !active {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account is inactive"})
				return
			}
		}

		ok, err := svc.IsAdmin(c.Request.Context(), email)
		if err != nil {
			zap.L().Error("admin check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin access required"})
			return
		}

		c.Next()
	}
}
