package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AdX213/erli-sync/internal/interfaces/http/dto"
)

// CronTokenAuth guards the sync-triggering endpoints. The caller must present
// the configured token either as a bearer token or as a ?token= parameter,
// matching how store cron schedulers typically invoke webhook URLs.
// An empty configured token disables the guard; config validation forbids
// that in production.
func CronTokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		presented := extractToken(c)
		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized,
				"invalid or missing cron token",
			))
			return
		}

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}
