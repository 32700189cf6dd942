package middleware

import (
	"net/http"
	"strings"

	"commercehub-adminpanel/pkg/errutil"
	"commercehub-adminpanel/pkg/security"

	"github.com/gin-gonic/gin"
)

// AdminAuth gates the administrative surface behind a single bearer token,
// verified against its argon2id hash from config. An empty hash disables the
// gate (local development only).
func AdminAuth(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenHash == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    errutil.StatusUnauthorized,
					"message": "missing bearer token",
				},
			})
			return
		}

		if !security.VerifyArgon2(token, tokenHash) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    errutil.StatusUnauthorized,
					"message": "invalid admin token",
				},
			})
			return
		}

		c.Next()
	}
}
