package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ViewerHeader carries the caller's public user ID. It is set by the
// upstream gateway after authentication.
const ViewerHeader = "X-User-ID"

// ViewerMiddleware stores the viewer ID under "viewerID" or rejects the request.
func ViewerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := strings.TrimSpace(c.GetHeader(ViewerHeader))
		if viewer == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing " + ViewerHeader + " header",
				"code":  0,
			})
			return
		}
		c.Set("viewerID", viewer)
		c.Next()
	}
}
