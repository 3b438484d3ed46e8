package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware is referenced by SetupRoutes but was never defined in the
// retrieved tree; this adds a permissive browser-client CORS policy in the
// same gin.HandlerFunc shape the teacher's routes.go expects.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
