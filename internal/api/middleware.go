package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"course-service/internal/auth"
	"course-service/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// requireAuth rejects requests without a valid bearer token
func requireAuth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "missing or invalid session",
			})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// optionalAuth attaches identity when a valid token is present but
// lets anonymous requests through
func optionalAuth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, tokens); ok {
			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, claims.Role)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, tokens *auth.Manager) (*auth.Claims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

// currentUser returns the authenticated user ID, 0 when anonymous
func currentUser(c *gin.Context) int64 {
	if v, ok := c.Get(ctxUserID); ok {
		return v.(int64)
	}
	return 0
}

func currentRole(c *gin.Context) string {
	if v, ok := c.Get(ctxRole); ok {
		return v.(string)
	}
	return ""
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
