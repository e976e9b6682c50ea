package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/server/respond"
)

const userIDKey = "userId"

// Identity resolves the calling user from the X-User-Id header set by the
// auth gateway in front of this service. Authentication itself happens
// upstream; this service only needs a trusted owner identity for scoping.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if raw == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "X-User-Id header is required", nil)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "X-User-Id must be a positive integer", nil)
			return
		}
		c.Set(userIDKey, raw)
		c.Set(userIDIntKey, id)
		c.Next()
	}
}

const userIDIntKey = "userIdInt"

// UserIDFromContext fetches the user ID stored by the Identity middleware.
func UserIDFromContext(c *gin.Context) int64 {
	if c == nil {
		return 0
	}
	val, _ := c.Get(userIDIntKey)
	if id, ok := val.(int64); ok {
		return id
	}
	return 0
}
