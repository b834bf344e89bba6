package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/gstbook/internal/observability/context"
	obslogger "github.com/smallbiznis/gstbook/internal/observability/logger"
	"go.uber.org/zap"
)

// WriteRateLimit throttles document-producing endpoints per actor, falling
// back to the client IP for anonymous callers. Limiter errors fail closed.
func (s *Server) WriteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.writeLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := rateLimitEndpoint(c)
		caller := rateLimitCaller(c)

		res, err := s.writeLimiter.Allow(ctx, endpoint, caller)
		if err != nil {
			obslogger.FromContext(ctx).Warn("write rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			obslogger.FromContext(ctx).Warn("write rate limit exceeded",
				zap.String("endpoint", endpoint),
				zap.String("caller", caller),
			)
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}

func rateLimitCaller(c *gin.Context) string {
	if _, actorID := obscontext.ActorFromContext(c.Request.Context()); actorID != "" {
		return "actor:" + actorID
	}
	return "ip:" + c.ClientIP()
}

func rateLimitEndpoint(c *gin.Context) string {
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = "unknown"
	}
	return c.Request.Method + " " + endpoint
}
