package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yigit/examadmin/internal/app/models/dto"
	"github.com/yigit/examadmin/internal/pkg/cache"
	"github.com/yigit/examadmin/internal/pkg/logger"
)

// RateLimitConfig configures RateLimit
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Prefix   string
}

// RateLimit allows Requests hits per client IP and route inside Window.
// With a nil client the limiter is disabled; redis failures let the request through.
func RateLimit(client *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || cfg.Requests <= 0 {
			c.Next()
			return
		}

		key := cfg.Prefix + ":" + c.FullPath() + ":" + c.ClientIP()
		allowed, remaining, reset, err := cache.Allow(c.Request.Context(), client, key, cfg.Requests, cfg.Window)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(reset.Round(time.Second)/time.Second)))
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeTooManyRequests, "Too many requests").
				WithDetails("Please retry later")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}
