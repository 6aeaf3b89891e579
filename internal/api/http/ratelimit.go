package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-mini/internal/config"
	apperrors "github.com/spec-kit/helpdesk-mini/pkg/errorutil"
)

// RateLimiter enforces a fixed-window request quota per client, backed by
// Redis. Redis failures never reject traffic; the limiter fails open.
func RateLimiter(client *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) fiber.Handler {
	window := cfg.Window()

	return func(c *fiber.Ctx) error {
		if !cfg.Enabled || client == nil {
			return c.Next()
		}

		key := limiterKey(c, window)
		count, err := client.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := client.Expire(c.UserContext(), key, window).Err(); err != nil {
				logger.Warn("rate limiter expire failed", zap.Error(err))
			}
		}

		if count > int64(cfg.MaxRequests) {
			return apperrors.NewRateLimited(int(window.Seconds()))
		}
		return c.Next()
	}
}

// limiterKey partitions quota per client IP: the limiter sits on the /api
// group ahead of authentication, so no principal exists yet. The window
// index keeps keys disjoint across consecutive windows even if Expire is
// lost.
func limiterKey(c *fiber.Ctx, window time.Duration) string {
	slot := time.Now().Unix() / int64(window.Seconds())
	return fmt.Sprintf("ratelimit:ip:%s:%d", c.IP(), slot)
}
