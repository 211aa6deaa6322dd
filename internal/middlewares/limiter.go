package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/khanghh/klms/internal/store"
)

// RateLimiter limits requests per client IP, keeping its counters in the shared storage.
func RateLimiter(storage store.Storage, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Storage:    storage,
		KeyGenerator: func(ctx *fiber.Ctx) string {
			return ctx.Path() + "|" + ctx.IP()
		},
		LimitReached: func(ctx *fiber.Ctx) error {
			return JSONError(ctx, fiber.StatusTooManyRequests, "Too many requests, please try again later", "")
		},
	})
}
