package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// rateLimiter caps how often the mutating control endpoints (/start,
// /drain, /abort) can be invoked, the way the teacher's RateLimiter caps
// uploads and API calls with golang.org/x/time/rate: a small token
// bucket is plenty, since these endpoints gate infrequent operator
// actions, not a public API.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5), // burst of 5
	}
}

func (s *Server) rateLimitMiddleware(c *fiber.Ctx) error {
	if !s.limiter.limiter.Allow() {
		return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
	}
	return c.Next()
}
