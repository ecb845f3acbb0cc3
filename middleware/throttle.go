package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Throttle is a per-client token bucket in front of every route
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	logger   *zap.Logger
}

func NewThrottle(requestsPerSecond float64, burst int, logger *zap.Logger) *Throttle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		logger:   logger,
	}
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[key]
	if !ok {
		l = rate.NewLimiter(t.rate, t.burst)
		t.limiters[key] = l
	}
	return l
}

// Handler rejects requests over the limit with 429.
func (t *Throttle) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if !t.limiter(key).Allow() {
			t.logger.Warn("🚫 request throttled",
				zap.String("ip", key),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			)
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests",
			})
		}
		return c.Next()
	}
}

// Prune drops every bucket once the table grows past limit and reports how many
// went. A dropped client only loses its burst history.
func (t *Throttle) Prune(limit int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.limiters)
	if n <= limit {
		return 0
	}
	t.limiters = make(map[string]*rate.Limiter)
	return n
}
