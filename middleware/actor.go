package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ActorLocalsKey is where the actor id is stored on the fiber context
const ActorLocalsKey = "actor_id"

// DefaultActor is used when a request names no actor
const DefaultActor = "local"

// ActorHeader identifies the device or profile a request acts for. It is not
// authentication: anyone may send any value.
const ActorHeader = "X-Actor-ID"

// maxActorLen bounds actor ids kept as map keys
const maxActorLen = 64

// ActorContextMiddleware attaches the request's actor id from ActorHeader.
func ActorContextMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := normalizeActor(c.Get(ActorHeader))
		c.Locals(ActorLocalsKey, actor)
		logger.Debug("👤 actor", zap.String("actor", actor), zap.String("path", c.Path()))
		return c.Next()
	}
}

// StreamActorMiddleware is ActorContextMiddleware for EventSource clients,
// which cannot set headers: the actor comes from the `actor` query parameter.
func StreamActorMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("actor")
		if raw == "" {
			raw = c.Get(ActorHeader)
		}
		actor := normalizeActor(raw)
		c.Locals(ActorLocalsKey, actor)
		logger.Debug("👤 stream actor", zap.String("actor", actor), zap.String("path", c.Path()))
		return c.Next()
	}
}

// Actor reads the id set by the actor middlewares.
func Actor(c *fiber.Ctx) string {
	if actor, ok := c.Locals(ActorLocalsKey).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}

func normalizeActor(raw string) string {
	actor := strings.TrimSpace(raw)
	if actor == "" {
		return DefaultActor
	}
	if len(actor) <= maxActorLen {
		return actor
	}
	cut := maxActorLen
	for cut > 0 && !utf8.RuneStart(actor[cut]) {
		cut--
	}
	return actor[:cut]
}
