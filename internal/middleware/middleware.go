package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Middleware bundles the request filters applied in front of the API.
// Order is fixed: the rate limiter runs before the API-key gate, so the
// limiter also counts unauthorized traffic.
type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewAPIKeyMiddleware(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
}

type middleware struct {
	rateLimitter        *rateLimiter
	apiKey              *apiKeyGate
	requestIDMiddleware fiber.Handler
	log                 *logrus.Logger
}

// New wires the default filters. A nil store selects the in-process window
// store; deployments with multiple replicas inject the Redis-backed one.
func New(logger *logrus.Logger, store WindowStore) Middleware {
	if store == nil {
		store = NewMemoryWindowStore()
	}

	return &middleware{
		rateLimitter:        newRateLimiter(store),
		apiKey:              newAPIKeyGate(),
		requestIDMiddleware: NewRequestIDMiddleware(),
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}
