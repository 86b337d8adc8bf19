package middleware

import (
	"PotholeGolang/pkg/response"
	"crypto/subtle"
	"os"

	"github.com/gofiber/fiber/v2"
)

// apiKeyGate holds the shared secret. An empty secret means open mode:
// every request is authorized.
type apiKeyGate struct {
	configuredKey string
}

func newAPIKeyGate() *apiKeyGate {
	return &apiKeyGate{
		configuredKey: os.Getenv("API_KEY"),
	}
}

func (g *apiKeyGate) authorize(providedKey string) bool {
	if g.configuredKey == "" {
		return true
	}
	if providedKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(providedKey), []byte(g.configuredKey)) == 1
}

// NewAPIKeyMiddleware checks the X-API-Key header, falling back to the
// api_key query parameter. Runs after the rate limiter.
func (m *middleware) NewAPIKeyMiddleware(ctx *fiber.Ctx) error {
	providedKey := ctx.Get("X-API-Key")
	if providedKey == "" {
		providedKey = ctx.Query("api_key")
	}

	if !m.apiKey.authorize(providedKey) {
		m.log.Warnf("invalid or missing API key from IP %s on %s", ctx.IP(), ctx.Path())
		return ctx.Status(fiber.StatusUnauthorized).
			JSON(response.Failure("Invalid or missing API key", "UNAUTHORIZED"))
	}

	return ctx.Next()
}
