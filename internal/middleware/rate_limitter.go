package middleware

import (
	"PotholeGolang/pkg/response"
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultRateLimit  = 100
	defaultRateWindow = 3600 * time.Second
)

// WindowStore records one request instant per call and reports whether the
// client is still inside its budget for the trailing window. Implementations
// must prune expired instants on each check and never double-count
// concurrent calls for the same key.
type WindowStore interface {
	RecordRequest(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error)
}

type memoryWindowStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewMemoryWindowStore() WindowStore {
	return &memoryWindowStore{
		windows: make(map[string][]time.Time),
	}
}

func (s *memoryWindowStore) RecordRequest(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	kept := s.windows[key][:0]
	for _, instant := range s.windows[key] {
		if instant.After(cutoff) {
			kept = append(kept, instant)
		}
	}

	if len(kept) >= limit {
		s.windows[key] = kept
		return false, nil
	}

	s.windows[key] = append(kept, now)
	return true, nil
}

type rateLimiter struct {
	store  WindowStore
	limit  int
	window time.Duration
	now    func() time.Time
}

func newRateLimiter(store WindowStore) *rateLimiter {
	limit := defaultRateLimit
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_REQUESTS")); err == nil && v > 0 {
		limit = v
	}

	window := defaultRateWindow
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_WINDOW")); err == nil && v > 0 {
		window = time.Duration(v) * time.Second
	}

	return &rateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	clientIP := ctx.IP()

	allowed, err := m.rateLimitter.store.RecordRequest(
		ctx.UserContext(), clientIP, m.rateLimitter.now(), m.rateLimitter.window, m.rateLimitter.limit)
	if err != nil {
		// an unreachable window store must not take the API down with it
		m.log.Errorf("rate limit store failed for IP %s: %v", clientIP, err)
		return ctx.Next()
	}

	if !allowed {
		m.log.Warnf("too many requests for IP %s", clientIP)
		return ctx.Status(fiber.StatusTooManyRequests).
			JSON(response.Failure("Rate limit exceeded. Please try again later.", "RATE_LIMIT_EXCEEDED"))
	}

	return ctx.Next()
}
