package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &redisClient{client: client}
}

func TestRecordRequestEnforcesLimit(t *testing.T) {
	rc := newTestClient(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		allowed, err := rc.RecordRequest(ctx, "client-a", now, time.Hour, 3)
		if err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d should have been allowed", i)
		}
	}

	allowed, err := rc.RecordRequest(ctx, "client-a", now, time.Hour, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("request over the limit should have been denied")
	}
}

func TestRecordRequestWindowSlides(t *testing.T) {
	rc := newTestClient(t)
	ctx := context.Background()
	start := time.Now()

	for i := 0; i < 2; i++ {
		if allowed, err := rc.RecordRequest(ctx, "client-b", start, time.Second, 2); err != nil || !allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i, allowed, err)
		}
	}

	if allowed, _ := rc.RecordRequest(ctx, "client-b", start.Add(500*time.Millisecond), time.Second, 2); allowed {
		t.Fatal("saturated window should deny before the oldest instant expires")
	}

	if allowed, err := rc.RecordRequest(ctx, "client-b", start.Add(1100*time.Millisecond), time.Second, 2); err != nil || !allowed {
		t.Fatalf("request after the window slid should be allowed: allowed=%v err=%v", allowed, err)
	}
}

func TestRecordRequestDenialNotCounted(t *testing.T) {
	rc := newTestClient(t)
	ctx := context.Background()
	start := time.Now()

	if allowed, err := rc.RecordRequest(ctx, "client-c", start, time.Second, 1); err != nil || !allowed {
		t.Fatalf("first request: allowed=%v err=%v", allowed, err)
	}

	// denied attempts must not extend the occupied window
	for i := 0; i < 5; i++ {
		if allowed, _ := rc.RecordRequest(ctx, "client-c", start.Add(500*time.Millisecond), time.Second, 1); allowed {
			t.Fatal("request inside a full window should be denied")
		}
	}

	if allowed, err := rc.RecordRequest(ctx, "client-c", start.Add(1100*time.Millisecond), time.Second, 1); err != nil || !allowed {
		t.Fatalf("denials were counted against the window: allowed=%v err=%v", allowed, err)
	}
}

func TestRecordRequestConcurrentSameKey(t *testing.T) {
	rc := newTestClient(t)
	ctx := context.Background()
	now := time.Now()

	const limit = 50
	const attempts = 200

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := rc.RecordRequest(ctx, "client-d", now, time.Hour, limit)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Fatalf("expected exactly %d admissions, got %d", limit, admitted)
	}
}
