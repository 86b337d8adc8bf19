package redis

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// IRedis is the shared rate-window store used when the service runs with
// more than one replica: a sorted set per client key holds the request
// instants inside the trailing window.
type IRedis interface {
	RecordRequest(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error)
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

// recordScript prunes expired instants, checks the count against the limit
// and records the new instant in one atomic server-side step. KEYS[1] is the
// window key; ARGV is cutoff, limit, score, member, ttl in milliseconds.
var recordScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RecordRequest prunes instants older than the window, denies when the
// remaining count has reached the limit, and records the new instant
// otherwise. The whole check-and-record runs as a single script so
// concurrent requests for the same key never double-count.
func (r *redisClient) RecordRequest(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	redisKey := "ratelimit:" + key
	cutoff := now.Add(-window).UnixNano()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	allowed, err := recordScript.Run(ctx, r.client, []string{redisKey},
		cutoff, limit, now.UnixNano(), member, window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate window record: %w", err)
	}

	return allowed == 1, nil
}
