// Package ratelimit throttles mutating API calls per client using Redis.
// When disabled it degrades to a noop so the service runs without Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Service limits how many mutations a client may issue per window.
type Service interface {
	// Allow reports whether the client identified by key may proceed.
	Allow(ctx context.Context, key string) (bool, error)
}

// Config configures the Redis-backed limiter.
type Config struct {
	Enabled  bool
	RedisURL string
	Requests int
	Window   time.Duration
}

type redisService struct {
	client   *redis.Client
	requests int
	window   time.Duration
	logger   *logrus.Logger
}

// NewService connects to Redis and returns the limiter, or a noop when
// disabled.
func NewService(cfg Config, logger *logrus.Logger) (Service, error) {
	if !cfg.Enabled {
		logger.Info("rate limiting disabled")
		return &noopService{}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"requests": cfg.Requests,
		"window":   cfg.Window,
	}).Info("rate limiting enabled")

	return &redisService{
		client:   client,
		requests: cfg.Requests,
		window:   cfg.Window,
		logger:   logger,
	}, nil
}

// Allow increments the client's counter and checks it against the limit.
func (s *redisService) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "ratelimit:" + key

	pipeline := s.client.Pipeline()
	incr := pipeline.Incr(ctx, redisKey)
	pipeline.Expire(ctx, redisKey, s.window)
	if _, err := pipeline.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	count := incr.Val()
	if count > int64(s.requests) {
		s.logger.WithFields(logrus.Fields{
			"key":   key,
			"count": count,
		}).Warn("rate limit exceeded")
		return false, nil
	}
	return true, nil
}

type noopService struct{}

func (*noopService) Allow(context.Context, string) (bool, error) { return true, nil }
