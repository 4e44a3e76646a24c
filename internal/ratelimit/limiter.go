// Package ratelimit provides a fixed-window request limiter for the
// geo-check and verification submission endpoints.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds
}

// Limiter checks whether a subject may make another request on a route.
type Limiter interface {
	Allow(ctx context.Context, route, subject string) (*Result, error)
}

// RedisLimiter counts requests per subject in fixed windows backed by Redis,
// so limits hold across replicas.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, route, subject string) (*Result, error) {
	windowStart := time.Now().Truncate(l.window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", route, subject, windowStart.Unix())

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit incr: %w", err)
	}

	return l.result(int(count.Val()), windowStart), nil
}

func (l *RedisLimiter) result(count int, windowStart time.Time) *Result {
	resetAt := windowStart.Add(l.window)
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	res := &Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !res.Allowed {
		res.RetryAfter = int(time.Until(resetAt).Seconds()) + 1
	}
	return res
}

// MemoryLimiter is the in-process fallback used when Redis is not configured.
// Limits only hold per replica.
type MemoryLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	starts map[string]time.Time
	limit  int
	window time.Duration
}

func NewMemory(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		counts: make(map[string]int),
		starts: make(map[string]time.Time),
		limit:  limit,
		window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, route, subject string) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := route + ":" + subject
	now := time.Now()
	windowStart := now.Truncate(l.window)

	if start, ok := l.starts[key]; !ok || !start.Equal(windowStart) {
		l.starts[key] = windowStart
		l.counts[key] = 0
	}
	l.counts[key]++
	count := l.counts[key]

	resetAt := windowStart.Add(l.window)
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	res := &Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !res.Allowed {
		res.RetryAfter = int(time.Until(resetAt).Seconds()) + 1
	}
	return res, nil
}
