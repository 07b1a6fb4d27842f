// Package rate implementa limitadores fixed-window (Redis o memoria).
package rate

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func windowKey(prefix, key string, winStart time.Time) string {
	return fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())
}

func result(hits, max int64, retry time.Duration) Result {
	res := Result{Allowed: hits <= max, CurrentHits: hits, Remaining: max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = retry
	}
	return res
}

// RedisLimiter: fixed window sencillo (INCR + EXPIRE), compartido entre réplicas.
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{Client: client, Prefix: prefix, Max: int64(max), Window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	redisKey := windowKey(l.Prefix, key, now.Truncate(l.Window))

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	// set expiry on first hit
	if incr.Val() == 1 {
		_ = l.Client.Expire(ctx, redisKey, l.Window).Err()
		ttl = l.Client.TTL(ctx, redisKey)
	}

	retry := ttl.Val()
	if retry < 0 {
		retry = time.Duration(math.Ceil(l.Window.Seconds())) * time.Second
	}
	return result(incr.Val(), l.Max, retry), nil
}

// MemoryLimiter es el equivalente in-process sobre go-cache. Solo sirve con
// una réplica: cada proceso cuenta por separado.
type MemoryLimiter struct {
	Prefix string
	Max    int64
	Window time.Duration

	c   *gocache.Cache
	now func() time.Time
}

func NewMemoryLimiter(prefix string, max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
		c:      gocache.New(window, window),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := windowKey(l.Prefix, key, winStart)

	var hits int64 = 1
	if err := l.c.Add(k, int64(1), l.Window); err != nil {
		n, incErr := l.c.IncrementInt64(k, 1)
		if incErr != nil {
			// expiró entre Add e Increment: nueva ventana
			l.c.Set(k, int64(1), l.Window)
			n = 1
		}
		hits = n
	}
	return result(hits, l.Max, winStart.Add(l.Window).Sub(now)), nil
}

// Noop deja pasar todo (rate limiting deshabilitado).
type Noop struct{}

func (Noop) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true, Remaining: math.MaxInt64}, nil
}
