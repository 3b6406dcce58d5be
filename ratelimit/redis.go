package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/ytrelay/ytrelay/constant"
	"github.com/ytrelay/ytrelay/log"
	"golang.org/x/time/rate"
)

// storeTimeout bounds each round trip to the store so a slow Redis never stalls a download.
const storeTimeout = 200 * time.Millisecond

// RedisOptions locates the shared store.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient constructs a go-redis client. An empty address yields nil.
func NewRedisClient(opts RedisOptions) *redis.Client {
	if opts.Address == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Ping validates the connection. A nil client is considered healthy.
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Redis counts requests per client in fixed windows stored in Redis.
type Redis struct {
	cfg      Config
	client   *redis.Client
	fallback *Memory
	now      func() time.Time

	// warn limits store outage warnings to one per minute.
	warn *rate.Sometimes
}

// NewRedis returns a shared limiter. Store failures are served by an in-process fallback.
func NewRedis(cfg Config, client *redis.Client) *Redis {
	cfg = cfg.normalize()
	return &Redis{
		cfg:      cfg,
		client:   client,
		fallback: NewMemory(cfg),
		now:      time.Now,
		warn:     &rate.Sometimes{Interval: time.Minute},
	}
}

// windowKey names the counter of the window containing now.
func (r *Redis) windowKey(key string, now time.Time) (string, time.Duration) {
	index, left := windowAt(r.cfg.Window, now)
	return fmt.Sprintf("%s:ratelimit:%s:%d", constant.App, key, index), left
}

// Allow increments key's counter for the current window.
// INCR and EXPIRE travel in one MULTI/EXEC so a counter never outlives its window.
func (r *Redis) Allow(ctx context.Context, key string) Decision {
	if r.client == nil {
		return r.fallback.Allow(ctx, key)
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	name, left := r.windowKey(key, r.now())

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, name)
		// The TTL always points at the window end, so refreshing it on every hit is harmless.
		// The extra second covers clock skew between relay instances.
		pipe.Expire(ctx, name, left+time.Second)
		return nil
	})
	if err != nil {
		r.warn.Do(func() {
			log.Warnf("rate limit store unavailable, using in-process limiter: %s", err)
		})
		return r.fallback.Allow(ctx, key)
	}

	return decide(r.cfg.Max, incr.Val(), left)
}
