package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockLost is logged when a lock expired before its holder released it.
var ErrLockLost = errors.New("lock expired before release")

// Redis is a Locker shared by every process using the same Redis server.
// Keys expire after ttl so a crashed holder cannot block writers forever.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	onLost func(key string, err error)
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient creates a locker from an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		client: client,
		prefix: "lock:",
		ttl:    ttl,
		retry:  20 * time.Millisecond,
		onLost: func(string, error) {},
	}
}

// OnLost registers a callback for releases that found the lock gone.
func (r *Redis) OnLost(fn func(key string, err error)) {
	r.onLost = fn
}

// Acquire polls SET NX until it wins or ctx is done.
func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %q: %w", key, err)
		}
		if ok {
			break
		}
		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("acquire lock %q: %w", key, ctx.Err())
		case <-t.C:
		}
	}

	return func() {
		// The caller's context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, r.client, []string{k}, token).Int()
		if err != nil {
			r.onLost(key, fmt.Errorf("release lock: %w", err))
			return
		}
		if n == 0 {
			r.onLost(key, ErrLockLost)
		}
	}, nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
