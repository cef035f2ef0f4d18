// Package namelock provides advisory locks keyed by normalized figure name.
// Holding the lock across the scan and insert of a create closes the window in
// which two requests for the same name could both succeed.
package namelock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonathan/figure-planner/internal/names"
)

// ErrHeld is returned when another holder owns the lock.
var ErrHeld = errors.New("name lock is held by another request")

// DefaultTTL bounds how long a crashed holder can block a name.
const DefaultTTL = 10 * time.Second

// Locker acquires a lock for a figure name. The returned release func is
// always safe to call.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(), err error)
}

// Noop never blocks.
type Noop struct{}

// Acquire implements Locker.
func (Noop) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// unlockScript deletes the key only when it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis implements Locker with SET NX PX.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis locker. A non-positive ttl selects DefaultTTL.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, prefix: "figure-name-lock:", ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedis(client, ttl), nil
}

// Key returns the redis key guarding name.
func (r *Redis) Key(name string) string {
	return r.prefix + names.Normalize(name)
}

// Acquire implements Locker.
func (r *Redis) Acquire(ctx context.Context, name string) (func(), error) {
	key := r.Key(name)
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return func() {}, fmt.Errorf("failed to acquire name lock: %w", err)
	}
	if !ok {
		return func() {}, ErrHeld
	}

	return func() {
		// Released with a fresh context so a canceled request still unlocks.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = unlockScript.Run(ctx, r.client, []string{key}, token).Err()
	}, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
