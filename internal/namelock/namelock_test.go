package namelock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	release, err := Noop{}.Acquire(context.Background(), "徳川家康")
	require.NoError(t, err)
	release()

	_, err = Noop{}.Acquire(context.Background(), "徳川家康")
	assert.NoError(t, err, "noop never blocks")
}

func TestRedis_KeyUsesNormalizedName(t *testing.T) {
	r := NewRedis(redis.NewClient(&redis.Options{Addr: "localhost:0"}), 0)
	assert.Equal(t, DefaultTTL, r.ttl)
	assert.Equal(t, r.Key("徳川家康"), r.Key("【徳川 家康】"))
	assert.Equal(t, r.Key("Steve Jobs"), r.Key("steve　jobs"))
	assert.NotEqual(t, r.Key("徳川家康"), r.Key("徳川秀忠"))
}

func TestRedis_UnreachableServer(t *testing.T) {
	r := NewRedis(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}), time.Second)

	release, err := r.Acquire(context.Background(), "徳川家康")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHeld)
	release()
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "://nope", time.Second)
	assert.ErrorContains(t, err, "failed to parse redis url")
}
