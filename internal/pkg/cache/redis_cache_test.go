package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *redis.Client) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 14})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return NewRedisCache(client), client
}

func TestRedisCache_HashRoundTrip(t *testing.T) {
	c, client := newTestCache(t)
	ctx := context.Background()
	key := GenerateFileMetadataKey(7)

	_, err := c.HGetAll(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.HSetWithTTL(ctx, key, map[string]any{"filename": "a.txt", "size": "3"}, time.Minute))
	got, err := c.HGetAll(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"filename": "a.txt", "size": "3"}, got)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, c.Del(ctx, key))
	_, err = c.HGetAll(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_IncrCountsWithinWindow(t *testing.T) {
	c, client := newTestCache(t)
	ctx := context.Background()
	key := GenerateVerifyAttemptKey("abc", "10.0.0.1", 42)

	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, key, 2*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Minute)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "file:metadata:12", GenerateFileMetadataKey(12))
	assert.Equal(t, "share:verify:s1:1.2.3.4:99", GenerateVerifyAttemptKey("s1", "1.2.3.4", 99))
}
