package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alchemorsel/recipeclient/internal/infrastructure/config"
	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_UnreachableServer(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Host:        "127.0.0.1",
			Port:        1,
			DialTimeout: 200 * time.Millisecond,
			MaxRetries:  -1,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewClient(ctx, cfg)
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

// Set RECIPECLIENT_TEST_REDIS_ADDR to run against a live server.
func TestKVStore_Redis(t *testing.T) {
	addr := os.Getenv("RECIPECLIENT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RECIPECLIENT_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	prefix := "recipeclient-test:" + t.Name() + ":"
	store := NewKVStore(client, prefix, zap.NewNop())
	defer store.Delete(ctx, "demoUsers")

	_, err := store.Get(ctx, "demoUsers")
	assert.ErrorIs(t, err, outbound.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "demoUsers", []byte(`{"alice":{"lastSeen":1}}`)))
	got, err := store.Get(ctx, "demoUsers")
	require.NoError(t, err)
	assert.JSONEq(t, `{"alice":{"lastSeen":1}}`, string(got))

	raw, err := client.Get(ctx, prefix+"demoUsers").Result()
	require.NoError(t, err)
	assert.NotEmpty(t, raw, "value is stored under the prefixed key")

	require.NoError(t, store.Delete(ctx, "demoUsers"))
	_, err = store.Get(ctx, "demoUsers")
	assert.ErrorIs(t, err, outbound.ErrKeyNotFound)
}
