package idempotency

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "shophub:checkout:abc", GenerateKey("shophub", "checkout", "abc"))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store := NewRedis(addr, "shophub-test")
	require.NoError(t, store.Ping(ctx))

	key := uuid.NewString()
	_, found, err := store.Lookup(ctx, "checkout", key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, "checkout", key, []byte(`{"orderId":"o1"}`)))

	got, found, err := store.Lookup(ctx, "checkout", key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"orderId":"o1"}`, string(got))
}
