package presence

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisAddr() string {
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func setupMirror(t *testing.T, ttl time.Duration) (*RedisMirror, *redis.Client) {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: testRedisAddr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr(), err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisMirror(client, ttl), client
}

func TestMirrorOnlineOffline(t *testing.T) {
	ctx := context.Background()
	m, client := setupMirror(t, time.Minute)
	uid := domain.UserID("test-" + uuid.NewString())
	active := domain.HouseKey("k1")

	require.NoError(t, m.Online(ctx, core.PresenceStatus{UserID: uid, Keys: []domain.HouseKey{"k1", "k2"}, Active: &active, Conns: 2}))

	raw, err := client.Get(ctx, Key(uid)).Bytes()
	require.NoError(t, err)
	var st core.PresenceStatus
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Equal(t, []domain.HouseKey{"k1", "k2"}, st.Keys)
	require.NotNil(t, st.Active)
	assert.Equal(t, active, *st.Active)

	ttl, err := client.TTL(ctx, Key(uid)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, m.Offline(ctx, uid))
	assert.ErrorIs(t, client.Get(ctx, Key(uid)).Err(), redis.Nil)
}

func TestOpenWithoutURL(t *testing.T) {
	_, nop := Open(context.Background(), "", time.Minute).(core.NopPresenceMirror)
	assert.True(t, nop)
}

func TestOpenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, nop := Open(ctx, "redis://127.0.0.1:1/0", time.Minute).(core.NopPresenceMirror)
	assert.True(t, nop)
}
