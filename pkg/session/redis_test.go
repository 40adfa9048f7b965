package session

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("LIRA_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis is not available at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func uniqueKeyPrefix(prefix string) string {
	return fmt.Sprintf("lira:test:%s:%d:", prefix, time.Now().UnixNano())
}

func TestRedisStore(t *testing.T) {
	client := requireRedisClient(t)
	suite := &StoreTestSuite{
		NewStore: func(t *testing.T) Store {
			cfg := DefaultConfig()
			cfg.KeyPrefix = uniqueKeyPrefix("session")
			cfg.MaxRetries = 50
			st, err := NewRedisStore(client, cfg)
			require.NoError(t, err)
			return st
		},
	}
	suite.RunAllTests(t)
}

func TestRedisStoreTTLAndLayout(t *testing.T) {
	client := requireRedisClient(t)
	ctx := context.Background()

	cfg := Config{TTL: time.Minute, KeyPrefix: uniqueKeyPrefix("layout")}
	st, err := NewRedisStore(client, cfg)
	require.NoError(t, err)

	require.NoError(t, st.AppendChat(ctx, "s1", ChatMessage{Role: RoleUser, Content: "hi"}))

	key := cfg.KeyPrefix + "s1"
	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)

	raw, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Contains(t, raw, `"chat_history":[{"role":"user","content":"hi"}]`)
	assert.Contains(t, raw, `"recalled_ltm_buffer":[]`)
	assert.Contains(t, raw, `"last_updated"`)

	t.Cleanup(func() { client.Del(context.Background(), key) })
}

func TestRedisStoreReplacesCorruptDocument(t *testing.T) {
	client := requireRedisClient(t)
	ctx := context.Background()

	cfg := Config{KeyPrefix: uniqueKeyPrefix("corrupt")}
	st, err := NewRedisStore(client, cfg)
	require.NoError(t, err)

	key := cfg.KeyPrefix + "s1"
	require.NoError(t, client.Set(ctx, key, "{oops", time.Minute).Err())
	t.Cleanup(func() { client.Del(context.Background(), key) })

	_, err = st.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, st.AppendChat(ctx, "s1", ChatMessage{Role: RoleUser, Content: "hi"}))
	doc, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, doc.ChatHistory, 1)
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	_, err := NewRedisStore(nil, DefaultConfig())
	assert.Error(t, err)
}
