package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	suite := &StoreTestSuite{
		NewStore: func(t *testing.T) Store {
			st := NewMemoryStore(DefaultConfig())
			t.Cleanup(func() { _ = st.Close() })
			return st
		},
	}
	suite.RunAllTests(t)
}

func TestMemoryStoreTTL(t *testing.T) {
	st := NewMemoryStore(Config{TTL: time.Hour})
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, st.AppendChat(ctx, "s1", ChatMessage{Role: RoleUser, Content: "hi"}))

	now = now.Add(59 * time.Minute)
	doc, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, doc.ChatHistory, 1)
	assert.Equal(t, "2025-01-01T09:00:00Z", doc.LastUpdated)

	// A write refreshes the TTL.
	require.NoError(t, st.AppendRecall(ctx, "s1", RecallEntry{Source: "LTM_Recall", Text: "x"}))
	now = now.Add(59 * time.Minute)
	doc, err = st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, doc.ChatHistory, 1)
	assert.Equal(t, "2025-01-01T09:59:00Z", doc.RecalledBuffer[0].Timestamp)

	now = now.Add(time.Hour)
	doc, err = st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, doc.ChatHistory)
	assert.Empty(t, doc.RecalledBuffer)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultTTL, cfg.TTL)
	assert.Equal(t, DefaultKeyPrefix, cfg.KeyPrefix)
	assert.Equal(t, 5, cfg.MaxRetries)
}

func TestDecode(t *testing.T) {
	doc, err := decode([]byte(`{"chat_history":[{"role":"user","content":"hi"}],"last_updated":"2025-01-01T00:00:00+00:00"}`))
	require.NoError(t, err)
	assert.Len(t, doc.ChatHistory, 1)
	assert.NotNil(t, doc.RecalledBuffer)

	_, err = decode([]byte("{not json"))
	assert.ErrorIs(t, err, ErrCorrupt)
}
