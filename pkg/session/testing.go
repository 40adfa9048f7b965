package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lira-ai/lira/pkg/memory"
)

// StoreTestSuite provides a common test suite for Store implementations.
type StoreTestSuite struct {
	NewStore func(t *testing.T) Store
}

// RunAllTests runs every conformance test.
func (s *StoreTestSuite) RunAllTests(t *testing.T) {
	t.Run("EmptySession", s.TestEmptySession)
	t.Run("AppendChat", s.TestAppendChat)
	t.Run("AppendRecall", s.TestAppendRecall)
	t.Run("Clear", s.TestClear)
	t.Run("ConcurrentAppends", s.TestConcurrentAppends)
	t.Run("InvalidID", s.TestInvalidID)
}

func (s *StoreTestSuite) TestEmptySession(t *testing.T) {
	st := s.NewStore(t)
	doc, err := st.Get(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Empty(t, doc.ChatHistory)
	assert.NotNil(t, doc.ChatHistory)
	assert.Empty(t, doc.RecalledBuffer)
	assert.NotNil(t, doc.RecalledBuffer)
	_, ok := memory.ParseTimestamp(doc.LastUpdated)
	assert.True(t, ok)
}

func (s *StoreTestSuite) TestAppendChat(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	require.NoError(t, st.AppendChat(ctx, "s1", ChatMessage{Role: RoleUser, Content: "안녕"}))
	require.NoError(t, st.AppendChat(ctx, "s1",
		ChatMessage{Role: RoleAssistant, Content: "안녕하세요"},
		ChatMessage{Role: RoleUser, Content: "잘 지냈어?"},
	))

	doc, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []ChatMessage{
		{Role: RoleUser, Content: "안녕"},
		{Role: RoleAssistant, Content: "안녕하세요"},
		{Role: RoleUser, Content: "잘 지냈어?"},
	}, doc.ChatHistory)
	assert.Empty(t, doc.RecalledBuffer)

	other, err := st.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other.ChatHistory)
}

func (s *StoreTestSuite) TestAppendRecall(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	require.NoError(t, st.AppendRecall(ctx, "s1",
		RecallEntry{Source: "LTM_Recall", Text: "커피는 아메리카노", Timestamp: "2025-01-01T09:00:00Z"},
		RecallEntry{Source: "LTM_Recall", Text: "이름은 민수"},
	))

	doc, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, doc.RecalledBuffer, 2)
	assert.Equal(t, "2025-01-01T09:00:00Z", doc.RecalledBuffer[0].Timestamp)
	assert.Equal(t, "이름은 민수", doc.RecalledBuffer[1].Text)
	_, ok := memory.ParseTimestamp(doc.RecalledBuffer[1].Timestamp)
	assert.True(t, ok, "missing timestamp should be stamped")

	// Returned documents are copies.
	doc.RecalledBuffer[0].Text = "changed"
	again, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "커피는 아메리카노", again.RecalledBuffer[0].Text)
}

func (s *StoreTestSuite) TestClear(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	require.NoError(t, st.AppendChat(ctx, "s1", ChatMessage{Role: RoleUser, Content: "hi"}))
	require.NoError(t, st.Clear(ctx, "s1"))
	require.NoError(t, st.Clear(ctx, "s1"))

	doc, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, doc.ChatHistory)
}

func (s *StoreTestSuite) TestConcurrentAppends(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- st.AppendChat(ctx, "busy", ChatMessage{Role: RoleUser, Content: fmt.Sprintf("msg %d", i)})
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		// Optimistic backends may give up under heavy contention but
		// must say so.
		assert.True(t, errors.Is(err, ErrConflict), "unexpected error: %v", err)
	}

	doc, err := st.Get(ctx, "busy")
	require.NoError(t, err)
	assert.Len(t, doc.ChatHistory, ok)
}

func (s *StoreTestSuite) TestInvalidID(t *testing.T) {
	st := s.NewStore(t)
	ctx := context.Background()

	_, err := st.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
	assert.ErrorIs(t, st.AppendChat(ctx, " ", ChatMessage{Role: RoleUser}), ErrInvalidSessionID)
	assert.ErrorIs(t, st.AppendRecall(ctx, ""), ErrInvalidSessionID)
	assert.ErrorIs(t, st.Clear(ctx, ""), ErrInvalidSessionID)
}
