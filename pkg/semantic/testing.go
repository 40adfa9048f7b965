package semantic

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

// ArchiveTestSuite provides a common test suite for Archive implementations.
type ArchiveTestSuite struct {
	NewArchive func(t *testing.T) Archive
}

// RunAllTests runs every conformance test.
func (s *ArchiveTestSuite) RunAllTests(t *testing.T) {
	t.Run("StoreAndSearch", s.TestStoreAndSearch)
	t.Run("UserScope", s.TestUserScope)
	t.Run("TopK", s.TestTopK)
	t.Run("NeutralFallback", s.TestNeutralFallback)
	t.Run("Delete", s.TestDelete)
	t.Run("CountAndReset", s.TestCountAndReset)
	t.Run("ConcurrentStore", s.TestConcurrentStore)
	t.Run("InvalidInput", s.TestInvalidInput)
}

func (s *ArchiveTestSuite) TestStoreAndSearch(t *testing.T) {
	a := s.NewArchive(t)
	ctx := context.Background()

	rec, err := a.Store(ctx, "u1", "커피는 아메리카노가 좋아", []memory.Emotion{
		{Label: "joy", Score: 0.91234},
		{Label: "surprise", Score: 0.2},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "joy", rec.Label)
	assert.Equal(t, 0.912, rec.Score)
	_, ok := memory.ParseTimestamp(rec.Timestamp)
	assert.True(t, ok)

	_, err = a.Store(ctx, "u1", "오늘 비가 많이 왔다", nil)
	require.NoError(t, err)

	got, err := a.Search(ctx, "커피는 뭐가 좋아", 3, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, "커피는 아메리카노가 좋아", got[0].Text)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, "joy", got[0].Label)
	assert.Len(t, got[0].Emotions, 2)
	assert.Greater(t, got[0].Similarity, 0.5)
	assert.LessOrEqual(t, got[0].Similarity, 1.0)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
}

func (s *ArchiveTestSuite) TestUserScope(t *testing.T) {
	a := s.NewArchive(t)
	ctx := context.Background()

	_, err := a.Store(ctx, "alice", "고양이를 키우고 있어", nil)
	require.NoError(t, err)
	_, err = a.Store(ctx, "bob", "고양이가 무서워", nil)
	require.NoError(t, err)

	got, err := a.Search(ctx, "고양이", 5, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].UserID)

	got, err = a.Search(ctx, "고양이", 5, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = a.Search(ctx, "고양이", 5, "carol")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func (s *ArchiveTestSuite) TestTopK(t *testing.T) {
	a := s.NewArchive(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := a.Store(ctx, "u1", fmt.Sprintf("노래 %d번 듣기", i), nil)
		require.NoError(t, err)
	}

	got, err := a.Search(ctx, "노래 듣기", 2, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = a.Search(ctx, "노래 듣기", 0, "u1")
	require.NoError(t, err)
	assert.Len(t, got, DefaultTopK)

	got, err = a.Search(ctx, "노래 듣기", 50, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func (s *ArchiveTestSuite) TestNeutralFallback(t *testing.T) {
	a := s.NewArchive(t)
	rec, err := a.Store(context.Background(), "u1", "그냥 그래", nil)
	require.NoError(t, err)
	assert.Equal(t, memory.Neutral.Label, rec.Label)
	assert.Equal(t, 0.0, rec.Score)
}

func (s *ArchiveTestSuite) TestDelete(t *testing.T) {
	a := s.NewArchive(t)
	ctx := context.Background()

	rec, err := a.Store(ctx, "u1", "바다 보러 가자", nil)
	require.NoError(t, err)

	err = a.Delete(ctx, "u2", rec.ID)
	assert.True(t, errors.Is(err, memory.ErrNotFound))

	require.NoError(t, a.Delete(ctx, "u1", rec.ID))
	n, err := a.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	err = a.Delete(ctx, "u1", rec.ID)
	assert.True(t, errors.Is(err, memory.ErrNotFound))
}

func (s *ArchiveTestSuite) TestCountAndReset(t *testing.T) {
	a := s.NewArchive(t)
	ctx := context.Background()

	for _, u := range []string{"u1", "u1", "u2"} {
		_, err := a.Store(ctx, u, "산책 가고 싶다", nil)
		require.NoError(t, err)
	}

	n, err := a.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = a.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	removed, err := a.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	n, err = a.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := a.Search(ctx, "산책", 3, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func (s *ArchiveTestSuite) TestConcurrentStore(t *testing.T) {
	a := s.NewArchive(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%4)
			_, err := a.Store(ctx, user, fmt.Sprintf("메모 %d", i), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := a.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func (s *ArchiveTestSuite) TestInvalidInput(t *testing.T) {
	a := s.NewArchive(t)
	ctx := context.Background()

	_, err := a.Store(ctx, "", "텍스트", nil)
	assert.True(t, errors.Is(err, memory.ErrInvalidUserID))

	_, err = a.Store(ctx, "u1", "   ", nil)
	assert.True(t, errors.Is(err, ErrEmptyText))

	got, err := a.Search(ctx, "?!", 3, "u1")
	assert.NoError(t, err)
	assert.Empty(t, got)
}
