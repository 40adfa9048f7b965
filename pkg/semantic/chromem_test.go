package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromemArchive(t *testing.T) {
	suite := &ArchiveTestSuite{
		NewArchive: func(t *testing.T) Archive {
			a, err := NewChromemArchive(ChromemConfig{}, NewHashEmbedder(DefaultDimensions))
			require.NoError(t, err)
			t.Cleanup(func() { _ = a.Close() })
			return a
		},
	}
	suite.RunAllTests(t)
}

func TestChromemArchivePersistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := NewChromemArchive(ChromemConfig{Path: dir}, NewHashEmbedder(DefaultDimensions))
	require.NoError(t, err)
	rec, err := a.Store(ctx, "u1", "제주도 여행 가고 싶어", nil)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := NewChromemArchive(ChromemConfig{Path: dir}, NewHashEmbedder(DefaultDimensions))
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Search(ctx, "제주도 여행", 1, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, rec.Timestamp, got[0].Timestamp)
}

func TestNewChromemArchiveRequiresEmbedder(t *testing.T) {
	_, err := NewChromemArchive(ChromemConfig{}, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
