package semantic

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()
	assert.Equal(t, 64, e.Dimensions())

	a, err := e.Embed(ctx, "커피는 아메리카노")
	require.NoError(t, err)
	require.Len(t, a, 64)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	again, err := e.Embed(ctx, "커피는 아메리카노")
	require.NoError(t, err)
	assert.Equal(t, a, again)

	near, err := e.Embed(ctx, "커피를 아메리카노로")
	require.NoError(t, err)
	far, err := e.Embed(ctx, "고양이 사료")
	require.NoError(t, err)
	assert.Greater(t, cosineSimilarity(a, near), cosineSimilarity(a, far))

	_, err = e.Embed(ctx, "!!! ...")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestHashEmbedderCaseFolds(t *testing.T) {
	e := NewHashEmbedder(0)
	assert.Equal(t, DefaultDimensions, e.Dimensions())

	a, err := e.Embed(context.Background(), "Hello World")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"안녕", "lira", "42"}, words("안녕, lira! 42"))
	assert.Empty(t, words(" ,.!"))
}

func TestCertainty(t *testing.T) {
	assert.Equal(t, 1.0, Certainty(1))
	assert.Equal(t, 0.5, Certainty(0))
	assert.Equal(t, 0.0, Certainty(-1))
}
