package semantic

import (
	"context"
	"hash/fnv"
	"math"
	"unicode"

	"github.com/lira-ai/lira/pkg/memory"
)

// DefaultDimensions is the vector size of HashEmbedder.
const DefaultDimensions = 384

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// HashEmbedder is a deterministic feature-hashing embedder. Each word and
// each rune bigram inside a word is hashed with FNV-1a into one signed
// bucket, and the result is L2-normalized. Texts sharing stems, such as
// 커피는 and 커피를, end up close together.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns an embedder producing dims-sized vectors.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Dimensions implements Embedder.
func (h *HashEmbedder) Dimensions() int { return h.dims }

// Embed implements Embedder. Text without letters or digits yields
// ErrEmptyText.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)
	features := 0
	for _, word := range words(memory.Fold(text)) {
		h.add(vec, word, 1.0)
		features++
		runes := []rune(word)
		for i := 0; i+1 < len(runes); i++ {
			h.add(vec, string(runes[i:i+2]), 0.5)
			features++
		}
	}
	if features == 0 {
		return nil, ErrEmptyText
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return nil, ErrEmptyText
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	bucket := int(sum % uint64(h.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func words(text string) []string {
	var out []string
	start := -1
	for i, r := range text {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			out = append(out, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, text[start:])
	}
	return out
}
