package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/lira-ai/lira/pkg/memory"
)

// VectorIndex provides nearest neighbor search using a brute-force scan with
// cosine similarity.
type VectorIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string][]float32 // recordID -> vector
	owners    map[string]string    // recordID -> userID
}

// NewVectorIndex creates a new vector index with the given dimension.
func NewVectorIndex(dimension int) *VectorIndex {
	return &VectorIndex{
		dimension: dimension,
		vectors:   make(map[string][]float32),
		owners:    make(map[string]string),
	}
}

// AddVector adds or replaces a vector.
func (v *VectorIndex) AddVector(id, userID string, vector []float32) error {
	if len(vector) != v.dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, v.dimension, len(vector))
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vectors[id] = vector
	v.owners[id] = userID
	return nil
}

// DeleteVector removes a vector and reports whether it existed.
func (v *VectorIndex) DeleteVector(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.vectors[id]
	delete(v.vectors, id)
	delete(v.owners, id)
	return ok
}

// Owner returns the user a vector belongs to.
func (v *VectorIndex) Owner(id string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	owner, ok := v.owners[id]
	return owner, ok
}

// Search finds the top-K most similar vectors to the query.
// If userID is non-empty, results are filtered to that user.
func (v *VectorIndex) Search(query []float32, topK int, userID string) ([]string, []float64, error) {
	if len(query) != v.dimension {
		return nil, nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, v.dimension, len(query))
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	type scored struct {
		id    string
		score float64
	}

	var results []scored
	for id, vec := range v.vectors {
		if userID != "" && v.owners[id] != userID {
			continue
		}
		results = append(results, scored{id: id, score: cosineSimilarity(query, vec)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].id < results[j].id
	})

	if topK > len(results) {
		topK = len(results)
	}
	results = results[:topK]

	ids := make([]string, len(results))
	scores := make([]float64, len(results))
	for i, r := range results {
		ids[i] = r.id
		scores[i] = r.score
	}
	return ids, scores, nil
}

// Len returns the number of vectors of userID, or of all users when empty.
func (v *VectorIndex) Len(userID string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if userID == "" {
		return len(v.vectors)
	}
	n := 0
	for _, owner := range v.owners {
		if owner == userID {
			n++
		}
	}
	return n
}

// Clear removes every vector and returns how many there were.
func (v *VectorIndex) Clear() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.vectors)
	v.vectors = make(map[string][]float32)
	v.owners = make(map[string]string)
	return n
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a []float32, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dotProduct / denom
}

// MemoryArchive is an Archive over a VectorIndex. Records live in process
// memory only.
type MemoryArchive struct {
	embedder Embedder
	index    *VectorIndex
	now      func() time.Time

	mu      sync.RWMutex
	records map[string]memory.Record
}

// NewMemoryArchive creates an in-memory semantic archive.
func NewMemoryArchive(embedder Embedder) (*MemoryArchive, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &MemoryArchive{
		embedder: embedder,
		index:    NewVectorIndex(embedder.Dimensions()),
		now:      time.Now,
		records:  make(map[string]memory.Record),
	}, nil
}

// Store implements Archive.
func (m *MemoryArchive) Store(ctx context.Context, userID, text string, emotions []memory.Emotion) (memory.Record, error) {
	rec, err := newRecord(userID, text, emotions, m.now())
	if err != nil {
		return memory.Record{}, err
	}
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return memory.Record{}, fmt.Errorf("semantic: embed: %w", err)
	}
	if err := m.index.AddVector(rec.ID, userID, vec); err != nil {
		return memory.Record{}, err
	}

	m.mu.Lock()
	m.records[rec.ID] = rec.Clone()
	m.mu.Unlock()
	return rec, nil
}

// Search implements Archive.
func (m *MemoryArchive) Search(ctx context.Context, text string, topK int, userID string) ([]memory.Record, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, ErrEmptyText) {
			return nil, nil
		}
		return nil, fmt.Errorf("semantic: embed: %w", err)
	}
	ids, scores, err := m.index.Search(vec, topK, userID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]memory.Record, 0, len(ids))
	for i, id := range ids {
		rec, ok := m.records[id]
		if !ok {
			continue
		}
		rec = rec.Clone()
		rec.Similarity = Certainty(scores[i])
		out = append(out, rec)
	}
	return out, nil
}

// Delete implements Archive.
func (m *MemoryArchive) Delete(ctx context.Context, userID, id string) error {
	if owner, ok := m.index.Owner(id); !ok || owner != userID {
		return fmt.Errorf("semantic: delete %s: %w", id, memory.ErrNotFound)
	}
	m.index.DeleteVector(id)
	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()
	return nil
}

// Count implements Archive.
func (m *MemoryArchive) Count(ctx context.Context, userID string) (int, error) {
	return m.index.Len(userID), nil
}

// Reset implements Archive.
func (m *MemoryArchive) Reset(ctx context.Context) (int, error) {
	n := m.index.Clear()
	m.mu.Lock()
	m.records = make(map[string]memory.Record)
	m.mu.Unlock()
	return n, nil
}

// Close implements Archive.
func (m *MemoryArchive) Close() error { return nil }
