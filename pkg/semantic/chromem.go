package semantic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lira-ai/lira/pkg/memory"
)

const collectionPrefix = "user_"

// ChromemConfig configures a ChromemArchive.
type ChromemConfig struct {
	// Path enables on-disk persistence. Empty keeps everything in memory.
	Path string
	// Compress gzips persisted documents.
	Compress bool
}

// ChromemArchive wraps chromem-go for vector storage. Each user gets their
// own collection for namespace isolation.
type ChromemArchive struct {
	db       *chromem.DB
	embedder Embedder
	now      func() time.Time

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// NewChromemArchive opens or creates a chromem database.
func NewChromemArchive(cfg ChromemConfig, embedder Embedder) (*ChromemArchive, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	db := chromem.NewDB()
	if cfg.Path != "" {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("semantic: open chromem db: %w", err)
		}
	}

	return &ChromemArchive{
		db:          db,
		embedder:    embedder,
		now:         time.Now,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func collectionName(userID string) string {
	return collectionPrefix + userID
}

// collection returns the collection for a user, creating it on demand.
func (s *ChromemArchive) collection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[userID]
	s.mu.RUnlock()

	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if col, exists := s.collections[userID]; exists {
		return col, nil
	}

	col, err := s.db.GetOrCreateCollection(collectionName(userID), nil, s.embedder.Embed)
	if err != nil {
		return nil, fmt.Errorf("semantic: create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// Store implements Archive.
func (s *ChromemArchive) Store(ctx context.Context, userID, text string, emotions []memory.Emotion) (memory.Record, error) {
	rec, err := newRecord(userID, text, emotions, s.now())
	if err != nil {
		return memory.Record{}, err
	}
	col, err := s.collection(userID)
	if err != nil {
		return memory.Record{}, err
	}
	meta, err := toMetadata(rec)
	if err != nil {
		return memory.Record{}, err
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return memory.Record{}, fmt.Errorf("semantic: embed: %w", err)
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   text,
		Embedding: vec,
		Metadata:  meta,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return memory.Record{}, fmt.Errorf("semantic: add document: %w", err)
	}
	return rec, nil
}

// Search implements Archive.
func (s *ChromemArchive) Search(ctx context.Context, text string, topK int, userID string) ([]memory.Record, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, ErrEmptyText) {
			return nil, nil
		}
		return nil, fmt.Errorf("semantic: embed: %w", err)
	}

	var cols []*chromem.Collection
	if userID != "" {
		col, err := s.collection(userID)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	} else {
		cols = s.userCollections()
	}

	var out []memory.Record
	for _, col := range cols {
		// chromem-go requires nResults <= collection size
		n := topK
		if c := col.Count(); c < n {
			n = c
		}
		if n == 0 {
			continue
		}
		results, err := col.QueryEmbedding(ctx, vec, n, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("semantic: query: %w", err)
		}
		for _, r := range results {
			out = append(out, fromMetadata(r.ID, r.Metadata, float64(r.Similarity)))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *ChromemArchive) userCollections() []*chromem.Collection {
	var names []string
	all := s.db.ListCollections()
	for name := range all {
		if strings.HasPrefix(name, collectionPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	cols := make([]*chromem.Collection, 0, len(names))
	for _, name := range names {
		cols = append(cols, all[name])
	}
	return cols
}

// Delete implements Archive.
func (s *ChromemArchive) Delete(ctx context.Context, userID, id string) error {
	col, err := s.collection(userID)
	if err != nil {
		return err
	}
	if _, err := col.GetByID(ctx, id); err != nil {
		return fmt.Errorf("semantic: delete %s: %w", id, memory.ErrNotFound)
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("semantic: delete %s: %w", id, err)
	}
	return nil
}

// Count implements Archive.
func (s *ChromemArchive) Count(ctx context.Context, userID string) (int, error) {
	if userID != "" {
		col, err := s.collection(userID)
		if err != nil {
			return 0, err
		}
		return col.Count(), nil
	}
	n := 0
	for _, col := range s.userCollections() {
		n += col.Count()
	}
	return n, nil
}

// Reset implements Archive. It drops every user collection.
func (s *ChromemArchive) Reset(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for name, col := range s.db.ListCollections() {
		if !strings.HasPrefix(name, collectionPrefix) {
			continue
		}
		n += col.Count()
		if err := s.db.DeleteCollection(name); err != nil {
			return n, fmt.Errorf("semantic: drop collection %s: %w", name, err)
		}
	}
	s.collections = make(map[string]*chromem.Collection)
	return n, nil
}

// Close implements Archive. Persistent databases write through on every
// change, so there is nothing to flush.
func (s *ChromemArchive) Close() error {
	return nil
}
