package session

import (
	"context"
	"sync"
	"time"

	"github.com/lira-ai/lira/pkg/memory"
)

type memoryEntry struct {
	doc     Document
	expires time.Time
}

// MemoryStore is an in-process session store with TTL expiry.
type MemoryStore struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]memoryEntry
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (Document, error) {
	if err := validateID(sessionID); err != nil {
		return Document{}, err
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(sessionID, now)
	if !ok {
		return NewDocument(now), nil
	}
	return entry.doc.Clone(), nil
}

// live returns the unexpired entry of a session. Callers hold s.mu.
func (s *MemoryStore) live(sessionID string, now time.Time) (memoryEntry, bool) {
	entry, ok := s.sessions[sessionID]
	if !ok {
		return memoryEntry{}, false
	}
	if !now.Before(entry.expires) {
		delete(s.sessions, sessionID)
		return memoryEntry{}, false
	}
	return entry, true
}

// AppendChat implements Store.
func (s *MemoryStore) AppendChat(ctx context.Context, sessionID string, messages ...ChatMessage) error {
	if len(messages) == 0 {
		return validateID(sessionID)
	}
	return s.update(sessionID, appendChat(messages))
}

// AppendRecall implements Store.
func (s *MemoryStore) AppendRecall(ctx context.Context, sessionID string, entries ...RecallEntry) error {
	if len(entries) == 0 {
		return validateID(sessionID)
	}
	return s.update(sessionID, appendRecall(entries))
}

func (s *MemoryStore) update(sessionID string, fn mutation) error {
	if err := validateID(sessionID); err != nil {
		return err
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(sessionID, now)
	doc := entry.doc
	if !ok {
		doc = NewDocument(now)
	}
	fn(&doc, now)
	doc.LastUpdated = memory.FormatTimestamp(now)
	s.sessions[sessionID] = memoryEntry{doc: doc, expires: now.Add(s.cfg.TTL)}
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	if err := validateID(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.sessions = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}
