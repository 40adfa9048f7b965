// Package memory provides an in-memory implementation of the storage interface.
package memory

import (
	"context"
	"sort"
	"sync"

	lmemory "github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/storage"
)

// MemoryStorage implements the Storage interface using in-memory maps.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]map[string]*lmemory.Record // userID -> recordID -> Record
	seq     map[string]uint64                     // recordID -> insertion order
	next    uint64
}

// NewMemoryStorage creates a new in-memory storage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]map[string]*lmemory.Record),
		seq:     make(map[string]uint64),
	}
}

// SaveRecord saves a copy of rec.
func (m *MemoryStorage) SaveRecord(ctx context.Context, rec *lmemory.Record) error {
	if err := storage.Validate(rec); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.records[rec.UserID]
	if !ok {
		user = make(map[string]*lmemory.Record)
		m.records[rec.UserID] = user
	}

	// Deep copy to avoid external modifications
	copied := rec.Clone()
	user[rec.ID] = &copied
	m.next++
	m.seq[rec.UserID+"\x00"+rec.ID] = m.next
	return nil
}

// DeleteRecord removes one record of a user.
func (m *MemoryStorage) DeleteRecord(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := m.records[userID]
	if _, ok := user[id]; !ok {
		return &storage.NotFoundError{EntityType: "record", ID: id}
	}
	delete(user, id)
	delete(m.seq, userID+"\x00"+id)
	if len(user) == 0 {
		delete(m.records, userID)
	}
	return nil
}

// ScanRecords returns matching records newest first. Records written in the
// same instant keep reverse insertion order.
func (m *MemoryStorage) ScanRecords(ctx context.Context, userID string, filter *storage.RecordFilter) ([]*lmemory.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user := m.records[userID]
	all := make([]*lmemory.Record, 0, len(user))
	for _, rec := range user {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if lmemory.Newer(*all[i], *all[j]) {
			return true
		}
		if lmemory.Newer(*all[j], *all[i]) {
			return false
		}
		return m.seq[userID+"\x00"+all[i].ID] > m.seq[userID+"\x00"+all[j].ID]
	})

	var out []*lmemory.Record
	for _, rec := range all {
		if !filter.Accept(rec.Text) {
			continue
		}
		copied := rec.Clone()
		out = append(out, &copied)
		if filter.Full(len(out)) {
			break
		}
	}
	return out, nil
}

// CountRecords counts the records of one user or of everyone.
func (m *MemoryStorage) CountRecords(ctx context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if userID != "" {
		return len(m.records[userID]), nil
	}
	n := 0
	for _, user := range m.records {
		n += len(user)
	}
	return n, nil
}

// Reset removes every record.
func (m *MemoryStorage) Reset(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, user := range m.records {
		n += len(user)
	}
	m.records = make(map[string]map[string]*lmemory.Record)
	m.seq = make(map[string]uint64)
	return n, nil
}

// Close is a no-op for in-memory storage.
func (m *MemoryStorage) Close() error {
	return nil
}
