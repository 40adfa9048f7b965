package memory

import (
	"context"
	"testing"

	lmemory "github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/storage"
)

// TestMemoryStorageSuite runs the full storage test suite against MemoryStorage.
func TestMemoryStorageSuite(t *testing.T) {
	suite := &storage.StorageTestSuite{
		NewStorage: func(t *testing.T) storage.Storage {
			return NewMemoryStorage()
		},
	}

	suite.RunAllTests(t)
}

func TestMemoryStorage_TimestampLessRecordsLast(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	_ = s.SaveRecord(ctx, &lmemory.Record{ID: "none", UserID: "u1", Text: "no time"})
	_ = s.SaveRecord(ctx, &lmemory.Record{ID: "dated", UserID: "u1", Text: "dated", Timestamp: "2024-05-01T10:00:00Z"})

	got, err := s.ScanRecords(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("ScanRecords failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "dated" || got[1].ID != "none" {
		t.Errorf("expected dated before none, got %+v", got)
	}
}

func TestMemoryStorage_SameInstantKeepsReverseInsertion(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	ts := "2024-05-01T10:00:00Z"
	_ = s.SaveRecord(ctx, &lmemory.Record{ID: "first", UserID: "u1", Text: "a", Timestamp: ts})
	_ = s.SaveRecord(ctx, &lmemory.Record{ID: "second", UserID: "u1", Text: "b", Timestamp: ts})

	got, _ := s.ScanRecords(ctx, "u1", nil)
	if len(got) != 2 || got[0].ID != "second" {
		t.Errorf("expected second first, got %+v", got)
	}
}
