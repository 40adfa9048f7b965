package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lira-ai/lira/pkg/memory"
)

// StorageTestSuite defines a test suite that can be run against any Storage implementation.
type StorageTestSuite struct {
	NewStorage func(t *testing.T) Storage
}

// RunAllTests runs all storage tests against the provided storage implementation.
func (s *StorageTestSuite) RunAllTests(t *testing.T) {
	t.Run("RecordCRUD", s.TestRecordCRUD)
	t.Run("NewestFirst", s.TestNewestFirst)
	t.Run("FilterAndLimit", s.TestFilterAndLimit)
	t.Run("UserIsolation", s.TestUserIsolation)
	t.Run("Overwrite", s.TestOverwrite)
	t.Run("CountAndReset", s.TestCountAndReset)
	t.Run("ConcurrentAccess", s.TestConcurrentAccess)
	t.Run("ErrorHandling", s.TestErrorHandling)
}

var suiteBase = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func suiteRecord(user, id, text string, minute int) *memory.Record {
	return &memory.Record{
		ID:        id,
		UserID:    user,
		Text:      text,
		Emotions:  []memory.Emotion{{Label: "joy", Score: 0.8}},
		Timestamp: memory.FormatTimestamp(suiteBase.Add(time.Duration(minute) * time.Minute)),
	}
}

func ids(records []*memory.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// TestRecordCRUD tests save, scan and delete.
func (s *StorageTestSuite) TestRecordCRUD(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	rec := suiteRecord("u1", "r1", "내 이름은 민수야", 0)
	if err := store.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	got, err := store.ScanRecords(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("ScanRecords failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Text != rec.Text || got[0].Timestamp != rec.Timestamp {
		t.Errorf("unexpected record: %+v", got[0])
	}
	if len(got[0].Emotions) != 1 || got[0].Emotions[0].Label != "joy" {
		t.Errorf("emotions not persisted: %+v", got[0].Emotions)
	}

	// Mutating the result must not affect stored data.
	got[0].Emotions[0].Label = "changed"
	again, _ := store.ScanRecords(ctx, "u1", nil)
	if again[0].Emotions[0].Label != "joy" {
		t.Error("scan result aliases stored data")
	}

	if err := store.DeleteRecord(ctx, "u1", "r1"); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	got, _ = store.ScanRecords(ctx, "u1", nil)
	if len(got) != 0 {
		t.Errorf("expected no records after delete, got %d", len(got))
	}
}

// TestNewestFirst tests scan order.
func (s *StorageTestSuite) TestNewestFirst(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()
	for i, id := range []string{"old", "new", "mid"} {
		minute := map[int]int{0: 1, 1: 30, 2: 10}[i]
		if err := store.SaveRecord(ctx, suiteRecord("u1", id, "text "+id, minute)); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	got, err := store.ScanRecords(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("ScanRecords failed: %v", err)
	}
	if order := strings.Join(ids(got), ","); order != "new,mid,old" {
		t.Errorf("expected new,mid,old, got %s", order)
	}
}

// TestFilterAndLimit tests text matching and result caps.
func (s *StorageTestSuite) TestFilterAndLimit(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()
	texts := []string{"커피 좋아", "차 좋아", "커피 싫어", "커피는 라떼"}
	for i, text := range texts {
		if err := store.SaveRecord(ctx, suiteRecord("u1", fmt.Sprintf("r%d", i), text, i)); err != nil {
			t.Fatalf("SaveRecord failed: %v", err)
		}
	}

	coffee := &RecordFilter{Match: func(text string) bool { return strings.Contains(text, "커피") }}
	got, err := store.ScanRecords(ctx, "u1", coffee)
	if err != nil {
		t.Fatalf("ScanRecords failed: %v", err)
	}
	if order := strings.Join(ids(got), ","); order != "r3,r2,r0" {
		t.Errorf("expected r3,r2,r0, got %s", order)
	}

	coffee.Limit = 2
	got, _ = store.ScanRecords(ctx, "u1", coffee)
	if order := strings.Join(ids(got), ","); order != "r3,r2" {
		t.Errorf("expected r3,r2 with limit, got %s", order)
	}
}

// TestUserIsolation tests that scans never cross users.
func (s *StorageTestSuite) TestUserIsolation(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()
	_ = store.SaveRecord(ctx, suiteRecord("alice", "a1", "커피", 0))
	_ = store.SaveRecord(ctx, suiteRecord("alice:bob", "ab1", "커피", 1))
	_ = store.SaveRecord(ctx, suiteRecord("bob", "b1", "커피", 2))

	got, _ := store.ScanRecords(ctx, "alice", nil)
	if len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("expected only a1 for alice, got %v", ids(got))
	}
	if n, _ := store.CountRecords(ctx, "bob"); n != 1 {
		t.Errorf("expected 1 record for bob, got %d", n)
	}
	if err := store.DeleteRecord(ctx, "bob", "a1"); err == nil {
		t.Error("deleting another user's record should fail")
	}
}

// TestOverwrite tests that saving an existing ID replaces the row.
func (s *StorageTestSuite) TestOverwrite(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()
	_ = store.SaveRecord(ctx, suiteRecord("u1", "r1", "first", 0))
	_ = store.SaveRecord(ctx, suiteRecord("u1", "r1", "second", 5))

	got, _ := store.ScanRecords(ctx, "u1", nil)
	if len(got) != 1 || got[0].Text != "second" {
		t.Errorf("expected single overwritten record, got %+v", got)
	}
}

// TestCountAndReset tests maintenance operations.
func (s *StorageTestSuite) TestCountAndReset(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = store.SaveRecord(ctx, suiteRecord("u1", fmt.Sprintf("r%d", i), "text", i))
	}
	_ = store.SaveRecord(ctx, suiteRecord("u2", "x", "text", 0))

	if n, err := store.CountRecords(ctx, ""); err != nil || n != 4 {
		t.Fatalf("expected 4 records, got %d (err=%v)", n, err)
	}
	removed, err := store.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if removed != 4 {
		t.Errorf("expected 4 removed, got %d", removed)
	}
	if n, _ := store.CountRecords(ctx, ""); n != 0 {
		t.Errorf("expected empty store after reset, got %d", n)
	}
}

// TestConcurrentAccess tests concurrent read/write operations.
func (s *StorageTestSuite) TestConcurrentAccess(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			if err := store.SaveRecord(ctx, suiteRecord("u1", fmt.Sprintf("r%d", idx), "concurrent", idx)); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := store.ScanRecords(ctx, "u1", nil); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}
	if n, _ := store.CountRecords(ctx, "u1"); n != 10 {
		t.Errorf("expected 10 records, got %d", n)
	}
}

// TestErrorHandling tests error conditions.
func (s *StorageTestSuite) TestErrorHandling(t *testing.T) {
	store := s.NewStorage(t)
	defer store.Close()

	ctx := context.Background()

	err := store.DeleteRecord(ctx, "u1", "missing")
	if !errors.Is(err, memory.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "missing" {
		t.Errorf("expected NotFoundError for missing, got %v", err)
	}

	if err := store.SaveRecord(ctx, &memory.Record{UserID: "u1", Text: "x"}); !errors.Is(err, memory.ErrInvalidRecordID) {
		t.Errorf("expected ErrInvalidRecordID, got %v", err)
	}
	if err := store.SaveRecord(ctx, &memory.Record{ID: "r", Text: "x"}); !errors.Is(err, memory.ErrInvalidUserID) {
		t.Errorf("expected ErrInvalidUserID, got %v", err)
	}
	if err := store.SaveRecord(ctx, &memory.Record{ID: "r", UserID: "u1"}); !errors.Is(err, memory.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}

	got, err := store.ScanRecords(ctx, "nobody", nil)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty scan for unknown user, got %v (err=%v)", got, err)
	}
}
