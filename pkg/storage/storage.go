// Package storage provides persistent storage for exact-match memory records.
package storage

import (
	"context"
	"fmt"

	"github.com/lira-ai/lira/pkg/memory"
)

// Storage defines the interface for fact-row persistence. Rows of one user
// are always returned newest first.
type Storage interface {
	SaveRecord(ctx context.Context, rec *memory.Record) error
	DeleteRecord(ctx context.Context, userID, id string) error
	ScanRecords(ctx context.Context, userID string, filter *RecordFilter) ([]*memory.Record, error)

	// CountRecords counts the rows of userID, or of all users when empty.
	CountRecords(ctx context.Context, userID string) (int, error)
	// Reset removes every row and returns how many were removed.
	Reset(ctx context.Context) (int, error)

	Close() error
}

// RecordFilter narrows a scan. A nil filter returns every row.
type RecordFilter struct {
	// Match selects rows by text. Nil matches all.
	Match func(text string) bool
	// Limit caps the result; zero means no limit.
	Limit int
}

// Accept reports whether text passes the filter.
func (f *RecordFilter) Accept(text string) bool {
	return f == nil || f.Match == nil || f.Match(text)
}

// Full reports whether n rows already satisfy the limit.
func (f *RecordFilter) Full(n int) bool {
	return f != nil && f.Limit > 0 && n >= f.Limit
}

// NotFoundError indicates that the requested entity was not found.
type NotFoundError struct {
	EntityType string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.EntityType, e.ID)
}

// Is lets errors.Is match memory.ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == memory.ErrNotFound
}

// StorageUnavailableError indicates that the storage backend is unavailable.
type StorageUnavailableError struct {
	Cause error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Cause)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Cause }

// Is lets errors.Is match memory.ErrStorageUnavailable.
func (e *StorageUnavailableError) Is(target error) bool {
	return target == memory.ErrStorageUnavailable
}

// SerializationError indicates a failure in data serialization/deserialization.
type SerializationError struct {
	Operation string
	Cause     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error during %s: %v", e.Operation, e.Cause)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// Validate checks the fields every backend requires before a write.
func Validate(rec *memory.Record) error {
	switch {
	case rec == nil || rec.ID == "":
		return memory.ErrInvalidRecordID
	case rec.UserID == "":
		return memory.ErrInvalidUserID
	case rec.Text == "":
		return memory.ErrEmptyText
	}
	return nil
}
