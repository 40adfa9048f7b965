// Package session holds the short-term conversation buffer: the chat history
// of one session and the long-term memories recalled into it. Documents
// expire after a TTL that every write refreshes.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lira-ai/lira/pkg/memory"
)

const (
	// DefaultTTL is how long an idle session survives.
	DefaultTTL = 24 * time.Hour
	// DefaultKeyPrefix namespaces session documents in shared backends.
	DefaultKeyPrefix = "session:"
)

var (
	ErrInvalidSessionID = errors.New("session: invalid session ID")
	ErrCorrupt          = errors.New("session: corrupt document")
	ErrConflict         = errors.New("session: too many concurrent updates")
)

// Roles used in the chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "lira"
)

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RecallEntry is a long-term memory surfaced during a turn.
type RecallEntry struct {
	Source    string `json:"source"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Document is the stored session state.
type Document struct {
	ChatHistory    []ChatMessage `json:"chat_history"`
	RecalledBuffer []RecallEntry `json:"recalled_ltm_buffer"`
	LastUpdated    string        `json:"last_updated"`
}

// NewDocument returns an empty document stamped with now.
func NewDocument(now time.Time) Document {
	return Document{
		ChatHistory:    []ChatMessage{},
		RecalledBuffer: []RecallEntry{},
		LastUpdated:    memory.FormatTimestamp(now),
	}
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	d.ChatHistory = append([]ChatMessage{}, d.ChatHistory...)
	d.RecalledBuffer = append([]RecallEntry{}, d.RecalledBuffer...)
	return d
}

// Store is a TTL-bound session buffer. Appends never rewrite earlier
// entries.
type Store interface {
	// Get returns the session document, or an empty one when the session
	// is unknown or expired.
	Get(ctx context.Context, sessionID string) (Document, error)
	AppendChat(ctx context.Context, sessionID string, messages ...ChatMessage) error
	// AppendRecall appends entries, stamping those without a timestamp
	// with the current time.
	AppendRecall(ctx context.Context, sessionID string, entries ...RecallEntry) error
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// Config configures a session store.
type Config struct {
	TTL       time.Duration
	KeyPrefix string
	// MaxRetries bounds optimistic transaction retries.
	MaxRetries int
}

// DefaultConfig returns the default session settings.
func DefaultConfig() Config {
	return Config{TTL: DefaultTTL, KeyPrefix: DefaultKeyPrefix, MaxRetries: 5}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = def.TTL
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = def.KeyPrefix
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	return c
}

func validateID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	return nil
}

// mutation edits a document in place before it is written back.
type mutation func(doc *Document, now time.Time)

func appendChat(messages []ChatMessage) mutation {
	return func(doc *Document, _ time.Time) {
		doc.ChatHistory = append(doc.ChatHistory, messages...)
	}
}

func appendRecall(entries []RecallEntry) mutation {
	return func(doc *Document, now time.Time) {
		stamp := memory.FormatTimestamp(now)
		for _, e := range entries {
			e.Timestamp = strings.TrimSpace(e.Timestamp)
			if e.Timestamp == "" {
				e.Timestamp = stamp
			}
			doc.RecalledBuffer = append(doc.RecalledBuffer, e)
		}
	}
}

func decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.ChatHistory == nil {
		doc.ChatHistory = []ChatMessage{}
	}
	if doc.RecalledBuffer == nil {
		doc.RecalledBuffer = []RecallEntry{}
	}
	return doc, nil
}
