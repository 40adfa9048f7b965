// Package archive is the exact-match long-term store. Utterances are kept
// per user and found again by case-insensitive substring match on the
// keywords extracted from a query.
package archive

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lira-ai/lira/pkg/keyword"
	"github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/storage"
)

// Default result sizes.
const (
	DefaultConfirmMax = 1
	DefaultFindLimit  = 3
)

// ErrStoreRequired is returned by New without a backend.
var ErrStoreRequired = errors.New("archive: storage backend required")

// reNameStatement finds rows in which the user states a name.
var reNameStatement = regexp.MustCompile(`(?i)(?:내\s*이름\s*은|제\s*이름\s*은)|(?:[가-힣A-Za-z]+\s*(?:라고|이라|이야)\s*해)`)

var nameKeywords = map[string]struct{}{"이름": {}, "성함": {}, "호칭": {}}

// selfReference lists lower-cased keywords that name the assistant.
var selfReference = map[string]struct{}{
	"리라": {}, "리라야": {}, "어시스턴트": {}, "챗봇": {}, "assistant": {}, "hey lira": {}, "lira": {},
}

// archiveLogger is the minimal logger interface used by Archive.
type archiveLogger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopArchiveLogger struct{}

func (n *nopArchiveLogger) Debug(msg string, args ...any) {}
func (n *nopArchiveLogger) Warn(msg string, args ...any)  {}

// Archive wraps a storage backend with keyword search.
type Archive struct {
	store  storage.Storage
	ranker *keyword.Ranker
	logger archiveLogger
	now    func() time.Time
}

// New creates an Archive. A nil ranker selects the default keyword ranker.
func New(store storage.Storage, ranker *keyword.Ranker, logger archiveLogger) (*Archive, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if ranker == nil {
		ranker = keyword.NewRanker(nil, nil)
	}
	if logger == nil {
		logger = &nopArchiveLogger{}
	}
	return &Archive{
		store:  store,
		ranker: ranker,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Save stores an utterance with its emotion analysis and the current UTC
// time.
func (a *Archive) Save(ctx context.Context, userID, text string, emotions []memory.Emotion) (memory.Record, error) {
	if userID == "" {
		return memory.Record{}, memory.ErrInvalidUserID
	}
	if strings.TrimSpace(text) == "" {
		return memory.Record{}, memory.ErrEmptyText
	}

	rec := memory.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Emotions:  append([]memory.Emotion{}, emotions...),
		Timestamp: memory.FormatTimestamp(a.now()),
	}
	if top, ok := memory.Top(emotions); ok {
		rec.Label, rec.Score = top.Label, top.Score
	}
	if err := a.store.SaveRecord(ctx, &rec); err != nil {
		return memory.Record{}, fmt.Errorf("archive: save: %w", err)
	}
	return rec, nil
}

// QueryByKeyword returns the user's rows containing kw, ignoring case,
// newest first.
func (a *Archive) QueryByKeyword(ctx context.Context, kw, userID string, limit int) ([]memory.Record, error) {
	if kw == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(kw))
	if err != nil {
		return nil, fmt.Errorf("archive: keyword pattern: %w", err)
	}
	return a.scan(ctx, userID, re, limit)
}

func (a *Archive) scan(ctx context.Context, userID string, re *regexp.Regexp, limit int) ([]memory.Record, error) {
	rows, err := a.store.ScanRecords(ctx, userID, &storage.RecordFilter{
		Match: re.MatchString,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: scan: %w", err)
	}
	out := make([]memory.Record, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out, nil
}

// Confirm looks up the fact a term refers to. Only the term's top keyword
// is searched; name keywords also pull rows that state a name. The best
// max rows are returned.
func (a *Archive) Confirm(ctx context.Context, term, userID string, max int) ([]memory.Record, error) {
	if max <= 0 {
		max = DefaultConfirmMax
	}
	kw := strings.TrimSpace(a.ranker.Top(term))
	if utf8.RuneCountInString(kw) < 2 {
		return nil, nil
	}

	rows, err := a.QueryByKeyword(ctx, kw, userID, max)
	if err != nil {
		return nil, err
	}
	if _, ok := nameKeywords[kw]; ok {
		extra, err := a.scan(ctx, userID, reNameStatement, max)
		if err != nil {
			return nil, err
		}
		rows = append(rows, extra...)
	}

	sortRows(rows)
	if len(rows) > max {
		rows = rows[:max]
	}
	a.logger.Debug("archive confirm", "term", term, "keyword", kw, "rows", len(rows))
	return rows, nil
}

// Find returns up to limit rows related to text, excluding rows that repeat
// text itself. Each of the top three keywords is queried separately. A
// failing keyword query is logged and skipped.
func (a *Archive) Find(ctx context.Context, text, userID string, limit int) ([]memory.Record, error) {
	if limit <= 0 {
		limit = DefaultFindLimit
	}
	keywords := a.searchKeywords(text)
	if len(keywords) == 0 {
		return nil, nil
	}

	var found []memory.Record
	var lastErr error
	for _, kw := range keywords {
		rows, err := a.QueryByKeyword(ctx, kw, userID, limit)
		if err != nil {
			a.logger.Warn("archive keyword query failed", "keyword", kw, "error", err)
			lastErr = err
			continue
		}
		found = append(found, rows...)
	}
	if len(found) == 0 && lastErr != nil {
		return nil, lastErr
	}

	self := memory.WordKey(text)
	seen := make(map[string]struct{}, len(found))
	filtered := found[:0]
	for _, r := range found {
		key := memory.WordKey(r.Text)
		if key == self {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		filtered = append(filtered, r)
	}

	sortRows(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	a.logger.Debug("archive find", "keywords", keywords, "rows", len(filtered))
	return filtered, nil
}

func (a *Archive) searchKeywords(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, kw := range a.ranker.Rank(text, 3) {
		kw = strings.TrimSpace(kw)
		if utf8.RuneCountInString(kw) < 2 {
			continue
		}
		if _, self := selfReference[strings.ToLower(kw)]; self {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// Delete removes one row, typically to undo a write whose sibling store
// failed.
func (a *Archive) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return memory.ErrInvalidRecordID
	}
	if err := a.store.DeleteRecord(ctx, userID, id); err != nil {
		return fmt.Errorf("archive: delete: %w", err)
	}
	return nil
}

// Count returns the number of rows of userID, or of all users when empty.
func (a *Archive) Count(ctx context.Context, userID string) (int, error) {
	return a.store.CountRecords(ctx, userID)
}

// Reset removes every row and reports how many were removed.
func (a *Archive) Reset(ctx context.Context) (int, error) {
	return a.store.Reset(ctx)
}

// Close releases the backend.
func (a *Archive) Close() error {
	return a.store.Close()
}
