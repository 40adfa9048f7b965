// Package semantic is the meaning-based long-term store. Utterances are
// embedded and retrieved by vector similarity, scoped per user.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lira-ai/lira/pkg/memory"
)

// DefaultTopK is the number of candidates a search returns by default.
const DefaultTopK = 3

var (
	ErrEmptyText         = errors.New("semantic: empty text")
	ErrDimensionMismatch = errors.New("semantic: vector dimension mismatch")
	ErrEmbedderRequired  = errors.New("semantic: embedder required")
)

// Archive stores and searches utterances by meaning.
type Archive interface {
	// Store embeds text and saves it with the strongest emotion.
	Store(ctx context.Context, userID, text string, emotions []memory.Emotion) (memory.Record, error)
	// Search returns up to topK records ordered by similarity. An empty
	// userID searches every user.
	Search(ctx context.Context, text string, topK int, userID string) ([]memory.Record, error)
	Delete(ctx context.Context, userID, id string) error
	// Count counts the records of userID, or of everyone when empty.
	Count(ctx context.Context, userID string) (int, error)
	// Reset removes every record and reports how many were removed.
	Reset(ctx context.Context) (int, error)
	Close() error
}

// Certainty maps a cosine similarity in [-1,1] onto [0,1].
func Certainty(cosine float64) float64 {
	return (1 + cosine) / 2
}

// Metadata keys written with every document.
const (
	metaUserID       = "user_id"
	metaText         = "text"
	metaLabel        = "label"
	metaScore        = "score"
	metaEmotionsJSON = "emotions_json"
	metaTimestamp    = "timestamp"
)

// newRecord builds the record written for one utterance.
func newRecord(userID, text string, emotions []memory.Emotion, now time.Time) (memory.Record, error) {
	if userID == "" {
		return memory.Record{}, memory.ErrInvalidUserID
	}
	if strings.TrimSpace(text) == "" {
		return memory.Record{}, ErrEmptyText
	}
	top, _ := memory.Top(memory.WithNeutral(emotions))
	return memory.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Emotions:  append([]memory.Emotion{}, emotions...),
		Label:     top.Label,
		Score:     memory.Round3(top.Score),
		Timestamp: memory.FormatTimestamp(now),
	}, nil
}

func toMetadata(rec memory.Record) (map[string]string, error) {
	emotions := rec.Emotions
	if emotions == nil {
		emotions = []memory.Emotion{}
	}
	data, err := json.Marshal(emotions)
	if err != nil {
		return nil, fmt.Errorf("semantic: marshal emotions: %w", err)
	}
	return map[string]string{
		metaUserID:       rec.UserID,
		metaText:         rec.Text,
		metaLabel:        rec.Label,
		metaScore:        strconv.FormatFloat(rec.Score, 'f', -1, 64),
		metaEmotionsJSON: string(data),
		metaTimestamp:    rec.Timestamp,
	}, nil
}

func fromMetadata(id string, meta map[string]string, cosine float64) memory.Record {
	rec := memory.Record{
		ID:         id,
		UserID:     meta[metaUserID],
		Text:       meta[metaText],
		Label:      meta[metaLabel],
		Timestamp:  meta[metaTimestamp],
		Similarity: Certainty(cosine),
	}
	rec.Score, _ = strconv.ParseFloat(meta[metaScore], 64)
	if raw := meta[metaEmotionsJSON]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &rec.Emotions)
	}
	return rec
}
