package memory

import (
	"math"
	"sort"
)

// Emotion is one emotion label and its intensity in [0,1]. Scores of one
// utterance are independent and do not sum to one.
type Emotion struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Neutral is the fallback emotion for an utterance without analysis output.
var Neutral = Emotion{Label: "neutral", Score: 0}

// Record is a long-term memory as returned by one of the stores.
type Record struct {
	// ID is assigned by the store that produced the record.
	ID string `json:"id,omitempty"`

	// UserID scopes the record to its owner.
	UserID string `json:"user_id"`

	// Text is the stored utterance.
	Text string `json:"text"`

	// Emotions is the full emotion analysis at write time.
	Emotions []Emotion `json:"emotions,omitempty"`

	// Label and Score summarise the strongest emotion. The semantic
	// archive stores only this pair alongside the serialized list.
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score,omitempty"`

	// Timestamp is the ISO-8601 write time as the store produced it.
	// It may be empty or unparseable; see ParseTimestamp.
	Timestamp string `json:"timestamp,omitempty"`

	// Similarity is the certainty reported by a semantic search.
	Similarity float64 `json:"similarity,omitempty"`
}

// TopEmotion returns the strongest emotion of the record.
func (r Record) TopEmotion() (Emotion, bool) {
	if len(r.Emotions) > 0 {
		return Top(r.Emotions)
	}
	if r.Label != "" {
		return Emotion{Label: r.Label, Score: r.Score}, true
	}
	return Emotion{}, false
}

// Clone returns a deep copy so callers never alias a store's slices.
func (r Record) Clone() Record {
	if r.Emotions != nil {
		r.Emotions = append([]Emotion(nil), r.Emotions...)
	}
	return r
}

// CloneRecords deep-copies a record list.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// SortEmotions returns the emotions ordered by score, highest first. The
// input is not modified.
func SortEmotions(emotions []Emotion) []Emotion {
	sorted := append([]Emotion(nil), emotions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// WithNeutral sorts the emotions and falls back to Neutral when empty, so
// that an analysed utterance always carries at least one score.
func WithNeutral(emotions []Emotion) []Emotion {
	if len(emotions) == 0 {
		return []Emotion{Neutral}
	}
	return SortEmotions(emotions)
}

// Top returns the highest-scoring emotion. The first one wins on ties.
func Top(emotions []Emotion) (Emotion, bool) {
	if len(emotions) == 0 {
		return Emotion{}, false
	}
	top := emotions[0]
	for _, e := range emotions[1:] {
		if e.Score > top.Score {
			top = e
		}
	}
	return top, true
}

// Round3 rounds a score to three decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
