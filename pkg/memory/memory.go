// Package memory defines the records exchanged between the lira recall core
// and its long-term stores: memory records, emotion scores, and the text and
// timestamp normalization every store agrees on.
package memory

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Sentinel errors shared by the memory stores.
var (
	ErrInvalidUserID      = errors.New("memory: invalid user ID")
	ErrEmptyText          = errors.New("memory: empty text")
	ErrInvalidRecordID    = errors.New("memory: invalid record ID")
	ErrNotFound           = errors.New("memory: record not found")
	ErrStorageUnavailable = errors.New("memory: storage unavailable")
)

// Fold returns text in NFC form with Unicode case folding applied.
func Fold(text string) string {
	// Casers carry state and are not shared across goroutines.
	return cases.Fold().String(norm.NFC.String(text))
}

// NormalizeText is the identity key used to deduplicate recalled records:
// NFC, case folded, with all whitespace removed.
func NormalizeText(text string) string {
	folded := Fold(text)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WordKey is a looser key that drops every non-letter, non-digit rune. The
// exact-match archive uses it to recognise the utterance being searched for.
func WordKey(text string) string {
	folded := Fold(text)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
