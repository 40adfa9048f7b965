package keyword

import (
	"strings"
	"unicode/utf8"
)

// LowestScore is assigned to empty tokens so they always rank last.
const LowestScore = -99999.0

// ScoreToken weighs a candidate by length and part of speech, then applies
// the context boosts and penalties for text.
func ScoreToken(token string, tag Tag, text string) float64 {
	if token == "" {
		return LowestScore
	}
	n := utf8.RuneCountInString(token)

	score := 1.0 + float64(n)*0.1
	if tag.Noun() {
		score += 0.8
		if tag == TagNNP {
			score += 0.6
		}
	}
	if tag.Predicate() && has(fillerVerbs, token) {
		score -= 0.4
	}
	if has(emotionOnly, token) {
		score -= 1.0
	}
	if n < 2 {
		score -= 2.0
	}
	if tag.Predicate() {
		score += 0.1
	}
	for _, prefix := range preferencePrefixes {
		if strings.HasPrefix(token, prefix) {
			score += 0.5
			break
		}
	}
	if reCorrection.MatchString(text) && has(correctionSlots, token) {
		score += 0.6
	}
	for _, hint := range slotHints {
		if hint == token || (n >= 2 && strings.Contains(token, hint)) {
			score += 2.0
			break
		}
	}
	if has(minusTokens, token) {
		score -= 2.0
	}
	if reRecallAsk.MatchString(text) && (token == "나" || strings.HasPrefix(token, "기억")) {
		score -= 3.0
	}
	return score
}
