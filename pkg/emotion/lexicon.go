package emotion

import (
	"context"
	"sort"
	"strings"

	"github.com/lira-ai/lira/pkg/memory"
)

// cues maps go_emotions labels to Korean and English cue substrings.
var cues = map[string][]string{
	"joy":            {"기뻐", "기쁘", "기쁜", "행복", "신나", "신난", "좋아", "좋다", "좋은", "최고", "happy", "glad", "great"},
	"sadness":        {"슬퍼", "슬프", "슬픈", "우울", "눈물", "외로", "서운", "sad", "lonely", "depressed"},
	"anger":          {"화나", "화가", "짜증", "열받", "빡치", "angry", "furious"},
	"fear":           {"무서", "두려", "겁나", "불안", "scared", "afraid", "anxious"},
	"nervousness":    {"긴장", "떨려", "초조", "nervous"},
	"surprise":       {"놀라", "놀랐", "깜짝", "헐", "대박", "wow", "surprised"},
	"love":           {"사랑", "애정", "love", "adore"},
	"gratitude":      {"고마", "감사", "땡큐", "thanks", "thank you", "grateful"},
	"disappointment": {"실망", "아쉽", "아쉬", "disappointed"},
	"remorse":        {"미안", "죄송", "sorry"},
	"curiosity":      {"궁금", "왜", "뭐야", "curious", "wonder"},
	"caring":         {"괜찮아?", "걱정", "챙겨", "worried"},
	"excitement":     {"설레", "기대", "두근", "excited"},
	"amusement":      {"웃겨", "ㅋㅋ", "재밌", "재미있", "funny", "lol"},
	"annoyance":      {"귀찮", "성가", "짜증"},
	"grief":          {"그리워", "보고싶", "떠났", "miss"},
	"relief":         {"다행", "안심", "relieved"},
	"embarrassment":  {"창피", "부끄", "민망", "embarrassed"},
	"pride":          {"뿌듯", "자랑", "proud"},
	"optimism":       {"잘 될", "잘될", "힘내", "hope"},
	"admiration":     {"멋지", "멋있", "대단", "awesome", "amazing"},
}

// neutralScore is reported when no cue matches.
const neutralScore = 0.6

// Lexicon is a dictionary classifier over cue words. Each hit raises the
// label's score toward 1 independently of the others.
type Lexicon struct {
	cues map[string][]string
}

// NewLexicon returns the built-in cue-word classifier.
func NewLexicon() *Lexicon {
	return &Lexicon{cues: cues}
}

// Classify implements Classifier.
func (l *Lexicon) Classify(_ context.Context, text string) ([]memory.Emotion, error) {
	folded := memory.Fold(text)
	var out []memory.Emotion
	for label, words := range l.cues {
		hits := 0
		for _, w := range words {
			hits += strings.Count(folded, w)
		}
		if hits == 0 {
			continue
		}
		out = append(out, memory.Emotion{Label: label, Score: saturate(hits)})
	}
	if len(out) == 0 {
		return []memory.Emotion{{Label: memory.Neutral.Label, Score: neutralScore}}, nil
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// saturate maps a hit count onto (0,1): 1 hit is 0.7, 2 hits 0.85, and so on.
func saturate(hits int) float64 {
	score := 1.0
	for i := 0; i < hits; i++ {
		score *= 0.5
	}
	return 1 - 0.6*score
}
