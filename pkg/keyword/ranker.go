package keyword

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Ranker extracts search keywords from a single utterance.
type Ranker struct {
	analyzer Analyzer
	logger   rankerLogger
}

// rankerLogger is the minimal logger interface used by Ranker.
type rankerLogger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopRankerLogger struct{}

func (n *nopRankerLogger) Debug(msg string, args ...any) {}
func (n *nopRankerLogger) Warn(msg string, args ...any)  {}

// NewRanker creates a Ranker. A nil analyzer selects RuleAnalyzer.
func NewRanker(analyzer Analyzer, logger rankerLogger) *Ranker {
	if analyzer == nil {
		analyzer = NewRuleAnalyzer()
	}
	if logger == nil {
		logger = &nopRankerLogger{}
	}
	return &Ranker{analyzer: analyzer, logger: logger}
}

var defaultRanker = NewRanker(nil, nil)

// Rank ranks text with the default ranker.
func Rank(text string, want int) []string {
	return defaultRanker.Rank(text, want)
}

// Top returns the best keyword of text using the default ranker.
func Top(text string) string {
	return defaultRanker.Top(text)
}

type candidate struct {
	token string
	tag   Tag
	score float64
	freq  int
}

// Top returns the single best keyword, or "" when none qualifies.
func (r *Ranker) Top(text string) string {
	if out := r.Rank(text, 1); len(out) > 0 {
		return out[0]
	}
	return ""
}

// Rank returns at most want keywords ordered by relevance. Failures of the
// analyzer, including panics, yield an empty result.
func (r *Ranker) Rank(text string, want int) (out []string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("keyword extraction panicked", "panic", fmt.Sprint(p))
			out = nil
		}
	}()

	if want <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}
	text = stripVocative(norm.NFC.String(text))

	cands, err := r.candidates(text)
	if err != nil {
		r.logger.Warn("keyword analysis failed", "error", err)
		return nil
	}
	if len(cands) == 0 {
		if tok := fallbackToken(text); tok != "" {
			cands = append(cands, candidate{token: tok, tag: TagFB})
		}
	}

	ranked := rankCandidates(cands, text)
	if strings.Contains(text, "이름") {
		for i, tok := range ranked {
			if tok == "이" || tok == "름" {
				ranked[i] = "이름"
			}
		}
	}

	seen := make(map[string]struct{}, len(ranked))
	for _, tok := range ranked {
		if !usable(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == want {
			break
		}
	}
	r.logger.Debug("keywords ranked", "input", text, "candidates", len(cands), "selected", out)
	return out
}

func stripVocative(text string) string {
	for _, re := range vocatives {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

func (r *Ranker) candidates(text string) ([]candidate, error) {
	morphemes, err := r.analyzer.Analyze(text)
	if err != nil {
		return nil, err
	}
	var cands []candidate
	for _, m := range morphemes {
		if !m.Tag.Allowed() {
			continue
		}
		tok := normalizeToken(m, text, true)
		if tok != "" && !has(selfReferential, tok) {
			cands = append(cands, candidate{token: tok, tag: m.Tag})
		}
		if !m.Tag.Predicate() {
			continue
		}
		if lemma := normalizeToken(m, text, false); lemma != "" && lemma != tok && !has(selfReferential, lemma) {
			cands = append(cands, candidate{token: lemma, tag: m.Tag})
		}
	}
	return cands, nil
}

// normalizeToken turns a morpheme into a search token. Predicates use either
// the surface eojeol at the morpheme offset or the lemma stripped of 하다/다.
func normalizeToken(m Morpheme, text string, preferSurface bool) string {
	lemma := m.Lemma
	if lemma == "" {
		lemma = m.Form
	}
	surfaceNorm := keepRuns(m.Form)
	token := keepRuns(lemma)
	if token == "" {
		token = surfaceNorm
	}
	if token == "" || has(stopwords, token) || utf8.RuneCountInString(token) < 2 {
		return ""
	}

	if m.Tag.Predicate() {
		if preferSurface {
			token = surfaceNorm
			if m.Start >= 0 && m.Start <= len(text) {
				if eo := keepRuns(reEojeol.FindString(text[m.Start:])); eo != "" {
					token = eo
				}
			}
		} else {
			token = strings.TrimSuffix(token, "하다")
			token = strings.TrimSuffix(token, "다")
		}
		if utf8.RuneCountInString(token) < 2 {
			return ""
		}
		return token
	}
	if has(selfReferential, token) {
		return ""
	}
	return token
}

func keepRuns(s string) string {
	return toLower(strings.Join(reKeep.FindAllString(s, -1), ""))
}

func toLower(s string) string {
	return strings.ToLower(s)
}

func fallbackToken(text string) string {
	best, bestLen := "", 0
	for _, t := range reKeep.FindAllString(text, -1) {
		t = toLower(t)
		n := utf8.RuneCountInString(t)
		if n <= 1 || has(stopwords, t) || has(selfReferential, t) {
			continue
		}
		if n > bestLen {
			best, bestLen = t, n
		}
	}
	return best
}

// rankCandidates groups by (token, tag), keeps the best score and the count,
// and orders by score then frequency. Ties keep first-seen order.
func rankCandidates(cands []candidate, text string) []string {
	type key struct {
		token string
		tag   Tag
	}
	index := make(map[key]int)
	var grouped []candidate
	for _, c := range cands {
		if c.token == "" {
			continue
		}
		k := key{c.token, c.tag}
		i, ok := index[k]
		if !ok {
			i = len(grouped)
			index[k] = i
			grouped = append(grouped, candidate{token: c.token, tag: c.tag})
		}
		g := &grouped[i]
		g.freq++
		if s := ScoreToken(c.token, c.tag, text); s > g.score {
			g.score = s
		}
	}

	sort.SliceStable(grouped, func(i, j int) bool {
		if grouped[i].score != grouped[j].score {
			return grouped[i].score > grouped[j].score
		}
		return grouped[i].freq > grouped[j].freq
	})

	seen := make(map[string]struct{}, len(grouped))
	out := make([]string, 0, len(grouped))
	for _, g := range grouped {
		if _, dup := seen[g.token]; dup {
			continue
		}
		seen[g.token] = struct{}{}
		out = append(out, g.token)
	}
	return out
}

func usable(tok string) bool {
	return tok != "" && !has(selfReferential, tok) && !has(stopwords, tok) && utf8.RuneCountInString(tok) >= 2
}
