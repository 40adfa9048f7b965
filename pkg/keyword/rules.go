package keyword

import (
	"regexp"
	"unicode/utf8"
)

var reScript = regexp.MustCompile(`[가-힣]+|[a-zA-Z]+|[0-9]+`)

// RuleAnalyzer tags colloquial Korean with a small dictionary and suffix
// rules. It recognises particles, verbal endings, vowel contraction and the
// common irregular conjugations. Unknown Hangul words default to NNG.
type RuleAnalyzer struct{}

// NewRuleAnalyzer returns the dictionary analyzer.
func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

// Analyze implements Analyzer. It never fails.
func (a *RuleAnalyzer) Analyze(text string) ([]Morpheme, error) {
	var out []Morpheme
	for _, loc := range reScript.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		switch c := word[0]; {
		case c >= '0' && c <= '9':
			out = append(out, Morpheme{Form: word, Lemma: word, Tag: TagSN, Start: loc[0]})
		case c < utf8.RuneSelf:
			out = append(out, Morpheme{Form: word, Lemma: word, Tag: TagSL, Start: loc[0]})
		default:
			out = append(out, a.word([]rune(word), loc[0])...)
		}
	}
	return out, nil
}

func (a *RuleAnalyzer) word(w []rune, start int) []Morpheme {
	s := string(w)
	if tag, ok := closedClass[s]; ok {
		return []Morpheme{{Form: s, Lemma: s, Tag: tag, Start: start}}
	}
	if noun, ok := knownNominal(w); ok {
		return []Morpheme{nounMorpheme(noun, start)}
	}
	if stem, tag, ok := predicate(w); ok {
		return []Morpheme{{Form: stem, Lemma: stem + "다", Tag: tag, Start: start}}
	}
	if ms, ok := lightVerb(w, start); ok {
		return ms
	}
	if ms, ok := derived(w, start); ok {
		return ms
	}
	return []Morpheme{nounMorpheme(nominal(w), start)}
}

func nounMorpheme(noun []rune, start int) Morpheme {
	s := string(noun)
	return Morpheme{Form: s, Lemma: s, Tag: nounTag(s), Start: start}
}

func nounTag(s string) Tag {
	switch {
	case has(pronouns, s):
		return TagNP
	case has(numerals, s):
		return TagNR
	case has(boundNouns, s):
		return TagNNB
	case has(properNouns, s):
		return TagNNP
	default:
		return TagNNG
	}
}

func isLexicalNoun(s string) bool {
	return has(knownNouns, s) || has(properNouns, s) || has(pronouns, s) || has(numerals, s)
}

// knownNominal strips up to two particles while looking for a dictionary
// noun.
func knownNominal(w []rune) ([]rune, bool) {
	stem := w
	for i := 0; i < 3; i++ {
		if isLexicalNoun(string(stem)) {
			return stem, true
		}
		next, ok := stripParticle(stem)
		if !ok {
			return nil, false
		}
		stem = next
	}
	return nil, false
}

// nominal strips particles and the plural suffix from an unknown word.
func nominal(w []rune) []rune {
	stem := w
	for i := 0; i < 2; i++ {
		next, ok := stripParticle(stem)
		if !ok {
			break
		}
		stem = next
	}
	if n := len(stem); n > 2 && stem[n-1] == '들' {
		stem = stem[:n-1]
	}
	return stem
}

func stripParticle(w []rune) ([]rune, bool) {
	for _, p := range particles {
		pr := []rune(p.form)
		if len(pr) >= len(w) || string(w[len(w)-len(pr):]) != p.form {
			continue
		}
		rest := w[:len(w)-len(pr)]
		if !particleFits(rest, p.after) {
			continue
		}
		if len(pr) == 1 && len(rest) < 2 && !has(pronouns, string(rest)) {
			continue
		}
		return rest, true
	}
	return nil, false
}

func particleFits(rest []rune, after particleContext) bool {
	switch after {
	case afterConsonant:
		return hasTail(rest)
	case afterVowel:
		return !hasTail(rest)
	case afterVowelOrRieul:
		return !hasTail(rest) || tailOf(rest) == tailRieul
	default:
		return true
	}
}

// predicate finds the longest dictionary stem that, after undoing
// contraction or irregular conjugation, is followed by a known ending.
func predicate(w []rune) (string, Tag, bool) {
	for k := len(w); k >= 1; k-- {
		head, tail := w[:k], string(w[k:])
		if tail != "" && !has(endings, tail) {
			continue
		}
		for _, stem := range stemCandidates(head, tail) {
			if tag, ok := predicateStems[stem]; ok {
				return stem, tag, true
			}
		}
	}
	return "", "", false
}

func stemCandidates(head []rune, tail string) []string {
	last, ok := decompose(head[len(head)-1])
	if !ok {
		return nil
	}
	prev := head[:len(head)-1]
	join := func(p []rune, s ...syllable) string {
		out := append([]rune(nil), p...)
		for _, x := range s {
			out = append(out, x.rune())
		}
		return string(out)
	}

	var cands []string
	if last.tail == tailNone || last.tail == tailSsangSios {
		bare := last.withTail(tailNone)
		switch last.vowel {
		case vowelAe:
			if last.lead == leadHieut {
				cands = append(cands, join(prev, bare.withVowel(vowelA)))
			}
			cands = append(cands, join(prev, bare))
		case vowelWo, vowelWa:
			round := vowelU
			if last.vowel == vowelWa {
				round = vowelO
			}
			cands = append(cands, join(prev, bare.withVowel(round)))
			if last.lead == leadIeung && len(prev) > 0 {
				if p, ok := decompose(prev[len(prev)-1]); ok && p.tail == tailNone {
					cands = append(cands, join(prev[:len(prev)-1], p.withTail(tailBieup)))
				}
			}
		case vowelYeo:
			cands = append(cands, join(prev, bare.withVowel(vowelI)))
		case vowelWae:
			cands = append(cands, join(prev, bare.withVowel(vowelOe)))
		case vowelA, vowelEo:
			if last.lead == leadRieul && len(prev) > 0 {
				if p, ok := decompose(prev[len(prev)-1]); ok && p.tail == tailRieul {
					cands = append(cands, join(prev[:len(prev)-1], p.withTail(tailNone), syllable{lead: leadRieul, vowel: vowelEu}))
				}
			}
			cands = append(cands, join(prev, bare.withVowel(vowelEu)))
			if last.tail == tailSsangSios || tail == "" {
				cands = append(cands, join(prev, bare))
			}
		}
	}
	switch last.tail {
	case tailNieun, tailRieul, tailMieum, tailBieup:
		cands = append(cands, join(prev, last.withTail(tailNone)))
	}
	if tail != "" && vowelStemAccepts(head, tail) {
		cands = append(cands, string(head))
		if last.tail == tailNone && takesRieulDrop(tail) {
			cands = append(cands, join(prev, last.withTail(tailRieul)))
		}
	}
	return cands
}

// vowelStemAccepts rejects a bare vowel-final stem followed by an ending
// that only attaches after a consonant (으, 은, 을, 어, 아 and the past
// tense forms).
func vowelStemAccepts(head []rune, tail string) bool {
	if hasTail(head) {
		return true
	}
	first, _ := utf8.DecodeRuneInString(tail)
	s, ok := decompose(first)
	if !ok {
		return true
	}
	if s.lead != leadIeung {
		return true
	}
	switch s.vowel {
	case vowelEu, vowelEo, vowelA:
		return false
	}
	return true
}

// takesRieulDrop reports endings before which a stem-final ㄹ disappears.
func takesRieulDrop(tail string) bool {
	first, _ := utf8.DecodeRuneInString(tail)
	switch first {
	case '는', '니', '네', '세', '나':
		return true
	}
	return false
}

// derived splits a noun from a following 하다/되다 suffix. Only the noun is
// a candidate; the suffix carries XSV.
func derived(w []rune, start int) ([]Morpheme, bool) {
	for i := 1; i < len(w); i++ {
		if !has(derivationalSyllables, string(w[i])) {
			continue
		}
		rest := string(w[i+1:])
		if rest != "" && !has(endings, rest) {
			continue
		}
		noun := nounMorpheme(w[:i], start)
		suffix := string(w[i])
		return []Morpheme{noun, {
			Form:  suffix,
			Lemma: suffix,
			Tag:   TagXSV,
			Start: start + len(noun.Form),
		}}, true
	}
	return nil, false
}

// lightVerb splits nouns such as 기억 from a following 나다.
func lightVerb(w []rune, start int) ([]Morpheme, bool) {
	for i := 1; i < len(w); i++ {
		if !has(lightVerbNouns, string(w[:i])) || !has(lightVerbSyllables, string(w[i])) {
			continue
		}
		if rest := string(w[i+1:]); rest != "" && !has(endings, rest) {
			continue
		}
		noun := nounMorpheme(w[:i], start)
		return []Morpheme{noun, {
			Form:  "나",
			Lemma: "나다",
			Tag:   TagVV,
			Start: start + len(noun.Form),
		}}, true
	}
	return nil, false
}
