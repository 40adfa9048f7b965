package keyword

// Hangul syllable arithmetic. A precomposed syllable is
// 0xAC00 + (lead*21 + vowel)*28 + tail.

const (
	syllableBase  = 0xAC00
	syllableLast  = 0xD7A3
	vowelCount    = 21
	tailCount     = 28
	leadRieul     = 5
	leadIeung     = 11
	leadHieut     = 18
	vowelA        = 0  // ㅏ
	vowelAe       = 1  // ㅐ
	vowelEo       = 4  // ㅓ
	vowelYeo      = 6  // ㅕ
	vowelO        = 8  // ㅗ
	vowelWa       = 9  // ㅘ
	vowelWae      = 10 // ㅙ
	vowelOe       = 11 // ㅚ
	vowelU        = 13 // ㅜ
	vowelWo       = 14 // ㅝ
	vowelEu       = 18 // ㅡ
	vowelI        = 20 // ㅣ
	tailNone      = 0
	tailNieun     = 4  // ㄴ
	tailRieul     = 8  // ㄹ
	tailMieum     = 16 // ㅁ
	tailBieup     = 17 // ㅂ
	tailSsangSios = 20 // ㅆ
)

type syllable struct {
	lead, vowel, tail int
}

func isSyllable(r rune) bool {
	return r >= syllableBase && r <= syllableLast
}

func decompose(r rune) (syllable, bool) {
	if !isSyllable(r) {
		return syllable{}, false
	}
	n := int(r - syllableBase)
	return syllable{
		lead:  n / (vowelCount * tailCount),
		vowel: (n % (vowelCount * tailCount)) / tailCount,
		tail:  n % tailCount,
	}, true
}

func (s syllable) rune() rune {
	return rune(syllableBase + (s.lead*vowelCount+s.vowel)*tailCount + s.tail)
}

func (s syllable) withTail(tail int) syllable {
	s.tail = tail
	return s
}

func (s syllable) withVowel(vowel int) syllable {
	s.vowel = vowel
	return s
}

// hasTail reports whether the last rune of word is a syllable with a final
// consonant. Non-Hangul words report false.
func hasTail(word []rune) bool {
	if len(word) == 0 {
		return false
	}
	s, ok := decompose(word[len(word)-1])
	return ok && s.tail != tailNone
}

func tailOf(word []rune) int {
	if len(word) == 0 {
		return tailNone
	}
	s, _ := decompose(word[len(word)-1])
	return s.tail
}
