package llm

import (
	"regexp"
	"strings"
)

// SafeRewrite replaces a reply that touches a blocked topic.
const SafeRewrite = "그건 리라가 조심스럽게 다뤄야 할 내용이에요. 다른 방식으로 표현해볼까요?"

var blockedWords = []string{"자살", "폭력", "증오", "혐오"}

var (
	reHangul      = regexp.MustCompile(`[가-힣]`)
	reQuotes      = regexp.MustCompile(`["'“”]`)
	rePastFormal  = regexp.MustCompile(`였습니다\.`)
	rePlainFormal = regexp.MustCompile(`입니다\.`)
)

var quotePairs = [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}}

// PostProcess cleans a raw model reply: wrapping quotes are removed, Korean
// replies lose inner quotes and switch formal endings to 예요, and replies
// mentioning a blocked topic are replaced wholesale.
func PostProcess(reply string) string {
	reply = stripWrappingQuotes(reply)
	if reHangul.MatchString(reply) {
		reply = reQuotes.ReplaceAllString(reply, "")
		reply = rePastFormal.ReplaceAllString(reply, "예요.")
		reply = rePlainFormal.ReplaceAllString(reply, "예요.")
		reply = strings.TrimSpace(reply)
	}
	if !IsSafe(reply) {
		return SafeRewrite
	}
	return reply
}

// IsSafe reports whether text avoids every blocked word.
func IsSafe(text string) bool {
	for _, w := range blockedWords {
		if strings.Contains(text, w) {
			return false
		}
	}
	return true
}

func stripWrappingQuotes(text string) string {
	t := strings.TrimSpace(text)
	for _, p := range quotePairs {
		if len(t) >= len(p[0])+len(p[1]) && strings.HasPrefix(t, p[0]) && strings.HasSuffix(t, p[1]) {
			return strings.TrimSpace(t[len(p[0]) : len(t)-len(p[1])])
		}
	}
	return t
}
