package keyword

import "regexp"

// Word sets and patterns used by the ranker. They are built once at package
// init and only read afterwards.

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func has(set map[string]struct{}, w string) bool {
	_, ok := set[w]
	return ok
}

var (
	stopwords = setOf(
		"이", "그", "저", "것", "거", "수", "등", "및", "또", "또는", "그리고", "하지만",
		"그래서", "즉", "혹은", "요", "네", "응", "음", "아", "어", "에", "은", "는", "이요",
		"내", "제", "저의", "것들", "거기", "여기",
	)

	// selfReferential are the agent's own names and aliases.
	selfReferential = setOf("리라", "lira", "어시스턴트", "assistant", "챗봇", "bot")

	slotHints = []string{"이름", "커피", "동물", "반려동물", "색", "취향", "강아지", "고양이", "선호", "기호", "색상"}

	// correctionSlots get an extra boost when the utterance corrects a fact.
	correctionSlots = setOf("이름", "커피", "취향")

	// pronouns and interrogatives that make poor search keys.
	minusTokens = setOf("나", "너", "내", "제", "저", "그대", "당신", "뭐", "무엇", "거", "것", "기억", "나요", "니", "어디", "언제", "누구")

	// preferencePrefixes mark like/dislike/prefer/change roots.
	preferencePrefixes = []string{"좋", "싫", "선호", "애정", "즐기", "관심", "바꾸", "변경", "정정", "교체"}

	emotionOnly = setOf("미안", "미안해", "미안하", "사과", "죄송", "고마워", "고맙", "감사", "감사하")

	fillerVerbs = setOf("힘들", "괜찮아", "괜찮", "되", "하다", "막히")
)

var (
	reKeep       = regexp.MustCompile(`[가-힣0-9a-zA-Z]+`)
	reEojeol     = regexp.MustCompile(`^[가-힣0-9a-zA-Z]+`)
	reCorrection = regexp.MustCompile(`(바꾸|변경|정정|바꿀게|바꿔)`)
	reRecallAsk  = regexp.MustCompile(`(기억\s*나|기억\s*하|기억해|기억해줄|기억해\s*줘)`)

	vocatives = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*리라(야|여)?[\s,]*`),
		regexp.MustCompile(`(?i)^\s*hey\s*lira[\s,]*`),
		regexp.MustCompile(`(?i)^\s*hi\s*lira[\s,]*`),
		regexp.MustCompile(`(?i)^\s*hello\s*lira[\s,]*`),
	}
)
