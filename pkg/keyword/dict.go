package keyword

// Dictionaries for RuleAnalyzer. Predicate entries are stems without the
// citation ending 다.

var predicateStems = map[string]Tag{
	// adjectives
	"좋": TagVA, "싫": TagVA, "괜찮": TagVA, "힘들": TagVA, "슬프": TagVA, "기쁘": TagVA,
	"아프": TagVA, "바쁘": TagVA, "예쁘": TagVA, "귀엽": TagVA, "고맙": TagVA, "즐겁": TagVA,
	"무섭": TagVA, "외롭": TagVA, "춥": TagVA, "덥": TagVA, "맛있": TagVA, "맛없": TagVA,
	"재밌": TagVA, "재미있": TagVA, "재미없": TagVA, "크": TagVA, "작": TagVA, "많": TagVA,
	"적": TagVA, "길": TagVA, "짧": TagVA, "높": TagVA, "낮": TagVA, "멀": TagVA,
	"가깝": TagVA, "어렵": TagVA, "쉽": TagVA, "새롭": TagVA, "피곤하": TagVA, "행복하": TagVA,
	"미안하": TagVA, "심심하": TagVA, "우울하": TagVA, "불안하": TagVA, "편하": TagVA,
	"따뜻하": TagVA, "시원하": TagVA, "같": TagVA, "똑같": TagVA, "다르": TagVA, "빠르": TagVA,
	"느리": TagVA, "부럽": TagVA, "그립": TagVA, "속상하": TagVA, "답답하": TagVA,
	"궁금하": TagVA, "아름답": TagVA, "착하": TagVA, "귀찮": TagVA, "없": TagVA, "있": TagVA,
	"조용하": TagVA, "시끄럽": TagVA, "배고프": TagVA, "졸리": TagVA, "뿌듯하": TagVA,
	// verbs
	"좋아하": TagVV, "싫어하": TagVV, "즐기": TagVV, "바꾸": TagVV, "바뀌": TagVV, "막히": TagVV,
	"되": TagVV, "하": TagVV, "가": TagVV, "오": TagVV, "보": TagVV, "먹": TagVV, "마시": TagVV,
	"자": TagVV, "만나": TagVV, "알": TagVV, "모르": TagVV, "잊": TagVV, "잊어버리": TagVV,
	"기다리": TagVV, "말하": TagVV, "살": TagVV, "사": TagVV, "주": TagVV, "받": TagVV,
	"쓰": TagVV, "읽": TagVV, "놀": TagVV, "울": TagVV, "웃": TagVV, "걷": TagVV,
	"달리": TagVV, "배우": TagVV, "가르치": TagVV, "키우": TagVV, "싸우": TagVV, "끝나": TagVV,
	"원하": TagVV, "느끼": TagVV, "지내": TagVV, "쉬": TagVV, "찾": TagVV, "잃어버리": TagVV,
	"부르": TagVV, "고르": TagVV, "정하": TagVV, "만들": TagVV, "보내": TagVV, "돕": TagVV,
	"그리": TagVV, "입": TagVV, "타": TagVV, "듣": TagVV, "신나": TagVV, "떠나": TagVV,
	"일어나": TagVV, "헤어지": TagVV, "사귀": TagVV, "믿": TagVV, "참": TagVV, "버리": TagVV,
	// auxiliaries
	"싶": TagVX, "않": TagVX,
	// negative copula
	"아니": TagVCN,
}

// knownNouns stop particle stripping and win over predicate readings.
var knownNouns = setOf(
	"이름", "커피", "동물", "반려동물", "색", "취향", "강아지", "고양이", "선호", "기호", "색상",
	"아메리카노", "라떼", "우유", "녹차", "음식", "음악", "영화", "노래", "책", "친구", "가족",
	"엄마", "아빠", "언니", "오빠", "누나", "형", "동생", "회사", "학교", "집", "일", "공부",
	"시험", "운동", "산책", "여행", "날씨", "오늘", "내일", "어제", "주말", "아침", "점심",
	"저녁", "밤", "시간", "사람", "마음", "기분", "감정", "생각", "기억", "사랑", "행복",
	"걱정", "스트레스", "고민", "취미", "게임", "사진", "가게", "자기", "포도", "사과",
	"바나나", "딸기", "과일", "초콜릿", "케이크", "빵", "떡볶이", "치킨", "피자", "라면",
	"김치", "밥", "물", "술", "맥주", "와인", "파란색", "빨간색", "노란색", "초록색",
	"검은색", "흰색", "보라색", "분홍색", "하늘", "바다", "산", "비", "눈", "꽃", "나무",
	"봄", "여름", "가을", "겨울", "생일", "선물", "별명", "호칭", "성함", "직업", "전화",
	"휴대폰", "컴퓨터", "프로젝트", "코드", "회의", "발표", "면접", "생활", "건강", "병원",
	"약", "잠", "꿈", "오후", "오전", "요즘", "하루", "이야기", "얘기", "대화", "질문",
	"도움", "부탁", "저장", "미안", "감사", "사과", "죄송", "관심", "애정", "변경", "정정",
	"교체", "보고", "가방", "가수", "배우", "노을",
)

var properNouns = setOf("리라", "서울", "부산", "제주", "한국", "미국", "일본", "파이썬")

var boundNouns = setOf("것", "거", "수", "때", "데", "줄", "번", "개", "분", "적", "뿐", "중", "걸", "게")

var numerals = setOf("하나", "둘", "셋", "넷", "다섯", "여섯", "일곱", "여덟", "아홉", "열", "첫째", "둘째")

var pronouns = setOf(
	"나", "너", "내", "제", "저", "우리", "저희", "너희", "그대", "당신", "뭐", "무엇", "누구",
	"어디", "언제", "여기", "거기", "저기", "이것", "그것", "저것", "이거", "그거", "저거", "자기",
	"얘", "걔", "쟤",
)

// closedClass words are tagged as a whole without further analysis.
var closedClass = func() map[string]Tag {
	m := map[string]Tag{}
	for _, w := range []string{
		"너무", "정말", "진짜", "아주", "매우", "좀", "많이", "다시", "같이", "계속", "항상",
		"자주", "가끔", "제일", "가장", "더", "잘", "못", "안", "왜", "벌써", "아직", "이제",
		"그냥", "딱", "꼭", "완전", "다", "또", "늘", "먼저", "요즘엔", "결국", "혹시", "어떻게",
	} {
		m[w] = TagMAG
	}
	for _, w := range []string{"그리고", "그래서", "하지만", "그런데", "근데", "그러나", "그럼", "또는", "혹은", "즉"} {
		m[w] = TagMAJ
	}
	for _, w := range []string{"이", "그", "저", "새", "모든", "어느", "무슨", "어떤", "몇", "이런", "그런", "저런"} {
		m[w] = TagMM
	}
	for _, w := range []string{"응", "네", "아", "어", "음", "와", "헐", "예", "아니", "흠", "우와", "안녕"} {
		m[w] = TagIC
	}
	return m
}()

// endings are verbal endings that may follow a predicate stem, including
// auxiliary chains written without a space.
var endings = setOf(
	"다", "요", "어", "아", "여", "어요", "아요", "여요", "는", "은", "을", "고", "지", "지만",
	"게", "서", "어서", "아서", "면", "으면", "니", "냐", "네", "나", "까", "니까", "으니까",
	"죠", "지요", "자", "세요", "으세요", "습니다", "니다", "어라", "아라", "는데", "은데",
	"던", "었어", "았어", "었다", "았다", "었어요", "았어요", "겠다", "겠어", "겠어요", "어도",
	"아도", "도", "거든", "잖아", "는다", "었지", "았지", "었니", "았니", "을게", "을래",
	"을까", "던데", "네요", "군요", "구나", "는구나", "어야", "아야", "기", "음", "게요",
	"었고", "았고", "었는데", "았는데", "대", "래", "데", "까요", "래요", "게요", "어줘",
	"아줘", "어주세요", "아주세요", "줘", "줄래", "주세요", "줘요", "줄게", "고싶어",
	"고싶다", "고싶은", "고싶어요", "고있어", "고있다", "지마", "지않아", "는지", "은지",
	"을지", "었어서", "았어서", "었던", "았던", "겠지", "지도", "야지", "야돼", "야해",
	"ㅂ니다", "서요", "니요", "냐고", "다고", "라고", "는다고", "었다고", "았다고",
)

// derivationalSyllables start a 하다/되다 suffix on a noun.
var derivationalSyllables = setOf("하", "해", "했", "한", "할", "합", "함", "되", "돼", "됐", "된", "될")

// lightVerbNouns combine with 나다 as a separate verb morpheme.
var lightVerbNouns = setOf("기억", "생각", "화", "짜증", "겁", "눈물", "소문")

var lightVerbSyllables = setOf("나", "났", "난", "날", "납")

type particleContext int

const (
	afterAny particleContext = iota
	afterConsonant
	afterVowel
	afterVowelOrRieul
)

type particle struct {
	form  string
	after particleContext
}

// particles are ordered longest first.
var particles = []particle{
	{"에서는", afterAny}, {"에게서", afterAny}, {"한테서", afterAny}, {"에서도", afterAny},
	{"에게는", afterAny}, {"한테는", afterAny}, {"까지는", afterAny}, {"부터는", afterAny},
	{"이라고", afterConsonant}, {"이라는", afterConsonant}, {"이라서", afterConsonant},
	{"이에요", afterConsonant}, {"이었어", afterConsonant}, {"이었지", afterConsonant},
	{"이었나", afterConsonant}, {"으로는", afterConsonant},
	{"에서", afterAny}, {"에게", afterAny}, {"한테", afterAny}, {"께서", afterAny},
	{"까지", afterAny}, {"부터", afterAny}, {"처럼", afterAny}, {"보다", afterAny},
	{"마다", afterAny}, {"하고", afterAny}, {"에는", afterAny}, {"에도", afterAny},
	{"만큼", afterAny}, {"밖에", afterAny}, {"조차", afterAny},
	{"이랑", afterConsonant}, {"이나", afterConsonant}, {"이야", afterConsonant},
	{"이지", afterConsonant}, {"이다", afterConsonant}, {"이고", afterConsonant},
	{"으로", afterConsonant}, {"이요", afterConsonant},
	{"라고", afterVowel}, {"라는", afterVowel}, {"라서", afterVowel}, {"예요", afterVowel},
	{"였어", afterVowel}, {"였지", afterVowel}, {"였나", afterVowel}, {"로는", afterVowelOrRieul},
	{"은", afterConsonant}, {"이", afterConsonant}, {"을", afterConsonant}, {"과", afterConsonant},
	{"아", afterConsonant},
	{"는", afterVowel}, {"가", afterVowel}, {"를", afterVowel}, {"와", afterVowel},
	{"랑", afterVowel}, {"야", afterVowel}, {"로", afterVowelOrRieul},
	{"의", afterAny}, {"에", afterAny}, {"도", afterAny}, {"만", afterAny}, {"요", afterAny},
}
