package llm

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/lira-ai/lira/pkg/memory"
)

// SystemPrompt sets lira's persona and reply rules.
const SystemPrompt = `당신은 감정을 이해하고 기억하는 AI '리라'입니다.

[규칙]
1) 모든 응답은 한국어로 시작하며, 한 문장으로 간결히 답하세요 (최대 이모지 1개).
2) 단순 회상(이름/취향/사실)은 짧게 단정형으로만 답하고, 프롬프트 해설은 금지합니다.
3) 따옴표는 사용하지 않습니다.
4) 기억이 충돌하면 최신 타임스탬프의 정보를 진실로 간주합니다.
5) 저장 트리거(예: '기억해')나 사실 명시가 있으면 모호하더라도 단정형으로 답합니다.
6) 해당 주제와 관련된 기억이 하나라도 있으면 모르겠어요를 말하지 않고 단정형으로 답합니다.
7) 관련 기억이 전혀 없을 때만 추측 없이 모르겠어요 라고 답합니다.
8) 기억 응답에서는 저장 관련 문구를 쓰지 않습니다. 사실만 말합니다.
9) 날짜, 점수, 감정 라벨, 내부 키, 저장 여부 같은 메타데이터는 출력하지 않습니다.
10) 규칙이 애매하면 간결함을 우선합니다.
11) 사용자의 감정에 맞춰 톤을 조절하고, 공감하는 말투로 답합니다.`

const noMemories = "(참고할 특정 기억 없음)"

type promptMemory struct {
	text string
	ts   string
}

// BuildPrompt renders the user message: the short-term chat history, the
// recalled memories newest first, the emotion and the current input.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("다음은 사용자와의 대화입니다.\n\n[대화 기록 - 최근(Short-term)]\n")
	for _, turn := range req.Session.ChatHistory {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}

	b.WriteString("\n[회상된 기억 - 장기(Long-term)]\n")
	b.WriteString(memoryBlock(req))

	score := math.Round(req.Emotion.Score*100) / 100
	fmt.Fprintf(&b, "\n\n[사용자 감정 상태]\n감정: %s, 감정강도(점수): %v\n", req.Emotion.Label, score)
	fmt.Fprintf(&b, "\n[현재 대화]\n사용자: %s\n리라:", req.Input)
	return b.String()
}

func memoryBlock(req Request) string {
	all := make([]promptMemory, 0, len(req.Recalled)+len(req.Session.RecalledBuffer))
	for _, r := range req.Recalled {
		all = append(all, promptMemory{text: r.Text, ts: r.Timestamp})
	}
	for _, e := range req.Session.RecalledBuffer {
		all = append(all, promptMemory{text: e.Text, ts: e.Timestamp})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return memory.Newer(memory.Record{Timestamp: all[i].ts}, memory.Record{Timestamp: all[j].ts})
	})

	seen := make(map[string]struct{}, len(all))
	var lines []string
	for _, m := range all {
		if strings.TrimSpace(m.text) == "" {
			continue
		}
		key := strings.ToLower(strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, m.text))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		stamp := ""
		if t, ok := memory.ParseTimestamp(m.ts); ok {
			stamp = "(" + t.Format("2006-01-02 15:04:05") + ") "
		}
		lines = append(lines, "- "+stamp+m.text)
	}
	if len(lines) == 0 {
		return noMemories
	}
	return strings.Join(lines, "\n")
}
