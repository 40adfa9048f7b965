package archive

import (
	"regexp"
	"sort"
	"time"

	"github.com/lira-ai/lira/pkg/memory"
)

var (
	reQuery     = regexp.MustCompile(`(기억\s*나|기억해|뭐였지|인가|일까|\?)`)
	reNameFact1 = regexp.MustCompile(`(?:내|제)?\s*이름\s*은\s*[가-힣A-Za-z]+`)
	reNameFact2 = regexp.MustCompile(`[가-힣A-Za-z]+\s*(?:라고|이라|이야)\s*해`)
	rePref      = regexp.MustCompile(`(좋아하|좋아해|싫어하|선호|즐기|애정|바꾸|변경)`)
)

// ScoreRow rates a stored utterance as a recalled fact: +5 for a name
// statement, +3 for a preference cue, -4 for a question.
func ScoreRow(text string) float64 {
	s := 0.0
	if reNameFact1.MatchString(text) || reNameFact2.MatchString(text) {
		s += 5.0
	}
	if rePref.MatchString(text) {
		s += 3.0
	}
	if reQuery.MatchString(text) {
		s -= 4.0
	}
	return s
}

// sortRows orders rows by ScoreRow, then timestamp, both descending. Rows
// without a parseable timestamp rank as oldest. Ties keep query order.
func sortRows(rows []memory.Record) {
	type keyed struct {
		rec   memory.Record
		score float64
		ts    time.Time
	}
	ks := make([]keyed, len(rows))
	for i, r := range rows {
		t, _ := memory.ParseTimestamp(r.Timestamp)
		ks[i] = keyed{rec: r, score: ScoreRow(r.Text), ts: t}
	}
	sort.SliceStable(ks, func(a, b int) bool {
		if ks[a].score != ks[b].score {
			return ks[a].score > ks[b].score
		}
		return ks[a].ts.After(ks[b].ts)
	})
	for i := range ks {
		rows[i] = ks[i].rec
	}
}
