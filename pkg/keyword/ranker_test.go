package keyword

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestRanker_Rank(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
		out  []string
	}{
		{"preference statement", "리라야 내가 좋아하는 커피는 아메리카노야", 3, []string{"커피", "아메리카노", "좋아하는"}},
		{"all candidates", "리라야 내가 좋아하는 커피는 아메리카노야", 10, []string{"커피", "아메리카노", "좋아하는", "좋아"}},
		{"name statement", "내 이름은 민수야", 3, []string{"이름", "민수"}},
		{"recall question", "커피 기억나?", 2, []string{"커피", "기억"}},
		{"english vocative", "hey lira 오늘 날씨", 3, []string{"오늘", "날씨"}},
		{"fallback", "안녕, Lira!!", 3, []string{"안녕"}},
		{"empty", "   ", 3, nil},
		{"zero want", "커피", 0, nil},
	}

	r := NewRanker(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Rank(tt.text, tt.want)
			if diff := cmp.Diff(tt.out, got); diff != "" {
				t.Errorf("Rank(%q, %d) mismatch (-want +got):\n%s", tt.text, tt.want, diff)
			}
		})
	}
}

func TestRanker_Top(t *testing.T) {
	assert.Equal(t, "커피", Top("리라야 내가 좋아하는 커피는 아메리카노야"))
	assert.Equal(t, "이름", Top("내 이름은 민수야"))
	assert.Equal(t, "", Top(""))
	assert.Equal(t, "", Top("리라야"))
}

func TestRanker_AnalyzerFailure(t *testing.T) {
	failing := NewRanker(AnalyzerFunc(func(string) ([]Morpheme, error) {
		return nil, errors.New("boom")
	}), nil)
	assert.Empty(t, failing.Rank("커피 좋아", 3))
	assert.Equal(t, "", failing.Top("커피 좋아"))

	panicking := NewRanker(AnalyzerFunc(func(string) ([]Morpheme, error) {
		panic("analyzer bug")
	}), nil)
	assert.Empty(t, panicking.Rank("커피 좋아", 3))
}

func TestRanker_FrequencyBreaksTies(t *testing.T) {
	stub := AnalyzerFunc(func(string) ([]Morpheme, error) {
		return []Morpheme{
			{Form: "딸기", Lemma: "딸기", Tag: TagNNG},
			{Form: "포도", Lemma: "포도", Tag: TagNNG},
			{Form: "포도", Lemma: "포도", Tag: TagNNG},
		}, nil
	})
	got := NewRanker(stub, nil).Rank("딸기 포도 포도", 2)
	assert.Equal(t, []string{"포도", "딸기"}, got)
}

func TestRanker_DropsSelfReference(t *testing.T) {
	stub := AnalyzerFunc(func(string) ([]Morpheme, error) {
		return []Morpheme{
			{Form: "리라", Lemma: "리라", Tag: TagNNP},
			{Form: "챗봇", Lemma: "챗봇", Tag: TagNNG},
			{Form: "노래", Lemma: "노래", Tag: TagNNG},
		}, nil
	})
	assert.Equal(t, []string{"노래"}, NewRanker(stub, nil).Rank("리라 챗봇 노래", 3))
}
