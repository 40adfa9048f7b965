package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		tag   Tag
		text  string
		want  float64
	}{
		{"empty", "", TagNNG, "", LowestScore},
		{"slot noun under correction", "커피", TagNNG, "커피 바꿀게", 4.6},
		{"proper noun", "서울", TagNNP, "", 2.6},
		{"filler adjective", "괜찮", TagVA, "", 0.9},
		{"politeness", "미안해", TagVA, "", 0.4},
		{"pronoun in recall question", "나", TagNP, "기억나?", -5.9},
		{"preference verb", "좋아", TagVV, "", 1.8},
		{"slot hint substring", "고양이들", TagNNG, "", 4.2},
		{"memory noun in recall question", "기억", TagNNG, "기억해줘", -3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreToken(tt.token, tt.tag, tt.text), 1e-9)
		})
	}
}
