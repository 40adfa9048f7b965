// Package llm produces lira's replies and, optionally, emotion scores with a
// hosted language model.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/session"
)

// FallbackReply is returned when the model cannot be reached.
const FallbackReply = "잠시 응답이 지연되고 있어요. 다시 한 번 시도해 볼게요."

var ErrEmptyReply = errors.New("llm: empty reply")

// Request is everything a reply is generated from.
type Request struct {
	Input    string
	Emotion  memory.Emotion
	Recalled []memory.Record
	Session  session.Document
}

// Static replies without a model. It repeats the freshest recalled memory
// when there is one.
type Static struct {
	Reply string
}

// Generate returns the configured reply.
func (s Static) Generate(_ context.Context, req Request) (string, error) {
	for _, r := range req.Recalled {
		if text := strings.TrimSpace(r.Text); text != "" {
			return text, nil
		}
	}
	if s.Reply != "" {
		return s.Reply, nil
	}
	return "네, 듣고 있어요.", nil
}
