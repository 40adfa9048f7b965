package api

import (
	"io"
	"testing"
	"time"

	"github.com/lira-ai/lira/config"
	"github.com/lira-ai/lira/pkg/api/handlers"
	"github.com/lira-ai/lira/pkg/archive"
	"github.com/lira-ai/lira/pkg/emotion"
	"github.com/lira-ai/lira/pkg/keyword"
	"github.com/lira-ai/lira/pkg/llm"
	"github.com/lira-ai/lira/pkg/logger"
	"github.com/lira-ai/lira/pkg/recall"
	"github.com/lira-ai/lira/pkg/semantic"
	"github.com/lira-ai/lira/pkg/session"
	storagemem "github.com/lira-ai/lira/pkg/storage/memory"
	"github.com/lira-ai/lira/pkg/turn"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.HTTP.RequestTimeout = 5 * time.Second
	cfg.Server.RateLimit.Enabled = false
	return cfg
}

func testLogger() logger.Logger {
	return logger.New(&logger.Config{
		Level:  logger.ErrorLevel,
		Format: "json",
		Writer: io.Discard,
	})
}

type testStack struct {
	handlers *Handlers
	facts    *archive.Archive
	semantic *semantic.MemoryArchive
	sessions *session.MemoryStore
}

// newTestStack wires in-memory backends behind the real handlers.
func newTestStack(tb testing.TB, emotions emotion.Classifier) *testStack {
	tb.Helper()

	facts, err := archive.New(storagemem.NewMemoryStorage(), keyword.NewRanker(keyword.NewRuleAnalyzer(), nil), nil)
	if err != nil {
		tb.Fatalf("archive: %v", err)
	}
	sem, err := semantic.NewMemoryArchive(semantic.NewHashEmbedder(semantic.DefaultDimensions))
	if err != nil {
		tb.Fatalf("semantic: %v", err)
	}
	sessions := session.NewMemoryStore(session.DefaultConfig())
	pipeline, err := recall.NewPipeline(facts, keyword.Top, recall.WithBuffer(sessions))
	if err != nil {
		tb.Fatalf("pipeline: %v", err)
	}

	svc, err := turn.New(turn.Deps{
		Emotions:  emotion.NewAnalyzer(emotions, emotion.DefaultConfig(), nil),
		Semantic:  sem,
		Facts:     facts,
		Sessions:  sessions,
		Recaller:  pipeline,
		Gate:      recall.NewGate(recall.DefaultPersistThreshold),
		Generator: llm.Static{Reply: "네, 듣고 있어요."},
	}, 3)
	if err != nil {
		tb.Fatalf("turn: %v", err)
	}

	health := handlers.NewHealthHandler("test")
	return &testStack{
		handlers: &Handlers{
			Generate: handlers.NewGenerateHandler(svc),
			Sessions: handlers.NewSessionHandler(sessions),
			Health:   health,
		},
		facts:    facts,
		semantic: sem,
		sessions: sessions,
	}
}
