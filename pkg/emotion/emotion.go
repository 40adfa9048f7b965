// Package emotion scores the emotions of an utterance. A Classifier
// produces raw multi-label scores and the Analyzer keeps the meaningful ones.
package emotion

import (
	"context"
	"sort"
	"sync"

	"github.com/lira-ai/lira/pkg/memory"
)

const (
	// DefaultThreshold is the minimum score kept by the Analyzer. Lower
	// sigmoid outputs are noise.
	DefaultThreshold = 0.3
	// DefaultMaxLabels caps the number of emotions returned per utterance.
	DefaultMaxLabels = 3
)

// Classifier returns an independent score in [0,1] for every label it knows.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]memory.Emotion, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) ([]memory.Emotion, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) ([]memory.Emotion, error) {
	return f(ctx, text)
}

// Config tunes the Analyzer.
type Config struct {
	Threshold float64
	MaxLabels int
}

// DefaultConfig returns the default analyzer settings.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, MaxLabels: DefaultMaxLabels}
}

type analyzerLogger interface {
	WarnContext(ctx context.Context, msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) WarnContext(context.Context, string, ...any) {}

// Analyzer post-processes classifier output.
type Analyzer struct {
	classifier Classifier
	logger     analyzerLogger

	mu  sync.RWMutex
	cfg Config
}

// NewAnalyzer creates an Analyzer. A nil logger discards warnings.
func NewAnalyzer(classifier Classifier, cfg Config, logger analyzerLogger) *Analyzer {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Analyzer{classifier: classifier, cfg: cfg.withDefaults(), logger: logger}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.MaxLabels <= 0 {
		c.MaxLabels = DefaultMaxLabels
	}
	return c
}

// SetConfig replaces the analyzer settings for subsequent calls.
func (a *Analyzer) SetConfig(cfg Config) {
	a.mu.Lock()
	a.cfg = cfg.withDefaults()
	a.mu.Unlock()
}

// Config returns the current settings.
func (a *Analyzer) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Analyze returns at most MaxLabels emotions scoring at least Threshold,
// rounded to three decimals and strongest first. When none reaches the
// threshold the single strongest raw score is returned instead. A
// classifier failure yields an empty result.
func (a *Analyzer) Analyze(ctx context.Context, text string) []memory.Emotion {
	raw, err := a.classifier.Classify(ctx, text)
	if err != nil {
		a.logger.WarnContext(ctx, "emotion classification failed", "error", err)
		return []memory.Emotion{}
	}
	if len(raw) == 0 {
		return []memory.Emotion{}
	}

	cfg := a.Config()
	kept := make([]memory.Emotion, 0, len(raw))
	for _, e := range raw {
		if e.Score >= cfg.Threshold {
			kept = append(kept, memory.Emotion{Label: e.Label, Score: memory.Round3(e.Score)})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > cfg.MaxLabels {
		kept = kept[:cfg.MaxLabels]
	}

	if len(kept) == 0 {
		top := memory.SortEmotions(raw)[0]
		kept = []memory.Emotion{{Label: top.Label, Score: memory.Round3(top.Score)}}
	}
	return kept
}

// Static always returns the same scores.
type Static []memory.Emotion

// Classify implements Classifier.
func (s Static) Classify(context.Context, string) ([]memory.Emotion, error) {
	return append([]memory.Emotion(nil), s...), nil
}
