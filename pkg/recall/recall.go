// Package recall fuses semantic, factual and emotional recall into the few
// long-term memories a reply is conditioned on.
package recall

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/session"
)

const tracerName = "lira.recall"

// Recall paths in merge order.
const (
	PathSemantic  = "semantic"
	PathFactual   = "factual"
	PathEmotional = "emotional"
)

var ErrArchiveRequired = errors.New("recall: fact archive required")

var (
	// reSuppressSemantic marks a plain "do you remember" question, which is
	// answered from facts only.
	reSuppressSemantic = regexp.MustCompile(`기억나(?:니)?\??`)
	rePreferenceSlot   = regexp.MustCompile(`좋아하|싫어하|선호|즐기|애정`)
)

var (
	factTriggers = []string{"기억나", "기억나니"}
	nameSlots    = []string{"이름", "성함", "호칭"}
)

// Config tunes the pipeline.
type Config struct {
	// SimilarityThreshold is the certainty a semantic candidate must exceed.
	SimilarityThreshold float64
	// EmotionThreshold is the top emotion score that enables emotional recall.
	EmotionThreshold float64
	// Limit caps the fused result.
	Limit int
	// FactLimit caps rows per confirm query.
	FactLimit int
	// EmotionalLimit caps rows of the emotional query.
	EmotionalLimit int
	// Source labels the session buffer entries.
	Source string
}

// DefaultConfig returns the default recall settings.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.7,
		EmotionThreshold:    0.6,
		Limit:               3,
		FactLimit:           1,
		EmotionalLimit:      3,
		Source:              "LTM_Recall",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = def.SimilarityThreshold
	}
	if c.EmotionThreshold <= 0 {
		c.EmotionThreshold = def.EmotionThreshold
	}
	if c.Limit <= 0 {
		c.Limit = def.Limit
	}
	if c.FactLimit <= 0 {
		c.FactLimit = def.FactLimit
	}
	if c.EmotionalLimit <= 0 {
		c.EmotionalLimit = def.EmotionalLimit
	}
	if c.Source == "" {
		c.Source = def.Source
	}
	return c
}

// FactArchive is the exact-match store queried by the factual and emotional
// paths.
type FactArchive interface {
	Confirm(ctx context.Context, term, userID string, max int) ([]memory.Record, error)
	Find(ctx context.Context, text, userID string, limit int) ([]memory.Record, error)
}

// FactArchiveFuncs adapts plain functions to FactArchive. A nil function
// returns no rows.
type FactArchiveFuncs struct {
	ConfirmFunc func(ctx context.Context, term, userID string, max int) ([]memory.Record, error)
	FindFunc    func(ctx context.Context, text, userID string, limit int) ([]memory.Record, error)
}

// Confirm implements FactArchive.
func (f FactArchiveFuncs) Confirm(ctx context.Context, term, userID string, max int) ([]memory.Record, error) {
	if f.ConfirmFunc == nil {
		return nil, nil
	}
	return f.ConfirmFunc(ctx, term, userID, max)
}

// Find implements FactArchive.
func (f FactArchiveFuncs) Find(ctx context.Context, text, userID string, limit int) ([]memory.Record, error) {
	if f.FindFunc == nil {
		return nil, nil
	}
	return f.FindFunc(ctx, text, userID, limit)
}

// Buffer receives the recalled memories of a turn.
type Buffer interface {
	AppendRecall(ctx context.Context, sessionID string, entries ...session.RecallEntry) error
}

// KeywordFunc returns the most salient keyword of a text, or "".
type KeywordFunc func(text string) string

// Recorder observes pipeline outcomes. *metrics.Manager implements it.
type Recorder interface {
	RecordPathHits(path string, hits int)
	RecordPathError(path string)
	RecordResults(n int)
	RecordDuration(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordPathHits(string, int) {}
func (nopRecorder) RecordPathError(string) {}
func (nopRecorder) RecordResults(int) {}
func (nopRecorder) RecordDuration(time.Duration) {}

type recallLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) DebugContext(context.Context, string, ...any) {}
func (nopLogger) WarnContext(context.Context, string, ...any) {}
func (nopLogger) ErrorContext(context.Context, string, ...any) {}

// Input is one turn as seen by the pipeline.
type Input struct {
	Text     string
	Emotions []memory.Emotion
	// Semantic holds the candidates of the semantic index. Nil is empty.
	Semantic  []memory.Record
	UserID    string
	SessionID string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig sets the initial tunables.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) { p.SetConfig(cfg) }
}

// WithBuffer sets the session buffer the recalled memories are appended to.
func WithBuffer(b Buffer) Option {
	return func(p *Pipeline) { p.buffer = b }
}

// WithKeyword overrides the keyword extractor used by the slot detector.
func WithKeyword(fn KeywordFunc) Option {
	return func(p *Pipeline) { p.keyword = fn }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l recallLogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the clock used for buffer timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline is the recall fusion pipeline.
type Pipeline struct {
	facts    FactArchive
	buffer   Buffer
	keyword  KeywordFunc
	recorder Recorder
	logger   recallLogger
	tracer   trace.Tracer
	now      func() time.Time

	cfg atomic.Pointer[Config]
}

// NewPipeline creates a pipeline over the exact-match archive.
func NewPipeline(facts FactArchive, keyword KeywordFunc, opts ...Option) (*Pipeline, error) {
	if facts == nil {
		return nil, ErrArchiveRequired
	}
	p := &Pipeline{
		facts:    facts,
		keyword:  keyword,
		recorder: nopRecorder{},
		logger:   nopLogger{},
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	p.SetConfig(DefaultConfig())
	for _, opt := range opts {
		opt(p)
	}
	if p.keyword == nil {
		p.keyword = func(string) string { return "" }
	}
	return p, nil
}

// SetConfig replaces the tunables. It is safe to call concurrently with
// Recall; calls in flight keep the config they started with.
func (p *Pipeline) SetConfig(cfg Config) {
	cfg = cfg.withDefaults()
	p.cfg.Store(&cfg)
}

// Config returns the current tunables.
func (p *Pipeline) Config() Config {
	return *p.cfg.Load()
}

// pathResult is the contribution of one recall path.
type pathResult struct {
	records []memory.Record
	err     error
}

// Recall returns at most Limit memories, newest first, and appends them to
// the session buffer. Path failures are logged and contribute nothing; the
// call itself never fails.
func (p *Pipeline) Recall(ctx context.Context, in Input) []memory.Record {
	start := time.Now()
	cfg := p.Config()

	ctx, span := p.tracer.Start(ctx, "recall.fuse", trace.WithAttributes(
		attribute.String("user.id", in.UserID),
		attribute.Int("semantic.candidates", len(in.Semantic)),
	))
	defer span.End()

	emotions := memory.WithNeutral(in.Emotions)
	top := emotions[0]

	var slots [3]pathResult
	slots[0] = p.guard(ctx, PathSemantic, func(context.Context) ([]memory.Record, error) {
		return p.semantic(in, cfg), nil
	})

	var wg sync.WaitGroup
	if terms := p.factTerms(in.Text); len(terms) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slots[1] = p.guard(ctx, PathFactual, func(ctx context.Context) ([]memory.Record, error) {
				return p.factual(ctx, terms, in.UserID, cfg)
			})
		}()
	}
	if top.Score >= cfg.EmotionThreshold && top.Label != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slots[2] = p.guard(ctx, PathEmotional, func(ctx context.Context) ([]memory.Record, error) {
				return p.facts.Find(ctx, in.Text+" "+top.Label, in.UserID, cfg.EmotionalLimit)
			})
		}()
	}
	wg.Wait()

	paths := [3]string{PathSemantic, PathFactual, PathEmotional}
	for i, res := range slots {
		if res.err != nil {
			p.recorder.RecordPathError(paths[i])
			p.logger.WarnContext(ctx, "recall path failed", "path", paths[i], "error", res.err)
		}
	}

	merged := merge(cfg.Limit, slots[0].records, slots[1].records, slots[2].records)
	p.appendToBuffer(ctx, in.SessionID, merged, cfg.Source)

	span.SetAttributes(attribute.Int("recall.results", len(merged)))
	p.recorder.RecordResults(len(merged))
	p.recorder.RecordDuration(time.Since(start))
	p.logger.DebugContext(ctx, "recall fused",
		"semantic", len(slots[0].records),
		"factual", len(slots[1].records),
		"emotional", len(slots[2].records),
		"results", len(merged),
	)
	return merged
}

// guard runs one path in its own span and converts panics into errors.
func (p *Pipeline) guard(ctx context.Context, path string, fn func(context.Context) ([]memory.Record, error)) (res pathResult) {
	ctx, span := p.tracer.Start(ctx, "recall."+path)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			res = pathResult{err: fmt.Errorf("recall: %s path panicked: %v", path, r)}
		}
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, res.err.Error())
			res.records = nil
			return
		}
		span.SetAttributes(attribute.Int("recall.hits", len(res.records)))
		p.recorder.RecordPathHits(path, len(res.records))
	}()

	records, err := fn(ctx)
	return pathResult{records: records, err: err}
}

// semantic keeps the caller's candidates above the similarity threshold.
func (p *Pipeline) semantic(in Input, cfg Config) []memory.Record {
	if reSuppressSemantic.MatchString(in.Text) {
		return nil
	}
	var out []memory.Record
	for _, c := range in.Semantic {
		if c.UserID != in.UserID || c.Similarity <= cfg.SimilarityThreshold {
			continue
		}
		out = append(out, c)
	}
	return out
}

// factTerms returns the confirm-query terms, or nil when the factual path
// does not apply.
func (p *Pipeline) factTerms(text string) []string {
	slots := p.slots(text)
	if len(slots) > 0 {
		return slots
	}
	for _, t := range factTriggers {
		if strings.Contains(text, t) {
			if kw := p.keyword(text); kw != "" {
				return []string{kw}
			}
			return nil
		}
	}
	return nil
}

// slots detects the information slots a text asks about.
func (p *Pipeline) slots(text string) []string {
	var slots []string
	for _, s := range nameSlots {
		if strings.Contains(text, s) {
			slots = append(slots, "이름")
			break
		}
	}
	if rePreferenceSlot.MatchString(text) {
		if kw := p.keyword(text); kw != "" && (len(slots) == 0 || slots[0] != kw) {
			slots = append(slots, kw)
		}
	}
	return slots
}

func (p *Pipeline) factual(ctx context.Context, terms []string, userID string, cfg Config) ([]memory.Record, error) {
	var (
		out  []memory.Record
		errs []error
	)
	for _, term := range terms {
		rows, err := p.facts.Confirm(ctx, term, userID, cfg.FactLimit)
		if err != nil {
			errs = append(errs, fmt.Errorf("confirm %q: %w", term, err))
			continue
		}
		out = append(out, rows...)
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// merge dedupes by normalized text with the first writer winning, sorts by
// recency and truncates.
func merge(limit int, paths ...[]memory.Record) []memory.Record {
	seen := make(map[string]struct{})
	var out []memory.Record
	for _, records := range paths {
		for _, r := range records {
			if strings.TrimSpace(r.Text) == "" {
				continue
			}
			key := memory.NormalizeText(r.Text)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return memory.Newer(out[i], out[j])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (p *Pipeline) appendToBuffer(ctx context.Context, sessionID string, records []memory.Record, source string) {
	if p.buffer == nil || sessionID == "" || len(records) == 0 {
		return
	}
	stamp := memory.FormatTimestamp(p.now())
	entries := make([]session.RecallEntry, 0, len(records))
	for _, r := range records {
		ts := stamp
		if t, ok := memory.ParseTimestamp(r.Timestamp); ok {
			ts = memory.FormatTimestamp(t)
		}
		entries = append(entries, session.RecallEntry{Source: source, Text: r.Text, Timestamp: ts})
	}
	if err := p.buffer.AppendRecall(ctx, sessionID, entries...); err != nil {
		p.logger.ErrorContext(ctx, "append recall to session failed", "session_id", sessionID, "error", err)
	}
}
