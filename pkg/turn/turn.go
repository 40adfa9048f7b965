// Package turn runs one conversational turn end to end: emotion analysis,
// recall, persistence and reply generation.
package turn

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lira-ai/lira/pkg/llm"
	"github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/recall"
	"github.com/lira-ai/lira/pkg/session"
)

const tracerName = "lira.turn"

// EmotionMode is reported with every response.
const EmotionMode = "central"

var (
	ErrInvalidRequest   = errors.New("turn: invalid request")
	ErrGenerationFailed = errors.New("turn: generation failed")
	ErrPersistFailed    = errors.New("turn: persist failed")
)

// reRecallQuestion skips the semantic search for plain recall questions.
var reRecallQuestion = regexp.MustCompile(`기억나(?:니)?\??`)

// Request is one user utterance.
type Request struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

// EmotionSummary carries the three strongest emotions. Missing ranks are nil.
type EmotionSummary struct {
	FirstLabel  string   `json:"emotion_1st_label"`
	FirstScore  float64  `json:"emotion_1st_score"`
	SecondLabel *string  `json:"emotion_2nd_label"`
	SecondScore *float64 `json:"emotion_2nd_score"`
	ThirdLabel  *string  `json:"emotion_3rd_label"`
	ThirdScore  *float64 `json:"emotion_3rd_score"`
	Mode        string   `json:"emotion_mode"`
}

// Response is the reply to a turn.
type Response struct {
	Output  string         `json:"output"`
	Emotion EmotionSummary `json:"emotion"`

	// Recalled and Persisted are not serialized; they describe the turn
	// for logs and tests.
	Recalled  []memory.Record `json:"-"`
	Persisted bool            `json:"-"`
}

// Summarize builds the emotion summary of emotions sorted strongest first.
func Summarize(emotions []memory.Emotion) EmotionSummary {
	emotions = memory.WithNeutral(emotions)
	s := EmotionSummary{
		FirstLabel: emotions[0].Label,
		FirstScore: emotions[0].Score,
		Mode:       EmotionMode,
	}
	if len(emotions) > 1 {
		s.SecondLabel, s.SecondScore = &emotions[1].Label, &emotions[1].Score
	}
	if len(emotions) > 2 {
		s.ThirdLabel, s.ThirdScore = &emotions[2].Label, &emotions[2].Score
	}
	return s
}

// Collaborators

type EmotionAnalyzer interface {
	Analyze(ctx context.Context, text string) []memory.Emotion
}

type SemanticArchive interface {
	Store(ctx context.Context, userID, text string, emotions []memory.Emotion) (memory.Record, error)
	Search(ctx context.Context, text string, topK int, userID string) ([]memory.Record, error)
	Delete(ctx context.Context, userID, id string) error
}

type FactArchive interface {
	Save(ctx context.Context, userID, text string, emotions []memory.Emotion) (memory.Record, error)
	Delete(ctx context.Context, userID, id string) error
}

type SessionStore interface {
	Get(ctx context.Context, sessionID string) (session.Document, error)
	AppendChat(ctx context.Context, sessionID string, messages ...session.ChatMessage) error
}

type Recaller interface {
	Recall(ctx context.Context, in recall.Input) []memory.Record
}

type PersistGate interface {
	ShouldPersist(text string, emotions []memory.Emotion) bool
}

type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// StoreRecorder observes long-term writes. *metrics.Manager implements it.
type StoreRecorder interface {
	RecordGateDecision(persist bool)
	RecordStoreWrite(store, status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordGateDecision(bool) {}
func (nopRecorder) RecordStoreWrite(string, string) {}

type turnLogger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) InfoContext(context.Context, string, ...any) {}
func (nopLogger) WarnContext(context.Context, string, ...any) {}
func (nopLogger) ErrorContext(context.Context, string, ...any) {}

// Deps are the collaborators of a Service. Every field except Logger and
// Recorder is required.
type Deps struct {
	Emotions  EmotionAnalyzer
	Semantic  SemanticArchive
	Facts     FactArchive
	Sessions  SessionStore
	Recaller  Recaller
	Gate      PersistGate
	Generator Generator
	Logger    turnLogger
	Recorder  StoreRecorder
}

// Service orchestrates turns.
type Service struct {
	deps       Deps
	semanticK  int
	tracer     trace.Tracer
	rollbackTO time.Duration
}

// New validates deps and returns a Service. semanticTopK <= 0 selects 3.
func New(deps Deps, semanticTopK int) (*Service, error) {
	switch {
	case deps.Emotions == nil:
		return nil, fmt.Errorf("turn: emotion analyzer required")
	case deps.Semantic == nil:
		return nil, fmt.Errorf("turn: semantic archive required")
	case deps.Facts == nil:
		return nil, fmt.Errorf("turn: fact archive required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("turn: session store required")
	case deps.Recaller == nil:
		return nil, fmt.Errorf("turn: recaller required")
	case deps.Gate == nil:
		return nil, fmt.Errorf("turn: gate required")
	case deps.Generator == nil:
		return nil, fmt.Errorf("turn: generator required")
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if semanticTopK <= 0 {
		semanticTopK = 3
	}
	return &Service{
		deps:       deps,
		semanticK:  semanticTopK,
		tracer:     otel.Tracer(tracerName),
		rollbackTO: 5 * time.Second,
	}, nil
}

// Handle runs one turn. Only invalid input and a failed generation are
// errors; every other failure degrades the turn and is logged.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Text) == "" {
		return nil, ErrInvalidRequest
	}

	ctx, span := s.tracer.Start(ctx, "turn.handle", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("session.id", req.SessionID),
	))
	defer span.End()

	doc, err := s.deps.Sessions.Get(ctx, req.SessionID)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "load session failed, starting empty", "session_id", req.SessionID, "error", err)
		doc = session.NewDocument(time.Now())
	}

	emotions := memory.WithNeutral(s.deps.Emotions.Analyze(ctx, req.Text))

	var candidates []memory.Record
	if !reRecallQuestion.MatchString(req.Text) {
		candidates, err = s.deps.Semantic.Search(ctx, req.Text, s.semanticK, req.UserID)
		if err != nil {
			s.deps.Logger.WarnContext(ctx, "semantic search failed", "error", err)
			candidates = nil
		}
	}

	recalled := s.recall(ctx, recall.Input{
		Text:      req.Text,
		Emotions:  emotions,
		Semantic:  candidates,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})

	persist := s.deps.Gate.ShouldPersist(req.Text, emotions)
	s.deps.Recorder.RecordGateDecision(persist)
	persisted := false
	if persist {
		if err := s.persist(ctx, req, emotions); err != nil {
			s.deps.Logger.ErrorContext(ctx, "persist turn failed", "error", err)
		} else {
			persisted = true
		}
	}

	reply, err := s.deps.Generator.Generate(ctx, llm.Request{
		Input:    req.Text,
		Emotion:  emotions[0],
		Recalled: recalled,
		Session:  doc,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if err := s.deps.Sessions.AppendChat(ctx, req.SessionID,
		session.ChatMessage{Role: session.RoleUser, Content: req.Text},
		session.ChatMessage{Role: session.RoleAssistant, Content: reply},
	); err != nil {
		s.deps.Logger.WarnContext(ctx, "append chat history failed", "session_id", req.SessionID, "error", err)
	}

	span.SetAttributes(
		attribute.Int("recall.results", len(recalled)),
		attribute.Bool("turn.persisted", persisted),
	)
	return &Response{
		Output:    reply,
		Emotion:   Summarize(emotions),
		Recalled:  recalled,
		Persisted: persisted,
	}, nil
}

func (s *Service) recall(ctx context.Context, in recall.Input) (out []memory.Record) {
	defer func() {
		if r := recover(); r != nil {
			s.deps.Logger.ErrorContext(ctx, "recall panicked", "panic", r)
			out = nil
		}
	}()
	return s.deps.Recaller.Recall(ctx, in)
}

// persist writes the turn to both long-term stores concurrently. If one
// write fails the other is deleted again, so either both stores hold the
// turn or neither does.
func (s *Service) persist(ctx context.Context, req Request, emotions []memory.Emotion) error {
	ctx, span := s.tracer.Start(ctx, "turn.persist")
	defer span.End()

	var factRec, semRec memory.Record
	var factErr, semErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		factRec, factErr = s.deps.Facts.Save(gctx, req.UserID, req.Text, emotions)
		return factErr
	})
	g.Go(func() error {
		semRec, semErr = s.deps.Semantic.Store(gctx, req.UserID, req.Text, emotions)
		return semErr
	})
	err := g.Wait()

	s.deps.Recorder.RecordStoreWrite("archive", status(factErr))
	s.deps.Recorder.RecordStoreWrite("semantic", status(semErr))
	if err == nil {
		return nil
	}

	// Roll back whichever write landed. The request context may already
	// be cancelled, so rollbacks get their own deadline.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.rollbackTO)
	defer cancel()
	if factErr == nil && factRec.ID != "" {
		if rerr := s.deps.Facts.Delete(rctx, req.UserID, factRec.ID); rerr != nil {
			s.deps.Logger.ErrorContext(ctx, "archive rollback failed", "id", factRec.ID, "error", rerr)
		}
	}
	if semErr == nil && semRec.ID != "" {
		if rerr := s.deps.Semantic.Delete(rctx, req.UserID, semRec.ID); rerr != nil {
			s.deps.Logger.ErrorContext(ctx, "semantic rollback failed", "id", semRec.ID, "error", rerr)
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("%w: %w", ErrPersistFailed, errors.Join(factErr, semErr))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
