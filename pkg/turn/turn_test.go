package turn

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lira-ai/lira/pkg/archive"
	"github.com/lira-ai/lira/pkg/emotion"
	"github.com/lira-ai/lira/pkg/keyword"
	"github.com/lira-ai/lira/pkg/llm"
	"github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/recall"
	"github.com/lira-ai/lira/pkg/semantic"
	"github.com/lira-ai/lira/pkg/session"
	storagemem "github.com/lira-ai/lira/pkg/storage/memory"
)

type stack struct {
	svc      *Service
	facts    *archive.Archive
	semantic *semantic.MemoryArchive
	sessions *session.MemoryStore
	gen      *recordingGenerator
}

type recordingGenerator struct {
	mu   sync.Mutex
	reqs []llm.Request
	err  error
}

func (g *recordingGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return "", g.err
	}
	return llm.Static{Reply: "네"}.Generate(ctx, req)
}

func newStack(t *testing.T, emotions emotion.Static) *stack {
	t.Helper()
	facts, err := archive.New(storagemem.NewMemoryStorage(), nil, nil)
	require.NoError(t, err)
	sem, err := semantic.NewMemoryArchive(semantic.NewHashEmbedder(semantic.DefaultDimensions))
	require.NoError(t, err)
	sessions := session.NewMemoryStore(session.DefaultConfig())
	pipeline, err := recall.NewPipeline(facts, keyword.Top, recall.WithBuffer(sessions))
	require.NoError(t, err)
	gen := &recordingGenerator{}

	svc, err := New(Deps{
		Emotions:  emotion.NewAnalyzer(emotions, emotion.DefaultConfig(), nil),
		Semantic:  sem,
		Facts:     facts,
		Sessions:  sessions,
		Recaller:  pipeline,
		Gate:      recall.NewGate(0),
		Generator: gen,
	}, 3)
	require.NoError(t, err)
	return &stack{svc: svc, facts: facts, semantic: sem, sessions: sessions, gen: gen}
}

func TestHandlePersistsAndRecalls(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, emotion.Static{{Label: "joy", Score: 0.9}, {Label: "love", Score: 0.45}})

	resp, err := s.svc.Handle(ctx, Request{UserID: "u1", SessionID: "s1", Text: "내 이름은 민수야 기억해줘"})
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	assert.Equal(t, "joy", resp.Emotion.FirstLabel)
	require.NotNil(t, resp.Emotion.SecondLabel)
	assert.Equal(t, "love", *resp.Emotion.SecondLabel)
	assert.Nil(t, resp.Emotion.ThirdLabel)

	n, err := s.facts.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.semantic.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	resp, err = s.svc.Handle(ctx, Request{UserID: "u1", SessionID: "s1", Text: "내 이름 기억나?"})
	require.NoError(t, err)
	require.Len(t, resp.Recalled, 1)
	assert.Equal(t, "내 이름은 민수야 기억해줘", resp.Recalled[0].Text)
	assert.Equal(t, "내 이름은 민수야 기억해줘", resp.Output)

	doc, err := s.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []session.ChatMessage{
		{Role: session.RoleUser, Content: "내 이름은 민수야 기억해줘"},
		{Role: session.RoleAssistant, Content: "네"},
		{Role: session.RoleUser, Content: "내 이름 기억나?"},
		{Role: session.RoleAssistant, Content: "내 이름은 민수야 기억해줘"},
	}, doc.ChatHistory)
	require.Len(t, doc.RecalledBuffer, 1)

	// The generator sees the session as it was before the turn.
	require.Len(t, s.gen.reqs, 2)
	assert.Len(t, s.gen.reqs[1].Session.ChatHistory, 2)
	assert.Empty(t, s.gen.reqs[1].Session.RecalledBuffer)
}

func TestHandleWeakTurnIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, emotion.Static{{Label: "neutral", Score: 0.4}})

	resp, err := s.svc.Handle(ctx, Request{UserID: "u1", SessionID: "s1", Text: "오늘 날씨 어때"})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)
	n, err := s.facts.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHandleEmptyEmotionsFallBackToNeutral(t *testing.T) {
	s := newStack(t, nil)
	resp, err := s.svc.Handle(context.Background(), Request{UserID: "u1", SessionID: "s1", Text: "음"})
	require.NoError(t, err)
	assert.Equal(t, "neutral", resp.Emotion.FirstLabel)
	assert.Equal(t, 0.0, resp.Emotion.FirstScore)
	assert.Equal(t, EmotionMode, resp.Emotion.Mode)
}

func TestHandleInvalidRequest(t *testing.T) {
	s := newStack(t, nil)
	for _, req := range []Request{
		{SessionID: "s", Text: "t"},
		{UserID: "u", Text: "t"},
		{UserID: "u", SessionID: "s", Text: "  "},
	} {
		_, err := s.svc.Handle(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
}

func TestHandleGenerationFailure(t *testing.T) {
	s := newStack(t, nil)
	s.gen.err = errors.New("model down")
	_, err := s.svc.Handle(context.Background(), Request{UserID: "u1", SessionID: "s1", Text: "안녕"})
	assert.ErrorIs(t, err, ErrGenerationFailed)

	doc, err := s.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, doc.ChatHistory)
}

type failingSemantic struct {
	*semantic.MemoryArchive
	storeErr  error
	searchErr error
}

func (f *failingSemantic) Store(ctx context.Context, userID, text string, emotions []memory.Emotion) (memory.Record, error) {
	if f.storeErr != nil {
		return memory.Record{}, f.storeErr
	}
	return f.MemoryArchive.Store(ctx, userID, text, emotions)
}

func (f *failingSemantic) Search(ctx context.Context, text string, topK int, userID string) ([]memory.Record, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.MemoryArchive.Search(ctx, text, topK, userID)
}

type failingFacts struct {
	*archive.Archive
	saveErr error
}

func (f *failingFacts) Save(ctx context.Context, userID, text string, emotions []memory.Emotion) (memory.Record, error) {
	if f.saveErr != nil {
		return memory.Record{}, f.saveErr
	}
	return f.Archive.Save(ctx, userID, text, emotions)
}

type countingRecorder struct {
	mu        sync.Mutex
	decisions []bool
	writes    map[string]string
}

func (r *countingRecorder) RecordGateDecision(persist bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, persist)
}

func (r *countingRecorder) RecordStoreWrite(store, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writes == nil {
		r.writes = make(map[string]string)
	}
	r.writes[store] = status
}

func TestPersistRollsBackArchiveWhenSemanticFails(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, emotion.Static{{Label: "joy", Score: 0.95}})
	rc := &countingRecorder{}
	s.svc.deps.Semantic = &failingSemantic{MemoryArchive: s.semantic, storeErr: errors.New("chromem full")}
	s.svc.deps.Recorder = rc

	resp, err := s.svc.Handle(ctx, Request{UserID: "u1", SessionID: "s1", Text: "최고의 하루"})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)

	n, err := s.facts.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "archive write must be rolled back")
	assert.Equal(t, []bool{true}, rc.decisions)
	assert.Equal(t, "error", rc.writes["semantic"])
}

func TestPersistRollsBackSemanticWhenArchiveFails(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, emotion.Static{{Label: "joy", Score: 0.95}})
	s.svc.deps.Facts = &failingFacts{Archive: s.facts, saveErr: errors.New("badger closed")}

	resp, err := s.svc.Handle(ctx, Request{UserID: "u1", SessionID: "s1", Text: "최고의 하루"})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)

	n, err := s.semantic.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "semantic write must be rolled back")
}

func TestPersistError(t *testing.T) {
	s := newStack(t, nil)
	s.svc.deps.Facts = &failingFacts{Archive: s.facts, saveErr: errors.New("boom")}
	err := s.svc.persist(context.Background(), Request{UserID: "u1", SessionID: "s1", Text: "x"}, []memory.Emotion{memory.Neutral})
	assert.ErrorIs(t, err, ErrPersistFailed)
}

func TestSemanticSearchFailureDegrades(t *testing.T) {
	s := newStack(t, nil)
	s.svc.deps.Semantic = &failingSemantic{MemoryArchive: s.semantic, searchErr: errors.New("timeout")}
	resp, err := s.svc.Handle(context.Background(), Request{UserID: "u1", SessionID: "s1", Text: "안녕"})
	require.NoError(t, err)
	assert.Empty(t, resp.Recalled)
}

type spySemantic struct {
	*semantic.MemoryArchive
	searches int
}

func (s *spySemantic) Search(ctx context.Context, text string, topK int, userID string) ([]memory.Record, error) {
	s.searches++
	return s.MemoryArchive.Search(ctx, text, topK, userID)
}

func TestRecallQuestionSkipsSemanticSearch(t *testing.T) {
	s := newStack(t, nil)
	spy := &spySemantic{MemoryArchive: s.semantic}
	s.svc.deps.Semantic = spy

	_, err := s.svc.Handle(context.Background(), Request{UserID: "u1", SessionID: "s1", Text: "그거 기억나니"})
	require.NoError(t, err)
	assert.Equal(t, 0, spy.searches)

	_, err = s.svc.Handle(context.Background(), Request{UserID: "u1", SessionID: "s1", Text: "그거 알아"})
	require.NoError(t, err)
	assert.Equal(t, 1, spy.searches)
}

type panickingRecaller struct{}

func (panickingRecaller) Recall(context.Context, recall.Input) []memory.Record {
	panic("recall broke")
}

func TestRecallPanicIsContained(t *testing.T) {
	s := newStack(t, nil)
	s.svc.deps.Recaller = panickingRecaller{}
	resp, err := s.svc.Handle(context.Background(), Request{UserID: "u1", SessionID: "s1", Text: "안녕"})
	require.NoError(t, err)
	assert.Empty(t, resp.Recalled)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{}, 0)
	assert.Error(t, err)
}

func TestResponseJSON(t *testing.T) {
	resp := Response{
		Output:  "안녕하세요",
		Emotion: Summarize([]memory.Emotion{{Label: "joy", Score: 0.8}}),
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"output": "안녕하세요",
		"emotion": {
			"emotion_1st_label": "joy",
			"emotion_1st_score": 0.8,
			"emotion_2nd_label": null,
			"emotion_2nd_score": null,
			"emotion_3rd_label": null,
			"emotion_3rd_score": null,
			"emotion_mode": "central"
		}
	}`, string(data))
}
