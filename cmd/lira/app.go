package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/lira-ai/lira/config"
	"github.com/lira-ai/lira/pkg/api"
	"github.com/lira-ai/lira/pkg/api/handlers"
	"github.com/lira-ai/lira/pkg/archive"
	"github.com/lira-ai/lira/pkg/emotion"
	"github.com/lira-ai/lira/pkg/keyword"
	"github.com/lira-ai/lira/pkg/llm"
	"github.com/lira-ai/lira/pkg/logger"
	"github.com/lira-ai/lira/pkg/metrics"
	"github.com/lira-ai/lira/pkg/recall"
	"github.com/lira-ai/lira/pkg/semantic"
	"github.com/lira-ai/lira/pkg/session"
	"github.com/lira-ai/lira/pkg/storage"
	"github.com/lira-ai/lira/pkg/storage/badger"
	"github.com/lira-ai/lira/pkg/storage/memory"
	"github.com/lira-ai/lira/pkg/turn"
	"github.com/lira-ai/lira/pkg/version"
)

// app holds the assembled services of one server process.
type app struct {
	log      logger.Logger
	metrics  *metrics.Manager
	facts    *archive.Archive
	semantic semantic.Archive
	sessions session.Store
	analyzer *emotion.Analyzer
	pipeline *recall.Pipeline
	gate     *recall.Gate
	turns    *turn.Service
	health   *handlers.HealthHandler

	closers []func() error
}

// newApp builds every backend named by cfg. On error the backends opened so
// far are closed.
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, mm *metrics.Manager) (_ *app, err error) {
	a := &app{
		log:     log,
		metrics: mm,
		health:  handlers.NewHealthHandler(version.Version),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := openStorage(cfg.Archive, log)
	if err != nil {
		return nil, err
	}
	a.facts, err = archive.New(store, keyword.NewRanker(keyword.NewRuleAnalyzer(), log), log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.facts.Close)

	if a.semantic, err = openSemantic(cfg.Semantic, log); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.semantic.Close)

	if a.sessions, err = a.openSessions(ctx, cfg); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.sessions.Close)

	a.analyzer = emotion.NewAnalyzer(newClassifier(cfg, log), emotion.Config{
		Threshold: cfg.Emotion.Threshold,
		MaxLabels: cfg.Emotion.MaxLabels,
	}, log)

	a.pipeline, err = recall.NewPipeline(a.facts, keyword.Top,
		recall.WithConfig(recallConfig(cfg.Recall)),
		recall.WithBuffer(a.sessions),
		recall.WithRecorder(mm),
		recall.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	a.gate = recall.NewGate(cfg.Recall.PersistThreshold)

	a.turns, err = turn.New(turn.Deps{
		Emotions:  a.analyzer,
		Semantic:  a.semantic,
		Facts:     a.facts,
		Sessions:  a.sessions,
		Recaller:  a.pipeline,
		Gate:      a.gate,
		Generator: newGenerator(cfg, log),
		Logger:    log,
		Recorder:  mm,
	}, cfg.Recall.SemanticTopK)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func openStorage(cfg config.ArchiveConfig, log logger.Logger) (storage.Storage, error) {
	switch cfg.Backend {
	case "badger":
		store, err := badger.NewBadgerStorage(&badger.Config{
			Path:              cfg.Badger.Path,
			SyncWrites:        cfg.Badger.SyncWrites,
			ValueLogFileSize:  cfg.Badger.ValueLogFileSize,
			NumVersionsToKeep: cfg.Badger.NumVersionsToKeep,
		})
		if err != nil {
			return nil, fmt.Errorf("open badger archive: %w", err)
		}
		log.Info("Initialized Badger archive", "path", cfg.Badger.Path)
		return store, nil
	case "memory":
		log.Info("Initialized memory archive")
		return memory.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

func openSemantic(cfg config.SemanticConfig, log logger.Logger) (semantic.Archive, error) {
	embedder := semantic.NewHashEmbedder(cfg.Dimensions)
	switch cfg.Backend {
	case "chromem":
		s, err := semantic.NewChromemArchive(semantic.ChromemConfig{Path: cfg.Path, Compress: cfg.Compress}, embedder)
		if err != nil {
			return nil, fmt.Errorf("open chromem archive: %w", err)
		}
		log.Info("Initialized chromem semantic archive", "path", cfg.Path, "dimensions", embedder.Dimensions())
		return s, nil
	case "memory":
		log.Info("Initialized memory semantic archive", "dimensions", embedder.Dimensions())
		return semantic.NewMemoryArchive(embedder)
	default:
		return nil, fmt.Errorf("unknown semantic backend %q", cfg.Backend)
	}
}

func (a *app) openSessions(ctx context.Context, cfg *config.Config) (session.Store, error) {
	scfg := session.Config{
		TTL:        cfg.Session.TTL,
		KeyPrefix:  cfg.Session.KeyPrefix,
		MaxRetries: cfg.Session.MaxRetries,
	}
	switch cfg.Session.Backend {
	case "redis":
		client := session.NewRedisClient(&redis.Options{
			Addr:        cfg.Redis.Address,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := session.PingRedis(ctx, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Address, err)
		}
		store, err := session.NewRedisStore(client, scfg)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.health.AddCheck("redis", func(ctx context.Context) error {
			return session.PingRedis(ctx, client)
		})
		a.log.Info("Initialized Redis session store", "addr", cfg.Redis.Address, "ttl", scfg.TTL)
		return store, nil
	case "memory":
		a.log.Info("Initialized memory session store", "ttl", scfg.TTL)
		return session.NewMemoryStore(scfg), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

func llmOptions(cfg config.LLMConfig) llm.Options {
	return llm.Options{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Attempts:    cfg.Attempts,
	}
}

func newGenerator(cfg *config.Config, log logger.Logger) turn.Generator {
	if cfg.LLM.Provider == "anthropic" {
		return llm.NewAnthropic(llmOptions(cfg.LLM), log)
	}
	return llm.Static{Reply: cfg.LLM.StaticReply}
}

func newClassifier(cfg *config.Config, log logger.Logger) emotion.Classifier {
	if cfg.Emotion.Classifier == "llm" {
		return llm.NewEmotionClassifier(llmOptions(cfg.LLM), log)
	}
	return emotion.NewLexicon()
}

func recallConfig(cfg config.RecallConfig) recall.Config {
	return recall.Config{
		SimilarityThreshold: cfg.SimilarityThreshold,
		EmotionThreshold:    cfg.EmotionThreshold,
		Limit:               cfg.Limit,
		FactLimit:           cfg.FactLimit,
		EmotionalLimit:      cfg.EmotionalLimit,
		Source:              cfg.Source,
	}
}

// handlers returns the HTTP handlers backed by the app.
func (a *app) handlers() *api.Handlers {
	return &api.Handlers{
		Generate: handlers.NewGenerateHandler(a.turns),
		Sessions: handlers.NewSessionHandler(a.sessions),
		Health:   a.health,
		Metrics:  a.metrics,
	}
}

// reloader returns a watcher callback that applies a reloaded configuration
// when its hot-reloadable part differs from the last one applied.
func (a *app) reloader(initial *config.Config) func(*config.Config) {
	var mu sync.Mutex
	current := config.ExtractHotReloadable(initial)
	return func(cfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		next := config.ExtractHotReloadable(cfg)
		if !next.Changed(current) {
			return
		}
		current = next
		a.applyReload(cfg)
		a.log.Info("Configuration reloaded", "log_level", cfg.Log.Level, "recall", cfg.Recall)
	}
}

// applyReload hot-applies the tunables of a reloaded configuration.
func (a *app) applyReload(cfg *config.Config) {
	level := logger.ParseLevel(cfg.Log.Level)
	if cfg.App.Debug {
		level = logger.DebugLevel
	}
	a.log.SetLevel(level)
	a.pipeline.SetConfig(recallConfig(cfg.Recall))
	a.gate.SetThreshold(cfg.Recall.PersistThreshold)
	a.analyzer.SetConfig(emotion.Config{
		Threshold: cfg.Emotion.Threshold,
		MaxLabels: cfg.Emotion.MaxLabels,
	})
}

// Close releases the backends in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
