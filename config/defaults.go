package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "lira",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    90 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 15 * time.Second,
				RequestTimeout:  60 * time.Second,
				MaxHeaderBytes:  1 << 20, // 1MB
			},
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
				MaxAge:         600,
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 5,
				Burst:             10,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Recall: RecallConfig{
			SimilarityThreshold: 0.7,
			EmotionThreshold:    0.6,
			PersistThreshold:    0.6,
			Limit:               3,
			SemanticTopK:        3,
			FactLimit:           1,
			EmotionalLimit:      3,
			Source:              "LTM_Recall",
		},
		Emotion: EmotionConfig{
			Classifier: "lexicon",
			Threshold:  0.3,
			MaxLabels:  3,
		},
		Session: SessionConfig{
			Backend:    "redis",
			TTL:        24 * time.Hour,
			KeyPrefix:  "session:",
			MaxRetries: 5,
		},
		Redis: RedisConfig{
			Address:     "localhost:6379",
			Password:    "",
			DB:          0,
			PoolSize:    10,
			DialTimeout: 5 * time.Second,
		},
		Archive: ArchiveConfig{
			Backend: "badger",
			Badger: BadgerConfig{
				Path:              "./data/archive",
				SyncWrites:        true,
				ValueLogFileSize:  1 << 28, // 256MB
				NumVersionsToKeep: 1,
			},
		},
		Semantic: SemanticConfig{
			Backend:    "chromem",
			Dimensions: 384,
			Path:       "./data/semantic",
			Compress:   false,
		},
		LLM: LLMConfig{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-5",
			MaxTokens:   1024,
			Temperature: 0.1,
			Attempts:    2,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlpgrpc",
			Endpoint:   "localhost:4317",
			Timeout:    5 * time.Second,
			Sampler:    "parentbased_traceidratio",
			SampleRate: 0.1,
		},
	}
}
