// Package config provides configuration management for lira.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for lira.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Recall tunes the recall pipeline and the persistence gate.
	Recall RecallConfig `mapstructure:"recall"`

	// Emotion is the emotion analysis configuration.
	Emotion EmotionConfig `mapstructure:"emotion"`

	// Session is the short-term session buffer configuration.
	Session SessionConfig `mapstructure:"session"`

	// Redis is the shared Redis connection configuration.
	Redis RedisConfig `mapstructure:"redis"`

	// Archive is the exact-match long-term store configuration.
	Archive ArchiveConfig `mapstructure:"archive"`

	// Semantic is the semantic long-term store configuration.
	Semantic SemanticConfig `mapstructure:"semantic"`

	// LLM is the reply generator configuration.
	LLM LLMConfig `mapstructure:"llm"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"env"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host" validate:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// CORS is the CORS configuration.
	CORS CORSConfig `mapstructure:"cors"`

	// RateLimit is the per-client request limit.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// RequestTimeout bounds the handling of a single API request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `mapstructure:"max_header_bytes" validate:"min=0"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enabled enables CORS support.
	Enabled bool `mapstructure:"enabled"`

	// AllowedOrigins is the list of allowed origins.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AllowedMethods is the list of allowed HTTP methods.
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// AllowedHeaders is the list of allowed headers.
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// ExposedHeaders is the list of headers exposed to the client.
	ExposedHeaders []string `mapstructure:"exposed_headers"`

	// AllowCredentials indicates whether credentials are allowed.
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// MaxAge is the maximum age of CORS preflight cache in seconds.
	MaxAge int `mapstructure:"max_age" validate:"min=0"`
}

// RateLimitConfig holds token bucket settings applied per client address.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"min=1"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// RecallConfig holds recall tunables. All of them can be hot-reloaded.
type RecallConfig struct {
	// SimilarityThreshold is the certainty a semantic hit must exceed.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gte=0,lte=1"`

	// EmotionThreshold is the top emotion score that enables emotional recall.
	EmotionThreshold float64 `mapstructure:"emotion_threshold" validate:"gte=0,lte=1"`

	// PersistThreshold is the top emotion score that persists a turn.
	PersistThreshold float64 `mapstructure:"persist_threshold" validate:"gte=0,lte=1"`

	// Limit caps the fused recall result.
	Limit int `mapstructure:"limit" validate:"min=1"`

	// SemanticTopK is how many semantic candidates a turn requests.
	SemanticTopK int `mapstructure:"semantic_top_k" validate:"min=1"`

	// FactLimit caps rows per confirm query.
	FactLimit int `mapstructure:"fact_limit" validate:"min=1"`

	// EmotionalLimit caps rows of the emotional query.
	EmotionalLimit int `mapstructure:"emotional_limit" validate:"min=1"`

	// Source labels session buffer entries.
	Source string `mapstructure:"source" validate:"required"`
}

// EmotionConfig holds emotion analysis settings.
type EmotionConfig struct {
	// Classifier selects the scorer (lexicon, llm).
	Classifier string `mapstructure:"classifier" validate:"oneof=lexicon llm"`

	// Threshold drops labels scoring below it.
	Threshold float64 `mapstructure:"threshold" validate:"gte=0,lte=1"`

	// MaxLabels caps the labels kept per text.
	MaxLabels int `mapstructure:"max_labels" validate:"min=1"`
}

// SessionConfig holds session buffer settings.
type SessionConfig struct {
	// Backend is the session store (redis, memory).
	Backend string `mapstructure:"backend" validate:"oneof=redis memory"`

	// TTL is refreshed on every write.
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`

	// KeyPrefix namespaces session keys.
	KeyPrefix string `mapstructure:"key_prefix" validate:"required"`

	// MaxRetries bounds optimistic transaction retries.
	MaxRetries int `mapstructure:"max_retries" validate:"min=1"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	// Address is the Redis server address.
	Address string `mapstructure:"address"`

	// Password is the Redis password.
	Password string `mapstructure:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db" validate:"min=0"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `mapstructure:"pool_size" validate:"min=0"`

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// ArchiveConfig holds exact-match archive settings.
type ArchiveConfig struct {
	// Backend is the storage engine (badger, memory).
	Backend string `mapstructure:"backend" validate:"oneof=badger memory"`

	// Badger is the BadgerDB configuration.
	Badger BadgerConfig `mapstructure:"badger"`
}

// BadgerConfig holds BadgerDB-specific settings.
type BadgerConfig struct {
	// Path is the database directory path.
	Path string `mapstructure:"path"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `mapstructure:"sync_writes"`

	// ValueLogFileSize is the maximum size of value log files in bytes.
	ValueLogFileSize int64 `mapstructure:"value_log_file_size" validate:"min=0"`

	// NumVersionsToKeep is the number of versions to keep per key.
	NumVersionsToKeep int `mapstructure:"num_versions_to_keep" validate:"min=0"`
}

// SemanticConfig holds semantic archive settings.
type SemanticConfig struct {
	// Backend is the vector store (chromem, memory).
	Backend string `mapstructure:"backend" validate:"oneof=chromem memory"`

	// Dimensions is the embedding size.
	Dimensions int `mapstructure:"dimensions" validate:"min=8"`

	// Path persists chromem collections. Empty keeps them in memory.
	Path string `mapstructure:"path"`

	// Compress gzips persisted chromem documents.
	Compress bool `mapstructure:"compress"`
}

// LLMConfig holds reply generator settings.
type LLMConfig struct {
	// Provider selects the generator (anthropic, static).
	Provider string `mapstructure:"provider" validate:"oneof=anthropic static"`

	// Model is the Anthropic model name.
	Model string `mapstructure:"model"`

	// APIKey falls back to ANTHROPIC_API_KEY when empty.
	APIKey string `mapstructure:"api_key"`

	// MaxTokens caps the reply length.
	MaxTokens int64 `mapstructure:"max_tokens" validate:"min=1"`

	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=1"`

	// Attempts is how many times a reply is requested before falling back.
	Attempts int `mapstructure:"attempts" validate:"min=1"`

	// StaticReply is the reply of the static provider.
	StaticReply string `mapstructure:"static_reply"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path" validate:"startswith=/"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter (otlpgrpc).
	Exporter string `mapstructure:"exporter" validate:"oneof=otlpgrpc"`

	// Endpoint is the collector endpoint.
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true"`

	// Headers are sent with every export request.
	Headers map[string]string `mapstructure:"headers"`

	// Timeout bounds a single export.
	Timeout time.Duration `mapstructure:"timeout"`

	// Sampler is always_on, always_off or parentbased_traceidratio.
	Sampler string `mapstructure:"sampler" validate:"oneof=always_on always_off parentbased_traceidratio"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s, Session: %s, Archive: %s, Semantic: %s, LLM: %s}",
		c.App.Name, c.Server.Port, c.App.Environment,
		c.Session.Backend, c.Archive.Backend, c.Semantic.Backend, c.LLM.Provider)
}
