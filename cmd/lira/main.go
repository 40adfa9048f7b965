package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lira-ai/lira/config"
	"github.com/lira-ai/lira/pkg/api"
	"github.com/lira-ai/lira/pkg/logger"
	"github.com/lira-ai/lira/pkg/metrics"
	"github.com/lira-ai/lira/pkg/telemetry/tracing"
	"github.com/lira-ai/lira/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	// Print help
	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	// Print version
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run() error {
	loader := config.NewLoader()
	overrides := buildOverrides()
	cfg, err := loader.Load(*configPath, overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration:\n%w", err)
	}

	log := newLogger(cfg)
	logger.SetGlobal(log)
	defer log.Close()

	log.Info("Starting Lira",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	// Create root context cancelled by SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, tracing.ServiceInfo{
		Name:        cfg.App.Name,
		Version:     version.Version,
		Environment: cfg.App.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	mm := metrics.NewManager(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Port:    cfg.Metrics.Port,
		Path:    cfg.Metrics.Path,
	})

	a, err := newApp(ctx, cfg, log, mm)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Start metrics server if enabled
	if mm.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := mm.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	httpServer := api.NewHTTPServer(cfg, log, a.handlers())
	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	var watcher *config.Watcher
	if *configPath != "" {
		watcher = startWatcher(ctx, loader, a, cfg, overrides)
	}

	log.Info("Lira is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
		"session_backend", cfg.Session.Backend,
		"archive_backend", cfg.Archive.Backend,
		"semantic_backend", cfg.Semantic.Backend,
		"llm_provider", cfg.LLM.Provider,
	)

	// Wait for shutdown signal or server error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case runErr = <-serverErrChan:
		log.Error("HTTP server error", "error", runErr)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer cancel()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Warn("Error stopping config watcher", "error", err)
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}
	if err := a.Close(); err != nil {
		log.Error("Error closing backends", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("Error flushing traces", "error", err)
	}

	log.Info("Lira stopped gracefully")
	return runErr
}

func newLogger(cfg *config.Config) logger.Logger {
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	return logger.New(logCfg)
}

// startWatcher hot-reloads the tunables of the config file.
func startWatcher(ctx context.Context, loader *config.Loader, a *app, cfg *config.Config, overrides map[string]interface{}) *config.Watcher {
	w, err := config.NewWatcher(*configPath, loader,
		config.WithDebounce(500*time.Millisecond),
		config.WithOverrides(overrides),
	)
	if err != nil {
		a.log.Warn("Config hot reload disabled", "error", err)
		return nil
	}
	w.OnChange(a.reloader(cfg))

	go func() {
		if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn("Config watcher stopped", "error", err)
		}
	}()
	return w
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("Lira - Long-term memory companion service\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Lira - Emotion-aware conversational service with long-term recall\n\n")
	fmt.Printf("Usage: lira [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  lira                                    # Run with default config\n")
	fmt.Printf("  lira -config config.yaml                # Use specific config file\n")
	fmt.Printf("  lira -port 9090 -log-level debug        # Override specific options\n")
	fmt.Printf("  lira -version                           # Print version info\n")
}
