// Command lira-reset wipes the long-term memory stores for development and
// testing.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lira-ai/lira/config"
	"github.com/lira-ai/lira/pkg/archive"
	"github.com/lira-ai/lira/pkg/semantic"
	"github.com/lira-ai/lira/pkg/storage"
	"github.com/lira-ai/lira/pkg/storage/badger"
	"github.com/lira-ai/lira/pkg/storage/memory"
	"github.com/lira-ai/lira/pkg/version"
)

// confirmWord must be typed to proceed without -y.
const confirmWord = "DROP"

var errAborted = errors.New("aborted")

// store is a long-term store that can be counted and wiped.
type store interface {
	Count(ctx context.Context, userID string) (int, error)
	Reset(ctx context.Context) (int, error)
	Close() error
}

// opener opens one named store from the configuration.
type opener func(cfg *config.Config) (store, error)

var openers = map[string]opener{
	"archive":  openArchive,
	"semantic": openSemantic,
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lira-reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to configuration file")
	target := fs.String("target", "all", "Store to wipe: archive, semantic or all")
	yes := fs.Bool("y", false, "Skip the confirmation prompt")
	versionFlag := fs.Bool("version", false, "Print version information")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprintln(stdout, version.String("lira-reset"))
		return 0
	}

	targets, err := parseTarget(*target)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration:\n%s\n", err)
		return 1
	}

	if !*yes {
		if err := confirm(stdin, stdout, targets); err != nil {
			fmt.Fprintln(stdout, "Aborted.")
			return 1
		}
	}

	code := 0
	for _, name := range targets {
		if err := reset(ctx, name, openers[name], cfg, stdout); err != nil {
			fmt.Fprintf(stderr, "[%s] %v\n", name, err)
			code = 1
		}
	}
	return code
}

func parseTarget(target string) ([]string, error) {
	switch target {
	case "all":
		return []string{"archive", "semantic"}, nil
	case "archive", "semantic":
		return []string{target}, nil
	default:
		return nil, fmt.Errorf("unknown target %q (want archive, semantic or all)", target)
	}
}

func confirm(stdin io.Reader, stdout io.Writer, targets []string) error {
	fmt.Fprintf(stdout, "This permanently deletes every memory in: %s\n", strings.Join(targets, ", "))
	fmt.Fprintf(stdout, "Type %s to continue: ", confirmWord)

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if strings.TrimSpace(line) != confirmWord {
		return errAborted
	}
	return nil
}

func reset(ctx context.Context, name string, open opener, cfg *config.Config, stdout io.Writer) error {
	s, err := open(cfg)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer s.Close()

	before, err := s.Count(ctx, "")
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	fmt.Fprintf(stdout, "[%s] records before: %d\n", name, before)

	deleted, err := s.Reset(ctx)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	fmt.Fprintf(stdout, "[%s] deleted: %d\n", name, deleted)

	after, err := s.Count(ctx, "")
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	fmt.Fprintf(stdout, "[%s] records after: %d\n", name, after)
	return nil
}

func openArchive(cfg *config.Config) (store, error) {
	var backend storage.Storage
	switch cfg.Archive.Backend {
	case "badger":
		b, err := badger.NewBadgerStorage(&badger.Config{
			Path:              cfg.Archive.Badger.Path,
			SyncWrites:        true,
			ValueLogFileSize:  cfg.Archive.Badger.ValueLogFileSize,
			NumVersionsToKeep: cfg.Archive.Badger.NumVersionsToKeep,
		})
		if err != nil {
			return nil, err
		}
		backend = b
	case "memory":
		backend = memory.NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
	return archive.New(backend, nil, nil)
}

func openSemantic(cfg *config.Config) (store, error) {
	embedder := semantic.NewHashEmbedder(cfg.Semantic.Dimensions)
	switch cfg.Semantic.Backend {
	case "chromem":
		return semantic.NewChromemArchive(semantic.ChromemConfig{Path: cfg.Semantic.Path, Compress: cfg.Semantic.Compress}, embedder)
	case "memory":
		return semantic.NewMemoryArchive(embedder)
	default:
		return nil, fmt.Errorf("unknown semantic backend %q", cfg.Semantic.Backend)
	}
}
