package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lira-ai/lira/config"
	"github.com/lira-ai/lira/pkg/archive"
	"github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/semantic"
)

// seededConfig writes a config file pointing at fresh on-disk stores and
// saves n records into each.
func seededConfig(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
archive:
  backend: badger
  badger:
    path: %s
    sync_writes: false
semantic:
  backend: chromem
  path: %s
`, filepath.Join(dir, "archive"), filepath.Join(dir, "semantic"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	ctx := context.Background()
	emotions := []memory.Emotion{{Label: "joy", Score: 0.9}}

	facts, err := openArchive(cfg)
	require.NoError(t, err)
	sem, err := openSemantic(cfg)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("기억 %d", i)
		_, err := facts.(*archive.Archive).Save(ctx, "u1", text, emotions)
		require.NoError(t, err)
		_, err = sem.(semantic.Archive).Store(ctx, "u1", text, emotions)
		require.NoError(t, err)
	}
	require.NoError(t, facts.Close())
	require.NoError(t, sem.Close())
	return path
}

func TestRun_ResetsAllWithYes(t *testing.T) {
	path := seededConfig(t, 2)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path, "-y"}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "[archive] records before: 2")
	assert.Contains(t, out, "[archive] records after: 0")
	assert.Contains(t, out, "[semantic] records before: 2")
	assert.Contains(t, out, "[semantic] deleted: 2")
	assert.Contains(t, out, "[semantic] records after: 0")
}

func TestRun_SingleTarget(t *testing.T) {
	path := seededConfig(t, 1)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path, "-target", "archive", "-y"}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "[archive] deleted: 1")
	assert.NotContains(t, stdout.String(), "[semantic]")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	sem, err := openSemantic(cfg)
	require.NoError(t, err)
	defer sem.Close()
	n, err := sem.Count(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "semantic store is untouched")
}

func TestRun_Confirmation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode int
		wantOut  string
	}{
		{name: "confirmed", input: "DROP\n", wantCode: 0, wantOut: "[archive] records after: 0"},
		{name: "confirmed without newline", input: "DROP", wantCode: 0, wantOut: "[archive] records after: 0"},
		{name: "refused", input: "no\n", wantCode: 1, wantOut: "Aborted."},
		{name: "lowercase is refused", input: "drop\n", wantCode: 1, wantOut: "Aborted."},
		{name: "empty input", input: "", wantCode: 1, wantOut: "Aborted."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := seededConfig(t, 1)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"-config", path, "-target", "archive"}, strings.NewReader(tt.input), &stdout, &stderr)

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stdout.String(), "Type DROP to continue")
			assert.Contains(t, stdout.String(), tt.wantOut)
		})
	}
}

func TestRun_BadArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"-target", "sessions"}, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown target")

	stderr.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"-bogus"}, nil, &stdout, &stderr))
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"-version"}, nil, &stdout, &bytes.Buffer{}))
	assert.True(t, strings.HasPrefix(stdout.String(), "lira-reset "))
}

func TestParseTarget(t *testing.T) {
	got, err := parseTarget("all")
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "semantic"}, got)

	got, err = parseTarget("semantic")
	require.NoError(t, err)
	assert.Equal(t, []string{"semantic"}, got)

	_, err = parseTarget("")
	assert.Error(t, err)
}
