package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vellum/internal/config"
	"vellum/internal/lint"
	"vellum/internal/rules"
)

const watchBrief = `# Watched Persona

## Key Requirements

- One thing
- Another thing
- A third thing
- A fourth thing
- A fifth thing

## Technical Requirements

uv venv
uv pip install -e .
pytest --json-report --json-report-file=pytest_results.json

## Success Criteria

pytest_results.json is green.
`

func writeBrief(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(watchBrief), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWatcherRelintsOnChange(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "first/INSTRUCTIONS.md")

	cfg, err := config.NewConfig(root)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	engine := lint.New(cfg, rules.Builtin())

	runs := make(chan *lint.Run, 8)
	watcher := New(cfg, engine, func(run *lint.Run) { runs <- run }, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	select {
	case run := <-runs:
		if run.Stats.Documents != 1 {
			t.Fatalf("initial pass saw %d documents", run.Stats.Documents)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no initial lint pass")
	}

	writeBrief(t, root, "first/INSTRUCTIONS.md")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case run := <-runs:
			if run.Stats.Documents == 1 {
				cancel()
				if err := <-done; !errors.Is(err, context.Canceled) {
					t.Fatalf("Run returned %v", err)
				}
				return
			}
		case <-deadline:
			cancel()
			<-done
			t.Fatalf("no re-lint after change")
		}
	}
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "first/INSTRUCTIONS.md")

	cfg, err := config.NewConfig(root)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	engine := lint.New(cfg, rules.Builtin())

	runs := make(chan *lint.Run, 8)
	watcher := New(cfg, engine, func(run *lint.Run) { runs <- run }, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatalf("no initial lint pass")
	}

	writeBrief(t, root, "second/INSTRUCTIONS.md")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case run := <-runs:
			if run.Stats.Documents == 2 {
				cancel()
				<-done
				return
			}
		case <-deadline:
			cancel()
			<-done
			t.Fatalf("new directory never linted")
		}
	}
}

func TestDebounceFromConfig(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, config.VellumDir), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	configYAML := "version: 1\nwatch:\n  debounce_ms: 120\n"
	if err := os.WriteFile(filepath.Join(root, config.VellumDir, config.ConfigFile), []byte(configYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.NewConfig(root)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	watcher := New(cfg, lint.New(cfg, rules.Builtin()), nil)
	if watcher.debounce != 120*time.Millisecond {
		t.Fatalf("debounce = %v, want 120ms", watcher.debounce)
	}
}
