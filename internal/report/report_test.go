package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vellum/internal/config"
	"vellum/internal/lint"
	"vellum/internal/rules"
)

const archivistBrief = `# Ines the Research Archivist

## Key Requirements

- Ingest scanned documents
- Tag documents by project
- Full-text search across archives
- Export citation lists
- Detect duplicate uploads

## Technical Requirements

uv venv
uv pip install -e .
pytest --json-report --json-report-file=pytest_results.json

## Success Criteria

pytest_results.json shows all tests green.
`

const proseOnlyBrief = `# Some Persona

Just prose, no sections at all.
`

func writeBrief(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func lintRun(t *testing.T, root string) *lint.Run {
	t.Helper()
	cfg, err := config.NewConfig(root)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	fixed := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	engine := lint.New(cfg, rules.Builtin(), lint.WithClock(func() time.Time { return fixed }))
	run, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return run
}

func TestFromRunJSON(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "archivist/INSTRUCTIONS.md", archivistBrief)
	writeBrief(t, root, "prose/INSTRUCTIONS.md", proseOnlyBrief)
	run := lintRun(t, root)

	var buf bytes.Buffer
	if err := FromRun(run).WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded struct {
		Tool     string     `json:"tool"`
		Root     string     `json:"root"`
		Stats    lint.Stats `json:"stats"`
		Findings []any      `json:"findings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if decoded.Tool != "vellum" {
		t.Fatalf("unexpected tool %q", decoded.Tool)
	}
	if decoded.Root != root {
		t.Fatalf("root %q != %q", decoded.Root, root)
	}
	if decoded.Stats.Documents != 2 || decoded.Stats.Errors == 0 {
		t.Fatalf("unexpected stats %+v", decoded.Stats)
	}
	if len(decoded.Findings) != len(run.Findings) {
		t.Fatalf("findings dropped: %d != %d", len(decoded.Findings), len(run.Findings))
	}
}

func TestWriteText(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "prose/INSTRUCTIONS.md", proseOnlyBrief)
	run := lintRun(t, root)

	var buf bytes.Buffer
	if err := WriteText(&buf, run); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "required-sections") {
		t.Fatalf("missing rule id in output:\n%s", out)
	}
	if !strings.Contains(out, "prose/INSTRUCTIONS.md") {
		t.Fatalf("missing document path in output:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	totals := lines[len(lines)-1]
	if !strings.Contains(totals, "1 documents") {
		t.Fatalf("unexpected totals line %q", totals)
	}
}
