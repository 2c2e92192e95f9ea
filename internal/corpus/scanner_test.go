package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeBrief(t *testing.T, root, rel, title string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "# " + title + "\n\n## Key Requirements\n\n- one\n\n## Technical Requirements\n\nnone\n\n## Success Criteria\n\ndone\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestScanDiscoversBriefsInOrder(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "zeta/INSTRUCTIONS.md", "Zeta")
	writeBrief(t, root, "alpha/INSTRUCTIONS.md", "Alpha")
	writeBrief(t, root, "alpha/notes.md", "Not a brief")

	c, err := NewScanner(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries got %d", c.Len())
	}
	if c.Entries[0].Path != "alpha/INSTRUCTIONS.md" || c.Entries[1].Path != "zeta/INSTRUCTIONS.md" {
		t.Fatalf("entries out of order: %+v", c.Entries)
	}
	docs := c.Documents()
	if len(docs) != 2 || docs[0].Title != "Alpha" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestScanSkipsToolAndVCSDirs(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "keep/INSTRUCTIONS.md", "Keep")
	writeBrief(t, root, ".vellum/index/INSTRUCTIONS.md", "Hidden")
	writeBrief(t, root, ".git/INSTRUCTIONS.md", "Hidden")

	c, err := NewScanner(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry got %d: %+v", c.Len(), c.Entries)
	}
}

func TestScanHonorsExcludes(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "keep/INSTRUCTIONS.md", "Keep")
	writeBrief(t, root, "archive/INSTRUCTIONS.md", "Old")

	c, err := NewScanner(root, WithExcludes("archive/*")).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if c.Len() != 1 || c.Entries[0].Path != "keep/INSTRUCTIONS.md" {
		t.Fatalf("exclude not honored: %+v", c.Entries)
	}
}

func TestScanCustomPatterns(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "a/BRIEF.md", "A")
	writeBrief(t, root, "b/INSTRUCTIONS.md", "B")

	c, err := NewScanner(root, WithPatterns("BRIEF.md")).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if c.Len() != 1 || c.Entries[0].Path != "a/BRIEF.md" {
		t.Fatalf("pattern override not honored: %+v", c.Entries)
	}
}

func TestScanRecordsUnreadableEntries(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "ok/INSTRUCTIONS.md", "OK")
	bad := filepath.Join(root, "bad", "INSTRUCTIONS.md")
	if err := os.MkdirAll(bad, 0o755); err != nil {
		// A directory named INSTRUCTIONS.md makes ReadFile fail.
		t.Fatalf("mkdir: %v", err)
	}

	c, err := NewScanner(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if c.FailedLoads() != 0 {
		t.Fatalf("directories should not match as files: %+v", c.Entries)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry got %d", c.Len())
	}
}

func TestScanCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeBrief(t, root, "a/INSTRUCTIONS.md", "A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScanner(root).Scan(ctx); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestScanRejectsMissingRoot(t *testing.T) {
	if _, err := NewScanner(filepath.Join(t.TempDir(), "missing")).Scan(context.Background()); err == nil {
		t.Fatalf("expected error for missing root")
	}
}
