package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vellum/internal/brief"
	"vellum/internal/finding"
	"vellum/internal/lint"
	"vellum/internal/version"
)

// Artifact kinds stamped into catalog envelopes.
const (
	KindIndexMarkdown = "catalog-index"
	KindIndexJSON     = "catalog-json"
)

// IndexMarkdownFile and IndexJSONFile are the catalog filenames under
// .vellum/index/.
const (
	IndexMarkdownFile = "INDEX.md"
	IndexJSONFile     = "index.json"
)

// CatalogEntry is one brief's row in the corpus inventory.
type CatalogEntry struct {
	Path         string `json:"path"`
	Title        string `json:"title,omitempty"`
	Sections     int    `json:"sections"`
	Requirements int    `json:"requirements"`
	Fingerprint  string `json:"fingerprint,omitempty"`
	MaxSeverity  string `json:"max_severity,omitempty"`
	LoadError    string `json:"load_error,omitempty"`
}

// Catalog is the corpus inventory derived from a lint run.
type Catalog struct {
	Root        string         `json:"root"`
	GeneratedAt time.Time      `json:"generated_at"`
	Entries     []CatalogEntry `json:"entries"`
	Stats       lint.Stats     `json:"stats"`
}

// BuildCatalog assembles the inventory from a lint run.
func BuildCatalog(run *lint.Run) *Catalog {
	catalog := &Catalog{
		Root:        run.Corpus.Root,
		GeneratedAt: run.StartedAt,
		Stats:       run.Stats,
	}
	for _, entry := range run.Corpus.Entries {
		row := CatalogEntry{Path: entry.Path}
		if entry.Err != nil {
			row.LoadError = entry.Err.Error()
		} else {
			doc := entry.Doc
			row.Title = doc.Title
			row.Sections = len(doc.Sections)
			if sec, ok := doc.Section("Key Requirements"); ok {
				row.Requirements = len(sec.Bullets)
			}
			if doc.Boilerplate != nil {
				row.Fingerprint = shortFingerprint(doc.Boilerplate.Fingerprint)
			}
		}
		if severity := finding.MaxSeverity(run.FindingsFor(entry.Path)); severity != "" {
			row.MaxSeverity = string(severity)
		}
		catalog.Entries = append(catalog.Entries, row)
	}
	return catalog
}

func shortFingerprint(fp string) string {
	if len(fp) > 8 {
		return fp[:8]
	}
	return fp
}

// WriteFiles renders INDEX.md and index.json into dir, each stamped with
// a vellum envelope so regenerated artifacts are distinguishable from
// source briefs.
func (c *Catalog) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: ensure index dir: %w", err)
	}
	if err := c.writeMarkdown(filepath.Join(dir, IndexMarkdownFile)); err != nil {
		return err
	}
	return c.writeJSON(filepath.Join(dir, IndexJSONFile))
}

func (c *Catalog) writeMarkdown(path string) error {
	body := c.renderMarkdown()
	meta := brief.Metadata{
		Tool:        brief.ToolName,
		Version:     version.Version,
		Kind:        KindIndexMarkdown,
		Checksum:    checksum(body),
		GeneratedAt: c.GeneratedAt,
		Notes: map[string]string{
			"documents": fmt.Sprintf("%d", len(c.Entries)),
		},
	}
	content, err := brief.WriteFrontMatter(meta, body)
	if err != nil {
		return fmt.Errorf("report: render %s: %w", IndexMarkdownFile, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

func (c *Catalog) renderMarkdown() []byte {
	var buf bytes.Buffer
	buf.WriteString("# Corpus Index\n\n")
	fmt.Fprintf(&buf, "%d briefs under %s.\n\n", len(c.Entries), c.Root)
	buf.WriteString("| Persona | Path | Sections | Requirements | Setup | Worst Finding |\n")
	buf.WriteString("| --- | --- | ---: | ---: | --- | --- |\n")
	for _, entry := range c.Entries {
		title := entry.Title
		if title == "" {
			title = "(untitled)"
		}
		if entry.LoadError != "" {
			title = "(unreadable)"
		}
		setup := entry.Fingerprint
		if setup == "" {
			setup = "-"
		}
		worst := entry.MaxSeverity
		if worst == "" {
			worst = "-"
		}
		fmt.Fprintf(&buf, "| %s | %s | %d | %d | %s | %s |\n",
			title, entry.Path, entry.Sections, entry.Requirements, setup, worst)
	}
	buf.WriteString("\n## Findings Summary\n\n")
	fmt.Fprintf(&buf, "- errors: %d\n- warnings: %d\n- infos: %d\n- failed loads: %d\n",
		c.Stats.Errors, c.Stats.Warnings, c.Stats.Infos, c.Stats.FailedLoads)
	return buf.Bytes()
}

func (c *Catalog) writeJSON(path string) error {
	payload := map[string]any{
		"root":         c.Root,
		"generated_at": c.GeneratedAt.UTC().Format(time.RFC3339),
		"entries":      c.Entries,
		"stats":        c.Stats,
		"_vellum": map[string]any{
			"tool":    brief.ToolName,
			"version": version.Version,
			"kind":    KindIndexJSON,
		},
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode %s: %w", IndexJSONFile, err)
	}
	encoded = append(encoded, '\n')
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// Artifact states reported by VerifyMarkdown.
type ArtifactState string

const (
	StateMissing ArtifactState = "missing"
	StateReady   ArtifactState = "ready"
	StateInvalid ArtifactState = "invalid"
	StateStale   ArtifactState = "stale"
)

// VerifyMarkdown inspects a generated markdown artifact: a missing file,
// a missing/foreign envelope, or a checksum mismatch each get their own
// state so callers can decide whether to regenerate.
func VerifyMarkdown(path string) (ArtifactState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StateMissing, nil
		}
		return StateInvalid, fmt.Errorf("report: read %s: %w", path, err)
	}
	meta, body, err := brief.ParseFrontMatter(data)
	if err != nil {
		return StateInvalid, fmt.Errorf("report: %s: %w", path, err)
	}
	if err := meta.Validate(); err != nil {
		return StateInvalid, fmt.Errorf("report: %s: %w", path, err)
	}
	// WriteFrontMatter pads a blank line between the fence and the body.
	body = bytes.TrimPrefix(body, []byte("\n"))
	if meta.Checksum != "" && meta.Checksum != checksum(body) {
		return StateStale, nil
	}
	return StateReady, nil
}

func checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
