// Package report renders lint runs for people and machines: a text
// summary for the terminal, a JSON report for CI, and the generated
// catalog artifacts under .vellum/index/.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"vellum/internal/finding"
	"vellum/internal/lint"
	"vellum/internal/version"
)

// Report is the machine-readable outcome of a lint run.
type Report struct {
	Tool        string            `json:"tool"`
	Version     string            `json:"version"`
	Root        string            `json:"root"`
	GeneratedAt time.Time         `json:"generated_at"`
	Stats       lint.Stats        `json:"stats"`
	Findings    []finding.Finding `json:"findings"`
}

// FromRun builds a report from a lint run.
func FromRun(run *lint.Run) *Report {
	return &Report{
		Tool:        "vellum",
		Version:     version.Version,
		Root:        run.Corpus.Root,
		GeneratedAt: run.StartedAt,
		Stats:       run.Stats,
		Findings:    run.Findings,
	}
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

// WriteText renders a human-readable summary: one line per finding,
// grouped as sorted by finding.Normalize, then a totals line.
func WriteText(w io.Writer, run *lint.Run) error {
	for _, f := range run.Findings {
		location := f.Path
		if location == "" {
			location = "(corpus)"
		}
		if f.Line > 0 {
			location = fmt.Sprintf("%s:%d", location, f.Line)
		}
		if _, err := fmt.Fprintf(w, "%-7s %s  %s: %s\n", f.Severity, location, f.RuleID, f.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d documents, %d errors, %d warnings, %d infos (%s)\n",
		run.Stats.Documents,
		run.Stats.Errors,
		run.Stats.Warnings,
		run.Stats.Infos,
		run.Duration.Round(time.Millisecond),
	)
	return err
}
