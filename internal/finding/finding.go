// Package finding defines the lint violation model shared by the rule
// engine, reporters, and the TUI. A Finding is immutable once built; sets
// of findings are sorted and deduplicated here so every consumer sees the
// same ordering.
package finding

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Finding records a single rule violation against a brief or the corpus.
type Finding struct {
	// ID is a unique identifier assigned at construction.
	ID string `json:"id"`

	// RuleID names the rule that produced the finding.
	RuleID string `json:"rule_id"`

	// Severity ranks the violation.
	Severity Severity `json:"severity"`

	// Category groups the violation by the aspect it concerns.
	Category Category `json:"category"`

	// Path is the corpus-relative path of the offending brief. Empty for
	// corpus-scoped findings that do not attach to one document.
	Path string `json:"path,omitempty"`

	// Section names the heading the violation occurred under, when known.
	Section string `json:"section,omitempty"`

	// Line is the 1-based line of the violation; 0 means the whole document.
	Line int `json:"line,omitempty"`

	// Message describes the violation for a human reader.
	Message string `json:"message"`

	// CreatedAt is the time the finding was produced.
	CreatedAt time.Time `json:"created_at"`
}

// New builds a finding with a fresh ID and timestamp.
func New(ruleID string, severity Severity, category Category, message string) Finding {
	return Finding{
		ID:        uuid.NewString(),
		RuleID:    ruleID,
		Severity:  severity,
		Category:  category,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// At returns a copy of the finding attached to a document location.
func (f Finding) At(path string, line int) Finding {
	f.Path = path
	f.Line = line
	return f
}

// InSection returns a copy of the finding attached to a named section.
func (f Finding) InSection(name string) Finding {
	f.Section = name
	return f
}

// Validate ensures the finding is well-formed.
func (f Finding) Validate() error {
	if f.RuleID == "" {
		return fmt.Errorf("finding: rule id is required")
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("finding: invalid severity %q for rule %s", f.Severity, f.RuleID)
	}
	if !f.Category.IsValid() {
		return fmt.Errorf("finding: invalid category %q for rule %s", f.Category, f.RuleID)
	}
	if strings.TrimSpace(f.Message) == "" {
		return fmt.Errorf("finding: message is required for rule %s", f.RuleID)
	}
	if f.Line < 0 {
		return fmt.Errorf("finding: line must be >= 0 for rule %s", f.RuleID)
	}
	return nil
}

// DedupeKey identifies findings that describe the same violation. Two
// findings with equal keys collapse into one during Normalize.
func (f Finding) DedupeKey() string {
	return strings.Join([]string{f.RuleID, f.Path, f.Section, fmt.Sprintf("%d", f.Line), f.Message}, "\x1f")
}

// Normalize sorts findings by severity (most severe first), then path,
// line, and rule ID, and drops duplicates by DedupeKey. The input slice is
// not modified.
func Normalize(findings []Finding) []Finding {
	if len(findings) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(findings))
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		key := f.DedupeKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Weight() != out[j].Severity.Weight() {
			return out[i].Severity.Weight() > out[j].Severity.Weight()
		}
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

// CountBySeverity tallies findings per severity level.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, len(AllSeverities()))
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// MaxSeverity returns the most severe level present, or "" when the slice
// is empty.
func MaxSeverity(findings []Finding) Severity {
	var max Severity
	for _, f := range findings {
		if f.Severity.Weight() > max.Weight() {
			max = f.Severity
		}
	}
	return max
}
