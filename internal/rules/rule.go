// Package rules defines the lint rule framework: the rule interfaces, the
// registry rule factories install into, and the built-in rules that encode
// the structural contract persona briefs are held to.
package rules

import (
	"fmt"

	"vellum/internal/brief"
	"vellum/internal/corpus"
	"vellum/internal/finding"
)

// Scope declares what a rule inspects.
type Scope string

const (
	// ScopeDocument rules check one brief at a time.
	ScopeDocument Scope = "document"
	// ScopeCorpus rules check cross-document properties after all briefs
	// have been loaded.
	ScopeCorpus Scope = "corpus"
)

// Info describes a rule's identity.
type Info struct {
	ID          string
	Description string
	Severity    finding.Severity
	Category    finding.Category
	Scope       Scope
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("rules: id is required")
	}
	if i.Description == "" {
		return fmt.Errorf("rules: description is required for %s", i.ID)
	}
	if !i.Severity.IsValid() {
		return fmt.Errorf("rules: invalid severity %q for %s", i.Severity, i.ID)
	}
	if !i.Category.IsValid() {
		return fmt.Errorf("rules: invalid category %q for %s", i.Category, i.ID)
	}
	if i.Scope != ScopeDocument && i.Scope != ScopeCorpus {
		return fmt.Errorf("rules: invalid scope %q for %s", i.Scope, i.ID)
	}
	return nil
}

// Rule is implemented by every lint rule.
type Rule interface {
	Info() Info
}

// DocumentRule checks a single brief.
type DocumentRule interface {
	Rule
	Check(doc *brief.Document) []finding.Finding
}

// CorpusRule checks the assembled corpus.
type CorpusRule interface {
	Rule
	CheckCorpus(c *corpus.Corpus) []finding.Finding
}

// Base provides common plumbing for rules (identity + finding helpers).
type Base struct {
	info Info
}

// NewBase seeds the helper with rule info.
func NewBase(info Info) Base {
	return Base{info: info}
}

// Info implements Rule.Info.
func (b Base) Info() Info {
	return b.info
}

// Finding builds a finding carrying the rule's identity.
func (b Base) Finding(message string) finding.Finding {
	return finding.New(b.info.ID, b.info.Severity, b.info.Category, message)
}
