package rulepack

import (
	"fmt"
	"regexp"
	"strings"

	"vellum/internal/brief"
	"vellum/internal/finding"
	"vellum/internal/rules"
)

// patternRule is a regex rule over brief prose. In forbid mode every
// matching line yields a finding; in require mode the absence of a match
// yields one.
type patternRule struct {
	rules.Base
	re      *regexp.Regexp
	mode    string
	section string
	message string
}

func newPatternRule(def RuleDefinition, severity finding.Severity) (*patternRule, error) {
	re, err := regexp.Compile(def.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: compile pattern: %w", def.ID, err)
	}
	description := def.Description
	if description == "" {
		description = fmt.Sprintf("%s pattern %s", def.Mode, def.Pattern)
	}
	return &patternRule{
		Base: rules.NewBase(rules.Info{
			ID:          def.ID,
			Description: description,
			Severity:    severity,
			Category:    finding.CategoryContent,
			Scope:       rules.ScopeDocument,
		}),
		re:      re,
		mode:    def.Mode,
		section: def.Section,
		message: def.Message,
	}, nil
}

// Check implements rules.DocumentRule.
func (r *patternRule) Check(doc *brief.Document) []finding.Finding {
	text, baseLine, sectionTitle, ok := r.target(doc)
	if !ok {
		// Rule is scoped to a section the brief does not have; absence is
		// the required-sections rule's business, not ours.
		return nil
	}
	if r.mode == ModeRequire {
		if r.re.MatchString(text) {
			return nil
		}
		f := r.Finding(r.message).At(doc.Path, baseLine)
		if sectionTitle != "" {
			f = f.InSection(sectionTitle)
		}
		return []finding.Finding{f}
	}
	var findings []finding.Finding
	for i, line := range strings.Split(text, "\n") {
		if !r.re.MatchString(line) {
			continue
		}
		lineNo := baseLine
		if baseLine > 0 {
			lineNo = baseLine + i
		} else {
			lineNo = i + 1
		}
		f := r.Finding(r.message).At(doc.Path, lineNo)
		if sectionTitle != "" {
			f = f.InSection(sectionTitle)
		}
		findings = append(findings, f)
	}
	return findings
}

// target picks the text the pattern runs against: a named section's body
// or the whole document.
func (r *patternRule) target(doc *brief.Document) (text string, baseLine int, sectionTitle string, ok bool) {
	if r.section == "" {
		return string(doc.Raw), 0, "", true
	}
	sec, found := doc.Section(r.section)
	if !found {
		return "", 0, "", false
	}
	base := sec.BodyLine
	if base == 0 {
		// Empty body; anchor any finding at the heading.
		base = sec.Line
	}
	return sec.Body, base, sec.Title, true
}
