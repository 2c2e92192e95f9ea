package rulepack

import (
	"strings"
	"testing"

	"vellum/internal/brief"
	"vellum/internal/finding"
	"vellum/internal/rules"
)

func validDefinition() PackDefinition {
	return PackDefinition{
		Name:    "house-style",
		Version: "1",
		Rules: []RuleDefinition{
			{
				ID:      "no-maybe",
				Kind:    KindPattern,
				Message: "avoid 'maybe' in requirements",
				Pattern: `(?i)\bmaybe\b`,
			},
			{
				ID:         "min-words",
				Kind:       KindExpression,
				Severity:   "warning",
				Message:    "brief is too short",
				Expression: "doc.word_count >= 5",
			},
		},
	}
}

func TestValidateAcceptsGoodDefinition(t *testing.T) {
	if err := validDefinition().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PackDefinition)
	}{
		{"missing name", func(d *PackDefinition) { d.Name = " " }},
		{"missing version", func(d *PackDefinition) { d.Version = "" }},
		{"no rules", func(d *PackDefinition) { d.Rules = nil }},
		{"missing rule id", func(d *PackDefinition) { d.Rules[0].ID = "" }},
		{"missing message", func(d *PackDefinition) { d.Rules[0].Message = "" }},
		{"bad severity", func(d *PackDefinition) { d.Rules[0].Severity = "fatal" }},
		{"bad kind", func(d *PackDefinition) { d.Rules[0].Kind = "script" }},
		{"missing pattern", func(d *PackDefinition) { d.Rules[0].Pattern = "" }},
		{"broken pattern", func(d *PackDefinition) { d.Rules[0].Pattern = "[" }},
		{"bad mode", func(d *PackDefinition) { d.Rules[0].Mode = "warn" }},
		{"missing expression", func(d *PackDefinition) { d.Rules[1].Expression = "" }},
		{"duplicate ids", func(d *PackDefinition) { d.Rules[1].ID = "no-maybe" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)
			if err := def.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestNormalizedDefaults(t *testing.T) {
	def := PackDefinition{
		Name:    "  padded  ",
		Version: " 1 ",
		Rules: []RuleDefinition{
			{ID: " r ", Kind: " pattern ", Message: " m ", Pattern: "x"},
		},
	}
	normalized := def.Normalized()
	if normalized.Name != "padded" {
		t.Fatalf("name not trimmed: %q", normalized.Name)
	}
	rule := normalized.Rules[0]
	if rule.Mode != ModeForbid {
		t.Fatalf("mode default missing: %q", rule.Mode)
	}
	if rule.Severity != string(finding.SeverityInfo) {
		t.Fatalf("severity default missing: %q", rule.Severity)
	}
}

func parseDoc(t *testing.T, lines ...string) *brief.Document {
	t.Helper()
	doc, err := brief.Parse("p/INSTRUCTIONS.md", "", []byte(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestBuildProducesWorkingRules(t *testing.T) {
	built, err := validDefinition().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("expected 2 rules got %d", len(built))
	}
	doc := parseDoc(t, "# P", "", "Maybe we should do something here eventually.")
	for _, rule := range built {
		docRule, ok := rule.(rules.DocumentRule)
		if !ok {
			t.Fatalf("%s is not a document rule", rule.Info().ID)
		}
		findings := docRule.Check(doc)
		switch rule.Info().ID {
		case "no-maybe":
			if len(findings) != 1 {
				t.Fatalf("no-maybe expected 1 finding got %d", len(findings))
			}
			if findings[0].Line != 3 {
				t.Fatalf("no-maybe line = %d", findings[0].Line)
			}
		case "min-words":
			if len(findings) != 0 {
				t.Fatalf("min-words unexpected findings: %+v", findings)
			}
		}
	}
}

func TestBuildRejectsBrokenExpression(t *testing.T) {
	def := validDefinition()
	def.Rules[1].Expression = "doc.word_count >="
	if _, err := def.Build(); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestRequireModePattern(t *testing.T) {
	def := PackDefinition{
		Name:    "coverage",
		Version: "1",
		Rules: []RuleDefinition{
			{
				ID:       "mentions-coverage",
				Kind:     KindPattern,
				Mode:     ModeRequire,
				Severity: "warning",
				Message:  "brief never states a coverage target",
				Pattern:  `(?i)coverage`,
				Section:  "Success Criteria",
			},
		},
	}
	built, err := def.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rule := built[0].(rules.DocumentRule)

	with := parseDoc(t, "# P", "", "## Success Criteria", "", "90% coverage enforced")
	if findings := rule.Check(with); len(findings) != 0 {
		t.Fatalf("unexpected findings: %+v", findings)
	}

	without := parseDoc(t, "# P", "", "## Success Criteria", "", "tests pass")
	findings := rule.Check(without)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding got %d", len(findings))
	}
	if findings[0].Section != "Success Criteria" {
		t.Fatalf("finding not attached to section: %+v", findings[0])
	}

	// Section absent: this rule stays quiet, required-sections owns that.
	missing := parseDoc(t, "# P", "", "## Key Requirements")
	if findings := rule.Check(missing); len(findings) != 0 {
		t.Fatalf("expected no findings for absent section: %+v", findings)
	}
}

func TestForbidModeSectionLineNumbers(t *testing.T) {
	def := PackDefinition{
		Name:    "house-style",
		Version: "1",
		Rules: []RuleDefinition{
			{
				ID:      "no-tbd-criteria",
				Kind:    KindPattern,
				Message: "success criteria must not defer to TBD",
				Pattern: `\bTBD\b`,
				Section: "Success Criteria",
			},
		},
	}
	built, err := def.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rule := built[0].(rules.DocumentRule)

	// Heading on line 3, blank line, body from line 5, match on line 7.
	doc := parseDoc(t, "# P", "", "## Success Criteria", "", "All tests pass.", "", "Details TBD.")
	findings := rule.Check(doc)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding got %d: %+v", len(findings), findings)
	}
	if findings[0].Line != 7 {
		t.Fatalf("finding line = %d, want 7", findings[0].Line)
	}
}

func TestInstallRejectsCollisionWithBuiltins(t *testing.T) {
	def := validDefinition()
	def.Rules[0].ID = "required-sections"
	registry := rules.Builtin()
	if err := def.Install(registry); err == nil {
		t.Fatalf("expected collision error")
	}
}

func TestInstallAddsRules(t *testing.T) {
	registry := rules.Builtin()
	if err := validDefinition().Install(registry); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := registry.Resolve("no-maybe", nil); err != nil {
		t.Fatalf("Resolve installed rule: %v", err)
	}
}
