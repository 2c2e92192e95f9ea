package rules

import (
	"fmt"
	"regexp"
	"strings"

	"vellum/internal/brief"
	"vellum/internal/finding"
)

// RequiredSections are the headings every persona brief must carry. This
// is the one structural property the whole corpus is held to.
var RequiredSections = []string{
	"Key Requirements",
	"Technical Requirements",
	"Success Criteria",
}

// requiredSectionsRule flags briefs missing any required heading.
type requiredSectionsRule struct {
	Base
}

func newRequiredSections(Config) (Rule, error) {
	return &requiredSectionsRule{Base: NewBase(Info{
		ID:          "required-sections",
		Description: "brief contains Key Requirements, Technical Requirements, and Success Criteria sections",
		Severity:    finding.SeverityError,
		Category:    finding.CategoryStructure,
		Scope:       ScopeDocument,
	})}, nil
}

func (r *requiredSectionsRule) Check(doc *brief.Document) []finding.Finding {
	var findings []finding.Finding
	for _, want := range RequiredSections {
		if doc.HasSection(want) {
			continue
		}
		msg := fmt.Sprintf("missing required section %q", want)
		findings = append(findings, r.Finding(msg).At(doc.Path, 0))
	}
	return findings
}

// titleHeadingRule flags briefs that do not open with an H1 persona title.
type titleHeadingRule struct {
	Base
}

func newTitleHeading(Config) (Rule, error) {
	return &titleHeadingRule{Base: NewBase(Info{
		ID:          "title-heading",
		Description: "brief opens with a single H1 persona title",
		Severity:    finding.SeverityWarning,
		Category:    finding.CategoryStructure,
		Scope:       ScopeDocument,
	})}, nil
}

func (r *titleHeadingRule) Check(doc *brief.Document) []finding.Finding {
	if doc.Title == "" {
		return []finding.Finding{r.Finding("brief has no H1 persona title").At(doc.Path, 0)}
	}
	if len(doc.Sections) > 0 && doc.Sections[0].Level != 1 {
		msg := fmt.Sprintf("first heading %q is not the persona title", doc.Sections[0].Title)
		return []finding.Finding{r.Finding(msg).At(doc.Path, doc.Sections[0].Line)}
	}
	return nil
}

// DefaultRequirementCount is the bullet count briefs conventionally list
// under Key Requirements.
const DefaultRequirementCount = 5

// requirementCountRule flags Key Requirements sections that stray from the
// conventional bullet count.
type requirementCountRule struct {
	Base
	want int
}

func newRequirementCount(cfg Config) (Rule, error) {
	want := DefaultRequirementCount
	if raw, ok := cfg["count"]; ok {
		n, ok := toInt(raw)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("rules: requirement-count: count must be a positive integer, got %v", raw)
		}
		want = n
	}
	return &requirementCountRule{
		Base: NewBase(Info{
			ID:          "requirement-count",
			Description: fmt.Sprintf("Key Requirements lists %d feature bullets", want),
			Severity:    finding.SeverityWarning,
			Category:    finding.CategoryContent,
			Scope:       ScopeDocument,
		}),
		want: want,
	}, nil
}

func (r *requirementCountRule) Check(doc *brief.Document) []finding.Finding {
	sec, ok := doc.Section("Key Requirements")
	if !ok {
		// required-sections already covers absence.
		return nil
	}
	if len(sec.Bullets) == r.want {
		return nil
	}
	msg := fmt.Sprintf("Key Requirements lists %d bullets, expected %d", len(sec.Bullets), r.want)
	return []finding.Finding{r.Finding(msg).At(doc.Path, sec.Line).InSection(sec.Title)}
}

// setupBoilerplateRule flags briefs whose setup block is absent or strays
// from the canonical command sequence.
type setupBoilerplateRule struct {
	Base
}

func newSetupBoilerplate(Config) (Rule, error) {
	return &setupBoilerplateRule{Base: NewBase(Info{
		ID:          "setup-boilerplate",
		Description: "brief carries the canonical uv/pytest setup block",
		Severity:    finding.SeverityWarning,
		Category:    finding.CategoryBoilerplate,
		Scope:       ScopeDocument,
	})}, nil
}

func (r *setupBoilerplateRule) Check(doc *brief.Document) []finding.Finding {
	if doc.Boilerplate == nil {
		return []finding.Finding{r.Finding("no setup boilerplate block found").At(doc.Path, 0)}
	}
	var findings []finding.Finding
	for _, missing := range doc.Boilerplate.Missing {
		msg := fmt.Sprintf("setup block is missing %q", missing)
		findings = append(findings, r.Finding(msg).At(doc.Path, doc.Boilerplate.Line))
	}
	return findings
}

// deliverableArtifactRule flags briefs that never name the expected
// pytest_results.json deliverable.
type deliverableArtifactRule struct {
	Base
}

func newDeliverableArtifact(Config) (Rule, error) {
	return &deliverableArtifactRule{Base: NewBase(Info{
		ID:          "deliverable-artifact",
		Description: "brief names pytest_results.json as its deliverable proof",
		Severity:    finding.SeverityInfo,
		Category:    finding.CategoryBoilerplate,
		Scope:       ScopeDocument,
	})}, nil
}

func (r *deliverableArtifactRule) Check(doc *brief.Document) []finding.Finding {
	if doc.Mentions(brief.DeliverableArtifact) {
		return nil
	}
	msg := fmt.Sprintf("brief never mentions the %s deliverable", brief.DeliverableArtifact)
	return []finding.Finding{r.Finding(msg).At(doc.Path, 0)}
}

// vagueLanguageRule flags unverifiable filler phrases in requirement prose.
type vagueLanguageRule struct {
	Base
	patterns []phrasePattern
}

type phrasePattern struct {
	phrase string
	re     *regexp.Regexp
}

func newVagueLanguage(cfg Config) (Rule, error) {
	phrases := DefaultForbiddenPhrases
	if raw, ok := cfg["phrases"]; ok {
		custom, ok := toStringSlice(raw)
		if !ok || len(custom) == 0 {
			return nil, fmt.Errorf("rules: vague-language: phrases must be a non-empty string list, got %v", raw)
		}
		phrases = custom
	}
	patterns := make([]phrasePattern, 0, len(phrases))
	for _, phrase := range phrases {
		re, err := compilePhrase(phrase)
		if err != nil {
			return nil, fmt.Errorf("rules: vague-language: phrase %q: %w", phrase, err)
		}
		patterns = append(patterns, phrasePattern{phrase: phrase, re: re})
	}
	return &vagueLanguageRule{
		Base: NewBase(Info{
			ID:          "vague-language",
			Description: "requirement prose avoids unverifiable filler phrases",
			Severity:    finding.SeverityInfo,
			Category:    finding.CategoryContent,
			Scope:       ScopeDocument,
		}),
		patterns: patterns,
	}, nil
}

func (r *vagueLanguageRule) Check(doc *brief.Document) []finding.Finding {
	var findings []finding.Finding
	for i, line := range strings.Split(string(doc.Raw), "\n") {
		for _, pattern := range r.patterns {
			if !pattern.re.MatchString(line) {
				continue
			}
			msg := fmt.Sprintf("unverifiable phrase %q", pattern.phrase)
			findings = append(findings, r.Finding(msg).At(doc.Path, i+1))
		}
	}
	return findings
}

func compilePhrase(phrase string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(strings.TrimSpace(phrase))
	if quoted == "" {
		return nil, fmt.Errorf("empty phrase")
	}
	expr := "(?i)"
	if startsWithWordChar(phrase) {
		expr += `\b`
	}
	expr += quoted
	if endsWithWordChar(phrase) {
		expr += `\b`
	}
	return regexp.Compile(expr)
}

func startsWithWordChar(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func endsWithWordChar(s string) bool {
	if s == "" {
		return false
	}
	return startsWithWordChar(s[len(s)-1:])
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
