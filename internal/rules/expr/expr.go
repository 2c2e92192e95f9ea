// Package expr implements lint rules written as CEL expressions. Rule
// packs declare an expression over a `doc` map; the expression must
// evaluate to a bool, and false means the brief violates the rule.
package expr

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"vellum/internal/brief"
	"vellum/internal/finding"
	"vellum/internal/rules"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

// Env returns the shared CEL environment expression rules compile in.
func Env() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return env, envErr
}

// Rule is a document rule backed by a compiled CEL program.
type Rule struct {
	rules.Base
	message string
	program cel.Program
}

// New compiles an expression rule. The expression is checked at
// construction: a syntax error or a non-bool result type fails here, never
// during a lint pass.
func New(id, description, message, expression string, severity finding.Severity) (*Rule, error) {
	if expression == "" {
		return nil, fmt.Errorf("expr: %s: expression is required", id)
	}
	if message == "" {
		return nil, fmt.Errorf("expr: %s: message is required", id)
	}
	celEnv, err := Env()
	if err != nil {
		return nil, fmt.Errorf("expr: build environment: %w", err)
	}
	ast, issues := celEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("expr: %s: compile: %w", id, issues.Err())
	}
	if ast.OutputType().String() != "bool" {
		return nil, fmt.Errorf("expr: %s: expression must evaluate to bool, got %s", id, ast.OutputType())
	}
	program, err := celEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("expr: %s: build program: %w", id, err)
	}
	if description == "" {
		description = expression
	}
	return &Rule{
		Base: rules.NewBase(rules.Info{
			ID:          id,
			Description: description,
			Severity:    severity,
			Category:    finding.CategoryContent,
			Scope:       rules.ScopeDocument,
		}),
		message: message,
		program: program,
	}, nil
}

// Check evaluates the expression against one brief.
func (r *Rule) Check(doc *brief.Document) []finding.Finding {
	out, _, err := r.program.Eval(map[string]any{"doc": Activation(doc)})
	if err != nil {
		msg := fmt.Sprintf("expression evaluation failed: %v", err)
		return []finding.Finding{r.Finding(msg).At(doc.Path, 0)}
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		msg := fmt.Sprintf("expression produced %T, expected bool", out.Value())
		return []finding.Finding{r.Finding(msg).At(doc.Path, 0)}
	}
	if ok {
		return nil
	}
	return []finding.Finding{r.Finding(r.message).At(doc.Path, 0)}
}

// Activation exposes a brief to CEL expressions as a flat map.
func Activation(doc *brief.Document) map[string]any {
	requirementCount := 0
	if sec, ok := doc.Section("Key Requirements"); ok {
		requirementCount = len(sec.Bullets)
	}
	sections := doc.SectionTitles()
	titles := make([]any, 0, len(sections))
	for _, title := range sections {
		titles = append(titles, title)
	}
	return map[string]any{
		"path":              doc.Path,
		"title":             doc.Title,
		"sections":          titles,
		"section_count":     len(doc.Sections),
		"word_count":        doc.WordCount,
		"requirement_count": requirementCount,
		"has_boilerplate":   doc.Boilerplate != nil,
		"has_frontmatter":   doc.Meta != nil,
	}
}
