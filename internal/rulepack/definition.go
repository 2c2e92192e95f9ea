// Package rulepack loads user-defined lint rules from YAML files under
// .vellum/rules/. A pack declares pattern rules (regex over prose) and
// expression rules (CEL over the parsed brief); definitions are validated
// before anything reaches the rule registry.
package rulepack

import (
	"fmt"
	"regexp"
	"strings"

	"vellum/internal/finding"
	"vellum/internal/rules"
	"vellum/internal/rules/expr"
)

// Rule kinds a pack may declare.
const (
	KindPattern    = "pattern"
	KindExpression = "expression"
)

// Pattern modes.
const (
	// ModeForbid reports every match of the pattern.
	ModeForbid = "forbid"
	// ModeRequire reports the absence of any match.
	ModeRequire = "require"
)

// PackDefinition describes one rule pack loaded from YAML.
//
// The struct mirrors the on-disk schema under .vellum/rules/*.yaml and is
// intentionally narrow so definitions can be validated before they are
// wired into the lint engine.
type PackDefinition struct {
	Name    string           `json:"name" yaml:"name"`
	Version string           `json:"version" yaml:"version"`
	Rules   []RuleDefinition `json:"rules" yaml:"rules"`
}

// RuleDefinition declares a single pack rule.
type RuleDefinition struct {
	ID          string `json:"id" yaml:"id"`
	Kind        string `json:"kind" yaml:"kind"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Severity    string `json:"severity,omitempty" yaml:"severity,omitempty"`
	Message     string `json:"message" yaml:"message"`

	// Pattern rule fields.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Mode    string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`

	// Expression rule field.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Normalized returns a trimmed, copy-on-write variant of the definition.
func (def PackDefinition) Normalized() PackDefinition {
	clone := PackDefinition{
		Name:    strings.TrimSpace(def.Name),
		Version: strings.TrimSpace(def.Version),
	}
	if len(def.Rules) > 0 {
		clone.Rules = make([]RuleDefinition, len(def.Rules))
		for i, rule := range def.Rules {
			clone.Rules[i] = rule.normalized()
		}
	}
	return clone
}

func (def RuleDefinition) normalized() RuleDefinition {
	mode := strings.TrimSpace(def.Mode)
	if mode == "" {
		mode = ModeForbid
	}
	severity := strings.TrimSpace(def.Severity)
	if severity == "" {
		severity = string(finding.SeverityInfo)
	}
	return RuleDefinition{
		ID:          strings.TrimSpace(def.ID),
		Kind:        strings.TrimSpace(def.Kind),
		Description: strings.TrimSpace(def.Description),
		Severity:    severity,
		Message:     strings.TrimSpace(def.Message),
		Pattern:     strings.TrimSpace(def.Pattern),
		Mode:        mode,
		Section:     strings.TrimSpace(def.Section),
		Expression:  strings.TrimSpace(def.Expression),
	}
}

// Validate ensures the pack definition is well-formed.
func (def PackDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.Name == "" {
		return fmt.Errorf("rulepack: name is required")
	}
	if normalized.Version == "" {
		return fmt.Errorf("rulepack %s: version is required", normalized.Name)
	}
	if len(normalized.Rules) == 0 {
		return fmt.Errorf("rulepack %s: at least one rule is required", normalized.Name)
	}
	seen := make(map[string]struct{}, len(normalized.Rules))
	for idx, rule := range normalized.Rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rulepack %s: rules[%d]: %w", normalized.Name, idx, err)
		}
		if _, exists := seen[rule.ID]; exists {
			return fmt.Errorf("rulepack %s: rules[%d]: duplicate id %s", normalized.Name, idx, rule.ID)
		}
		seen[rule.ID] = struct{}{}
	}
	return nil
}

// Validate ensures a single rule definition is well-formed.
func (def RuleDefinition) Validate() error {
	normalized := def.normalized()
	if normalized.ID == "" {
		return fmt.Errorf("id is required")
	}
	if normalized.Message == "" {
		return fmt.Errorf("%s: message is required", normalized.ID)
	}
	if _, err := finding.ParseSeverity(normalized.Severity); err != nil {
		return fmt.Errorf("%s: %w", normalized.ID, err)
	}
	switch normalized.Kind {
	case KindPattern:
		if normalized.Pattern == "" {
			return fmt.Errorf("%s: pattern is required", normalized.ID)
		}
		if _, err := regexp.Compile(normalized.Pattern); err != nil {
			return fmt.Errorf("%s: invalid pattern: %w", normalized.ID, err)
		}
		if normalized.Mode != ModeForbid && normalized.Mode != ModeRequire {
			return fmt.Errorf("%s: mode must be %q or %q", normalized.ID, ModeForbid, ModeRequire)
		}
	case KindExpression:
		if normalized.Expression == "" {
			return fmt.Errorf("%s: expression is required", normalized.ID)
		}
	default:
		return fmt.Errorf("%s: kind must be %q or %q", normalized.ID, KindPattern, KindExpression)
	}
	return nil
}

// Build constructs the rules a pack declares. Expression rules compile
// here, so a broken CEL expression fails at load time.
func (def PackDefinition) Build() ([]rules.Rule, error) {
	normalized := def.Normalized()
	if err := normalized.Validate(); err != nil {
		return nil, err
	}
	built := make([]rules.Rule, 0, len(normalized.Rules))
	for _, ruleDef := range normalized.Rules {
		severity, err := finding.ParseSeverity(ruleDef.Severity)
		if err != nil {
			return nil, fmt.Errorf("rulepack %s: %s: %w", normalized.Name, ruleDef.ID, err)
		}
		switch ruleDef.Kind {
		case KindPattern:
			rule, err := newPatternRule(ruleDef, severity)
			if err != nil {
				return nil, fmt.Errorf("rulepack %s: %w", normalized.Name, err)
			}
			built = append(built, rule)
		case KindExpression:
			rule, err := expr.New(ruleDef.ID, ruleDef.Description, ruleDef.Message, ruleDef.Expression, severity)
			if err != nil {
				return nil, fmt.Errorf("rulepack %s: %w", normalized.Name, err)
			}
			built = append(built, rule)
		}
	}
	return built, nil
}

// Install registers every pack rule into the registry. Collisions with
// built-in or previously installed IDs are rejected.
func (def PackDefinition) Install(registry *rules.Registry) error {
	built, err := def.Build()
	if err != nil {
		return err
	}
	for _, rule := range built {
		rule := rule
		if err := registry.Register(rule.Info().ID, func(rules.Config) (rules.Rule, error) {
			return rule, nil
		}); err != nil {
			return err
		}
	}
	return nil
}
