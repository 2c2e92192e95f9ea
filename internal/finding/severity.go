package finding

import "fmt"

// Severity ranks how seriously a lint violation should be treated.
type Severity string

const (
	// SeverityError marks violations of the structural contract every brief
	// must honor. Errors fail a lint run.
	SeverityError Severity = "error"

	// SeverityWarning marks deviations from corpus conventions that do not
	// break the structural contract.
	SeverityWarning Severity = "warning"

	// SeverityInfo marks advisory notes, such as vague wording.
	SeverityInfo Severity = "info"
)

var severityWeights = map[Severity]int{
	SeverityError:   3,
	SeverityWarning: 2,
	SeverityInfo:    1,
}

// IsValid reports whether the severity is one of the known levels.
func (s Severity) IsValid() bool {
	_, ok := severityWeights[s]
	return ok
}

// Weight returns the numeric rank of the severity; higher is more severe.
// Unknown severities weigh zero.
func (s Severity) Weight() int {
	return severityWeights[s]
}

// String returns the string form of the severity.
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity converts a string into a Severity or fails.
func ParseSeverity(value string) (Severity, error) {
	s := Severity(value)
	if !s.IsValid() {
		return "", fmt.Errorf("finding: invalid severity %q", value)
	}
	return s, nil
}

// AllSeverities lists the levels from most to least severe.
func AllSeverities() []Severity {
	return []Severity{SeverityError, SeverityWarning, SeverityInfo}
}
