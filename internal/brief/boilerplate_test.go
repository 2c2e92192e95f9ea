package brief

import (
	"strings"
	"testing"
)

func briefWithCriteria(criteria string) []byte {
	lines := []string{
		"# Sven the Inventory Manager",
		"",
		"## Key Requirements",
		"",
		"- Track stock levels",
		"",
		"## Technical Requirements",
		"",
		"```bash",
		"uv venv",
		"uv pip install -e .",
		"pytest --json-report --json-report-file=pytest_results.json",
		"```",
		"",
		"## Success Criteria",
		"",
		criteria,
		"",
	}
	return []byte(strings.Join(lines, "\n"))
}

func TestFingerprintIgnoresProseMentions(t *testing.T) {
	a, err := Parse("a/INSTRUCTIONS.md", "", briefWithCriteria("pytest_results.json is green."))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := Parse("b/INSTRUCTIONS.md", "", briefWithCriteria("pytest_results.json shows all tests passing."))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.Boilerplate == nil || b.Boilerplate == nil {
		t.Fatalf("expected boilerplate in both briefs")
	}
	if len(a.Boilerplate.Commands) != len(CanonicalSetupCommands) {
		t.Fatalf("prose leaked into commands: %v", a.Boilerplate.Commands)
	}
	for i, want := range CanonicalSetupCommands {
		if a.Boilerplate.Commands[i] != want {
			t.Fatalf("command %d = %q, want %q", i, a.Boilerplate.Commands[i], want)
		}
	}
	if a.Boilerplate.Fingerprint != b.Boilerplate.Fingerprint {
		t.Fatalf("identical setup blocks must share a fingerprint:\n%s\n%s",
			a.Boilerplate.Fingerprint, b.Boilerplate.Fingerprint)
	}
}

func TestDetectBoilerplateSkipsProseOnlyMentions(t *testing.T) {
	content := []byte(strings.Join([]string{
		"# Prose Persona",
		"",
		"## Success Criteria",
		"",
		"pytest_results.json is produced once every check passes.",
		"",
	}, "\n"))
	doc, err := Parse("p/INSTRUCTIONS.md", "", content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Boilerplate != nil {
		t.Fatalf("prose mentions must not form a setup block: %+v", doc.Boilerplate)
	}
}

func TestNormalizeCommandStripsPromptAndWhitespace(t *testing.T) {
	cases := map[string]string{
		"$ uv venv":                 "uv venv",
		"  uv   pip install -e .  ": "uv pip install -e .",
		"$pytest -q":                "pytest -q",
	}
	for input, want := range cases {
		if got := normalizeCommand(input); got != want {
			t.Fatalf("normalizeCommand(%q) = %q, want %q", input, got, want)
		}
	}
}
