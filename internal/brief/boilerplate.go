package brief

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// CanonicalSetupCommands is the setup sequence repeated across persona
// briefs: environment bootstrap plus the pytest invocation that produces
// the pytest_results.json deliverable.
var CanonicalSetupCommands = []string{
	"uv venv",
	"uv pip install -e .",
	"pytest --json-report --json-report-file=pytest_results.json",
}

// DeliverableArtifact is the test-report file nearly every brief demands.
const DeliverableArtifact = "pytest_results.json"

// Boilerplate describes the setup block found in a brief.
type Boilerplate struct {
	// Commands are the normalized setup lines in order of appearance.
	Commands []string
	// Missing lists canonical commands with no matching line.
	Missing []string
	// Line is the 1-based line of the first setup command.
	Line int
	// Fingerprint is a stable hash of the normalized setup lines, used for
	// corpus-wide drift clustering.
	Fingerprint string
}

// Complete reports whether every canonical command was found.
func (b *Boilerplate) Complete() bool {
	return b != nil && len(b.Missing) == 0
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeCommand(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "$ ")
	s = strings.TrimPrefix(s, "$")
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// isSetupLine reports whether a normalized line is a setup command, as
// opposed to prose that merely mentions the tooling ("pytest_results.json
// is green."). Only command-shaped lines count: a uv subcommand, or a
// pytest invocation with arguments.
func isSetupLine(normalized string) bool {
	switch {
	case normalized == "uv venv", strings.HasPrefix(normalized, "uv venv "):
		return true
	case strings.HasPrefix(normalized, "uv pip "):
		return true
	case normalized == "pytest", strings.HasPrefix(normalized, "pytest -"):
		return true
	}
	return false
}

// detectBoilerplate scans every line of the document (prose and code
// blocks alike; briefs are inconsistent about fencing their setup block)
// for setup commands. Returns nil when no setup line exists.
func detectBoilerplate(content []byte) *Boilerplate {
	var (
		commands  []string
		firstLine int
	)
	for i, line := range strings.Split(string(content), "\n") {
		normalized := normalizeCommand(line)
		if normalized == "" || !isSetupLine(normalized) {
			continue
		}
		if firstLine == 0 {
			firstLine = i + 1
		}
		commands = append(commands, normalized)
	}
	if len(commands) == 0 {
		return nil
	}
	var missing []string
	for _, want := range CanonicalSetupCommands {
		if !containsCommand(commands, want) {
			missing = append(missing, want)
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(commands, "\n")))
	return &Boilerplate{
		Commands:    commands,
		Missing:     missing,
		Line:        firstLine,
		Fingerprint: hex.EncodeToString(sum[:]),
	}
}

func containsCommand(commands []string, want string) bool {
	for _, cmd := range commands {
		if cmd == want {
			return true
		}
	}
	return false
}
