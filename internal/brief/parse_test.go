package brief

import (
	"strings"
	"testing"
	"time"
)

func sampleBrief() []byte {
	lines := []string{
		"# Margaret the Freelance Consultant",
		"",
		"Margaret needs a report generator for her consulting practice.",
		"",
		"## 1. Key Requirements",
		"",
		"- Generate branded PDF reports",
		"- Track billable hours per client",
		"- Export invoices as CSV",
		"- Schedule recurring report runs",
		"- Merge engagement notes into summaries",
		"",
		"## 2. Technical Requirements:",
		"",
		"Python 3.11, no UI.",
		"",
		"```bash",
		"uv venv",
		"uv pip install -e .",
		"pytest --json-report --json-report-file=pytest_results.json",
		"```",
		"",
		"## Success Criteria",
		"",
		"All tests pass and pytest_results.json is produced.",
		"",
	}
	return []byte(strings.Join(lines, "\n"))
}

func TestParseExtractsTitleAndSections(t *testing.T) {
	doc, err := Parse("consultant/INSTRUCTIONS.md", "/corpus/consultant/INSTRUCTIONS.md", sampleBrief())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Margaret the Freelance Consultant" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
	if doc.TitleLine != 1 {
		t.Fatalf("unexpected title line %d", doc.TitleLine)
	}
	if len(doc.Sections) != 4 {
		t.Fatalf("expected 4 sections got %d: %+v", len(doc.Sections), doc.SectionTitles())
	}
	if !doc.HasSection("Key Requirements") {
		t.Fatalf("numbered heading did not normalize: %v", doc.SectionTitles())
	}
	if !doc.HasSection("technical requirements") {
		t.Fatalf("trailing colon did not normalize: %v", doc.SectionTitles())
	}
}

func TestParseCollectsBulletsAndCode(t *testing.T) {
	doc, err := Parse("consultant/INSTRUCTIONS.md", "", sampleBrief())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sec, ok := doc.Section("Key Requirements")
	if !ok {
		t.Fatalf("missing key requirements section")
	}
	if len(sec.Bullets) != 5 {
		t.Fatalf("expected 5 bullets got %d: %v", len(sec.Bullets), sec.Bullets)
	}
	if sec.Bullets[0] != "Generate branded PDF reports" {
		t.Fatalf("unexpected first bullet %q", sec.Bullets[0])
	}
	tech, ok := doc.Section("Technical Requirements")
	if !ok {
		t.Fatalf("missing technical requirements section")
	}
	if len(tech.CodeBlocks) != 1 {
		t.Fatalf("expected 1 code block got %d", len(tech.CodeBlocks))
	}
	if tech.CodeBlocks[0].Language != "bash" {
		t.Fatalf("unexpected code language %q", tech.CodeBlocks[0].Language)
	}
	if !strings.Contains(tech.CodeBlocks[0].Content, "uv venv") {
		t.Fatalf("code block content missing setup: %q", tech.CodeBlocks[0].Content)
	}
}

func TestParseDetectsBoilerplate(t *testing.T) {
	doc, err := Parse("consultant/INSTRUCTIONS.md", "", sampleBrief())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Boilerplate == nil {
		t.Fatalf("expected boilerplate block")
	}
	if !doc.Boilerplate.Complete() {
		t.Fatalf("expected complete boilerplate, missing %v", doc.Boilerplate.Missing)
	}
	if doc.Boilerplate.Fingerprint == "" {
		t.Fatalf("expected fingerprint")
	}
	if doc.Boilerplate.Line != 18 {
		t.Fatalf("unexpected boilerplate line %d", doc.Boilerplate.Line)
	}
}

func TestParseIncompleteBoilerplate(t *testing.T) {
	content := []byte("# P\n\n## Setup\n\nuv venv\n")
	doc, err := Parse("p/INSTRUCTIONS.md", "", content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Boilerplate == nil {
		t.Fatalf("expected boilerplate from bare uv line")
	}
	if doc.Boilerplate.Complete() {
		t.Fatalf("expected missing commands")
	}
	if len(doc.Boilerplate.Missing) != 2 {
		t.Fatalf("expected 2 missing commands got %v", doc.Boilerplate.Missing)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	doc, err := Parse("empty/INSTRUCTIONS.md", "", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "" || len(doc.Sections) != 0 || doc.Boilerplate != nil {
		t.Fatalf("empty document should parse to zero values: %+v", doc)
	}
}

func TestParseNormalizesCRLF(t *testing.T) {
	content := []byte("# Persona\r\n\r\n## Key Requirements\r\n\r\n- one\r\n")
	doc, err := Parse("p/INSTRUCTIONS.md", "", content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !doc.HasSection("key requirements") {
		t.Fatalf("CRLF content lost sections: %v", doc.SectionTitles())
	}
}

func TestParseHonorsFrontMatter(t *testing.T) {
	meta := Metadata{
		Tool:        ToolName,
		Version:     "0.3.0",
		Kind:        "catalog-index",
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	body := []byte("# Corpus Index\n\n## Inventory\n\n- consultant\n")
	content, err := WriteFrontMatter(meta, body)
	if err != nil {
		t.Fatalf("WriteFrontMatter: %v", err)
	}
	doc, err := Parse(".vellum/index/INDEX.md", "", content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Meta == nil {
		t.Fatalf("expected metadata envelope")
	}
	if doc.Meta.Kind != "catalog-index" {
		t.Fatalf("unexpected kind %q", doc.Meta.Kind)
	}
	if doc.Title != "Corpus Index" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
	// Heading lines must account for the frontmatter prefix.
	if doc.TitleLine <= 1 {
		t.Fatalf("title line should sit below frontmatter, got %d", doc.TitleLine)
	}
}

func TestNormalizeHeading(t *testing.T) {
	cases := map[string]string{
		"Key Requirements":         "key requirements",
		"  2. Key Requirements:  ": "key requirements",
		"3) Success Criteria":      "success criteria",
		"TECHNICAL REQUIREMENTS":   "technical requirements",
	}
	for input, want := range cases {
		if got := NormalizeHeading(input); got != want {
			t.Fatalf("NormalizeHeading(%q) = %q, want %q", input, got, want)
		}
	}
}
