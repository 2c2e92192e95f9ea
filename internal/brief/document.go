// Package brief parses persona specification briefs: markdown documents
// that describe a fictional user's library wishlist. A brief is modeled as
// an H1 title plus an ordered list of sections, each carrying its bullets
// and fenced code blocks, along with the detected setup-boilerplate block.
package brief

import (
	"regexp"
	"strings"
)

// Document is one parsed persona brief.
type Document struct {
	// Path is the corpus-relative path of the source file.
	Path string
	// AbsPath is the absolute path the file was read from.
	AbsPath string
	// Raw holds the file bytes with newlines normalized.
	Raw []byte
	// Meta is the vellum envelope when the document carries one; nil for
	// ordinary source briefs.
	Meta *Metadata
	// Title is the text of the first H1 heading, if any.
	Title string
	// TitleLine is the 1-based line of the H1 heading, 0 when absent.
	TitleLine int
	// Sections are the document's headings in order of appearance.
	Sections []Section
	// Boilerplate describes the detected setup block, nil when absent.
	Boilerplate *Boilerplate
	// WordCount counts whitespace-separated tokens in the body.
	WordCount int
}

// Section is one heading-delimited region of a brief.
type Section struct {
	// Title is the heading text as written.
	Title string
	// Level is the heading level (1-6).
	Level int
	// Line is the 1-based line of the heading.
	Line int
	// Body is the prose under the heading, up to the next heading, with
	// surrounding blank lines trimmed.
	Body string
	// BodyLine is the 1-based line Body starts on; 0 when the body is
	// empty. Blank lines after the heading are not counted, so BodyLine
	// and Body stay aligned for per-line reporting.
	BodyLine int
	// Bullets are the top-level list items under the heading.
	Bullets []string
	// CodeBlocks are the fenced code blocks under the heading.
	CodeBlocks []CodeBlock
}

// CodeBlock is a fenced code block with its info string.
type CodeBlock struct {
	Language string
	Content  string
	Line     int
}

var headingNumberPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

// NormalizeHeading canonicalizes a heading for lookup: lowercase, trimmed,
// trailing colon and leading "2." style numbering removed.
func NormalizeHeading(title string) string {
	s := strings.TrimSpace(title)
	s = headingNumberPrefix.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, ":")
	return strings.ToLower(strings.TrimSpace(s))
}

// Section returns the first section whose normalized title matches name.
func (d *Document) Section(name string) (Section, bool) {
	want := NormalizeHeading(name)
	for _, sec := range d.Sections {
		if NormalizeHeading(sec.Title) == want {
			return sec, true
		}
	}
	return Section{}, false
}

// HasSection reports whether a section with the given title exists.
func (d *Document) HasSection(name string) bool {
	_, ok := d.Section(name)
	return ok
}

// SectionTitles returns the normalized titles in document order.
func (d *Document) SectionTitles() []string {
	titles := make([]string, 0, len(d.Sections))
	for _, sec := range d.Sections {
		titles = append(titles, NormalizeHeading(sec.Title))
	}
	return titles
}

// Mentions reports whether the document body contains the given substring,
// matched case-insensitively.
func (d *Document) Mentions(needle string) bool {
	return strings.Contains(strings.ToLower(string(d.Raw)), strings.ToLower(needle))
}
