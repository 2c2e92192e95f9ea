package brief

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("brief: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block could not be parsed.
	ErrMalformedFrontMatter = errors.New("brief: malformed frontmatter")
)

// Metadata is the vellum envelope stamped into generated artifacts (the
// catalog index, reports). Source briefs normally carry no envelope.
type Metadata struct {
	Tool        string
	Version     string
	Kind        string
	Checksum    string
	GeneratedAt time.Time
	Notes       map[string]string
}

// Validate ensures the envelope identifies a vellum artifact.
func (m Metadata) Validate() error {
	if m.Tool != ToolName {
		return fmt.Errorf("brief: metadata tool %q is not %q", m.Tool, ToolName)
	}
	if m.Version == "" {
		return fmt.Errorf("brief: metadata version is required")
	}
	if m.Kind == "" {
		return fmt.Errorf("brief: metadata kind is required")
	}
	return nil
}

// ToolName is the envelope identity written into generated artifacts.
const ToolName = "vellum"

// ParseFrontMatter extracts the metadata envelope and body from a document
// that starts with `---` YAML fences.
func ParseFrontMatter(content []byte) (Metadata, []byte, error) {
	if len(content) == 0 {
		return Metadata{}, nil, ErrMissingFrontMatter
	}
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Metadata{}, nil, ErrMissingFrontMatter
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return Metadata{}, nil, ErrMalformedFrontMatter
	}
	var envelope vellumEnvelope
	if err := yaml.Unmarshal(parts[0], &envelope); err != nil {
		return Metadata{}, nil, fmt.Errorf("brief: parse frontmatter: %w", err)
	}
	meta, err := envelope.toMetadata()
	if err != nil {
		return Metadata{}, nil, err
	}
	return meta, parts[1], nil
}

// WriteFrontMatter renders the envelope + body with YAML fences.
func WriteFrontMatter(meta Metadata, body []byte) ([]byte, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	envelope := vellumEnvelope{}
	envelope.fromMetadata(meta)
	data, err := yaml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("brief: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

type vellumEnvelope struct {
	Vellum vellumMetadata `yaml:"vellum"`
}

type vellumMetadata struct {
	Tool      string            `yaml:"tool"`
	Version   string            `yaml:"version"`
	Kind      string            `yaml:"kind"`
	Checksum  string            `yaml:"checksum,omitempty"`
	Generated string            `yaml:"generated"`
	Notes     map[string]string `yaml:"notes,omitempty"`
}

func (e vellumEnvelope) toMetadata() (Metadata, error) {
	if e.Vellum.Tool == "" || e.Vellum.Version == "" || e.Vellum.Kind == "" {
		return Metadata{}, ErrMalformedFrontMatter
	}
	generated, err := parseTime(e.Vellum.Generated)
	if err != nil {
		return Metadata{}, fmt.Errorf("brief: parse generated timestamp: %w", err)
	}
	return Metadata{
		Tool:        e.Vellum.Tool,
		Version:     e.Vellum.Version,
		Kind:        e.Vellum.Kind,
		Checksum:    e.Vellum.Checksum,
		GeneratedAt: generated,
		Notes:       cloneNotes(e.Vellum.Notes),
	}, nil
}

func (e *vellumEnvelope) fromMetadata(meta Metadata) {
	e.Vellum.Tool = meta.Tool
	e.Vellum.Version = meta.Version
	e.Vellum.Kind = meta.Kind
	e.Vellum.Checksum = meta.Checksum
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	e.Vellum.Generated = generated.UTC().Format(timeLayout)
	e.Vellum.Notes = cloneNotes(meta.Notes)
}

func cloneNotes(notes map[string]string) map[string]string {
	if len(notes) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(notes))
	for k, v := range notes {
		cloned[k] = v
	}
	return cloned
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func parseTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("brief: empty generated timestamp")
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
