package brief

import (
	"bytes"
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// Parse builds a Document from raw file content. A leading vellum
// frontmatter envelope is honored when present; briefs without one parse
// with a nil Meta. Parse never fails on odd markdown, only on a corrupt
// envelope.
func Parse(path, absPath string, content []byte) (*Document, error) {
	normalized := normalizeNewlines(content)
	doc := &Document{
		Path:    path,
		AbsPath: absPath,
		Raw:     normalized,
	}

	body := normalized
	lineOffset := 0
	meta, rest, err := ParseFrontMatter(normalized)
	switch {
	case err == nil:
		doc.Meta = &meta
		body = rest
		lineOffset = countLines(normalized) - countLines(rest)
	case errors.Is(err, ErrMissingFrontMatter):
		// Ordinary source brief.
	default:
		return nil, err
	}

	doc.WordCount = len(strings.Fields(string(body)))

	root := markdown.Parser().Parse(text.NewReader(body))
	headings := collectHeadings(root, body, lineOffset)
	buildSections(doc, headings, body, lineOffset)
	collectBlocks(doc, root, body, lineOffset)
	doc.Boilerplate = detectBoilerplate(normalized)
	return doc, nil
}

type headingNode struct {
	title string
	level int
	line  int
}

func collectHeadings(root ast.Node, source []byte, lineOffset int) []headingNode {
	var headings []headingNode
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		h, ok := node.(*ast.Heading)
		if !ok {
			continue
		}
		line := 0
		if h.Lines().Len() > 0 {
			line = offsetToLine(source, h.Lines().At(0).Start) + lineOffset
		}
		headings = append(headings, headingNode{
			title: string(h.Text(source)),
			level: h.Level,
			line:  line,
		})
	}
	return headings
}

func buildSections(doc *Document, headings []headingNode, source []byte, lineOffset int) {
	lines := strings.Split(string(source), "\n")
	for i, h := range headings {
		if doc.Title == "" && h.level == 1 {
			doc.Title = h.title
			doc.TitleLine = h.line
		}
		bodyStart := h.line - lineOffset // first line after the heading, 0-based in lines
		bodyEnd := len(lines)
		if i+1 < len(headings) {
			bodyEnd = headings[i+1].line - lineOffset - 1
		}
		var body string
		bodyLine := 0
		if bodyStart >= 0 && bodyStart <= bodyEnd && bodyEnd <= len(lines) {
			raw := lines[bodyStart:bodyEnd]
			body = strings.TrimSpace(strings.Join(raw, "\n"))
			for j, line := range raw {
				if strings.TrimSpace(line) != "" {
					bodyLine = bodyStart + j + 1 + lineOffset
					break
				}
			}
		}
		doc.Sections = append(doc.Sections, Section{
			Title:    h.title,
			Level:    h.level,
			Line:     h.line,
			Body:     body,
			BodyLine: bodyLine,
		})
	}
}

// collectBlocks walks the tree once and attaches top-level bullets and
// fenced code blocks to the section whose line range contains them.
func collectBlocks(doc *Document, root ast.Node, source []byte, lineOffset int) {
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			block := CodeBlock{Content: codeContent(node, source)}
			if node.Info != nil {
				block.Language = strings.TrimSpace(string(node.Info.Text(source)))
			}
			if node.Lines().Len() > 0 {
				block.Line = offsetToLine(source, node.Lines().At(0).Start) + lineOffset
			}
			if idx := doc.sectionIndexForLine(block.Line); idx >= 0 {
				doc.Sections[idx].CodeBlocks = append(doc.Sections[idx].CodeBlocks, block)
			}
			return ast.WalkSkipChildren, nil
		case *ast.List:
			if node.Parent() == nil || node.Parent().Kind() != ast.KindDocument {
				return ast.WalkContinue, nil
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				text, line := listItemText(item, source)
				if text == "" {
					continue
				}
				if idx := doc.sectionIndexForLine(line + lineOffset); idx >= 0 {
					doc.Sections[idx].Bullets = append(doc.Sections[idx].Bullets, text)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

func (d *Document) sectionIndexForLine(line int) int {
	idx := -1
	for i, sec := range d.Sections {
		if sec.Line <= line {
			idx = i
		}
	}
	return idx
}

func listItemText(item ast.Node, source []byte) (string, int) {
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		kind := child.Kind()
		if kind != ast.KindTextBlock && kind != ast.KindParagraph {
			continue
		}
		line := 0
		if child.Lines().Len() > 0 {
			line = offsetToLine(source, child.Lines().At(0).Start)
		}
		return strings.TrimSpace(string(child.Text(source))), line
	}
	return "", 0
}

func codeContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		seg := block.Lines().At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// offsetToLine converts a byte offset into a 1-based line number.
func offsetToLine(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	return bytes.Count(content, []byte("\n")) + 1
}
