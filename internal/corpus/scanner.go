package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vellum/internal/brief"
)

// Directories never worth descending into.
var skippedDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".vellum":      {},
	"node_modules": {},
}

// DefaultPattern matches the canonical persona brief filename.
const DefaultPattern = "INSTRUCTIONS.md"

// Scanner walks a root directory collecting persona briefs.
type Scanner struct {
	root     string
	patterns []string
	excludes []string
}

// ScannerOption customizes a Scanner during construction.
type ScannerOption func(*Scanner)

// WithPatterns overrides the filename patterns briefs are matched by.
func WithPatterns(patterns ...string) ScannerOption {
	return func(s *Scanner) {
		if len(patterns) > 0 {
			s.patterns = append([]string{}, patterns...)
		}
	}
}

// WithExcludes adds relative-path globs to skip.
func WithExcludes(globs ...string) ScannerOption {
	return func(s *Scanner) {
		s.excludes = append(s.excludes, globs...)
	}
}

// NewScanner builds a scanner rooted at the given directory.
func NewScanner(root string, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		root:     root,
		patterns: []string{DefaultPattern},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the root and parses every matching file. Unreadable or
// unparseable files become entries with a recorded error. The walk stops
// early when ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context) (*Corpus, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("corpus: resolve root %s: %w", s.root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus: root %s is not a directory", root)
	}

	result := &Corpus{Root: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if _, skip := skippedDirs[d.Name()]; skip && rel != "." {
				return filepath.SkipDir
			}
			if s.excluded(rel) && rel != "." {
				return filepath.SkipDir
			}
			result.Dirs = append(result.Dirs, path)
			return nil
		}
		if !s.Matches(rel) || s.excluded(rel) {
			return nil
		}
		entry := Entry{Path: filepath.ToSlash(rel), AbsPath: path}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			entry.Err = fmt.Errorf("corpus: read %s: %w", rel, readErr)
		} else if doc, parseErr := brief.Parse(entry.Path, path, content); parseErr != nil {
			entry.Err = fmt.Errorf("corpus: parse %s: %w", rel, parseErr)
		} else {
			entry.Doc = doc
		}
		result.Entries = append(result.Entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("corpus: walk %s: %w", root, err)
	}
	result.sortEntries()
	return result, nil
}

// Matches reports whether a corpus-relative path names a persona brief.
func (s *Scanner) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, pattern := range s.patterns {
		if strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, rel); ok {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, glob := range s.excludes {
		if ok, _ := filepath.Match(glob, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(glob, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
