// Package corpus discovers persona briefs on disk and assembles them into
// an ordered collection the lint engine and cataloger work from.
package corpus

import (
	"sort"

	"vellum/internal/brief"
)

// Entry pairs a discovered file with its parse outcome. Files that fail to
// load stay in the corpus so reporting can surface them instead of
// silently shrinking the collection.
type Entry struct {
	// Path is the corpus-relative path.
	Path string
	// AbsPath is the absolute path on disk.
	AbsPath string
	// Doc is the parsed brief; nil when Err is set.
	Doc *brief.Document
	// Err records why the file could not be loaded.
	Err error
}

// Corpus is the ordered set of discovered briefs under one root.
type Corpus struct {
	// Root is the absolute corpus root directory.
	Root string
	// Entries are sorted by relative path.
	Entries []Entry
	// Dirs are the directories visited during the scan, for watchers.
	Dirs []string
}

// Documents returns the successfully parsed briefs in corpus order.
func (c *Corpus) Documents() []*brief.Document {
	docs := make([]*brief.Document, 0, len(c.Entries))
	for _, entry := range c.Entries {
		if entry.Doc != nil {
			docs = append(docs, entry.Doc)
		}
	}
	return docs
}

// FailedLoads counts entries that could not be parsed.
func (c *Corpus) FailedLoads() int {
	failed := 0
	for _, entry := range c.Entries {
		if entry.Err != nil {
			failed++
		}
	}
	return failed
}

// Len returns the number of discovered files.
func (c *Corpus) Len() int {
	return len(c.Entries)
}

func (c *Corpus) sortEntries() {
	sort.Slice(c.Entries, func(i, j int) bool {
		return c.Entries[i].Path < c.Entries[j].Path
	})
	sort.Strings(c.Dirs)
}
