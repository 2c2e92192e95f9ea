package rules

import (
	"fmt"
	"sort"
	"strings"

	"vellum/internal/brief"
	"vellum/internal/corpus"
	"vellum/internal/finding"
)

// duplicateTitleRule flags briefs that share a persona title. Each brief
// is supposed to describe an independent persona; identical titles almost
// always mean a copy-paste that was never renamed.
type duplicateTitleRule struct {
	Base
}

func newDuplicateTitle(Config) (Rule, error) {
	return &duplicateTitleRule{Base: NewBase(Info{
		ID:          "duplicate-title",
		Description: "no two briefs share a persona title",
		Severity:    finding.SeverityWarning,
		Category:    finding.CategoryCorpus,
		Scope:       ScopeCorpus,
	})}, nil
}

func (r *duplicateTitleRule) CheckCorpus(c *corpus.Corpus) []finding.Finding {
	byTitle := map[string][]*brief.Document{}
	for _, doc := range c.Documents() {
		title := strings.ToLower(strings.TrimSpace(doc.Title))
		if title == "" {
			continue
		}
		byTitle[title] = append(byTitle[title], doc)
	}
	var findings []finding.Finding
	for _, docs := range byTitle {
		if len(docs) < 2 {
			continue
		}
		first := docs[0]
		for _, doc := range docs[1:] {
			msg := fmt.Sprintf("persona title %q duplicates %s", doc.Title, first.Path)
			findings = append(findings, r.Finding(msg).At(doc.Path, doc.TitleLine))
		}
	}
	return findings
}

// boilerplateDriftRule flags setup blocks that deviate from the dominant
// variant in the corpus. The boilerplate is copy-pasted between briefs
// "with minor variation"; this rule makes the variation visible.
type boilerplateDriftRule struct {
	Base
}

func newBoilerplateDrift(Config) (Rule, error) {
	return &boilerplateDriftRule{Base: NewBase(Info{
		ID:          "boilerplate-drift",
		Description: "setup boilerplate matches the dominant corpus variant",
		Severity:    finding.SeverityInfo,
		Category:    finding.CategoryCorpus,
		Scope:       ScopeCorpus,
	})}, nil
}

func (r *boilerplateDriftRule) CheckCorpus(c *corpus.Corpus) []finding.Finding {
	clusters := map[string][]*brief.Document{}
	for _, doc := range c.Documents() {
		if doc.Boilerplate == nil {
			continue
		}
		clusters[doc.Boilerplate.Fingerprint] = append(clusters[doc.Boilerplate.Fingerprint], doc)
	}
	if len(clusters) < 2 {
		return nil
	}
	dominant := dominantFingerprint(clusters)
	var findings []finding.Finding
	for fp, docs := range clusters {
		if fp == dominant {
			continue
		}
		for _, doc := range docs {
			msg := fmt.Sprintf("setup boilerplate differs from the dominant variant shared by %d briefs", len(clusters[dominant]))
			findings = append(findings, r.Finding(msg).At(doc.Path, doc.Boilerplate.Line))
		}
	}
	return findings
}

// dominantFingerprint picks the largest cluster, breaking ties by the
// lexically smallest fingerprint so results stay deterministic.
func dominantFingerprint(clusters map[string][]*brief.Document) string {
	fingerprints := make([]string, 0, len(clusters))
	for fp := range clusters {
		fingerprints = append(fingerprints, fp)
	}
	sort.Strings(fingerprints)
	best := fingerprints[0]
	for _, fp := range fingerprints[1:] {
		if len(clusters[fp]) > len(clusters[best]) {
			best = fp
		}
	}
	return best
}
