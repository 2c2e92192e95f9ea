// Package lint runs rules over a corpus of persona briefs. The document
// pass fans out across a bounded worker pool; corpus rules run once after
// every brief has been checked.
package lint

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vellum/internal/config"
	"vellum/internal/corpus"
	"vellum/internal/finding"
	"vellum/internal/rules"
)

// LoadErrorRuleID tags findings synthesized for briefs that could not be
// read or parsed.
const LoadErrorRuleID = "load-error"

// Engine executes lint runs.
type Engine struct {
	cfg      *config.Config
	registry *rules.Registry
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes an Engine during construction.
type Option func(*Engine)

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.now = clock
	}
}

// New builds an engine over the given configuration and rule registry.
func New(cfg *config.Config, registry *rules.Registry, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: registry,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run is the outcome of one lint pass.
type Run struct {
	// StartedAt is when the pass began.
	StartedAt time.Time
	// Duration is how long the pass took.
	Duration time.Duration
	// Corpus is the scanned collection the pass ran over.
	Corpus *corpus.Corpus
	// Findings holds every finding, normalized (sorted, deduplicated).
	Findings []finding.Finding
	// Stats summarizes the pass.
	Stats Stats
}

// Stats summarizes a lint run.
type Stats struct {
	Documents   int `json:"documents"`
	FailedLoads int `json:"failed_loads"`
	Errors      int `json:"errors"`
	Warnings    int `json:"warnings"`
	Infos       int `json:"infos"`
}

// Failed reports whether the run should fail the process. Errors always
// fail; strict mode promotes warnings.
func (r *Run) Failed(strict bool) bool {
	if r.Stats.Errors > 0 {
		return true
	}
	return strict && r.Stats.Warnings > 0
}

// FindingsFor returns the findings attached to one document path.
func (r *Run) FindingsFor(path string) []finding.Finding {
	var out []finding.Finding
	for _, f := range r.Findings {
		if f.Path == path {
			out = append(out, f)
		}
	}
	return out
}

// Run scans the corpus root and lints everything found.
func (e *Engine) Run(ctx context.Context) (*Run, error) {
	scanner := corpus.NewScanner(
		e.cfg.RootDir,
		corpus.WithPatterns(e.cfg.Patterns()...),
		corpus.WithExcludes(e.cfg.Excludes()...),
	)
	c, err := scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("lint: scan: %w", err)
	}
	return e.LintCorpus(ctx, c)
}

// LintCorpus lints an already-scanned corpus.
func (e *Engine) LintCorpus(ctx context.Context, c *corpus.Corpus) (*Run, error) {
	started := e.now()
	docRules, corpusRules, err := e.resolveRules()
	if err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		all []finding.Finding
	)
	collect := func(findings []finding.Finding) {
		if len(findings) == 0 {
			return
		}
		mu.Lock()
		all = append(all, findings...)
		mu.Unlock()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency())
	for i := range c.Entries {
		entry := &c.Entries[i]
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			if entry.Err != nil {
				f := finding.New(LoadErrorRuleID, finding.SeverityError, finding.CategoryStructure, entry.Err.Error())
				collect([]finding.Finding{f.At(entry.Path, 0)})
				return nil
			}
			for _, rule := range docRules {
				collect(rule.Check(entry.Doc))
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("lint: document pass: %w", err)
	}

	for _, rule := range corpusRules {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("lint: corpus pass: %w", err)
		}
		collect(rule.CheckCorpus(c))
	}

	all = e.applyOverrides(all)
	normalized := finding.Normalize(all)
	counts := finding.CountBySeverity(normalized)
	run := &Run{
		StartedAt: started.UTC(),
		Duration:  e.now().Sub(started),
		Corpus:    c,
		Findings:  normalized,
		Stats: Stats{
			Documents:   c.Len(),
			FailedLoads: c.FailedLoads(),
			Errors:      counts[finding.SeverityError],
			Warnings:    counts[finding.SeverityWarning],
			Infos:       counts[finding.SeverityInfo],
		},
	}
	e.logger.Info("lint pass complete",
		zap.Int("documents", run.Stats.Documents),
		zap.Int("errors", run.Stats.Errors),
		zap.Int("warnings", run.Stats.Warnings),
		zap.Int("infos", run.Stats.Infos),
		zap.Duration("duration", run.Duration),
	)
	return run, nil
}

// resolveRules constructs every enabled rule, split by scope.
func (e *Engine) resolveRules() (docRules []rules.DocumentRule, corpusRules []rules.CorpusRule, err error) {
	cfgs := map[string]rules.Config{
		"requirement-count": {"count": e.cfg.Project.Lint.RequirementCount},
	}
	resolved, err := e.registry.ResolveAll(cfgs)
	if err != nil {
		return nil, nil, fmt.Errorf("lint: resolve rules: %w", err)
	}
	for _, rule := range resolved {
		if e.cfg.Disabled(rule.Info().ID) {
			continue
		}
		switch r := rule.(type) {
		case rules.DocumentRule:
			docRules = append(docRules, r)
		case rules.CorpusRule:
			corpusRules = append(corpusRules, r)
		default:
			return nil, nil, fmt.Errorf("lint: rule %s implements no check interface", rule.Info().ID)
		}
	}
	return docRules, corpusRules, nil
}

func (e *Engine) applyOverrides(findings []finding.Finding) []finding.Finding {
	for i, f := range findings {
		if severity, ok := e.cfg.SeverityOverride(f.RuleID); ok {
			findings[i].Severity = severity
		}
	}
	return findings
}

func (e *Engine) concurrency() int {
	if n := e.cfg.Project.Lint.Concurrency; n > 0 {
		return n
	}
	return runtime.NumCPU()
}
