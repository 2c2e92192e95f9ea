// Package watch re-lints the corpus when briefs change on disk. Events
// are debounced so editor save bursts trigger one pass, and directories
// created after startup are picked up on the fly.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"vellum/internal/config"
	"vellum/internal/corpus"
	"vellum/internal/lint"
)

// DefaultDebounce is used when the project config gives no window.
const DefaultDebounce = 400 * time.Millisecond

// Watcher drives repeated lint passes off filesystem events.
type Watcher struct {
	cfg      *config.Config
	engine   *lint.Engine
	scanner  *corpus.Scanner
	logger   *zap.Logger
	debounce time.Duration
	onRun    func(*lint.Run)
	// root is the resolved corpus root, taken from the first scan.
	root string
}

// Option customizes a Watcher during construction.
type Option func(*Watcher)

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce overrides the settle window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New builds a watcher. onRun is invoked after every completed lint pass,
// including the initial one.
func New(cfg *config.Config, engine *lint.Engine, onRun func(*lint.Run), opts ...Option) *Watcher {
	w := &Watcher{
		cfg:    cfg,
		engine: engine,
		scanner: corpus.NewScanner(
			cfg.RootDir,
			corpus.WithPatterns(cfg.Patterns()...),
			corpus.WithExcludes(cfg.Excludes()...),
		),
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
		onRun:    onRun,
	}
	if ms := cfg.Project.Watch.DebounceMS; ms > 0 {
		w.debounce = time.Duration(ms) * time.Millisecond
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run lints once, then blocks re-linting on changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer notifier.Close()

	run, err := w.lintOnce(ctx)
	if err != nil {
		return err
	}
	w.root = run.Corpus.Root
	w.watchDirs(notifier, run.Corpus.Dirs)

	// The timer is created stopped; relevant events rearm it.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-notifier.Events:
			if !ok {
				return fmt.Errorf("watch: event channel closed")
			}
			if w.relevant(notifier, event) {
				w.logger.Debug("change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
				timer.Reset(w.debounce)
			}

		case err, ok := <-notifier.Errors:
			if !ok {
				return fmt.Errorf("watch: error channel closed")
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			run, err := w.lintOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("lint pass failed", zap.Error(err))
				continue
			}
			w.watchDirs(notifier, run.Corpus.Dirs)
		}
	}
}

func (w *Watcher) lintOnce(ctx context.Context) (*lint.Run, error) {
	run, err := w.engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	if w.onRun != nil {
		w.onRun(run)
	}
	return run, nil
}

// relevant reports whether an event should schedule a re-lint. New
// directories are added to the watch set as a side effect so briefs
// dropped into them later are seen.
func (w *Watcher) relevant(notifier *fsnotify.Watcher, event fsnotify.Event) bool {
	const ops = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if event.Op&ops == 0 {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watchDirs(notifier, []string{event.Name})
			return true
		}
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	return w.scanner.Matches(filepath.ToSlash(rel))
}

func (w *Watcher) watchDirs(notifier *fsnotify.Watcher, dirs []string) {
	for _, dir := range dirs {
		if err := notifier.Add(dir); err != nil {
			w.logger.Warn("watch dir failed", zap.String("dir", dir), zap.Error(err))
		}
	}
}
