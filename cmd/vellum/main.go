// cmd/vellum/main.go
//
// Entry point for the vellum CLI. Commands operate on a corpus root
// (defaulting to the current directory) that holds persona briefs named
// INSTRUCTIONS.md plus an optional .vellum/ project directory.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vellum/internal/config"
	"vellum/internal/lint"
	"vellum/internal/logbook"
	"vellum/internal/logging"
	"vellum/internal/report"
	"vellum/internal/rulepack"
	"vellum/internal/rules"
	"vellum/internal/tui"
	"vellum/internal/version"
	"vellum/internal/watch"
)

var (
	// Flags
	verbose    bool
	strictMode bool
	jsonOutput bool
	outputPath string

	// Logger and journal for the selected corpus root
	logger  = zap.NewNop()
	journal *logbook.Logbook
)

var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "vellum - persona brief corpus auditor",
	Long: `vellum audits corpora of persona requirement briefs.

Each brief is an INSTRUCTIONS.md describing a fictional user and the
system they need: Key Requirements, Technical Requirements, Success
Criteria, and the shared uv/pytest setup boilerplate. vellum lints
briefs against structural and content rules, catalogs the corpus, and
watches for edits.

Run "vellum init" in a corpus root to scaffold the .vellum/ directory.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Scaffold the .vellum directory in a corpus root",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := rootArg(args)
		if err := config.InitVellumDir(root); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s/%s\n", root, config.VellumDir)
		return nil
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint [path]",
	Short: "Lint every brief in the corpus",
	Long: `Runs document rules over every brief and corpus rules over the
collection, then prints findings. Exits non-zero when errors are found,
or, with --strict, when warnings are found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := setup(rootArg(args))
		if err != nil {
			return err
		}
		run, err := engine.Run(cmd.Context())
		if err != nil {
			journal.Error("lint failed: %v", err)
			return err
		}
		journal.Record(recordFor("lint", run))
		if err := emit(cmd, cfg, run); err != nil {
			return err
		}
		if run.Failed(strictMode) {
			return fmt.Errorf("lint: %d errors, %d warnings", run.Stats.Errors, run.Stats.Warnings)
		}
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Generate the corpus catalog under .vellum/index/",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := setup(rootArg(args))
		if err != nil {
			return err
		}
		run, err := engine.Run(cmd.Context())
		if err != nil {
			journal.Error("index failed: %v", err)
			return err
		}
		catalog := report.BuildCatalog(run)
		if err := catalog.WriteFiles(cfg.IndexDir()); err != nil {
			journal.Error("index write failed: %v", err)
			return err
		}
		journal.Record(recordFor("index", run))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s under %s\n",
			report.IndexMarkdownFile, report.IndexJSONFile, cfg.IndexDir())
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Check whether the generated catalog is current",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig(rootArg(args))
		if err != nil {
			return err
		}
		path := filepath.Join(cfg.IndexDir(), report.IndexMarkdownFile)
		state, err := report.VerifyMarkdown(path)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, state)
		if err != nil {
			return err
		}
		if state != report.StateReady {
			return fmt.Errorf("catalog is %s, run \"vellum index\"", state)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-lint the corpus whenever briefs change",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := setup(rootArg(args))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		journal.Info("watch started")
		watcher := watch.New(cfg, engine, func(run *lint.Run) {
			journal.Record(recordFor("watch", run))
			_ = report.WriteText(cmd.OutOrStdout(), run)
		}, watch.WithLogger(logger))
		err = watcher.Run(ctx)
		journal.Info("watch stopped")
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "Browse the corpus interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, engine, err := setup(rootArg(args))
		if err != nil {
			return err
		}
		return tui.Run(cfg, engine, tui.WithLogbook(journal))
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules [path]",
	Short: "List every rule available for the corpus",
	Long:  `Lists built-in rules plus any rule packs installed under .vellum/rules/.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig(rootArg(args))
		if err != nil {
			return err
		}
		registry, err := buildRegistry(cfg)
		if err != nil {
			return err
		}
		resolved, err := registry.ResolveAll(nil)
		if err != nil {
			return err
		}
		for _, rule := range resolved {
			info := rule.Info()
			state := ""
			if cfg.Disabled(info.ID) {
				state = " (disabled)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-7s %-8s %s%s\n",
				info.ID, info.Severity, info.Scope, info.Description, state)
		}
		return nil
	},
}

func recordFor(verb string, run *lint.Run) logbook.RunRecord {
	return logbook.RunRecord{
		Verb:      verb,
		Documents: run.Stats.Documents,
		Errors:    run.Stats.Errors,
		Warnings:  run.Stats.Warnings,
		Infos:     run.Stats.Infos,
		Duration:  run.Duration,
	}
}

func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// setup loads configuration, wires telemetry, and builds the engine.
// The structured log and journal only open when .vellum/ already exists
// so read-only commands on plain directories leave no droppings.
func setup(root string) (*config.Config, *lint.Engine, error) {
	cfg, err := config.NewConfig(root)
	if err != nil {
		return nil, nil, err
	}
	if info, err := os.Stat(cfg.VellumProjectDir); err == nil && info.IsDir() {
		if fileLogger, err := logging.New(cfg.LogsDir(), verbose); err == nil {
			logger = fileLogger
		}
		if book, err := logbook.New(cfg.JournalPath()); err == nil {
			journal = book
		}
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, lint.New(cfg, registry, lint.WithLogger(logger)), nil
}

// buildRegistry combines the built-in rules with user rule packs.
func buildRegistry(cfg *config.Config) (*rules.Registry, error) {
	registry := rules.Builtin()
	if err := rulepack.InstallAll(cfg.RulesDir(), registry); err != nil {
		return nil, err
	}
	return registry, nil
}

func emit(cmd *cobra.Command, cfg *config.Config, run *lint.Run) error {
	out := cmd.OutOrStdout()
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("open output %s: %w", outputPath, err)
		}
		defer file.Close()
		return report.FromRun(run).WriteJSON(file)
	}
	if jsonOutput {
		return report.FromRun(run).WriteJSON(out)
	}
	return report.WriteText(out, run)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	lintCmd.Flags().BoolVar(&strictMode, "strict", false, "treat warnings as failures")
	lintCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	lintCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the JSON report to a file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(rulesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
