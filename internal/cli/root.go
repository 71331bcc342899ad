// Package cli implements the barcut command line: geometry extraction,
// bar nesting, scenario comparison and report export.
package cli

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/BarCut/internal/diag"
	"github.com/piwi3910/BarCut/internal/model"
	"github.com/piwi3910/BarCut/internal/project"
)

// app is the state shared by every subcommand of one invocation. It is
// filled in by the root command's pre-run hook.
type app struct {
	configPath  string
	envFile     string
	logLevel    string
	logFormat   string
	metricsFile string

	config   model.AppConfig
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *diag.Metrics
}

// NewRootCmd builds the barcut command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "barcut",
		Short: "Steel bar cutting planner",
		Long: `barcut - Steel Bar Cutting Planner

Reads structural members from a building model or a piece list and plans
how to saw them from stock bars.

  - extract: derive cut pieces (length, axis, miter end cuts) from geometry
  - nest:    pack pieces onto stock bars, sharing saw cuts between
             complementary miters, and export the cutting plan
  - compare: run what-if scenarios side by side
  - estimate: bars to buy per profile, without nesting
  - inventory, backup: manage stock and saved data

Settings come from ~/.barcut/config.json, then BARCUT_* environment
variables (a .env file is read if present), then command line flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default ~/.barcut/config.json)")
	pf.StringVar(&a.envFile, "env-file", ".env", "Environment file with BARCUT_* overrides")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: console or json")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")

	root.AddCommand(
		newExtractCmd(a),
		newNestCmd(a),
		newCompareCmd(a),
		newEstimateCmd(a),
		newInventoryCmd(a),
		newBackupCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := project.LoadEnvFiles(a.envFile); err != nil {
		return err
	}

	if a.configPath == "" {
		a.configPath = project.DefaultConfigPath()
	}
	config, err := project.LoadAppConfig(a.configPath)
	if err != nil {
		return err
	}
	if err := project.ApplyEnv(&config); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if a.logLevel != "" {
		config.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		config.LogFormat = a.logFormat
	}
	a.config = config

	logger, err := diag.NewLogger(diag.Config{Level: config.LogLevel, Format: config.LogFormat})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger

	a.registry = prometheus.NewRegistry()
	a.metrics = diag.NewMetrics(a.registry)

	a.logger.Debug("configuration loaded",
		zap.String("config", a.configPath),
		zap.String("command", cmd.Name()),
	)
	return nil
}

func (a *app) finish() error {
	defer func() { _ = a.logger.Sync() }()

	if a.metricsFile == "" || a.registry == nil {
		return nil
	}
	if err := diag.WriteTextfile(a.metricsFile, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// nestSettings returns the configured nesting settings.
func (a *app) nestSettings() model.NestSettings {
	s := model.DefaultNestSettings()
	a.config.ApplyToNestSettings(&s)
	return s
}

// extractSettings returns the configured extraction settings.
func (a *app) extractSettings() model.ExtractSettings {
	s := model.DefaultExtractSettings()
	a.config.ApplyToExtractSettings(&s)
	return s
}
