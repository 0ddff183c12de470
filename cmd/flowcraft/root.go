package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/petrijr/flowcraft"
	"github.com/petrijr/flowcraft/internal/config"
)

var version = "dev"

// app carries what the subcommands share: resolved config, the open
// editor and the resources to release afterwards.
type app struct {
	configPath string
	overrides  config.Config

	cfg     config.Config
	logger  *slog.Logger
	editor  flowcraft.Editor
	history func(ctx context.Context, subject string) ([]flowcraft.EditorEvent, error)
	closers []func() error

	out io.Writer
	err io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flowcraft",
		Short:         "Compose HTTP request pipelines from OpenAPI descriptions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.err)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file (default $FLOWCRAFT_CONFIG)")
	pf.StringVar(&a.overrides.Backend, "backend", "", "Storage backend: memory|sqlite|postgres|redis|mongo|neo4j")
	pf.StringVar(&a.overrides.DSN, "dsn", "", "Backend file, address or URI")
	pf.StringVar(&a.overrides.Database, "database", "", "Database name for mongo and neo4j")
	pf.BoolVar(&a.overrides.AutoSave, "autosave", true, "Write the pipeline after every change")
	pf.StringVar(&a.overrides.LogLevel, "log-level", "", "debug|info|warn|error")
	pf.BoolVar(&a.overrides.SkipValidation, "skip-validation", false, "Register descriptions without validating them")

	rootCmd.AddCommand(
		newServiceCmd(a),
		newEndpointsCmd(a),
		newNodeCmd(a),
		newEdgeCmd(a),
		newIOCmd(a),
		newSplitCmd(a),
		newPromoteCmd(a),
		newExportCmd(a),
		newSaveCmd(a),
		newHistoryCmd(a),
		newMCPCmd(a),
	)
	return rootCmd
}

// setup resolves the config (file, env, then flags the user actually set)
// and opens the editor.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = a.overrides.Backend
	}
	if flags.Changed("dsn") {
		cfg.DSN = a.overrides.DSN
	}
	if flags.Changed("database") {
		cfg.Database = a.overrides.Database
	}
	if flags.Changed("autosave") {
		cfg.AutoSave = a.overrides.AutoSave
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.overrides.LogLevel
	}
	if flags.Changed("skip-validation") {
		cfg.SkipValidation = a.overrides.SkipValidation
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.NewLogger(a.err)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return a.open(ctx)
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Execute runs the root command.
func Execute() {
	a := &app{out: os.Stdout, err: os.Stderr}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = a.close()
		os.Exit(1)
	}
}
