package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/engine"
)

// globalOptions holds the persistent flags and the state derived from
// them before any subcommand runs.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "rewind",
		Short: "Undo/redo history for a scripted canvas",
		Long: `rewind records the edit history of a canvas as a bounded timeline of
snapshots. Drags and other continuous edits are debounced into a single
entry, large snapshots are compressed, and undo, redo and seek restore
any recorded state.

Scripts drive the canvas through the canvas and history Lua modules;
the tui command edits one interactively.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file, TOML or YAML (default $REWIND_CONFIG)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")

	cmd.AddCommand(
		newRunCmd(opts),
		newInspectCmd(opts),
		newTUICmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// init loads the configuration and sets up logging. Flags override the
// configuration file.
func (o *globalOptions) init(stderr io.Writer) error {
	if o.configPath == "" {
		o.configPath = config.ConfigPath()
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = newLogger(stderr, cfg.Log)
	slog.SetDefault(o.logger)
	return nil
}

// newEngine creates an engine configured from the loaded configuration.
func (o *globalOptions) newEngine(host engine.DocumentHost, extra ...engine.Option) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithConfig(o.cfg.History),
		engine.WithLogger(o.logger),
	}
	return engine.New(host, append(opts, extra...)...)
}
