package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/rewind/internal/script"
)

func newRunCmd(o *globalOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run SCRIPT.lua",
		Short: "Run a Lua script against a fresh canvas and print its history",
		Example: `  rewind run drag.lua
  rewind run --timeout 5s --config rewind.toml scene.lua`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, err := o.runScript(cmd.Context(), args[0], out, timeout)
			if s != nil {
				defer s.Close()
			}
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			return writeTable(out, s.engine.Metadata(), s.engine.CurrentIndex())
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", script.DefaultExecutionTimeout, "script execution timeout, 0 for none")
	return cmd
}
