package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
	"github.com/dshills/rewind/internal/script"
)

// report is the output of inspect.
type report struct {
	Entries []history.Metadata `json:"entries" yaml:"entries"`
	Stats   engine.Stats       `json:"stats" yaml:"stats"`
}

func newInspectCmd(o *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect SCRIPT.lua",
		Short: "Run a Lua script and dump the history metadata and statistics",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", "json", "yaml":
				return nil
			}
			return fmt.Errorf("invalid format %q: must be table, json or yaml", format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Script output would corrupt structured formats
			s, err := o.runScript(cmd.Context(), args[0], cmd.ErrOrStderr(), script.DefaultExecutionTimeout)
			if s != nil {
				defer s.Close()
			}
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			r := report{
				Entries: s.engine.Metadata(),
				Stats:   s.engine.Stats(),
			}
			return writeReport(cmd.OutOrStdout(), r, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json or yaml")
	return cmd
}

func writeReport(w io.Writer, r report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		if err := writeTable(w, r.Entries, r.Stats.CurrentIndex); err != nil {
			return err
		}
		fmt.Fprintln(w)
		return writeStats(w, r.Stats)
	}
}
