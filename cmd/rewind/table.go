package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/engine/history"
)

const timeLayout = "15:04:05.000"

// writeTable prints entries one per row, marking the cursor with '*'.
func writeTable(w io.Writer, entries []history.Metadata, cursor int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\t#\tACTION\tDESCRIPTION\tSIZE\tSTORED\tTIME")
	for i, m := range entries {
		marker := ""
		if i == cursor {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%s\n",
			marker, i, m.ActionType, m.Description, m.SizeBytes, m.StoredBytes, m.Timestamp.Format(timeLayout))
	}
	return tw.Flush()
}

// writeStats prints s as aligned key/value lines.
func writeStats(w io.Writer, s engine.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "size:\t%d/%d\n", s.Size, s.MaxSize)
	fmt.Fprintf(tw, "cursor:\t%d\n", s.CurrentIndex)
	fmt.Fprintf(tw, "can undo:\t%t\n", s.CanUndo)
	fmt.Fprintf(tw, "can redo:\t%t\n", s.CanRedo)
	fmt.Fprintf(tw, "memory:\t%d bytes\n", s.MemoryUsage)
	fmt.Fprintf(tw, "stored:\t%d bytes\n", s.StoredBytes)
	fmt.Fprintf(tw, "compressed:\t%d\n", s.CompressedEntries)
	fmt.Fprintf(tw, "session:\t%s\n", s.SessionID)
	return tw.Flush()
}
