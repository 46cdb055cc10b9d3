package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tether/internal/medpc"
)

// scanLabels are the header variables listed for every session in a file.
// Array data is deliberately excluded; `tether read` parses full sessions.
var scanLabels = []string{"Subject", "Start Date", "Start Time", "MSN", "Box"}

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "scan <file>",
		Short:       "List the sessions recorded in a MedPC log file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("inspect log file: %w", err)
			}

			values, err := medpc.ScanVariables(path, scanLabels)
			if err != nil {
				return err
			}

			sessions := 0
			for _, list := range values {
				if len(list) > sessions {
					sessions = len(list)
				}
			}

			out := cmd.OutOrStdout()
			if sessions == 0 {
				fmt.Fprintf(out, "No sessions found in %s\n", filepath.Base(path))
				return nil
			}

			rows := make([][]string, sessions)
			for i := 0; i < sessions; i++ {
				row := make([]string, 0, len(scanLabels)+1)
				row = append(row, fmt.Sprintf("%d", i+1))
				for _, label := range scanLabels {
					list := values[label]
					if i < len(list) {
						row = append(row, list[i])
					} else {
						row = append(row, "")
					}
				}
				rows[i] = row
			}

			headers := append([]string{"#"}, scanLabels...)
			aligns := make([]columnAlignment, len(headers))
			aligns[0] = alignRight
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			fmt.Fprintf(out, "%s sessions in %s (%s)\n",
				humanize.Comma(int64(sessions)), filepath.Base(path), humanize.Bytes(uint64(info.Size())))
			return nil
		},
	}
}
