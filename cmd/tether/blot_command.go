package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tether/internal/westernblot"
)

func newBlotCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "blot <tiff>...",
		Short: "Split combined western-blot scans into per-genotype bundles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := outputDir
			if target == "" {
				target = cfg.Paths.OutputDir
			}

			out := cmd.OutOrStdout()
			for _, path := range args {
				result, err := westernblot.Split(path, target)
				if err != nil {
					return fmt.Errorf("split %s: %w", path, err)
				}
				fmt.Fprintf(out, "%s\n  WT:     %s\n  DAT-KO: %s\n", path, result.WTBundlePath, result.DATBundlePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for split images and bundles (defaults to paths.output_dir)")
	return cmd
}
