package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tether/internal/convert"
	"tether/internal/logging"
	"tether/internal/queue"
	"tether/internal/services"
	"tether/internal/workflow"
)

// newConvertCommand converts a single queued session outside a batch run,
// which is how individual failures get re-driven after a fix.
func newConvertCommand(ctx *commandContext) *cobra.Command {
	var overwriteFlag bool

	cmd := &cobra.Command{
		Use:   "convert <queue-id>",
		Short: "Convert one queued session end to end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid queue id %q", args[0])
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.Conversion.Overwrite = overwriteFlag
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			pipeline, err := convert.New(cfg, logger)
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *queue.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				src, err := workflow.SourceFromItem(item)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				outputPath, convErr := pipeline.Convert(cmd.Context(), src)
				switch {
				case convErr == nil:
					item.SetCompleted(outputPath)
					if err := store.Update(cmd.Context(), item); err != nil {
						return err
					}
					fmt.Fprintf(out, "Converted %s\n  %s\n", item.Label(), outputPath)
					return nil
				case services.FailureStatus(convErr) == queue.StatusSkipped:
					item.SetSkipped(convErr.Error())
					if err := store.Update(cmd.Context(), item); err != nil {
						return err
					}
					fmt.Fprintf(out, "Skipped %s: %v\n", item.Label(), convErr)
					return nil
				default:
					artifact, artifactErr := workflow.WriteErrorArtifact(cfg.Paths.OutputDir, item, convErr)
					if artifactErr != nil {
						logger.Error("write error artifact", logging.Error(artifactErr))
					}
					item.SetFailed(convErr.Error())
					item.ErrorFile = artifact
					if err := store.Update(cmd.Context(), item); err != nil {
						return err
					}
					return fmt.Errorf("convert %s: %w", item.Label(), convErr)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Re-convert even if the bundle already exists")
	return cmd
}
