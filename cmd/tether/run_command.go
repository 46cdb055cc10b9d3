package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tether/internal/convert"
	"tether/internal/logging"
	"tether/internal/queue"
	"tether/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		workersFlag   int
		overwriteFlag bool
		failFastFlag  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Convert every pending session on the worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Conversion.Workers = workersFlag
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.Conversion.Overwrite = overwriteFlag
			}
			if cmd.Flags().Changed("fail-fast") {
				cfg.Conversion.FailFast = failFastFlag
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
				// Progress rides on stderr so stdout stays parseable.
				opts := []workflow.Option{}
				if isatty.IsTerminal(os.Stdout.Fd()) {
					opts = append(opts, workflow.WithProgressWriter(os.Stderr))
				}
				runner := workflow.NewRunner(cfg, store, pipeline, logger, opts...)

				summary, err := runner.Run(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if summary.Claimed == 0 {
					fmt.Fprintln(out, "Queue has no pending sessions")
					return nil
				}
				fmt.Fprintf(out, "Run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Second))
				fmt.Fprintf(out, "  completed: %d\n", summary.Completed)
				fmt.Fprintf(out, "  failed:    %d\n", summary.Failed)
				fmt.Fprintf(out, "  skipped:   %d\n", summary.Skipped)
				if summary.Failed > 0 {
					fmt.Fprintf(out, "Inspect ERROR_*.txt files under %s for failure details\n", cfg.Paths.OutputDir)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Override the configured worker count")
	cmd.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Re-convert sessions whose bundle already exists")
	cmd.Flags().BoolVar(&failFastFlag, "fail-fast", false, "Stop claiming new sessions after the first failure")
	return cmd
}
