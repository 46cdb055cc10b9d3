package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"tether/internal/behavior"
	"tether/internal/discovery"
	"tether/internal/logging"
	"tether/internal/queue"
	"tether/internal/workflow"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var refreshCache bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Walk the dataset and queue every eligible session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := cfg.RequireDataRoot()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			registry, err := behavior.LoadRegistry(cfg.Dataset.RegistryPath)
			if err != nil {
				return err
			}
			overrides, err := discovery.LoadOverrides(cfg.Dataset.OverridesPath)
			if err != nil {
				return err
			}

			discoverer := discovery.New(root, cfg.Dataset.StartVariable, registry, overrides, logger)
			sources, err := discoverer.Discover(cmd.Context())
			if err != nil {
				return err
			}

			cachePath := filepath.Join(cfg.Paths.WorkDir, "no_duration_sessions.yaml")
			missing, err := discovery.NoDurationSessions(cachePath, sources, registry, refreshCache)
			if err != nil {
				return err
			}
			discovery.MarkMissingDurations(sources, missing)
			sources = overrides.WithoutSkippedSubjects(sources)

			var queued, existing int
			var health queue.HealthSummary
			err = ctx.withStore(func(store *queue.Store) error {
				for _, src := range sources {
					item, err := workflow.ItemFromSource(src)
					if err != nil {
						return fmt.Errorf("plan session %s: %w", src.Key(), err)
					}
					_, created, err := store.Enqueue(cmd.Context(), item)
					if err != nil {
						return fmt.Errorf("enqueue session %s: %w", src.Key(), err)
					}
					if created {
						queued++
					} else {
						existing++
					}
				}
				health, err = store.Health(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Discovered %d sessions: %d queued, %d already known\n",
				len(sources), queued, existing)
			fmt.Fprintf(out, "Queue: %d pending, %d completed, %d failed (%d total)\n",
				health.Pending, health.Completed, health.Failed, health.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refreshCache, "refresh", false, "Rebuild the port-entry duration cache from the logs")
	return cmd
}
