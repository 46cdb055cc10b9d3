package preflight

import (
	"context"

	"tether/internal/config"
	"tether/internal/queue"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Dataset file checks only run when the corresponding path is configured;
// the queue check only runs when a store is supplied.
func RunAll(ctx context.Context, cfg *config.Config, store *queue.Store) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDataRoot(cfg.Paths.DataRoot))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))

	if cfg.Dataset.DemographicsPath != "" {
		results = append(results, CheckFileReadable("Demographics workbook", cfg.Dataset.DemographicsPath))
	}
	if cfg.Dataset.MetadataPath != "" {
		results = append(results, CheckFileReadable("Metadata overrides", cfg.Dataset.MetadataPath))
	}
	if cfg.Dataset.OverridesPath != "" {
		results = append(results, CheckFileReadable("Session overrides", cfg.Dataset.OverridesPath))
	}
	if cfg.Dataset.RegistryPath != "" {
		results = append(results, CheckFileReadable("Program registry", cfg.Dataset.RegistryPath))
	}

	if store != nil {
		results = append(results, CheckQueue(ctx, store))
	}

	return results
}

// Failures filters results down to the failed checks.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
