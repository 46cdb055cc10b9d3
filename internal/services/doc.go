// Package services defines shared utilities consumed by the conversion
// workflow and the packages it drives.
//
// Key responsibilities:
//   - Context helpers that stamp session keys, subjects, stage names, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent queue statuses (failed vs skipped).
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
