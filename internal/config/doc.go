// Package config loads, normalizes, and validates Tether configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TETHER_DATA_ROOT. The Config type centralizes every knob the CLI and the
// conversion workflow need, so dataset locations, stream names, and worker
// counts are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
