// Package textutil provides text helpers for building filesystem-safe names
// from session metadata.
//
// Bundle and error-artifact filenames embed session start dates and clock
// times, which carry slashes and colons in their source form; SanitizeFileName
// maps those to dashes so one naming rule covers every platform.
package textutil
