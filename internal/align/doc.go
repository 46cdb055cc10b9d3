// Package align re-bases behavioral event timestamps onto the photometry
// recording clock. The two acquisition systems free-run against each other,
// but both timestamp the same hardware TTL pulses; those shared pulses
// anchor a piecewise-linear mapping between the clocks, extended by linear
// regression for events before the first or after the last shared pulse.
package align
