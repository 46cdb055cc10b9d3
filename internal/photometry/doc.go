// Package photometry reads TDT fiber photometry tanks. A tank block
// folder holds a .tsq index of fixed 40-byte little-endian records and a
// .tev blob of raw sample payloads the index points into; parsing both
// yields named signal streams (sample rate plus channel-major data) and
// named epoc event stores (TTL onsets, offsets, strobe values).
//
// The reader surfaces stores under their raw four-character codes. Which
// code carries the isosbestic channel, the demodulated signal, or the
// alignment TTLs varies by rig and is configuration, resolved by the
// conversion layer rather than here.
package photometry
