// Package medpc reads sessions from MedPC operant-chamber log files.
//
// A single physical file concatenates many session blocks separated by blank
// lines. Each content line is "label: value" except array variables, which
// the controller emits as a one-letter header line followed by fixed-width
// continuation lines whose right-justified index counter puts the colon at a
// fixed column. The locator walks the file once to find the unique block
// matching a set of label/value conditions, the extractor walks that block
// once to build raw fields, and a coercion pass produces typed values:
// calendar dates, clock times, and numeric event arrays with their trailing
// zero padding removed.
//
// The package is dataset-agnostic. Which labels matter and what they mean is
// supplied per call through a FieldMap; program-specific lookup tables live
// with callers. Functions here never log — failures surface through the
// typed errors in errors.go and nothing else.
package medpc
