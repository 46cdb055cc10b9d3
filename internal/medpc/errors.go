package medpc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel markers for errors.Is checks. The typed errors below unwrap to
// these.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMalformedLog    = errors.New("malformed log")
	ErrTypeMismatch    = errors.New("type mismatch")
)

// SessionNotFoundError reports that no block satisfied every supplied
// condition. Missing lists the conditions still unmet when the scan ended,
// each formatted "label: value".
type SessionNotFoundError struct {
	Missing []string
}

func (e *SessionNotFoundError) Error() string {
	if len(e.Missing) == 0 {
		return "session not found"
	}
	return fmt.Sprintf("session not found: unmet conditions %s", strings.Join(e.Missing, ", "))
}

func (e *SessionNotFoundError) Unwrap() error { return ErrSessionNotFound }

func newSessionNotFound(conditions Conditions, satisfied map[string]bool) *SessionNotFoundError {
	missing := make([]string, 0, len(conditions))
	for label, value := range conditions {
		if !satisfied[label] {
			missing = append(missing, label+": "+value)
		}
	}
	sort.Strings(missing)
	return &SessionNotFoundError{Missing: missing}
}

// MalformedLogError reports a structural violation of the log format. Line
// is 1-based within the file that was read. No partial record accompanies
// it.
type MalformedLogError struct {
	Line   int
	Reason string
}

func (e *MalformedLogError) Error() string {
	return fmt.Sprintf("malformed log: line %d: %s", e.Line, e.Reason)
}

func (e *MalformedLogError) Unwrap() error { return ErrMalformedLog }

// TypeMismatchError reports that a field's declared shape or type disagrees
// with what the file actually held for it. Field carries the output name so
// the offending declaration is identifiable from the message alone.
type TypeMismatchError struct {
	Field    string
	Declared string
	Observed string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: field %q declared %s but file holds %s", e.Field, e.Declared, e.Observed)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }
