package medpc

import (
	"fmt"
	"strings"
)

// locateSession finds the one block satisfying every condition and returns
// its half-open line range [start, end). end indexes the terminating blank
// line, or len(lines) when the final block runs to end of file without one.
//
// The scan keeps a candidate start (the most recent start-marker line) and
// one flag per condition. A blank line with every flag set terminates the
// scan immediately, so the first fully satisfied block wins. A blank line
// with any flag clear resets the flags and the candidate: condition lines
// from a failed block must never leak into the next block's match.
//
// With no conditions every block satisfies trivially, so matching begins at
// the first start marker; leading content before it is skipped. A block that
// matched real condition lines without ever recording the start variable is
// malformed, because its range cannot be delimited.
func locateSession(lines []string, conditions Conditions, startVariable string) (int, int, error) {
	satisfied := make(map[string]bool, len(conditions))
	for label := range conditions {
		satisfied[label] = false
	}
	start := -1
	marker := startVariable + ":"

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, marker) {
			start = i
		}
		for label, want := range conditions {
			if !satisfied[label] && line == label+": "+want {
				satisfied[label] = true
			}
		}
		if line != "" {
			continue
		}
		if allSatisfied(satisfied) {
			if start >= 0 {
				return start, i, nil
			}
			if len(conditions) > 0 {
				return 0, 0, &MalformedLogError{
					Line:   i + 1,
					Reason: fmt.Sprintf("conditions satisfied but start variable %q never appeared", startVariable),
				}
			}
			// Nothing matched and nothing to match: content before the
			// first start marker. Fall through to the reset.
		}
		for label := range satisfied {
			satisfied[label] = false
		}
		start = -1
	}

	// End of file acts as the terminator for a final block with no trailing
	// blank line, but only when every condition already holds.
	if allSatisfied(satisfied) {
		if start >= 0 {
			return start, len(lines), nil
		}
		if len(conditions) > 0 {
			return 0, 0, &MalformedLogError{
				Line:   len(lines),
				Reason: fmt.Sprintf("conditions satisfied but start variable %q never appeared", startVariable),
			}
		}
	}
	return 0, 0, newSessionNotFound(conditions, satisfied)
}

func allSatisfied(satisfied map[string]bool) bool {
	for _, ok := range satisfied {
		if !ok {
			return false
		}
	}
	return true
}
