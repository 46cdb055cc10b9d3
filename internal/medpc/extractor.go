package medpc

import (
	"fmt"
	"strings"
)

// Array continuation lines right-justify their index counter so the colon
// always lands at this column. Detection is structural; label content never
// identifies a continuation line.
const continuationColumn = 6

// arrayStart is the counter label that opens every array. The array's
// identity comes from the header line immediately above it.
const arrayStart = "     0"

// rawValue is the pre-coercion shape of one field: either the scalar text
// after the label's colon or the accumulated tokens of a multi-line array.
type rawValue struct {
	isArray bool
	text    string
	tokens  []string
}

// extractRecord walks one located session block and builds the raw value of
// every requested field, keyed by output name. base is the block's first
// line index in the file, used for error line numbers.
func extractRecord(block []string, fields FieldMap, base int) (map[string]rawValue, error) {
	record := make(map[string]rawValue)
	// Raw label of the array being accumulated. Stays set across
	// continuation lines until the next index-zero line opens a different
	// array.
	current := ""

	for i, line := range block {
		if strings.HasPrefix(line, `\`) {
			continue // comment line
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, &MalformedLogError{
				Line:   base + i + 1,
				Reason: fmt.Sprintf("content line %q has no label separator", strings.TrimSpace(line)),
			}
		}
		label := line[:idx]
		value := strings.TrimSpace(line[idx+1:])

		if idx == continuationColumn {
			if label == arrayStart {
				if i == 0 {
					return nil, &MalformedLogError{
						Line:   base + 1,
						Reason: "array continuation with no preceding header line",
					}
				}
				current = headerLabel(block[i-1])
				if spec, ok := fields[current]; ok {
					if spec.Type != FieldArray {
						return nil, &TypeMismatchError{
							Field:    spec.Name,
							Declared: spec.Type.String(),
							Observed: "a multi-line array",
						}
					}
					record[spec.Name] = rawValue{isArray: true}
				}
			}
			spec, ok := fields[current]
			if !ok {
				continue // array not requested by the caller
			}
			rv := record[spec.Name]
			rv.tokens = appendTokens(rv.tokens, value)
			record[spec.Name] = rv
			continue
		}

		if spec, ok := fields[label]; ok {
			// Array headers ("G:") land here too: the empty scalar they
			// store is replaced when the first continuation line arrives
			// and coerces to an empty array when none does.
			record[spec.Name] = rawValue{text: value}
		}
	}
	return record, nil
}

// headerLabel returns the label portion of the line above an index-zero
// continuation, which names the array being opened.
func headerLabel(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return line[:idx]
	}
	return line
}

// appendTokens splits a continuation value on spaces and appends the
// non-empty tokens. Each token is truncated at the first tab: acquisition
// boxes occasionally flush tab-separated garbage after a sample.
func appendTokens(tokens []string, value string) []string {
	for _, tok := range strings.Split(value, " ") {
		if t := strings.IndexByte(tok, '\t'); t >= 0 {
			tok = tok[:t]
		}
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
