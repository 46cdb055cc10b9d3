package medpc

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReadLines reads a log file into memory as lines. CRLF endings are
// normalized and files that are not valid UTF-8 are decoded as
// Windows-1252, which the acquisition software uses for characters like the
// degree sign in comment lines. The whole file is read fresh on every call;
// callers needing several sessions from one file re-invoke the parser per
// session.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		data = decoded
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}

// ReadSession locates the one session in path matching every condition and
// parses it under the supplied field map. It is the combined entry point:
// locate, extract, coerce. Calling it twice with identical arguments on an
// unmodified file returns identical records.
func ReadSession(path string, conditions Conditions, startVariable string, fields FieldMap) (Record, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	record, err := ReadSessionLines(lines, conditions, startVariable, fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return record, nil
}

// ReadSessionLines is ReadSession over lines already in memory.
func ReadSessionLines(lines []string, conditions Conditions, startVariable string, fields FieldMap) (Record, error) {
	start, end, err := locateSession(lines, conditions, startVariable)
	if err != nil {
		return nil, err
	}
	raw, err := extractRecord(lines[start:end], fields, start)
	if err != nil {
		return nil, err
	}
	return coerceRecord(raw, fields)
}
