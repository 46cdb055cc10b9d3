package medpc

import "strings"

// ScanVariables returns, for each requested label, every value it takes
// across the whole file in order of appearance, one entry per session that
// records it. Discovery code uses this to enumerate candidate sessions
// before locating a specific one; requested labels never seen in the file
// map to empty lists.
func ScanVariables(path string, names []string) (map[string][]string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return ScanVariablesLines(lines, names), nil
}

// ScanVariablesLines is ScanVariables over lines already in memory.
func ScanVariablesLines(lines []string, names []string) map[string][]string {
	values := make(map[string][]string, len(names))
	prefixes := make([]string, len(names))
	for i, name := range names {
		values[name] = []string{}
		prefixes[i] = name + ":"
	}
	for _, line := range lines {
		for i, name := range names {
			if strings.HasPrefix(line, prefixes[i]) {
				values[name] = append(values[name], strings.TrimSpace(line[len(prefixes[i]):]))
			}
		}
	}
	return values
}
