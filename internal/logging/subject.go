package logging

import "strings"

// FormatSubject builds the experiment/subject/stage subject string used in
// console progress output, e.g. "fp · 95.259 (Conversion)".
func FormatSubject(experiment, subject, stage string) string {
	experiment = strings.TrimSpace(experiment)
	subject = strings.TrimSpace(subject)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 3)
	if experiment != "" {
		parts = append(parts, experiment)
	}
	switch {
	case subject != "" && stage != "":
		parts = append(parts, subject+" ("+stage+")")
	case subject != "":
		parts = append(parts, subject)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
