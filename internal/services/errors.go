package services

import (
	"errors"
	"fmt"
	"strings"

	"tether/internal/queue"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrDataFormat    = errors.New("data format error")
	ErrTransient     = errors.New("transient failure")
	// ErrSkipped marks sessions that are deliberately not converted, such as
	// behavior files whose selected block carries no events.
	ErrSkipped = errors.New("session skipped")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the queue status the workflow should
// persist after the stage fails. Deliberate skips become StatusSkipped;
// everything else is a genuine failure.
func FailureStatus(err error) queue.Status {
	if errors.Is(err, ErrSkipped) {
		return queue.StatusSkipped
	}
	return queue.StatusFailed
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
