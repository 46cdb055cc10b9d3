package workflow

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tether/internal/fileutil"
	"tether/internal/queue"
	"tether/internal/textutil"
)

// WriteErrorArtifact records a failed conversion as a per-session text
// file next to the bundles, so a batch over thousands of sessions leaves
// one inspectable artifact per failure instead of a buried log line.
// Returns the artifact path.
func WriteErrorArtifact(outputDir string, item *queue.Item, convErr error) (string, error) {
	name := "ERROR_" + textutil.SanitizeFileName(item.SessionKey) + ".txt"
	path := filepath.Join(outputDir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "session: %s\n", item.Label())
	fmt.Fprintf(&b, "session_key: %s\n", item.SessionKey)
	fmt.Fprintf(&b, "behavior_path: %s\n", item.BehaviorPath)
	if item.PhotometryPath != "" {
		fmt.Fprintf(&b, "photometry_path: %s\n", item.PhotometryPath)
	}
	fmt.Fprintf(&b, "failed_at: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "\nerror:\n%v\n", convErr)
	if item.PlanJSON != "" {
		fmt.Fprintf(&b, "\nplan:\n%s\n", item.PlanJSON)
	}

	if err := fileutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write error artifact: %w", err)
	}
	return path, nil
}
