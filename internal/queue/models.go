package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queued session conversion.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConverting Status = "converting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

var allStatuses = []Status{
	StatusPending,
	StatusConverting,
	StatusCompleted,
	StatusFailed,
	StatusSkipped,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Converting int
	Completed  int
	Failed     int
	Skipped    int
}

// Item represents a planned session conversion persisted in SQLite.
//
// The typed columns cover everything list and filter output needs; the full
// session plan, including photometry flags and stitch folders, rides along as
// JSON in PlanJSON and is decoded by the workflow when the item is claimed.
type Item struct {
	ID              int64
	SessionKey      string
	Experiment      string
	Group           string
	Treatment       string
	SubjectID       string
	StartDate       string
	StartTime       string
	BehaviorPath    string
	PhotometryPath  string
	PlanJSON        string
	Status          Status
	OutputPath      string
	ErrorMessage    string
	ErrorFile       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressMessage string
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight conversion.
func (i Item) IsProcessing() bool {
	return i.Status == StatusConverting
}

// Label builds the compact identifier used in log lines and status tables,
// for example "fp/Punishment Resistant/95.259 04/18/19".
func (i Item) Label() string {
	parts := make([]string, 0, 3)
	if i.Experiment != "" {
		parts = append(parts, i.Experiment)
	}
	if i.Group != "" {
		parts = append(parts, i.Group)
	}
	if i.SubjectID != "" {
		parts = append(parts, i.SubjectID)
	}
	label := strings.Join(parts, "/")
	if i.StartDate != "" {
		label += " " + i.StartDate
	}
	return label
}

// SetProgress updates both progress fields together.
func (i *Item) SetProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressStage = "failed"
	i.ProgressMessage = message
	i.LastHeartbeat = nil
}

// SetSkipped marks the item as deliberately skipped.
func (i *Item) SetSkipped(reason string) {
	i.Status = StatusSkipped
	i.ErrorMessage = reason
	i.ProgressStage = "skipped"
	i.ProgressMessage = reason
	i.LastHeartbeat = nil
}

// SetCompleted records the finished bundle path and clears error state.
func (i *Item) SetCompleted(outputPath string) {
	i.Status = StatusCompleted
	i.OutputPath = outputPath
	i.ErrorMessage = ""
	i.ErrorFile = ""
	i.ProgressStage = "completed"
	i.ProgressMessage = ""
	i.LastHeartbeat = nil
}
