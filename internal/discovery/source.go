package discovery

import (
	"path/filepath"
	"strings"
	"time"

	"tether/internal/medpc"
)

// Experiment arm names. They appear verbatim in session keys, bundle file
// names, and error artifact names.
const (
	ExperimentFP   = "FP"
	ExperimentOpto = "Opto"
)

// Session condition labels as the acquisition software records them.
const (
	condStartDate = "Start Date"
	condStartTime = "Start Time"
	condSubject   = "Subject"
	condBox       = "Box"
)

// conditionKeyOrder fixes the order condition labels contribute to session
// keys. Keys are persisted in the queue and the duration cache, so the order
// must never change.
var conditionKeyOrder = []string{condStartDate, condStartTime, condSubject, condBox}

// Source describes one discovered behavioral session and everything needed
// to convert it: where the log lives, how to locate the session inside it,
// and which photometry recording pairs with it. Sources serialize to JSON
// for the conversion queue.
type Source struct {
	Experiment string `json:"experiment"`
	Group      string `json:"experimental_group"`
	Treatment  string `json:"optogenetic_treatment,omitempty"`
	Subject    string `json:"subject_id"`
	MSN        string `json:"msn"`

	// BehaviorPath is a MedPC log or a per-session CSV export. Conditions
	// locate the session block inside a multi-session log; they carry the
	// subject id exactly as the log records it, which for a handful of
	// subjects differs from the canonical Subject above.
	BehaviorPath  string           `json:"behavior_file_path"`
	Conditions    medpc.Conditions `json:"session_conditions"`
	StartVariable string           `json:"start_variable"`
	Start         time.Time        `json:"start_datetime"`

	TankPath        string  `json:"photometry_folder_path,omitempty"`
	SecondTankPath  string  `json:"second_photometry_folder_path,omitempty"`
	TankStopAt      float64 `json:"photometry_stop_at,omitempty"`
	FlipTTLs        bool    `json:"flip_ttls,omitempty"`
	RawDetectorOnly bool    `json:"raw_detector_only,omitempty"`
	NoDurations     bool    `json:"no_port_entry_durations,omitempty"`
}

// Key returns the stable identifier deduplicating a session across discovery
// passes: the behavior file path plus every recorded condition.
func (s *Source) Key() string {
	var b strings.Builder
	b.WriteString("behavior_file_path=")
	b.WriteString(s.BehaviorPath)
	for _, name := range conditionKeyOrder {
		if value, ok := s.Conditions[name]; ok {
			b.WriteString("_")
			b.WriteString(name)
			b.WriteString("=")
			b.WriteString(value)
		}
	}
	return b.String()
}

// BaseName returns the output naming stem for the session,
// "{experiment}_{group}[_{treatment}]_{subject}_{start}". The bundle writer
// appends its extension; failure artifacts wrap it in ERROR_{...}.txt.
func (s *Source) BaseName() string {
	parts := []string{s.Experiment, s.Group}
	if s.Treatment != "" {
		parts = append(parts, s.Treatment)
	}
	parts = append(parts, s.Subject, s.Start.Format("2006-01-02T15:04:05"))
	return strings.Join(parts, "_")
}

// HasPhotometry reports whether a fiber photometry recording was paired with
// the session.
func (s *Source) HasPhotometry() bool {
	return s.TankPath != ""
}

// IsCSV reports whether the behavior data comes from a spreadsheet export
// rather than a raw MedPC log.
func (s *Source) IsCSV() bool {
	return strings.EqualFold(filepath.Ext(s.BehaviorPath), ".csv")
}
