package nwb

import (
	"time"

	"github.com/google/uuid"
)

// Document is one session's exchange bundle: everything a downstream
// analysis needs about a single recording session, serialized to a single
// MessagePack container. Collections are slices rather than maps and the
// encoder writes struct fields in declaration order, so identical inputs
// produce bit-identical bundles.
type Document struct {
	Identifier            string    `msgpack:"identifier"`
	SessionID             string    `msgpack:"session_id"`
	SessionDescription    string    `msgpack:"session_description"`
	SessionStartTime      time.Time `msgpack:"session_start_time"`
	ExperimentDescription string    `msgpack:"experiment_description,omitempty"`
	Institution           string    `msgpack:"institution,omitempty"`
	Lab                   string    `msgpack:"lab,omitempty"`
	Experimenter          []string  `msgpack:"experimenter,omitempty"`
	Keywords              []string  `msgpack:"keywords,omitempty"`
	Surgery               string    `msgpack:"surgery,omitempty"`
	Virus                 string    `msgpack:"virus,omitempty"`
	StimulusNotes         string    `msgpack:"stimulus_notes,omitempty"`
	Notes                 string    `msgpack:"notes,omitempty"`

	Subject    *Subject          `msgpack:"subject,omitempty"`
	Behavior   *BehaviorModule   `msgpack:"behavior,omitempty"`
	Stimulus   *StimulusModule   `msgpack:"stimulus,omitempty"`
	Photometry *PhotometryModule `msgpack:"photometry,omitempty"`
	Images     *ImageModule      `msgpack:"images,omitempty"`
}

// NewDocument mints a bundle with a fresh identifier.
func NewDocument(sessionID, description string, start time.Time) *Document {
	return &Document{
		Identifier:         uuid.NewString(),
		SessionID:          sessionID,
		SessionDescription: description,
		SessionStartTime:   start,
	}
}

// Subject carries the per-animal fields of the bundle.
type Subject struct {
	ID          string `msgpack:"subject_id"`
	Sex         string `msgpack:"sex"`
	Species     string `msgpack:"species,omitempty"`
	Description string `msgpack:"description,omitempty"`
	Age         string `msgpack:"age,omitempty"`
}

// EventSeries is a named series of event timestamps in seconds.
type EventSeries struct {
	Name        string    `msgpack:"name"`
	Description string    `msgpack:"description"`
	Timestamps  []float64 `msgpack:"timestamps"`
}

// IntervalSeries annotates timestamps with entry/exit markers: +1 opens an
// interval, -1 closes it.
type IntervalSeries struct {
	Name        string    `msgpack:"name"`
	Description string    `msgpack:"description"`
	Timestamps  []float64 `msgpack:"timestamps"`
	Data        []int8    `msgpack:"data"`
}

// BehaviorModule groups the operant event series of one session.
type BehaviorModule struct {
	Description string           `msgpack:"description"`
	Events      []EventSeries    `msgpack:"events"`
	Intervals   []IntervalSeries `msgpack:"intervals,omitempty"`
}

// AddEvents appends an event series. Append order is the serialized order;
// callers add series in a fixed sequence to keep bundles reproducible.
func (m *BehaviorModule) AddEvents(name, description string, timestamps []float64) {
	m.Events = append(m.Events, EventSeries{Name: name, Description: description, Timestamps: timestamps})
}

// AddIntervals appends an interval series.
func (m *BehaviorModule) AddIntervals(name, description string, timestamps []float64, data []int8) {
	m.Intervals = append(m.Intervals, IntervalSeries{Name: name, Description: description, Timestamps: timestamps, Data: data})
}

// Device identifies a piece of stimulus or acquisition hardware.
type Device struct {
	Name         string `msgpack:"name"`
	Description  string `msgpack:"description"`
	Manufacturer string `msgpack:"manufacturer"`
}

// StimulusModule holds the optogenetic stimulation of one session: the
// expanded square-wave series plus the site and hardware annotations.
type StimulusModule struct {
	Series           StimulusSeries `msgpack:"series"`
	Device           Device         `msgpack:"device"`
	SiteDescription  string         `msgpack:"site_description"`
	SiteLocation     string         `msgpack:"site_location"`
	ExcitationLambda float64        `msgpack:"excitation_lambda"`
}

// StimulusSeries is the expanded pulse train: applied power in watts at
// each change point.
type StimulusSeries struct {
	Name        string    `msgpack:"name"`
	Description string    `msgpack:"description"`
	Timestamps  []float64 `msgpack:"timestamps"`
	Data        []float64 `msgpack:"data"`
}

// Signal is one continuous photometry trace, channel-major.
type Signal struct {
	Name        string      `msgpack:"name"`
	Description string      `msgpack:"description,omitempty"`
	Unit        string      `msgpack:"unit,omitempty"`
	SampleRate  float64     `msgpack:"sample_rate"`
	StartOffset float64     `msgpack:"start_offset"`
	Channels    [][]float64 `msgpack:"channels"`
}

// PhotometryModule holds the fiber photometry recording of one session.
// TTL series keep tank-clock times; behavioral series elsewhere in the
// bundle are re-based onto the same clock when alignment succeeded.
type PhotometryModule struct {
	TankFolder string        `msgpack:"tank_folder"`
	Signals    []Signal      `msgpack:"signals"`
	TTLs       []EventSeries `msgpack:"ttls,omitempty"`
}

// Image references one emitted image file, path relative to the bundle.
type Image struct {
	Name        string `msgpack:"name"`
	Description string `msgpack:"description,omitempty"`
	Path        string `msgpack:"path"`
	Width       int    `msgpack:"width"`
	Height      int    `msgpack:"height"`
}

// ImageModule groups emitted images.
type ImageModule struct {
	Description string  `msgpack:"description,omitempty"`
	Images      []Image `msgpack:"images"`
}
