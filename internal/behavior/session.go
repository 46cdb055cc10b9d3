package behavior

import (
	"errors"
	"fmt"
	"time"

	"tether/internal/medpc"
)

// Session is one behavioral recording with its arrays resolved to semantic
// names. MedPC-backed and CSV-backed sessions produce the same shape.
type Session struct {
	Subject    string
	Experiment string
	Group      string
	Box        string
	MSN        string
	Stage      string

	StartDate time.Time
	StartTime time.Duration
	EndDate   time.Time
	EndTime   time.Duration

	Arrays map[string][]float64
}

// StartAt combines the session's calendar date and clock time in loc.
func (s *Session) StartAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := s.StartDate
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc).Add(s.StartTime)
}

// Array returns the named event array. Absent arrays return nil; arrays
// whose header appeared with no data return an empty non-nil slice.
func (s *Session) Array(name string) []float64 {
	return s.Arrays[name]
}

// HasArray reports whether the session recorded the named array at all.
func (s *Session) HasArray(name string) bool {
	_, ok := s.Arrays[name]
	return ok
}

// HasPortEntryDurations reports whether the session recorded a non-empty
// duration array. Sessions without durations degrade from interval series
// to plain entry events downstream.
func (s *Session) HasPortEntryDurations() bool {
	return len(s.Arrays[FieldPortEntryDuration]) > 0
}

// ReadMedPC locates and reads one session block in a MedPC log, resolving
// array letters through the registry entry for msn. When the program's
// primary duration letter holds a scalar, the read is retried with the
// registry's fallback letter.
func ReadMedPC(path string, conditions medpc.Conditions, startVariable, msn string, reg *Registry) (*Session, error) {
	fields, err := reg.FieldMap(msn)
	if err != nil {
		return nil, err
	}

	record, err := medpc.ReadSession(path, conditions, startVariable, fields)
	if err != nil {
		var mismatch *medpc.TypeMismatchError
		if !errors.As(err, &mismatch) || mismatch.Field != reg.DurationField() {
			return nil, err
		}
		fallback, ok := reg.FallbackFieldMap(msn)
		if !ok {
			return nil, err
		}
		record, err = medpc.ReadSession(path, conditions, startVariable, fallback)
		if err != nil {
			return nil, err
		}
	}

	return sessionFromRecord(record, msn, reg), nil
}

// headerVariable output names shared by every program's field map.
const (
	headerStartDate  = "start_date"
	headerEndDate    = "end_date"
	headerStartTime  = "start_time"
	headerEndTime    = "end_time"
	headerSubject    = "subject"
	headerExperiment = "experiment"
	headerGroup      = "group"
	headerBox        = "box"
	headerMSN        = "msn"
)

func headerFieldMap() medpc.FieldMap {
	return medpc.FieldMap{
		"Start Date": {Name: headerStartDate, Type: medpc.FieldDate},
		"End Date":   {Name: headerEndDate, Type: medpc.FieldDate},
		"Start Time": {Name: headerStartTime, Type: medpc.FieldTime},
		"End Time":   {Name: headerEndTime, Type: medpc.FieldTime},
		"Subject":    {Name: headerSubject, Type: medpc.FieldString},
		"Experiment": {Name: headerExperiment, Type: medpc.FieldString},
		"Group":      {Name: headerGroup, Type: medpc.FieldString},
		"Box":        {Name: headerBox, Type: medpc.FieldString},
		"MSN":        {Name: headerMSN, Type: medpc.FieldString},
	}
}

func sessionFromRecord(record medpc.Record, msn string, reg *Registry) *Session {
	session := &Session{
		MSN:    msn,
		Stage:  reg.Stage(msn),
		Arrays: make(map[string][]float64),
	}
	if recorded, ok := record.Text(headerMSN); ok && recorded != "" {
		session.MSN = recorded
		session.Stage = reg.Stage(recorded)
	}
	if v, ok := record.Text(headerSubject); ok {
		session.Subject = v
	}
	if v, ok := record.Text(headerExperiment); ok {
		session.Experiment = v
	}
	if v, ok := record.Text(headerGroup); ok {
		session.Group = v
	}
	if v, ok := record.Text(headerBox); ok {
		session.Box = v
	}
	if v, ok := record.Day(headerStartDate); ok {
		session.StartDate = v
	}
	if v, ok := record.Day(headerEndDate); ok {
		session.EndDate = v
	}
	if v, ok := record.Clock(headerStartTime); ok {
		session.StartTime = v
	}
	if v, ok := record.Clock(headerEndTime); ok {
		session.EndTime = v
	}
	for name, value := range record {
		if value.Kind != medpc.KindArray {
			continue
		}
		session.Arrays[name] = value.Array
	}
	return session
}

// ParseSessionDate parses the MM/DD/YY date literal used by session logs
// and spreadsheet exports. Both padded and unpadded components parse.
func ParseSessionDate(text string) (time.Time, error) {
	t, err := time.Parse("1/2/06", text)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session date %q: %w", text, err)
	}
	return t, nil
}

// ParseSessionClock parses the HH:MM:SS clock literal used by session logs
// and spreadsheet exports into an offset from midnight.
func ParseSessionClock(text string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", text)
	if err != nil {
		return 0, fmt.Errorf("parse session time %q: %w", text, err)
	}
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
}
