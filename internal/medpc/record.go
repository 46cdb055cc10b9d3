package medpc

import "time"

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindDate
	KindClock
	KindArray
)

// Value is one coerced session field: a plain string, a calendar date, a
// clock time of day, or a numeric event array. Exactly one payload field is
// meaningful, selected by Kind.
type Value struct {
	Kind  ValueKind
	Str   string
	Date  time.Time     // midnight UTC on the session's calendar day
	Clock time.Duration // offset from midnight
	Array []float64
}

func StringValue(s string) Value       { return Value{Kind: KindString, Str: s} }
func DateValue(t time.Time) Value      { return Value{Kind: KindDate, Date: t} }
func ClockValue(d time.Duration) Value { return Value{Kind: KindClock, Clock: d} }
func ArrayValue(xs []float64) Value    { return Value{Kind: KindArray, Array: xs} }

// Record is a parsed session keyed by the output names of the FieldMap that
// produced it. The parser neither retains nor mutates a record after
// returning it; callers grafting substitute values (such as re-based
// timestamps) work on a Clone.
type Record map[string]Value

// Clone deep-copies the record, including array payloads.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for name, v := range r {
		if v.Kind == KindArray && v.Array != nil {
			v.Array = append([]float64(nil), v.Array...)
		}
		out[name] = v
	}
	return out
}

// Text returns the named string field.
func (r Record) Text(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// Day returns the named calendar-date field.
func (r Record) Day(name string) (time.Time, bool) {
	v, ok := r[name]
	if !ok || v.Kind != KindDate {
		return time.Time{}, false
	}
	return v.Date, true
}

// Clock returns the named time-of-day field.
func (r Record) Clock(name string) (time.Duration, bool) {
	v, ok := r[name]
	if !ok || v.Kind != KindClock {
		return 0, false
	}
	return v.Clock, true
}

// Events returns the named numeric array field.
func (r Record) Events(name string) ([]float64, bool) {
	v, ok := r[name]
	if !ok || v.Kind != KindArray {
		return nil, false
	}
	return v.Array, true
}
