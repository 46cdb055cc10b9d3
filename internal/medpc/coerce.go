package medpc

import (
	"fmt"
	"strconv"
	"time"
)

// Scalar layouts as the acquisition software prints them. The numeric
// fields are unpadded in the layout so both "04/17/19" and "4/17/19" parse.
const (
	dateLayout = "1/2/06"
	timeLayout = "15:04:05"
)

// coerceRecord converts raw extracted values into their declared types:
// dates and clock times parse their fixed layouts, arrays convert to
// float64 and lose their trailing zero padding. An empty scalar for a
// declared array (header line with no continuations) becomes an empty
// array, never a one-element array holding the empty string.
func coerceRecord(raw map[string]rawValue, fields FieldMap) (Record, error) {
	types := fields.outputTypes()
	record := make(Record, len(raw))
	for name, rv := range raw {
		declared := types[name]
		if rv.isArray && declared != FieldArray {
			return nil, &TypeMismatchError{Field: name, Declared: declared.String(), Observed: "a multi-line array"}
		}
		switch declared {
		case FieldString:
			record[name] = StringValue(rv.text)
		case FieldDate:
			day, err := time.Parse(dateLayout, rv.text)
			if err != nil {
				return nil, &TypeMismatchError{Field: name, Declared: "date", Observed: fmt.Sprintf("unparseable value %q", rv.text)}
			}
			record[name] = DateValue(day)
		case FieldTime:
			clock, err := time.Parse(timeLayout, rv.text)
			if err != nil {
				return nil, &TypeMismatchError{Field: name, Declared: "time", Observed: fmt.Sprintf("unparseable value %q", rv.text)}
			}
			record[name] = ClockValue(sinceMidnight(clock))
		case FieldArray:
			if !rv.isArray {
				if rv.text != "" {
					return nil, &TypeMismatchError{Field: name, Declared: "array", Observed: fmt.Sprintf("scalar value %q", rv.text)}
				}
				record[name] = ArrayValue([]float64{})
				continue
			}
			xs := make([]float64, 0, len(rv.tokens))
			for _, tok := range rv.tokens {
				x, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, &TypeMismatchError{Field: name, Declared: "numeric array", Observed: fmt.Sprintf("token %q", tok)}
				}
				xs = append(xs, x)
			}
			record[name] = ArrayValue(TrimTrailingZeros(xs))
		}
	}
	return record, nil
}

func sinceMidnight(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// TrimTrailingZeros removes the zero padding the acquisition system appends
// when flushing its fixed-size array buffers: zeros are dropped from the
// tail until the first non-zero sample, so an all-zero array trims to empty
// and interior zeros survive. A genuine final sample of exactly zero (such
// as a zero-duration port entry) is indistinguishable from padding and is
// dropped with it; the reference spreadsheet exports share this behavior,
// so it is preserved rather than corrected.
func TrimTrailingZeros(xs []float64) []float64 {
	end := len(xs)
	for end > 0 && xs[end-1] == 0 {
		end--
	}
	return xs[:end]
}
