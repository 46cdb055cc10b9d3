package align

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// MinPairs is the smallest number of pulse pairs a usable mapping needs.
// One pair fixes an offset but no rate; two fix both.
const MinPairs = 2

// Mapping re-bases event times from the behavior box clock onto the
// photometry tank clock. Inside the span of the anchor pulses it is
// piecewise linear through every pair, so anchors map exactly; outside the
// span it extends the least-squares line fitted over all pairs.
type Mapping struct {
	first, last float64
	curve       interp.PiecewiseLinear

	// regression line for queries outside [first, last]
	intercept float64
	slope     float64
}

// NewMapping builds a clock mapping from parallel pulse trains: the same
// physical pulses as timestamped by the behavior box and by the photometry
// system. Both trains must be equally long, at least MinPairs long, and
// strictly increasing.
func NewMapping(sessionPulses, tankPulses []float64) (*Mapping, error) {
	if len(sessionPulses) != len(tankPulses) {
		return nil, fmt.Errorf("pulse trains differ in length: %d behavior vs %d photometry", len(sessionPulses), len(tankPulses))
	}
	if len(sessionPulses) < MinPairs {
		return nil, fmt.Errorf("need at least %d pulse pairs, have %d", MinPairs, len(sessionPulses))
	}
	if err := checkIncreasing("behavior", sessionPulses); err != nil {
		return nil, err
	}
	if err := checkIncreasing("photometry", tankPulses); err != nil {
		return nil, err
	}

	m := &Mapping{
		first: sessionPulses[0],
		last:  sessionPulses[len(sessionPulses)-1],
	}
	if err := m.curve.Fit(sessionPulses, tankPulses); err != nil {
		return nil, fmt.Errorf("fit pulse mapping: %w", err)
	}
	m.intercept, m.slope = stat.LinearRegression(sessionPulses, tankPulses, nil, false)
	return m, nil
}

// Map converts one behavior-clock time to tank-clock time.
func (m *Mapping) Map(t float64) float64 {
	if t < m.first || t > m.last {
		return m.intercept + m.slope*t
	}
	return m.curve.Predict(t)
}

// Apply converts a whole event array, returning a new slice of the same
// length. The input is never modified; callers substitute the result for
// the original timestamps on a copied record.
func (m *Mapping) Apply(times []float64) []float64 {
	mapped := make([]float64, len(times))
	for i, t := range times {
		mapped[i] = m.Map(t)
	}
	return mapped
}

// Span returns the behavior-clock range covered by the anchor pulses.
// Queries outside it are extrapolated rather than interpolated.
func (m *Mapping) Span() (first, last float64) {
	return m.first, m.last
}

func checkIncreasing(clock string, pulses []float64) error {
	for i := 1; i < len(pulses); i++ {
		if !(pulses[i] > pulses[i-1]) {
			return fmt.Errorf("%s pulses not strictly increasing at index %d (%v then %v)", clock, i, pulses[i-1], pulses[i])
		}
	}
	return nil
}
