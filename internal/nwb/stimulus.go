package nwb

// PrizmatixLEDDual describes the LED driver used for every optogenetic
// session in the dataset.
func PrizmatixLEDDual() Device {
	return Device{
		Name: "Optogenetics_LED_Dual",
		Description: "Optogenetic stimulus pulses were generated from the Optogenetics-LED-Dual (Prizmatix) driven by the " +
			"Optogenetics PulserPlus (Prizmatix). Engineered for scaling Optogenetics experiments, the " +
			"Optogenetics-LED-Dual light source features two independent fiber-coupled LED channels each equipped " +
			"with independent power and switching control. Optogenetics Pulser / PulserPlus are programmable " +
			"TTL pulse train generators for pulsing LEDs, lasers and shutters used in Optogenetics activation " +
			"in neurophysiology and behavioral research.",
		Manufacturer: "Prizmatix",
	}
}

// BuildStimulusTrain expands stimulation onset times into an explicit
// square wave: each onset opens duration*frequency pulses of pulseWidth
// seconds at the given power, each pulse closed by a zero sample. The
// series begins with a zero sample at time zero so downstream readers see
// the resting power before the first pulse.
func BuildStimulusTrain(onsets []float64, duration, frequency, pulseWidth, power float64) (timestamps, data []float64) {
	pulses := int(duration * frequency)
	interval := 1 / frequency
	timestamps = []float64{0}
	data = []float64{0}
	for _, onset := range onsets {
		for i := 0; i < pulses; i++ {
			start := onset + float64(i)*interval
			timestamps = append(timestamps, start, start+pulseWidth)
			data = append(data, power, 0)
		}
	}
	return timestamps, data
}
