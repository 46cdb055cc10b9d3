package behavior

// PortEntryIntervals interleaves port entry and exit events into a single
// annotated series: each entry time carries +1 and each matching exit time
// (entry plus measured duration) carries -1. Pairing stops at the shorter of
// the two arrays when the acquisition cut off mid-session.
func PortEntryIntervals(entries, durations []float64) (times []float64, data []int8) {
	n := len(entries)
	if len(durations) < n {
		n = len(durations)
	}
	times = make([]float64, 0, 2*n)
	data = make([]int8, 0, 2*n)
	for i := 0; i < n; i++ {
		times = append(times, entries[i])
		data = append(data, 1)
		times = append(times, entries[i]+durations[i])
		data = append(data, -1)
	}
	return times, data
}
