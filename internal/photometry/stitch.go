package photometry

import (
	"fmt"
	"sort"
)

// Stitch appends a continuation block folder onto t. A handful of sessions
// were recorded across two tank folders when the acquisition software was
// restarted mid-session; the dataset overrides pair each first folder with
// its continuation. Sample and event times of the continuation are
// re-based onto t's clock using the absolute block start stamps, so TTL
// alignment sees one continuous recording.
func (t *Tank) Stitch(cont *Tank) error {
	if cont == nil {
		return nil
	}
	offset := cont.StartTime.Sub(t.StartTime).Seconds()
	if offset <= 0 {
		return fmt.Errorf("continuation tank %s starts before %s", cont.Path, t.Path)
	}

	for name, second := range cont.streams {
		first, ok := t.streams[name]
		if !ok {
			shifted := &Stream{
				Name:        name,
				SampleRate:  second.SampleRate,
				StartOffset: second.StartOffset + offset,
			}
			for _, channel := range second.Channels {
				shifted.Channels = append(shifted.Channels, append([]float64(nil), channel...))
			}
			t.streams[name] = shifted
			continue
		}
		if first.SampleRate != second.SampleRate {
			return fmt.Errorf("store %s: sample rate changed between folders (%g then %g)", name, first.SampleRate, second.SampleRate)
		}
		if len(first.Channels) != len(second.Channels) {
			return fmt.Errorf("store %s: channel count changed between folders (%d then %d)", name, len(first.Channels), len(second.Channels))
		}
		for i := range first.Channels {
			first.Channels[i] = append(first.Channels[i], second.Channels[i]...)
		}
	}

	for name, second := range cont.epocs {
		first := t.epoc(name)
		for _, onset := range second.Onsets {
			first.Onsets = append(first.Onsets, onset+offset)
		}
		for _, off := range second.Offsets {
			first.Offsets = append(first.Offsets, off+offset)
		}
		first.Values = append(first.Values, second.Values...)
	}

	if cont.StopTime.After(t.StopTime) {
		t.StopTime = cont.StopTime
	}
	return nil
}

// Truncate discards everything recorded after stop seconds. A few tanks
// kept acquiring long after the behavioral session ended; the dataset
// overrides record where the usable signal stops.
func (t *Tank) Truncate(stop float64) {
	if stop <= 0 {
		return
	}
	for _, stream := range t.streams {
		if stream.SampleRate <= 0 {
			continue
		}
		keep := int((stop - stream.StartOffset) * stream.SampleRate)
		if keep < 0 {
			keep = 0
		}
		for i, channel := range stream.Channels {
			if keep < len(channel) {
				stream.Channels[i] = channel[:keep]
			}
		}
	}
	for _, epoc := range t.epocs {
		cut := sort.SearchFloat64s(epoc.Onsets, stop)
		epoc.Onsets = epoc.Onsets[:cut]
		if cut < len(epoc.Values) {
			epoc.Values = epoc.Values[:cut]
		}
		offCut := sort.SearchFloat64s(epoc.Offsets, stop)
		epoc.Offsets = epoc.Offsets[:offCut]
	}
}
