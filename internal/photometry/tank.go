package photometry

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Stream is one continuous signal store: demodulated fluorescence, raw
// detector voltage, or the commanded LED voltages. Data is channel-major
// with blocks concatenated in acquisition order; Channels are sorted by
// hardware channel number.
type Stream struct {
	Name        string
	SampleRate  float64
	StartOffset float64
	Channels    [][]float64
}

// Duration returns the length of the longest channel in seconds.
func (s *Stream) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	longest := 0
	for _, channel := range s.Channels {
		if len(channel) > longest {
			longest = len(channel)
		}
	}
	return float64(longest) / s.SampleRate
}

// Epoc is one event store: TTL pulses and scalar strobes. Times are
// seconds relative to the block start. Offsets may be shorter than Onsets
// when the final pulse was still high at the end of the recording.
type Epoc struct {
	Name    string
	Onsets  []float64
	Offsets []float64
	Values  []float64
}

// Tank is one parsed photometry block folder.
type Tank struct {
	Path      string
	StartTime time.Time
	StopTime  time.Time

	streams map[string]*Stream
	epocs   map[string]*Epoc
}

// Stream returns the named signal store.
func (t *Tank) Stream(name string) (*Stream, bool) {
	s, ok := t.streams[name]
	return s, ok
}

// Epoc returns the named event store.
func (t *Tank) Epoc(name string) (*Epoc, bool) {
	e, ok := t.epocs[name]
	return e, ok
}

// StreamNames lists the signal stores in sorted order.
func (t *Tank) StreamNames() []string {
	return sortedKeys(t.streams)
}

// EpocNames lists the event stores in sorted order.
func (t *Tank) EpocNames() []string {
	return sortedKeys(t.epocs)
}

func sortedKeys[V any](m map[string]*V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// streamBlocks accumulates one store's index records before its channels
// are assembled.
type streamBlocks struct {
	sampleRate float64
	format     int32
	firstStamp float64
	channels   map[uint16][]float64
}

// ReadTank parses the photometry block folder at dir: the single .tsq
// index inside it and the .tev sample blob the index points into. All
// event and sample times in the result are seconds relative to the block
// start marker.
func ReadTank(dir string) (*Tank, error) {
	indexPath, err := findIndex(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("read tank index: %w", err)
	}
	if len(data)%indexRecordSize != 0 {
		return nil, fmt.Errorf("tank index %s: %d bytes is not a whole number of records", indexPath, len(data))
	}
	count := len(data) / indexRecordSize
	if count < 2 {
		return nil, fmt.Errorf("tank index %s: too short to contain a block start marker", indexPath)
	}

	// Record 0 is the file header. Record 1 must be the block start
	// marker; its timestamp anchors every relative time in the tank.
	start := parseIndexEntry(data[indexRecordSize : 2*indexRecordSize])
	if start.code != evmarkStartBlock {
		return nil, fmt.Errorf("tank index %s: block start marker not found", indexPath)
	}
	base := start.timestamp

	tank := &Tank{
		Path:      dir,
		StartTime: stampToTime(base),
		streams:   make(map[string]*Stream),
		epocs:     make(map[string]*Epoc),
	}

	var tev *os.File
	defer func() {
		if tev != nil {
			tev.Close()
		}
	}()
	blocks := make(map[string]*streamBlocks)

	for i := 2; i < count; i++ {
		entry := parseIndexEntry(data[i*indexRecordSize : (i+1)*indexRecordSize])
		if entry.code == evmarkStopBlock {
			tank.StopTime = stampToTime(entry.timestamp)
			continue
		}
		if entry.code == evmarkStartBlock {
			continue
		}
		switch entry.etype {
		case evtypeStream:
			if tev == nil {
				tev, err = os.Open(strings.TrimSuffix(indexPath, filepath.Ext(indexPath)) + ".tev")
				if err != nil {
					return nil, fmt.Errorf("open tank samples: %w", err)
				}
			}
			if err := appendStreamBlock(blocks, tev, entry); err != nil {
				return nil, fmt.Errorf("tank %s store %s: %w", dir, entry.storeName(), err)
			}
		case evtypeStrOn:
			epoc := tank.epoc(entry.storeName())
			epoc.Onsets = append(epoc.Onsets, entry.timestamp-base)
			epoc.Values = append(epoc.Values, entry.strobe())
		case evtypeStrOff:
			epoc := tank.epoc(entry.storeName())
			epoc.Offsets = append(epoc.Offsets, entry.timestamp-base)
		case evtypeScalar:
			epoc := tank.epoc(entry.storeName())
			epoc.Onsets = append(epoc.Onsets, entry.timestamp-base)
			epoc.Values = append(epoc.Values, entry.strobe())
		default:
			// Snips and marks are spike-sorting stores; fiber rigs do
			// not record them and conversion has no use for them.
		}
	}

	for name, acc := range blocks {
		stream := &Stream{
			Name:        name,
			SampleRate:  acc.sampleRate,
			StartOffset: acc.firstStamp - base,
		}
		numbers := make([]int, 0, len(acc.channels))
		for ch := range acc.channels {
			numbers = append(numbers, int(ch))
		}
		sort.Ints(numbers)
		for _, ch := range numbers {
			stream.Channels = append(stream.Channels, acc.channels[uint16(ch)])
		}
		tank.streams[name] = stream
	}
	return tank, nil
}

func (t *Tank) epoc(name string) *Epoc {
	if e, ok := t.epocs[name]; ok {
		return e
	}
	e := &Epoc{Name: name}
	t.epocs[name] = e
	return e
}

func appendStreamBlock(blocks map[string]*streamBlocks, tev *os.File, entry indexEntry) error {
	payloadWords := int(entry.size) - headerWords
	if payloadWords <= 0 {
		return fmt.Errorf("stream record with no payload (size %d)", entry.size)
	}
	raw := make([]byte, payloadWords*4)
	if _, err := tev.ReadAt(raw, int64(entry.offset)); err != nil {
		return fmt.Errorf("sample blob truncated at offset %d: %w", entry.offset, err)
	}
	samples, err := decodeSamples(raw, entry.format)
	if err != nil {
		return err
	}

	name := entry.storeName()
	acc, ok := blocks[name]
	if !ok {
		acc = &streamBlocks{
			sampleRate: entry.frequency,
			format:     entry.format,
			firstStamp: entry.timestamp,
			channels:   make(map[uint16][]float64),
		}
		blocks[name] = acc
	}
	if entry.format != acc.format {
		return fmt.Errorf("sample format changed mid-stream (%d then %d)", acc.format, entry.format)
	}
	if entry.timestamp < acc.firstStamp {
		acc.firstStamp = entry.timestamp
	}
	acc.channels[entry.channel] = append(acc.channels[entry.channel], samples...)
	return nil
}

// findIndex locates the one .tsq file of a block folder.
func findIndex(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read tank folder: %w", err)
	}
	var matches []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tsq") {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("tank folder %s has no .tsq index", dir)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("tank folder %s has %d .tsq indexes", dir, len(matches))
	}
}

// stampToTime converts an absolute tank timestamp (fractional seconds
// since the Unix epoch) to a time.
func stampToTime(stamp float64) time.Time {
	sec, frac := math.Modf(stamp)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}
