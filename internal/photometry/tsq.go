package photometry

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Index records are fixed 40-byte structures, ten 32-bit words each. The
// size field of every record counts words of the whole event, header
// included, so a record's sample payload spans (size-headerWords)*4 bytes
// of the .tev blob.
const (
	indexRecordSize = 40
	headerWords     = 10
)

// Event type codes as the acquisition system writes them.
const (
	evtypeStrOn  = 0x0101
	evtypeStrOff = 0x0102
	evtypeScalar = 0x0201
	evtypeStream = 0x8101
	evtypeSnip   = 0x8201
	evtypeMark   = 0x8801
)

// Block boundary markers, carried in the store-code word of their records.
// Real store codes pack four ASCII characters and never collide with these.
const (
	evmarkStartBlock = 0x0001
	evmarkStopBlock  = 0x0002
)

// Sample encodings named by the format word of a stream record.
const (
	dformFloat  = 0
	dformLong   = 1
	dformShort  = 2
	dformByte   = 3
	dformDouble = 4
	dformQword  = 5
)

// indexEntry is one parsed .tsq record. The offset word is a union: stream
// records store a byte offset into the .tev blob, epoc and scalar records
// store their strobe value as a float64 in the same bytes.
type indexEntry struct {
	size      int32
	etype     int32
	code      uint32
	channel   uint16
	timestamp float64
	offset    uint64
	format    int32
	frequency float64
}

func parseIndexEntry(b []byte) indexEntry {
	return indexEntry{
		size:      int32(binary.LittleEndian.Uint32(b[0:4])),
		etype:     int32(binary.LittleEndian.Uint32(b[4:8])),
		code:      binary.LittleEndian.Uint32(b[8:12]),
		channel:   binary.LittleEndian.Uint16(b[12:14]),
		timestamp: math.Float64frombits(binary.LittleEndian.Uint64(b[16:24])),
		offset:    binary.LittleEndian.Uint64(b[24:32]),
		format:    int32(binary.LittleEndian.Uint32(b[32:36])),
		frequency: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[36:40]))),
	}
}

// storeName unpacks the four ASCII characters of a store code.
func (e indexEntry) storeName() string {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], e.code)
	return string(raw[:])
}

// strobe reinterprets the offset union as the epoc strobe value.
func (e indexEntry) strobe() float64 {
	return math.Float64frombits(e.offset)
}

// sampleBytes returns the byte width of one sample in the given encoding.
func sampleBytes(format int32) (int, error) {
	switch format {
	case dformFloat, dformLong:
		return 4, nil
	case dformShort:
		return 2, nil
	case dformByte:
		return 1, nil
	case dformDouble, dformQword:
		return 8, nil
	default:
		return 0, fmt.Errorf("unknown sample format %d", format)
	}
}

// decodeSamples converts one block payload to float64 samples.
func decodeSamples(raw []byte, format int32) ([]float64, error) {
	width, err := sampleBytes(format)
	if err != nil {
		return nil, err
	}
	if len(raw)%width != 0 {
		return nil, fmt.Errorf("payload of %d bytes is not a whole number of %d-byte samples", len(raw), width)
	}
	samples := make([]float64, 0, len(raw)/width)
	for i := 0; i < len(raw); i += width {
		switch format {
		case dformFloat:
			samples = append(samples, float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i:]))))
		case dformLong:
			samples = append(samples, float64(int32(binary.LittleEndian.Uint32(raw[i:]))))
		case dformShort:
			samples = append(samples, float64(int16(binary.LittleEndian.Uint16(raw[i:]))))
		case dformByte:
			samples = append(samples, float64(int8(raw[i])))
		case dformDouble:
			samples = append(samples, math.Float64frombits(binary.LittleEndian.Uint64(raw[i:])))
		case dformQword:
			samples = append(samples, float64(int64(binary.LittleEndian.Uint64(raw[i:]))))
		}
	}
	return samples, nil
}
