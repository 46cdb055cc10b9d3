package behavior

import (
	"reflect"
	"testing"
)

func TestPortEntryIntervals(t *testing.T) {
	times, data := PortEntryIntervals([]float64{10, 20.5}, []float64{1.5, 2})

	if want := []float64{10, 11.5, 20.5, 22.5}; !reflect.DeepEqual(times, want) {
		t.Fatalf("times = %v, want %v", times, want)
	}
	if want := []int8{1, -1, 1, -1}; !reflect.DeepEqual(data, want) {
		t.Fatalf("data = %v, want %v", data, want)
	}
}

func TestPortEntryIntervalsTruncatedRecording(t *testing.T) {
	times, data := PortEntryIntervals([]float64{10, 20, 30}, []float64{1})

	if len(times) != 2 || len(data) != 2 {
		t.Fatalf("unpaired entries not dropped: times=%v data=%v", times, data)
	}
	if times[1] != 11 || data[1] != -1 {
		t.Fatalf("exit event wrong: times=%v data=%v", times, data)
	}
}

func TestPortEntryIntervalsEmpty(t *testing.T) {
	times, data := PortEntryIntervals(nil, nil)
	if len(times) != 0 || len(data) != 0 {
		t.Fatalf("expected empty series, got times=%v data=%v", times, data)
	}
}
