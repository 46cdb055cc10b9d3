package nwb

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func sampleDocument() *Document {
	doc := &Document{
		Identifier:         "4be72da5-0f08-41ac-8c2f-d0a0e3161e0f",
		SessionID:          "FP_RR20_95.259_2019-04-18T12-02-10",
		SessionDescription: "Operant behavioral training with concurrent fiber photometry.",
		SessionStartTime:   time.Date(2019, time.April, 18, 12, 2, 10, 0, time.UTC),
		Institution:        "Northwestern University",
		Subject:            &Subject{ID: "95.259", Sex: "M", Species: "Mus musculus"},
	}
	behavior := &BehaviorModule{Description: "Operant behavioral data from MedPC.\nBox = 1\nMSN = RR20_Left"}
	behavior.AddEvents("left_nose_poke_times", "Left nose poke times", []float64{11.35, 23.6})
	behavior.AddIntervals(
		"reward_port_intervals",
		"Interval of time spent in reward port (1 is entry, -1 is exit)",
		[]float64{10.5, 11.75},
		[]int8{1, -1},
	)
	doc.Behavior = behavior
	doc.Photometry = &PhotometryModule{
		TankFolder: "Photo_95_259-190418-121034",
		Signals: []Signal{{
			Name:       "dms_signal",
			Unit:       "V",
			SampleRate: 1017.25,
			Channels:   [][]float64{{1.5, 2.5}},
		}},
	}
	return doc
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session"+Extension)
	want := sampleDocument()

	if err := Write(path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if !got.SessionStartTime.Equal(want.SessionStartTime) {
		t.Fatalf("start time = %v, want %v", got.SessionStartTime, want.SessionStartTime)
	}
	got.SessionStartTime = want.SessionStartTime
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestWriteDeterministic(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a"+Extension)
	second := filepath.Join(dir, "b"+Extension)

	if err := Write(first, sampleDocument()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(second, sampleDocument()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("identical documents serialized to different bytes")
	}
}

func TestNewDocumentIdentifiers(t *testing.T) {
	start := time.Date(2019, time.April, 18, 12, 2, 10, 0, time.UTC)
	a := NewDocument("s1", "desc", start)
	b := NewDocument("s1", "desc", start)

	if a.Identifier == "" || a.Identifier == b.Identifier {
		t.Fatalf("identifiers not unique: %q vs %q", a.Identifier, b.Identifier)
	}
	if a.SessionID != "s1" || !a.SessionStartTime.Equal(start) {
		t.Fatalf("document fields = %+v", a)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage"+Extension)
	if err := os.WriteFile(path, []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("garbage decoded")
	}
}
