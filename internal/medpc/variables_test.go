package medpc

import (
	"reflect"
	"testing"
)

func TestScanVariablesCollectsAcrossSessions(t *testing.T) {
	values := ScanVariablesLines(twoSessionLines(), []string{"Start Date", "Start Time", "Subject"})

	if got := values["Start Date"]; !reflect.DeepEqual(got, []string{"04/17/19", "04/18/19"}) {
		t.Fatalf("unexpected start dates: %v", got)
	}
	if got := values["Start Time"]; !reflect.DeepEqual(got, []string{"10:05:06", "10:41:42"}) {
		t.Fatalf("unexpected start times: %v", got)
	}
	if got := values["Subject"]; !reflect.DeepEqual(got, []string{"95.259", "95.259"}) {
		t.Fatalf("unexpected subjects: %v", got)
	}
}

func TestScanVariablesUnseenNameIsEmpty(t *testing.T) {
	values := ScanVariablesLines(twoSessionLines(), []string{"Experiment"})

	got, ok := values["Experiment"]
	if !ok {
		t.Fatal("requested name missing from result")
	}
	if len(got) != 0 {
		t.Fatalf("expected no values, got %v", got)
	}
}

func TestScanVariablesFromFile(t *testing.T) {
	path := writeLogFile(t, twoSessionContent())

	values, err := ScanVariables(path, []string{"MSN"})
	if err != nil {
		t.Fatalf("ScanVariables returned error: %v", err)
	}
	if got := values["MSN"]; !reflect.DeepEqual(got, []string{"RR20_Left", "RR20_Left"}) {
		t.Fatalf("unexpected MSNs: %v", got)
	}
}
