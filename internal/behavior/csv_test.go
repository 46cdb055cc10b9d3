package behavior

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeSpreadsheet(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadCSVFullMetadata(t *testing.T) {
	content := strings.Join([]string{
		"Start Date,End Date,Start Time,End Time,MSN,Experiment,Subject,Box,portEntryTs,DurationOfPE,LeftNoseTs,RightNoseTs,RightRewardTs,LeftRewardTs",
		"04/18/19,04/18/19,12:02:10,13:02:10,RR20_Left,FP,95.259,1,10.5,1.25,11.35,45.0,180.9,10.5",
		",,,,,,,,52.25,0.8,23.6,,,",
		",,,,,,,,180.9,0,101.25,,,",
	}, "\n")
	path := writeSpreadsheet(t, "95.259_04-18-19.csv", content)

	session, err := ReadCSV(path, mustRegistry(t))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if session.Subject != "95.259" || session.Box != "1" || session.Experiment != "FP" {
		t.Errorf("metadata = %q/%q/%q", session.Subject, session.Box, session.Experiment)
	}
	if session.MSN != "RR20_Left" || session.Stage != "RR20" {
		t.Errorf("program = %q stage %q", session.MSN, session.Stage)
	}
	if want := time.Date(2019, time.April, 18, 0, 0, 0, 0, time.UTC); !session.StartDate.Equal(want) {
		t.Errorf("StartDate = %v", session.StartDate)
	}
	if want := 12*time.Hour + 2*time.Minute + 10*time.Second; session.StartTime != want {
		t.Errorf("StartTime = %v", session.StartTime)
	}
	if want := 13*time.Hour + 2*time.Minute + 10*time.Second; session.EndTime != want {
		t.Errorf("EndTime = %v", session.EndTime)
	}

	wantArrays := map[string][]float64{
		FieldPortEntryTimes:     {10.5, 52.25, 180.9},
		FieldPortEntryDuration:  {1.25, 0.8},
		FieldLeftNosePokeTimes:  {11.35, 23.6, 101.25},
		FieldRightNosePokeTimes: {45},
		FieldRightRewardTimes:   {180.9},
		FieldLeftRewardTimes:    {10.5},
	}
	for name, want := range wantArrays {
		if got := session.Array(name); !reflect.DeepEqual(got, want) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestReadCSVTrimsTrailingZeroPadding(t *testing.T) {
	content := strings.Join([]string{
		"Start Date,Subject,portEntryTs,DurationOfPE",
		"04/18/19,95.259,10.5,0",
		",,52.25,0",
	}, "\n")
	path := writeSpreadsheet(t, "95.259_04-18-19.csv", content)

	session, err := ReadCSV(path, mustRegistry(t))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got := session.Array(FieldPortEntryDuration); !reflect.DeepEqual(got, []float64{}) {
		t.Fatalf("all-zero durations should trim to empty, got %v", got)
	}
	if session.HasPortEntryDurations() {
		t.Fatal("HasPortEntryDurations = true after trimming")
	}
}

func TestReadCSVFilenameFallback(t *testing.T) {
	content := strings.Join([]string{
		"portEntryTs,DurationOfPE",
		"10.5,1.25",
		"52.25,0.8",
	}, "\n")
	path := writeSpreadsheet(t, "139.298_07-28-20.csv", content)

	session, err := ReadCSV(path, mustRegistry(t))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if session.Subject != "139.298" {
		t.Errorf("Subject = %q, want the filename prefix", session.Subject)
	}
	if want := time.Date(2020, time.July, 28, 0, 0, 0, 0, time.UTC); !session.StartDate.Equal(want) {
		t.Errorf("StartDate = %v, want the filename date", session.StartDate)
	}
	if session.StartTime != 0 {
		t.Errorf("StartTime = %v, want midnight placeholder", session.StartTime)
	}
	if session.MSN != UnknownValue || session.Box != UnknownValue {
		t.Errorf("MSN/Box = %q/%q, want %q", session.MSN, session.Box, UnknownValue)
	}
	if session.Stage != UnknownValue {
		t.Errorf("Stage = %q", session.Stage)
	}
}

func TestReadCSVOptoStimulationColumn(t *testing.T) {
	content := strings.Join([]string{
		"Start Date,Subject,Z",
		"04/18/19,95.259,101.5",
		",,230.25",
	}, "\n")
	path := writeSpreadsheet(t, "95.259_04-18-19.csv", content)

	session, err := ReadCSV(path, mustRegistry(t))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got := session.Array(FieldOptoStimTimes); !reflect.DeepEqual(got, []float64{101.5, 230.25}) {
		t.Fatalf("optogenetic_stimulation_times = %v", got)
	}
}

func TestReadCSVRejectsNonNumericCell(t *testing.T) {
	content := "portEntryTs\n10.5\noops\n"
	path := writeSpreadsheet(t, "95.259_04-18-19.csv", content)

	_, err := ReadCSV(path, mustRegistry(t))
	if err == nil {
		t.Fatal("non-numeric cell accepted")
	}
	if !strings.Contains(err.Error(), "portEntryTs") {
		t.Fatalf("error does not name the column: %v", err)
	}
}

func TestReadCSVRejectsUnparseableName(t *testing.T) {
	content := "portEntryTs\n10.5\n"
	path := writeSpreadsheet(t, "notes.csv", content)

	_, err := ReadCSV(path, mustRegistry(t))
	if err == nil {
		t.Fatal("expected an error for a file with no metadata and no filename convention")
	}
	if !strings.Contains(err.Error(), "notes.csv") {
		t.Fatalf("error does not name the file: %v", err)
	}
}
