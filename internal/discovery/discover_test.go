package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tether/internal/behavior"
)

func mustRegistry(t *testing.T) *behavior.Registry {
	t.Helper()
	reg, err := behavior.LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	return reg
}

func mustOverrides(t *testing.T) *Overrides {
	t.Helper()
	ov, err := LoadOverrides("")
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	return ov
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, path := range paths {
		if err := os.MkdirAll(path, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
	}
}

func arrayLines(label string, values []float64) []string {
	lines := []string{label + ":"}
	for start := 0; start < len(values); start += 5 {
		row := fmt.Sprintf("%6d:", start)
		for _, v := range values[start:min(start+5, len(values))] {
			row += fmt.Sprintf("%13.3f", v)
		}
		lines = append(lines, row)
	}
	return lines
}

func sessionBlock(date, clock, subject, box, msn string, portEntries []float64) []string {
	lines := []string{
		"Start Date: " + date,
		"End Date: " + date,
		"Subject: " + subject,
		"Experiment: FP",
		"Group: RR20",
		"Box: " + box,
		"Start Time: " + clock,
		"End Time: 13:00:00",
		"MSN: " + msn,
	}
	lines = append(lines, arrayLines("G", portEntries)...)
	lines = append(lines, arrayLines("E", []float64{1.25, 0.8})...)
	return lines
}

func medpcLog(blocks ...[]string) string {
	joined := make([]string, len(blocks))
	for i, block := range blocks {
		joined[i] = strings.Join(block, "\n")
	}
	return strings.Join(joined, "\n\n") + "\n"
}

// buildDataset lays out a miniature dataset exercising both experiment
// arms: a per-subject log, by-date logs, spreadsheet exports both matched
// and unmatched, tank folders at both nesting depths, and the override
// tables for tank 139.298/190912.
func buildDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	fpBehavior := filepath.Join(root, "FP Experiments", "Behavior")
	fpPhotometry := filepath.Join(root, "FP Experiments", "Photometry")

	writeFixture(t, filepath.Join(fpBehavior, "MEDPC_RawFilesbyDate", "2019-09-15"), medpcLog(
		sessionBlock("09/15/19", "11:30:00", "139.298", "2", "RR20_Left", []float64{12.5, 30.25}),
		sessionBlock("09/15/19", "12:30:00", "77.111", "3", "RR20_Left", []float64{5}),
	))

	subjectDir := filepath.Join(fpBehavior, "RR20", "139.298")
	writeFixture(t, filepath.Join(subjectDir, "139.298"), medpcLog(
		sessionBlock("09/12/19", "09:50:34", "139.298", "1", "RR20_Left", []float64{10.5, 52.25}),
		sessionBlock("09/13/19", "10:00:00", "139.298", "1", "RR20_Left", []float64{20}),
		sessionBlock("09/14/19", "09:00:00", "139.298", "1", "Magazine Training 1 hr", []float64{1}),
	))
	writeFixture(t, filepath.Join(subjectDir, "139.298_09-15-19.csv"),
		"portEntryTs,DurationOfPE\n12.5,1.0\n30.25,0\n0,0\n")
	writeFixture(t, filepath.Join(subjectDir, "139.298_09-16-19.csv"),
		"portEntryTs,DurationOfPE\n99.9,2.0\n")
	writeFixture(t, filepath.Join(subjectDir, "139.298_dataForEachAnimal.csv"),
		"portEntryTs\n1.0\n")

	mkdirs(t,
		filepath.Join(fpBehavior, "DPR"),
		filepath.Join(fpBehavior, "PR"),
		filepath.Join(fpBehavior, "PS"),
		filepath.Join(fpPhotometry, "Delayed Punishment Resistant"),
		filepath.Join(fpPhotometry, "Punishment Resistant"),
		filepath.Join(fpPhotometry, "Punishment Sensitive"),
		filepath.Join(fpPhotometry, "RR20", "Early", "Photo_139_298-190912-095034"),
		filepath.Join(fpPhotometry, "RR20", "Early", "Photo_139_298-190912-103544"),
		filepath.Join(fpPhotometry, "RR20", "Late", "extra", "Photo_139_298-190915-110000"),
	)

	opto := filepath.Join(root, "Opto Experiments")
	mkdirs(t,
		filepath.Join(opto, "DLS Excitatory", "Scrambled"),
		filepath.Join(opto, "DMS Excitatory", "ChR2"),
		filepath.Join(opto, "DMS Excitatory", "EYFP"),
		filepath.Join(opto, "DMS Excitatory", "Scrambled"),
		filepath.Join(opto, "DMS Inhibitory", "Group 1", "EYFP"),
		filepath.Join(opto, "DMS Inhibitory", "Group 1", "Scrambled"),
		filepath.Join(opto, "DMS Inhibitory", "Group 2", "NpHr"),
		filepath.Join(opto, "DMS Inhibitory", "Group 2", "EYFP"),
		filepath.Join(opto, "DMS Inhibitory", "Group 2", "Scrambled"),
	)
	writeFixture(t, filepath.Join(opto, "DLS Excitatory", "ChR2", "139.298"), medpcLog(
		sessionBlock("07/28/20", "13:00:00", "139.298", "4", "RI 60 LEFT STIM", []float64{3}),
		sessionBlock("07/29/20", "10:00:00", "139.298", "4", "Extinction - 1 HR", []float64{3}),
	))
	writeFixture(t, filepath.Join(opto, "DLS Excitatory", "EYFP", "2021-10-25_10h44m_Subject 266.477"), medpcLog(
		sessionBlock("10/25/21", "10:44:00", "266.477", "5", "RI 60 LEFT STIM", []float64{7}),
	))
	writeFixture(t, filepath.Join(opto, "DMS Inhibitory", "Group 1", "Halo", "233", "2021-11-05_233"), medpcLog(
		sessionBlock("11/05/21", "09:30:00", "233", "6", "RI 60 RIGHT STIM", []float64{8}),
	))
	writeFixture(t, filepath.Join(opto, "DMS Inhibitory", "Group 1", "Halo", "233", "233_11-06-21.csv"),
		"portEntryTs,DurationOfPE\n4.5,0.5\n")
	writeFixture(t, filepath.Join(opto, "DLS Excitatory", "2020-07-30"), medpcLog(
		sessionBlock("07/30/20", "12:00:00", "300", "4", "RI 60 LEFT STIM", []float64{9}),
		sessionBlock("07/30/20", "14:00:00", "", "4", "RI 60 LEFT STIM", []float64{9}),
	))
	writeFixture(t, filepath.Join(opto, "DLS Excitatory", "aggregate.csv"), "portEntryTs\n1.0\n")

	return root
}

func discoverAll(t *testing.T, root string) []*Source {
	t.Helper()
	d := New(root, "Start Date", mustRegistry(t), mustOverrides(t), nil)
	sources, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return sources
}

func TestDiscoverEnumeratesBothArms(t *testing.T) {
	root := buildDataset(t)
	sources := discoverAll(t, root)

	if len(sources) != 9 {
		for _, src := range sources {
			t.Logf("source: %s", src.Key())
		}
		t.Fatalf("len(sources) = %d, want 9", len(sources))
	}

	subjectLog := filepath.Join(root, "FP Experiments", "Behavior", "RR20", "139.298", "139.298")
	rawLog := filepath.Join(root, "FP Experiments", "Behavior", "MEDPC_RawFilesbyDate", "2019-09-15")

	paired := sources[0]
	if paired.Experiment != ExperimentFP || paired.Group != "RR20" || paired.Subject != "139.298" {
		t.Errorf("paired source = %s/%s/%s", paired.Experiment, paired.Group, paired.Subject)
	}
	if paired.BehaviorPath != subjectLog || paired.MSN != "RR20_Left" {
		t.Errorf("paired behavior = %q msn %q", paired.BehaviorPath, paired.MSN)
	}
	wantTank := filepath.Join(root, "FP Experiments", "Photometry", "RR20", "Early", "Photo_139_298-190912-095034")
	if paired.TankPath != wantTank {
		t.Errorf("TankPath = %q, want %q", paired.TankPath, wantTank)
	}
	if !paired.RawDetectorOnly {
		t.Error("RawDetectorOnly not set from overrides")
	}
	if want := filepath.Join(filepath.Dir(wantTank), "Photo_139_298-190912-103544"); paired.SecondTankPath != want {
		t.Errorf("SecondTankPath = %q, want %q", paired.SecondTankPath, want)
	}
	if paired.TankStopAt != 2267.0 {
		t.Errorf("TankStopAt = %v", paired.TankStopAt)
	}
	if want := time.Date(2019, time.September, 12, 9, 50, 34, 0, time.UTC); !paired.Start.Equal(want) {
		t.Errorf("Start = %v", paired.Start)
	}
	wantKey := "behavior_file_path=" + subjectLog + "_Start Date=09/12/19_Start Time=09:50:34"
	if paired.Key() != wantKey {
		t.Errorf("Key = %q, want %q", paired.Key(), wantKey)
	}

	// The continuation half of the split recording never converts alone.
	for _, src := range sources {
		if strings.Contains(src.TankPath, "103544") {
			t.Errorf("continuation tank enumerated: %s", src.Key())
		}
	}

	matched := sources[1]
	if matched.BehaviorPath != rawLog {
		t.Errorf("matched export behavior = %q, want raw log", matched.BehaviorPath)
	}
	if matched.Conditions["Box"] != "2" || matched.Conditions["Start Time"] != "11:30:00" {
		t.Errorf("matched export conditions = %v", matched.Conditions)
	}
	if _, ok := matched.Conditions["Subject"]; ok {
		t.Errorf("matched export carries Subject condition: %v", matched.Conditions)
	}
	if want := filepath.Join(root, "FP Experiments", "Photometry", "RR20", "Late", "extra", "Photo_139_298-190915-110000"); matched.TankPath != want {
		t.Errorf("nested TankPath = %q", matched.TankPath)
	}
	if matched.RawDetectorOnly || matched.SecondTankPath != "" || matched.TankStopAt != 0 {
		t.Error("overrides leaked onto unlisted tank")
	}

	unpaired := sources[2]
	if unpaired.Conditions["Start Time"] != "10:00:00" || unpaired.HasPhotometry() {
		t.Errorf("unpaired source = %v tank %q", unpaired.Conditions, unpaired.TankPath)
	}

	export := sources[3]
	if !export.IsCSV() || export.MSN != behavior.UnknownValue {
		t.Errorf("export source = %q msn %q", export.BehaviorPath, export.MSN)
	}
	if export.Conditions["Start Time"] != "00:00:00" || export.Conditions["Subject"] != "139.298" {
		t.Errorf("export conditions = %v", export.Conditions)
	}
	if want := time.Date(2019, time.September, 16, 0, 0, 0, 0, time.UTC); !export.Start.Equal(want) {
		t.Errorf("export Start = %v", export.Start)
	}

	for i, src := range sources[:4] {
		if src.Treatment != "" {
			t.Errorf("fp source %d has treatment %q", i, src.Treatment)
		}
	}

	chr2 := sources[4]
	if chr2.Experiment != ExperimentOpto || chr2.Group != "DLS-Excitatory" || chr2.Treatment != "ChR2" {
		t.Errorf("chr2 source = %s/%s/%s", chr2.Experiment, chr2.Group, chr2.Treatment)
	}
	if chr2.Subject != "139.298" || chr2.Conditions["Start Date"] != "07/28/20" {
		t.Errorf("chr2 = %q %v", chr2.Subject, chr2.Conditions)
	}

	eyfp := sources[5]
	if eyfp.Subject != "266.477" || eyfp.Treatment != "EYFP" {
		t.Errorf("eyfp source = %q/%q", eyfp.Subject, eyfp.Treatment)
	}

	halo := sources[6]
	if halo.Subject != "233.469" || halo.Treatment != "NpHR" || halo.Group != "DMS-Inhibitory" {
		t.Errorf("halo source = %q/%q/%q", halo.Subject, halo.Treatment, halo.Group)
	}
	haloExport := sources[7]
	if !haloExport.IsCSV() || haloExport.Subject != "233.469" || haloExport.Conditions["Start Date"] != "11/06/21" {
		t.Errorf("halo export = %q %v", haloExport.BehaviorPath, haloExport.Conditions)
	}

	byDate := sources[8]
	if byDate.Subject != "300.405" || byDate.Treatment != behavior.UnknownValue {
		t.Errorf("by-date source = %q/%q", byDate.Subject, byDate.Treatment)
	}
	if byDate.Conditions["Subject"] != "300" || byDate.Conditions["Box"] != "4" {
		t.Errorf("by-date conditions keep recorded values: %v", byDate.Conditions)
	}
}

func TestDiscoverSkipsListedPrograms(t *testing.T) {
	root := buildDataset(t)
	for _, src := range discoverAll(t, root) {
		if src.MSN == "Magazine Training 1 hr" || src.MSN == "Extinction - 1 HR" {
			t.Errorf("skip-listed program enumerated: %s", src.Key())
		}
		if src.Conditions["Subject"] == "" {
			if _, ok := src.Conditions["Subject"]; ok {
				t.Errorf("session with blank subject enumerated: %s", src.Key())
			}
		}
	}
}

func TestDiscoverTankWithoutBehaviorFails(t *testing.T) {
	root := t.TempDir()
	fpBehavior := filepath.Join(root, "FP Experiments", "Behavior")
	mkdirs(t,
		filepath.Join(fpBehavior, "MEDPC_RawFilesbyDate"),
		filepath.Join(fpBehavior, "DPR"),
		filepath.Join(fpBehavior, "PR"),
		filepath.Join(fpBehavior, "PS"),
		filepath.Join(fpBehavior, "RR20"),
		filepath.Join(root, "FP Experiments", "Photometry", "Delayed Punishment Resistant"),
		filepath.Join(root, "FP Experiments", "Photometry", "Punishment Resistant"),
		filepath.Join(root, "FP Experiments", "Photometry", "Punishment Sensitive"),
		filepath.Join(root, "FP Experiments", "Photometry", "RR20", "Early", "Photo_50_100-190912-095034"),
	)

	d := New(root, "Start Date", mustRegistry(t), mustOverrides(t), nil)
	_, err := d.Discover(context.Background())
	if err == nil || !strings.Contains(err.Error(), "found 0") {
		t.Fatalf("Discover err = %v, want unmatched tank error", err)
	}
}

func TestDiscoverHonorsCancellation(t *testing.T) {
	root := buildDataset(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(root, "Start Date", mustRegistry(t), mustOverrides(t), nil)
	if _, err := d.Discover(ctx); err == nil {
		t.Fatal("Discover with cancelled context succeeded")
	}
}
