package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadStudyDefaults(t *testing.T) {
	study, err := LoadStudy("")
	if err != nil {
		t.Fatalf("LoadStudy: %v", err)
	}
	if study.Institution != "Northwestern University" || study.Lab != "Lerner" {
		t.Errorf("provenance = %q / %q", study.Institution, study.Lab)
	}
	if len(study.Experimenter) == 0 {
		t.Error("no experimenters in embedded defaults")
	}
	if study.Subject.Species != "Mus musculus" {
		t.Errorf("species = %q", study.Subject.Species)
	}

	params, err := study.Stimulus("DMS-Excitatory")
	if err != nil {
		t.Fatalf("Stimulus: %v", err)
	}
	if params.Frequency != 20 || params.PulseWidth != 0.005 {
		t.Errorf("DMS-Excitatory params = %+v", params)
	}

	if _, err := study.Stimulus("RR20"); err == nil {
		t.Error("stimulus parameters invented for a non-optogenetic group")
	}
}

func TestLoadStudyOverlayDeepMerges(t *testing.T) {
	overlay := `
institution: Test University
optogenetics:
  experimental_group_to_metadata:
    DMS-Excitatory:
      power: 0.002
`
	path := filepath.Join(t.TempDir(), "study.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	study, err := LoadStudy(path)
	if err != nil {
		t.Fatalf("LoadStudy: %v", err)
	}
	if study.Institution != "Test University" {
		t.Errorf("overlay scalar ignored: %q", study.Institution)
	}
	if study.Lab != "Lerner" {
		t.Errorf("untouched scalar lost: %q", study.Lab)
	}

	params, err := study.Stimulus("DMS-Excitatory")
	if err != nil {
		t.Fatalf("Stimulus: %v", err)
	}
	if params.Power != 0.002 {
		t.Errorf("overlaid power = %v", params.Power)
	}
	if params.Frequency != 20 || params.InjectionLocation == "" {
		t.Errorf("sibling fields lost in merge: %+v", params)
	}
	if _, err := study.Stimulus("DLS-Excitatory"); err != nil {
		t.Errorf("unrelated group lost in merge: %v", err)
	}
}

func TestStimulusRejectsIncompleteParameters(t *testing.T) {
	overlay := `
optogenetics:
  experimental_group_to_metadata:
    DMS-Partial:
      power: 0.002
`
	path := filepath.Join(t.TempDir(), "study.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	study, err := LoadStudy(path)
	if err != nil {
		t.Fatalf("LoadStudy: %v", err)
	}
	if _, err := study.Stimulus("DMS-Partial"); err == nil || !strings.Contains(err.Error(), "incomplete") {
		t.Fatalf("expected incomplete-parameters error, got %v", err)
	}
}

func TestStimulusNotesFor(t *testing.T) {
	cases := []struct {
		treatment string
		want      string
	}{
		{"ChR2", "Excitatory stimulation on rewarded nosepokes"},
		{"NpHR", "Inhibitory stimulation on rewarded nosepokes"},
		{"ChR2Scrambled", "Excitatory stimulation on random nosepokes"},
		{"NpHRScrambled", "Inhibitory stimulation on random nosepokes"},
		{"EYFP", "Control"},
		{"Unknown", ""},
		{"", ""},
	}
	for _, tc := range cases {
		got, err := StimulusNotesFor(tc.treatment)
		if err != nil {
			t.Errorf("StimulusNotesFor(%q): %v", tc.treatment, err)
			continue
		}
		if got != tc.want {
			t.Errorf("StimulusNotesFor(%q) = %q, want %q", tc.treatment, got, tc.want)
		}
	}
	if _, err := StimulusNotesFor("Banana"); err == nil {
		t.Error("unrecognized treatment accepted")
	}
}

func TestSiteLocation(t *testing.T) {
	params := Stimulus{InjectionLocation: "medial SNc", StimulationLocation: "DMS"}
	want := "Injection location: medial SNc \n Stimulation location: DMS"
	if got := params.SiteLocation(); got != want {
		t.Fatalf("SiteLocation = %q", got)
	}
}
