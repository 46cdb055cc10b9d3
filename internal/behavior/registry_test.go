package behavior

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tether/internal/medpc"
)

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	return reg
}

func TestLoadRegistryEmbeddedDefault(t *testing.T) {
	reg := mustRegistry(t)

	if got := reg.Stage("RR20_Left"); got != "RR20" {
		t.Fatalf("Stage(RR20_Left) = %q", got)
	}
	if got := reg.Stage("RI 60 RIGHT STIM"); got != "RI60" {
		t.Fatalf("Stage(RI 60 RIGHT STIM) = %q", got)
	}
	if got := reg.Stage("never heard of it"); got != UnknownValue {
		t.Fatalf("unregistered MSN stage = %q", got)
	}
	if got := reg.DurationField(); got != FieldPortEntryDuration {
		t.Fatalf("DurationField = %q", got)
	}

	programs := reg.Programs()
	if len(programs) == 0 {
		t.Fatal("embedded registry lists no programs")
	}
	for i := 1; i < len(programs); i++ {
		if programs[i-1] > programs[i] {
			t.Fatalf("Programs not sorted: %q before %q", programs[i-1], programs[i])
		}
	}
	if _, ok := reg.Lookup("Probe Test Habit Training TTL"); !ok {
		t.Fatal("Probe Test Habit Training TTL missing from embedded registry")
	}
}

func TestFieldMapCombinesHeadersAndArrays(t *testing.T) {
	reg := mustRegistry(t)

	fields, err := reg.FieldMap("RR20_Left")
	if err != nil {
		t.Fatalf("FieldMap: %v", err)
	}
	if spec := fields["Start Date"]; spec.Name != "start_date" || spec.Type != medpc.FieldDate {
		t.Fatalf("Start Date spec = %+v", spec)
	}
	if spec := fields["MSN"]; spec.Name != "msn" || spec.Type != medpc.FieldString {
		t.Fatalf("MSN spec = %+v", spec)
	}
	if spec := fields["G"]; spec.Name != FieldPortEntryTimes || spec.Type != medpc.FieldArray {
		t.Fatalf("G spec = %+v", spec)
	}
	if spec := fields["Z"]; spec.Name != FieldOptoStimTimes || spec.Type != medpc.FieldArray {
		t.Fatalf("Z spec = %+v", spec)
	}
}

func TestFallbackFieldMapSubstitutesDurationLetter(t *testing.T) {
	reg := mustRegistry(t)

	fields, ok := reg.FallbackFieldMap("RR20_Left")
	if !ok {
		t.Fatal("FallbackFieldMap reported no fallback")
	}
	if _, present := fields["E"]; present {
		t.Fatal("primary duration letter still mapped after fallback")
	}
	spec, present := fields["U"]
	if !present {
		t.Fatal("fallback letter not mapped")
	}
	if spec.Name != FieldPortEntryDuration || spec.Type != medpc.FieldArray {
		t.Fatalf("fallback spec = %+v", spec)
	}
	if spec := fields["G"]; spec.Name != FieldPortEntryTimes {
		t.Fatalf("other arrays disturbed by fallback: G = %+v", spec)
	}
}

func TestLoadRegistryFromFile(t *testing.T) {
	content := `
default_arrays:
  G: port_entry_times
  A: left_nose_poke_times
programs:
  - name: Custom_Left
    stage: Custom
    arrays:
      A: ""
      Q: lever_press_times
`
	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	arrays, err := reg.ArrayFields("Custom_Left")
	if err != nil {
		t.Fatalf("ArrayFields: %v", err)
	}
	if _, present := arrays["A"]; present {
		t.Fatal("empty override did not remove the default letter")
	}
	if got := arrays["Q"]; got != "lever_press_times" {
		t.Fatalf("program-specific letter = %q", got)
	}
	if got := arrays["G"]; got != FieldPortEntryTimes {
		t.Fatalf("default letter lost in overlay: %q", got)
	}
	if _, ok := reg.FallbackFieldMap("Custom_Left"); ok {
		t.Fatal("fallback reported despite none configured")
	}
}

func TestArrayFieldsUnknownProgram(t *testing.T) {
	reg := mustRegistry(t)
	_, err := reg.ArrayFields("no such MSN")
	if !errors.Is(err, ErrUnknownProgram) {
		t.Fatalf("expected ErrUnknownProgram, got %v", err)
	}
}

func TestParseRegistryRejectsBadFiles(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no defaults",
			content: "programs:\n  - name: P\n    stage: S\n",
			wantErr: "default_arrays is empty",
		},
		{
			name:    "no programs",
			content: "default_arrays:\n  G: port_entry_times\n",
			wantErr: "no programs defined",
		},
		{
			name: "duplicate program",
			content: "default_arrays:\n  G: port_entry_times\n" +
				"programs:\n  - name: P\n    stage: S\n  - name: P\n    stage: T\n",
			wantErr: `duplicate program "P"`,
		},
		{
			name: "fallback from unmapped letter",
			content: "default_arrays:\n  G: port_entry_times\n" +
				"duration_fallback:\n  from: E\n  to: U\n" +
				"programs:\n  - name: P\n    stage: S\n",
			wantErr: "not a default array",
		},
		{
			name: "fallback without target",
			content: "default_arrays:\n  G: port_entry_times\n" +
				"duration_fallback:\n  from: G\n" +
				"programs:\n  - name: P\n    stage: S\n",
			wantErr: "duration_fallback.to is empty",
		},
	}
	for _, tc := range cases {
		_, err := parseRegistry([]byte(tc.content))
		if err == nil {
			t.Errorf("%s: parse accepted the file", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.wantErr)
		}
	}
}
