package metadata

import (
	"errors"
	"fmt"
	"os"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed study.yaml
var defaultStudy []byte

// Stimulus holds the optogenetic pulse-train parameters and site
// annotations for one experimental group. Duration and PulseWidth are
// seconds, Frequency hertz, Power watts, ExcitationLambda nanometers.
type Stimulus struct {
	Duration            float64 `yaml:"duration"`
	Frequency           float64 `yaml:"frequency"`
	PulseWidth          float64 `yaml:"pulse_width"`
	Power               float64 `yaml:"power"`
	ExcitationLambda    float64 `yaml:"excitation_lambda"`
	InjectionLocation   string  `yaml:"injection_location"`
	StimulationLocation string  `yaml:"stimulation_location"`
	SiteDescription     string  `yaml:"site_description"`
	SeriesDescription   string  `yaml:"series_description"`
}

// StimulusTable maps experimental group names to stimulus parameters. Its
// unmarshaller merges field-by-field into existing entries so an overlay
// file can adjust one parameter of one group without restating the rest.
type StimulusTable map[string]Stimulus

func (t *StimulusTable) UnmarshalYAML(node *yaml.Node) error {
	if *t == nil {
		*t = make(StimulusTable)
	}
	var raw map[string]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}
	for group, groupNode := range raw {
		params := (*t)[group]
		if err := groupNode.Decode(&params); err != nil {
			return fmt.Errorf("group %s: %w", group, err)
		}
		(*t)[group] = params
	}
	return nil
}

// SubjectDefaults are the species-level subject fields shared by every
// session.
type SubjectDefaults struct {
	Species     string `yaml:"species"`
	Description string `yaml:"description"`
	Age         string `yaml:"age"`
}

// Optogenetics nests the per-group stimulus table.
type Optogenetics struct {
	Groups StimulusTable `yaml:"experimental_group_to_metadata"`
}

// Study is the editable experiment-wide metadata: provenance text and
// optogenetic stimulus parameters. A default ships embedded; a site file
// configured via dataset.metadata_path overlays it field by field.
type Study struct {
	SessionDescription    string          `yaml:"session_description"`
	ExperimentDescription string          `yaml:"experiment_description"`
	Institution           string          `yaml:"institution"`
	Lab                   string          `yaml:"lab"`
	Experimenter          []string        `yaml:"experimenter"`
	Keywords              []string        `yaml:"keywords"`
	Subject               SubjectDefaults `yaml:"subject"`
	Optogenetics          Optogenetics    `yaml:"optogenetics"`
}

// LoadStudy returns the embedded study metadata, overlaid with the file at
// path when one is configured. Fields absent from the overlay keep their
// defaults; list-valued fields (experimenter, keywords) replace wholesale.
func LoadStudy(path string) (*Study, error) {
	study := &Study{}
	if err := yaml.Unmarshal(defaultStudy, study); err != nil {
		return nil, fmt.Errorf("parse embedded study metadata: %w", err)
	}
	if path == "" {
		return study, nil
	}
	overlay, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read study metadata: %w", err)
	}
	if err := yaml.Unmarshal(overlay, study); err != nil {
		return nil, fmt.Errorf("parse study metadata %s: %w", path, err)
	}
	return study, nil
}

// Stimulus returns the pulse-train parameters for an experimental group.
func (s *Study) Stimulus(group string) (Stimulus, error) {
	params, ok := s.Optogenetics.Groups[group]
	if !ok {
		return Stimulus{}, fmt.Errorf("no optogenetic stimulus parameters for group %q", group)
	}
	if params.Duration <= 0 || params.Frequency <= 0 || params.PulseWidth <= 0 {
		return Stimulus{}, fmt.Errorf("incomplete stimulus parameters for group %q", group)
	}
	return params, nil
}

// SiteLocation renders the stimulus-site location annotation.
func (p Stimulus) SiteLocation() string {
	return fmt.Sprintf("Injection location: %s \n Stimulation location: %s", p.InjectionLocation, p.StimulationLocation)
}

// StimulusNotesFor returns the stimulus_notes annotation for an
// optogenetic treatment. Unknown-treatment sessions carry no annotation.
func StimulusNotesFor(treatment string) (string, error) {
	switch treatment {
	case "ChR2":
		return "Excitatory stimulation on rewarded nosepokes", nil
	case "NpHR":
		return "Inhibitory stimulation on rewarded nosepokes", nil
	case "ChR2Scrambled":
		return "Excitatory stimulation on random nosepokes", nil
	case "NpHRScrambled":
		return "Inhibitory stimulation on random nosepokes", nil
	case "EYFP":
		return "Control", nil
	case "Unknown", "":
		return "", nil
	default:
		return "", errors.New("optogenetic treatment must be one of ChR2, EYFP, ChR2Scrambled, NpHR, NpHRScrambled, or Unknown")
	}
}
