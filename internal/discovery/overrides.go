package discovery

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed overrides.yaml
var defaultOverrides []byte

// SessionMatch identifies one recorded session by its header values. An
// empty StartTime matches any clock time.
type SessionMatch struct {
	StartDate string `yaml:"start_date"`
	StartTime string `yaml:"start_time,omitempty"`
	Subject   string `yaml:"subject"`
	MSN       string `yaml:"msn"`
}

// TankMatch identifies a photometry recording by subject and date,
// optionally narrowed to the training subgroup folder it is filed under.
type TankMatch struct {
	Subject   string `yaml:"subject"`
	StartDate string `yaml:"start_date"`
	Subgroup  string `yaml:"subgroup,omitempty"`
}

// Overrides holds the dataset exception tables: skip-lists, subject id
// aliases, and per-recording corrections. Discovery consults these so the
// walkers stay free of one-off conditionals.
type Overrides struct {
	SubjectsToSkip       []string           `yaml:"subjects_to_skip"`
	MSNsToSkip           []string           `yaml:"msns_to_skip"`
	SessionsToSkip       []SessionMatch     `yaml:"sessions_to_skip"`
	SubjectAliases       map[string]string  `yaml:"subject_aliases"`
	TankMatchExclusions  []SessionMatch     `yaml:"tank_match_exclusions"`
	TanksToSkip          []TankMatch        `yaml:"tanks_to_skip"`
	RawDetectorOnlyTanks []string           `yaml:"raw_detector_only_tanks"`
	SecondTanks          map[string]string  `yaml:"second_tanks"`
	TankTruncations      map[string]float64 `yaml:"tank_truncations"`
	FlipTTLSessions      []TankMatch        `yaml:"flip_ttl_sessions"`

	subjectSkip  map[string]bool
	msnSkip      map[string]bool
	rawOnlyTanks map[string]bool
	stitchedInto map[string]bool
}

// LoadOverrides returns the embedded exception tables, with the file at path
// layered on top when path is non-empty. Each top-level section present in
// the file replaces the embedded section entirely.
func LoadOverrides(path string) (*Overrides, error) {
	var ov Overrides
	if err := yaml.Unmarshal(defaultOverrides, &ov); err != nil {
		return nil, fmt.Errorf("parse embedded overrides: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read overrides: %w", err)
		}
		if err := yaml.Unmarshal(data, &ov); err != nil {
			return nil, fmt.Errorf("parse overrides %s: %w", path, err)
		}
	}
	ov.index()
	return &ov, nil
}

func (o *Overrides) index() {
	o.subjectSkip = make(map[string]bool, len(o.SubjectsToSkip))
	for _, id := range o.SubjectsToSkip {
		o.subjectSkip[id] = true
	}
	o.msnSkip = make(map[string]bool, len(o.MSNsToSkip))
	for _, msn := range o.MSNsToSkip {
		o.msnSkip[msn] = true
	}
	o.rawOnlyTanks = make(map[string]bool, len(o.RawDetectorOnlyTanks))
	for _, folder := range o.RawDetectorOnlyTanks {
		o.rawOnlyTanks[folder] = true
	}
	o.stitchedInto = make(map[string]bool, len(o.SecondTanks))
	for _, second := range o.SecondTanks {
		o.stitchedInto[second] = true
	}
}

// SkipSubject reports whether every session of the subject is excluded.
func (o *Overrides) SkipSubject(id string) bool {
	return o.subjectSkip[id]
}

// WithoutSkippedSubjects returns sources minus those of skip-listed
// subjects. Applied after the duration cache so cache contents cover the
// complete enumeration.
func (o *Overrides) WithoutSkippedSubjects(sources []*Source) []*Source {
	kept := make([]*Source, 0, len(sources))
	for _, src := range sources {
		if o.SkipSubject(src.Subject) {
			continue
		}
		kept = append(kept, src)
	}
	return kept
}

// SkipSession reports whether one enumerated session is excluded: sessions
// with no recorded subject, sessions of skip-listed programs, and the
// individually listed sessions.
func (o *Overrides) SkipSession(startDate, startTime, subject, msn string) bool {
	if subject == "" {
		return true
	}
	if o.msnSkip[msn] {
		return true
	}
	for _, m := range o.SessionsToSkip {
		if m.StartDate == startDate && m.Subject == subject && m.MSN == msn &&
			(m.StartTime == "" || m.StartTime == startTime) {
			return true
		}
	}
	return false
}

// Alias maps a subject id as recorded on disk to its canonical form.
// Unlisted ids map to themselves.
func (o *Overrides) Alias(id string) string {
	if canonical, ok := o.SubjectAliases[id]; ok {
		return canonical
	}
	return id
}

// ExcludeFromTankMatch reports whether a behavior session must be ignored
// when pairing a photometry recording with the sessions of that day.
func (o *Overrides) ExcludeFromTankMatch(subject, startDate, msn string) bool {
	for _, m := range o.TankMatchExclusions {
		if m.Subject == subject && m.StartDate == startDate && m.MSN == msn {
			return true
		}
	}
	return false
}

// SkipTank reports whether the photometry recording for subject on startDate,
// filed under subgroup, is excluded. Entries without a subgroup match the
// recording wherever it is filed.
func (o *Overrides) SkipTank(subject, startDate, subgroup string) bool {
	for _, m := range o.TanksToSkip {
		if m.Subject == subject && m.StartDate == startDate &&
			(m.Subgroup == "" || m.Subgroup == subgroup) {
			return true
		}
	}
	return false
}

// RawDetectorOnly reports whether the named tank folder recorded only the
// raw detector stream.
func (o *Overrides) RawDetectorOnly(folder string) bool {
	return o.rawOnlyTanks[folder]
}

// SecondTank returns the continuation folder stitched onto the named tank
// folder, when the session was split by a rig restart.
func (o *Overrides) SecondTank(folder string) (string, bool) {
	second, ok := o.SecondTanks[folder]
	return second, ok
}

// IsContinuationTank reports whether the named folder is the second half of
// a split recording and must not convert on its own.
func (o *Overrides) IsContinuationTank(folder string) bool {
	return o.stitchedInto[folder]
}

// Truncation returns the cutoff, in seconds from block start, past which the
// named tank folder's samples are discarded.
func (o *Overrides) Truncation(folder string) (float64, bool) {
	t, ok := o.TankTruncations[folder]
	return t, ok
}

// FlipTTLs reports whether the session's left and right TTL stores were
// recorded swapped.
func (o *Overrides) FlipTTLs(subject, startDate string) bool {
	for _, m := range o.FlipTTLSessions {
		if m.Subject == subject && m.StartDate == startDate {
			return true
		}
	}
	return false
}
