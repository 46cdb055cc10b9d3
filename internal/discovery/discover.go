package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tether/internal/behavior"
	"tether/internal/logging"
	"tether/internal/medpc"
)

// Fiber photometry groups and the folder names their recordings are filed
// under.
var fpGroups = []string{"DPR", "PR", "PS", "RR20"}

var fpGroupFolders = map[string]string{
	"DPR":  "Delayed Punishment Resistant",
	"PR":   "Punishment Resistant",
	"PS":   "Punishment Sensitive",
	"RR20": "RR20",
}

// Optogenetics groups with their treatment arms and subgroup folders. The
// inhibitory cohort ran in two waves whose NpHR sessions are filed under
// differently spelled folders.
var optoGroups = []string{"DLS-Excitatory", "DMS-Excitatory", "DMS-Inhibitory"}

var optoTreatments = map[string][]string{
	"DLS-Excitatory": {"ChR2", "EYFP", "ChR2Scrambled"},
	"DMS-Excitatory": {"ChR2", "EYFP", "ChR2Scrambled"},
	"DMS-Inhibitory": {"NpHR", "EYFP", "NpHRScrambled"},
}

var optoSubgroups = map[string][]string{
	"DLS-Excitatory": {""},
	"DMS-Excitatory": {""},
	"DMS-Inhibitory": {"Group 1", "Group 2"},
}

var nphrFolders = []string{"Halo", "NpHr"}

func optoTreatmentFolder(treatment string, subgroupIndex int) string {
	switch treatment {
	case "NpHR":
		return nphrFolders[subgroupIndex]
	case "ChR2Scrambled", "NpHRScrambled":
		return "Scrambled"
	default:
		return treatment
	}
}

// Discoverer walks a dataset tree and enumerates convertible sessions.
type Discoverer struct {
	root          string
	startVariable string
	registry      *behavior.Registry
	overrides     *Overrides
	logger        *slog.Logger
}

// New builds a Discoverer rooted at the dataset directory. startVariable is
// the header label marking session block starts, normally "Start Date".
func New(root, startVariable string, registry *behavior.Registry, overrides *Overrides, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Discoverer{
		root:          root,
		startVariable: startVariable,
		registry:      registry,
		overrides:     overrides,
		logger:        logging.NewComponentLogger(logger, "discovery"),
	}
}

// Discover walks both experiment arms and returns every session eligible
// for conversion, photometry-paired sessions first, deduplicated by session
// key. Subject skip-lists are not applied here; callers apply them after
// the duration cache is consulted, so cache contents cover the complete
// enumeration.
func (d *Discoverer) Discover(ctx context.Context) ([]*Source, error) {
	fp, err := d.discoverFP(ctx)
	if err != nil {
		return nil, err
	}
	opto, err := d.discoverOpto(ctx)
	if err != nil {
		return nil, err
	}
	sources := append(fp, opto...)
	d.logger.Info("dataset walk complete",
		logging.Int("fp_sessions", len(fp)),
		logging.Int("opto_sessions", len(opto)))
	return sources, nil
}

type sourceSet struct {
	seen    map[string]bool
	sources []*Source
}

func newSourceSet() *sourceSet {
	return &sourceSet{seen: make(map[string]bool)}
}

// add keeps the first source per session key. A session enumerated by both
// the photometry and behavior passes keeps its photometry pairing.
func (s *sourceSet) add(src *Source) {
	key := src.Key()
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.sources = append(s.sources, src)
}

func (d *Discoverer) discoverFP(ctx context.Context) ([]*Source, error) {
	behaviorRoot := filepath.Join(d.root, "FP Experiments", "Behavior")
	photometryRoot := filepath.Join(d.root, "FP Experiments", "Photometry")

	rawLogs, err := readRawLogs(filepath.Join(behaviorRoot, "MEDPC_RawFilesbyDate"))
	if err != nil {
		return nil, err
	}

	set := newSourceSet()

	// Photometry pass: every recording pairs with the behavior session
	// recorded the same day.
	for _, group := range fpGroups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		groupDir := filepath.Join(photometryRoot, fpGroupFolders[group])
		subgroups, err := os.ReadDir(groupDir)
		if err != nil {
			return nil, fmt.Errorf("read photometry group: %w", err)
		}
		for _, subgroup := range subgroups {
			if !subgroup.IsDir() {
				continue
			}
			tanks, err := tankFolders(filepath.Join(groupDir, subgroup.Name()))
			if err != nil {
				return nil, err
			}
			for _, tankPath := range tanks {
				src, err := d.fpTankSource(group, subgroup.Name(), tankPath, behaviorRoot, rawLogs)
				if err != nil {
					return nil, err
				}
				if src != nil {
					set.add(src)
				}
			}
		}
	}

	// Behavior pass: sessions with no recording still convert, without
	// photometry.
	for _, group := range fpGroups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		groupDir := filepath.Join(behaviorRoot, group)
		entries, err := os.ReadDir(groupDir)
		if err != nil {
			return nil, fmt.Errorf("read behavior group: %w", err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			subjectID := entry.Name()
			cands, err := d.fpCandidates(filepath.Join(groupDir, subjectID), subjectID, rawLogs)
			if err != nil {
				return nil, err
			}
			for _, cand := range cands {
				if d.overrides.SkipSession(cand.date, cand.clock, subjectID, cand.msn) {
					continue
				}
				src, err := d.newSource(ExperimentFP, group, "", d.overrides.Alias(subjectID), cand)
				if err != nil {
					return nil, err
				}
				set.add(src)
			}
		}
	}
	return set.sources, nil
}

// tankFolders lists the tank folders under a subgroup directory. Recordings
// sit either directly in the subgroup or one folder further down.
func tankFolders(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read photometry subgroup: %w", err)
	}
	var tanks []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "Photo") {
			tanks = append(tanks, filepath.Join(dir, name))
			continue
		}
		if !entry.IsDir() {
			continue
		}
		nested, err := os.ReadDir(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read photometry subgroup: %w", err)
		}
		for _, sub := range nested {
			if strings.HasPrefix(sub.Name(), "Photo") {
				tanks = append(tanks, filepath.Join(dir, name, sub.Name()))
			}
		}
	}
	return tanks, nil
}

// fpTankSource pairs one photometry recording with the behavior session
// recorded the same day. Exactly one candidate may match; zero or several
// mean the layout changed underneath us and the overrides need a new entry.
func (d *Discoverer) fpTankSource(group, subgroup, tankPath, behaviorRoot string, rawLogs []rawFile) (*Source, error) {
	folder := filepath.Base(tankPath)
	subjectID, date, err := parseTankFolder(folder)
	if err != nil {
		return nil, err
	}
	if d.overrides.IsContinuationTank(folder) || d.overrides.SkipTank(subjectID, date, subgroup) {
		d.logger.Debug("photometry recording skipped", logging.String("folder", folder))
		return nil, nil
	}

	cands, err := d.fpCandidates(filepath.Join(behaviorRoot, group, subjectID), subjectID, rawLogs)
	if err != nil {
		return nil, err
	}
	var matches []candidate
	for _, cand := range cands {
		if cand.date != date || d.overrides.ExcludeFromTankMatch(subjectID, date, cand.msn) {
			continue
		}
		matches = append(matches, cand)
	}
	if len(matches) != 1 {
		return nil, fmt.Errorf("expected 1 behavior session for %s/%s on %s, found %d", group, subjectID, date, len(matches))
	}

	src, err := d.newSource(ExperimentFP, group, "", d.overrides.Alias(subjectID), matches[0])
	if err != nil {
		return nil, err
	}
	src.TankPath = tankPath
	src.RawDetectorOnly = d.overrides.RawDetectorOnly(folder)
	if second, ok := d.overrides.SecondTank(folder); ok {
		src.SecondTankPath = filepath.Join(filepath.Dir(tankPath), second)
	}
	if cutoff, ok := d.overrides.Truncation(folder); ok {
		src.TankStopAt = cutoff
	}
	src.FlipTTLs = d.overrides.FlipTTLs(subjectID, date)
	return src, nil
}

func (d *Discoverer) discoverOpto(ctx context.Context) ([]*Source, error) {
	optoRoot := filepath.Join(d.root, "Opto Experiments")
	set := newSourceSet()

	for _, group := range optoGroups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		groupDir := filepath.Join(optoRoot, strings.ReplaceAll(group, "-", " "))
		for i, subgroup := range optoSubgroups[group] {
			subgroupDir := groupDir
			if subgroup != "" {
				subgroupDir = filepath.Join(groupDir, subgroup)
			}
			for _, treatment := range optoTreatments[group] {
				treatmentDir := filepath.Join(subgroupDir, optoTreatmentFolder(treatment, i))
				entries, err := os.ReadDir(treatmentDir)
				if err != nil {
					return nil, fmt.Errorf("read treatment folder: %w", err)
				}
				for _, entry := range entries {
					name := entry.Name()
					if strings.HasPrefix(name, ".") || strings.EqualFold(filepath.Ext(name), ".csv") {
						continue
					}
					subjectID, err := optoSubjectID(name, entry.IsDir(), d.overrides)
					if err != nil {
						return nil, err
					}
					cands, err := optoCandidates(filepath.Join(treatmentDir, name), entry.IsDir())
					if err != nil {
						return nil, err
					}
					for _, cand := range cands {
						if d.overrides.SkipSession(cand.date, cand.clock, subjectID, cand.msn) {
							continue
						}
						src, err := d.newSource(ExperimentOpto, group, treatment, subjectID, cand)
						if err != nil {
							return nil, err
						}
						set.add(src)
					}
				}
			}
		}
	}

	// The DLS excitatory cohort also left loose by-date logs beside its
	// treatment folders. Their sessions carry subject and box headers but
	// no treatment assignment.
	rawLogs, err := readRawLogs(filepath.Join(optoRoot, "DLS Excitatory"))
	if err != nil {
		return nil, err
	}
	for _, raw := range rawLogs {
		for _, row := range raw.rows {
			if d.overrides.SkipSession(row.date, row.clock, row.subject, row.msn) {
				continue
			}
			cand := candidate{
				date:    row.date,
				clock:   row.clock,
				msn:     row.msn,
				path:    raw.path,
				subject: row.subject,
				box:     row.box,
			}
			src, err := d.newSource(ExperimentOpto, "DLS-Excitatory", behavior.UnknownValue, d.overrides.Alias(row.subject), cand)
			if err != nil {
				return nil, err
			}
			set.add(src)
		}
	}
	return set.sources, nil
}

// newSource builds the descriptor for one enumerated candidate. subjectID
// is the canonical id; the conditions keep whatever the log recorded so the
// session block can still be located.
func (d *Discoverer) newSource(experiment, group, treatment, subjectID string, cand candidate) (*Source, error) {
	day, err := behavior.ParseSessionDate(cand.date)
	if err != nil {
		return nil, fmt.Errorf("session in %s: %w", cand.path, err)
	}
	clock, err := behavior.ParseSessionClock(cand.clock)
	if err != nil {
		return nil, fmt.Errorf("session in %s: %w", cand.path, err)
	}
	conditions := medpc.Conditions{condStartDate: cand.date, condStartTime: cand.clock}
	if cand.subject != "" {
		conditions[condSubject] = cand.subject
	}
	if cand.box != "" {
		conditions[condBox] = cand.box
	}
	return &Source{
		Experiment:    experiment,
		Group:         group,
		Treatment:     treatment,
		Subject:       subjectID,
		MSN:           cand.msn,
		BehaviorPath:  cand.path,
		Conditions:    conditions,
		StartVariable: d.startVariable,
		Start:         day.Add(clock),
	}, nil
}
