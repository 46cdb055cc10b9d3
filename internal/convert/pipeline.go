package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"tether/internal/behavior"
	"tether/internal/config"
	"tether/internal/discovery"
	"tether/internal/fileutil"
	"tether/internal/logging"
	"tether/internal/medpc"
	"tether/internal/metadata"
	"tether/internal/nwb"
	"tether/internal/services"
	"tether/internal/textutil"
)

const stageName = "convert"

// behaviorSeries fixes the order event series are written into bundles.
// Append order is the serialized order, so this list is part of the
// bit-identical output guarantee.
var behaviorSeries = []struct {
	field       string
	description string
}{
	{behavior.FieldLeftNosePokeTimes, "Left nose poke onset times in seconds."},
	{behavior.FieldRightNosePokeTimes, "Right nose poke onset times in seconds."},
	{behavior.FieldLeftRewardTimes, "Left reward delivery times in seconds."},
	{behavior.FieldRightRewardTimes, "Right reward delivery times in seconds."},
	{behavior.FieldFootshockTimes, "Footshock delivery times in seconds."},
}

// Pipeline converts discovered sessions into exchange bundles. It holds
// only immutable lookup data, so one pipeline is shared by every worker.
type Pipeline struct {
	cfg          *config.Config
	registry     *behavior.Registry
	study        *metadata.Study
	demographics *metadata.Demographics
	logger       *slog.Logger
}

// New loads the program registry, study metadata, and demographics
// workbook named by the configuration and returns a ready pipeline. The
// demographics workbook is optional; without it every subject converts
// with unknown sex.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	registry, err := behavior.LoadRegistry(cfg.Dataset.RegistryPath)
	if err != nil {
		return nil, err
	}
	study, err := metadata.LoadStudy(cfg.Dataset.MetadataPath)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:      cfg,
		registry: registry,
		study:    study,
		logger:   logging.NewComponentLogger(logger, stageName),
	}
	if cfg.Dataset.DemographicsPath != "" {
		demographics, err := metadata.LoadDemographics(cfg.Dataset.DemographicsPath)
		if err != nil {
			return nil, err
		}
		p.demographics = demographics
	}
	return p, nil
}

// OutputPath returns where the session's bundle is written.
func (p *Pipeline) OutputPath(src *discovery.Source) string {
	return filepath.Join(p.cfg.Paths.OutputDir, textutil.SanitizeFileName(src.BaseName())+nwb.Extension)
}

// Convert builds and writes one session bundle, returning its path. A
// bundle that already exists is reported as a deliberate skip unless
// conversion.overwrite is set.
func (p *Pipeline) Convert(ctx context.Context, src *discovery.Source) (string, error) {
	outputPath := p.OutputPath(src)
	if fileutil.FileExists(outputPath) && !p.cfg.Conversion.Overwrite {
		return outputPath, services.Wrap(services.ErrSkipped, stageName, "write", "bundle already exists at "+outputPath, nil)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	session, err := p.readBehavior(src)
	if err != nil {
		return "", err
	}
	if !sessionHasEvents(session) {
		return "", services.Wrap(services.ErrSkipped, stageName, "behavior", "session recorded no events", nil)
	}

	doc := p.newDocument(src, session)
	p.addSubject(doc, src)

	if src.HasPhotometry() {
		if err := p.addPhotometry(ctx, doc, src, session); err != nil {
			return "", err
		}
	}

	p.addBehavior(doc, src, session)

	if src.Experiment == discovery.ExperimentOpto {
		if err := p.addStimulus(doc, src, session); err != nil {
			return "", err
		}
	}

	if err := nwb.Write(outputPath, doc); err != nil {
		return "", services.Wrap(services.ErrTransient, stageName, "write", "persist bundle", err)
	}
	p.logger.InfoContext(ctx, "session converted",
		logging.String("subject", src.Subject),
		logging.String("bundle", outputPath))
	return outputPath, nil
}

func (p *Pipeline) readBehavior(src *discovery.Source) (*behavior.Session, error) {
	if src.IsCSV() {
		session, err := behavior.ReadCSV(src.BehaviorPath, p.registry)
		if err != nil {
			return nil, services.Wrap(services.ErrDataFormat, stageName, "behavior", "read spreadsheet session", err)
		}
		if session.Subject == "" || session.Subject == behavior.UnknownValue {
			session.Subject = src.Subject
		}
		return session, nil
	}

	session, err := behavior.ReadMedPC(src.BehaviorPath, src.Conditions, src.StartVariable, src.MSN, p.registry)
	if err != nil {
		var notFound *medpc.SessionNotFoundError
		if errors.As(err, &notFound) {
			return nil, services.Wrap(services.ErrNotFound, stageName, "behavior", "locate session block", err)
		}
		return nil, services.Wrap(services.ErrDataFormat, stageName, "behavior", "read operant log", err)
	}
	return session, nil
}

func (p *Pipeline) newDocument(src *discovery.Source, session *behavior.Session) *nwb.Document {
	start := session.StartAt(p.cfg.Location())
	if start.IsZero() {
		start = src.Start
	}
	doc := nwb.NewDocument(src.BaseName(), p.study.SessionDescription, start)
	doc.ExperimentDescription = p.study.ExperimentDescription
	doc.Institution = p.study.Institution
	doc.Lab = p.study.Lab
	doc.Experimenter = p.study.Experimenter
	doc.Keywords = p.study.Keywords
	if session.Stage != "" && session.Stage != behavior.UnknownValue {
		doc.Notes = fmt.Sprintf("Training stage: %s (MSN %s)", session.Stage, session.MSN)
	}
	return doc
}

func (p *Pipeline) addSubject(doc *nwb.Document, src *discovery.Source) {
	subject := &metadata.Subject{ID: src.Subject, Sex: "U"}
	if p.demographics != nil {
		row, ok := p.demographics.Lookup(src.Subject)
		if !ok {
			row = p.demographics.Unknown(src.Subject)
			p.logger.Warn("subject missing from demographics workbook",
				logging.String("subject", src.Subject))
		}
		subject = row
	}
	doc.Subject = &nwb.Subject{
		ID:          subject.ID,
		Sex:         subject.Sex,
		Species:     p.study.Subject.Species,
		Description: p.study.Subject.Description,
		Age:         p.study.Subject.Age,
	}
	doc.Surgery = subject.Surgery
	doc.Virus = subject.Virus()
	if notes := subject.Notes(); notes != "" {
		if doc.Notes != "" {
			doc.Notes += "\n"
		}
		doc.Notes += notes
	}
}

func (p *Pipeline) addBehavior(doc *nwb.Document, src *discovery.Source, session *behavior.Session) {
	module := &nwb.BehaviorModule{
		Description: fmt.Sprintf("Operant behavior from program %s.", session.MSN),
	}

	entries := session.Array(behavior.FieldPortEntryTimes)
	durations := session.Array(behavior.FieldPortEntryDuration)
	if len(entries) > 0 {
		if session.HasPortEntryDurations() && !src.NoDurations {
			times, data := behavior.PortEntryIntervals(entries, durations)
			module.AddIntervals("reward_port_intervals",
				"Reward port entry (+1) and exit (-1) events derived from entry times and dwell durations.",
				times, data)
		} else {
			module.AddEvents("reward_port_entry_times",
				"Reward port entry times in seconds; dwell durations were not recorded.",
				entries)
		}
	}

	for _, series := range behaviorSeries {
		timestamps := session.Array(series.field)
		if len(timestamps) == 0 {
			continue
		}
		module.AddEvents(series.field, series.description, timestamps)
	}

	doc.Behavior = module
}

func sessionHasEvents(session *behavior.Session) bool {
	for _, array := range session.Arrays {
		if len(array) > 0 {
			return true
		}
	}
	return false
}
