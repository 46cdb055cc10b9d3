package convert

import (
	"sort"

	"tether/internal/behavior"
	"tether/internal/discovery"
	"tether/internal/logging"
	"tether/internal/metadata"
	"tether/internal/nwb"
	"tether/internal/services"
)

// addStimulus derives the optogenetic stimulation train for an opto
// session. Scrambled treatments record explicit stimulation times;
// otherwise stimulation was delivered on rewarded nose pokes, so the
// onsets are the merged reward times. Sessions with no onsets carry no
// stimulus module.
func (p *Pipeline) addStimulus(doc *nwb.Document, src *discovery.Source, session *behavior.Session) error {
	notes, err := metadata.StimulusNotesFor(src.Treatment)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "stimulus", "resolve treatment", err)
	}
	doc.StimulusNotes = notes
	if src.Treatment == "" || src.Treatment == behavior.UnknownValue {
		return nil
	}

	onsets := stimulusOnsets(session)
	if len(onsets) == 0 {
		p.logger.Warn("no optogenetic stimulation times found",
			logging.String("subject", src.Subject),
			logging.String("session", src.BaseName()))
		return nil
	}

	params, err := p.study.Stimulus(src.Group)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "stimulus", "look up group parameters", err)
	}

	timestamps, data := nwb.BuildStimulusTrain(onsets, params.Duration, params.Frequency, params.PulseWidth, params.Power)
	doc.Stimulus = &nwb.StimulusModule{
		Series: nwb.StimulusSeries{
			Name:        "optogenetic_series",
			Description: params.SeriesDescription,
			Timestamps:  timestamps,
			Data:        data,
		},
		Device:           nwb.PrizmatixLEDDual(),
		SiteDescription:  params.SiteDescription,
		SiteLocation:     params.SiteLocation(),
		ExcitationLambda: params.ExcitationLambda,
	}
	return nil
}

// stimulusOnsets returns the explicit scrambled-stimulation array when the
// session recorded one, otherwise the merged and sorted reward times.
func stimulusOnsets(session *behavior.Session) []float64 {
	if stim := session.Array(behavior.FieldOptoStimTimes); len(stim) > 0 {
		return stim
	}
	var onsets []float64
	onsets = append(onsets, session.Array(behavior.FieldLeftRewardTimes)...)
	onsets = append(onsets, session.Array(behavior.FieldRightRewardTimes)...)
	sort.Float64s(onsets)
	return onsets
}
