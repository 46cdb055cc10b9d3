package convert

import (
	"context"
	"sort"

	"tether/internal/align"
	"tether/internal/behavior"
	"tether/internal/discovery"
	"tether/internal/logging"
	"tether/internal/nwb"
	"tether/internal/photometry"
	"tether/internal/services"
)

// addPhotometry reads the session's tank folder, attaches its signal
// streams and TTL events to the bundle, and re-bases the session's
// behavioral timestamps onto the tank clock when the TTL pulses anchor a
// usable mapping. Dwell durations are lengths, not timestamps, and are
// never re-based.
func (p *Pipeline) addPhotometry(ctx context.Context, doc *nwb.Document, src *discovery.Source, session *behavior.Session) error {
	tank, err := photometry.ReadTank(src.TankPath)
	if err != nil {
		return services.Wrap(services.ErrDataFormat, stageName, "photometry", "read tank folder", err)
	}
	if src.SecondTankPath != "" {
		second, err := photometry.ReadTank(src.SecondTankPath)
		if err != nil {
			return services.Wrap(services.ErrDataFormat, stageName, "photometry", "read continuation tank folder", err)
		}
		if err := tank.Stitch(second); err != nil {
			return services.Wrap(services.ErrDataFormat, stageName, "photometry", "stitch continuation tank", err)
		}
	}
	if src.TankStopAt > 0 {
		tank.Truncate(src.TankStopAt)
	}

	module := &nwb.PhotometryModule{TankFolder: src.TankPath}
	for _, sel := range p.signalSelection(src) {
		stream, ok := tank.Stream(sel.store)
		if !ok {
			p.logger.Warn("configured photometry store missing from tank",
				logging.String("store", sel.store),
				logging.String("tank", src.TankPath))
			continue
		}
		module.Signals = append(module.Signals, nwb.Signal{
			Name:        sel.name,
			Description: sel.description,
			Unit:        "volts",
			SampleRate:  stream.SampleRate,
			StartOffset: stream.StartOffset,
			Channels:    stream.Channels,
		})
	}

	leftStore, rightStore := p.cfg.Photometry.TTLLeftEpoc, p.cfg.Photometry.TTLRightEpoc
	if src.FlipTTLs {
		leftStore, rightStore = rightStore, leftStore
	}
	var leftTTLs, rightTTLs []float64
	if epoc, ok := tank.Epoc(leftStore); ok {
		leftTTLs = epoc.Onsets
		module.TTLs = append(module.TTLs, nwb.EventSeries{
			Name:        "ttl_left_nose_poke",
			Description: "Hardware TTL pulses recorded at left nose pokes, tank clock.",
			Timestamps:  epoc.Onsets,
		})
	}
	if epoc, ok := tank.Epoc(rightStore); ok {
		rightTTLs = epoc.Onsets
		module.TTLs = append(module.TTLs, nwb.EventSeries{
			Name:        "ttl_right_nose_poke",
			Description: "Hardware TTL pulses recorded at right nose pokes, tank clock.",
			Timestamps:  epoc.Onsets,
		})
	}
	doc.Photometry = module

	mapping := p.buildMapping(ctx, src, session, leftTTLs, rightTTLs)
	if mapping != nil {
		alignSession(session, mapping)
	}
	return nil
}

type signalSelection struct {
	store       string
	name        string
	description string
}

func (p *Pipeline) signalSelection(src *discovery.Source) []signalSelection {
	ph := p.cfg.Photometry
	if src.RawDetectorOnly {
		return []signalSelection{
			{ph.RawDetectorAlias, "raw_detector", "Raw photodetector voltages; this rig did not record demodulated signals."},
		}
	}
	return []signalSelection{
		{ph.DMSIsosbestic, "dms_isosbestic", "Demodulated isosbestic control signal, dorsomedial striatum fiber."},
		{ph.DMSSignal, "dms_signal", "Demodulated calcium-dependent signal, dorsomedial striatum fiber."},
		{ph.DLSIsosbestic, "dls_isosbestic", "Demodulated isosbestic control signal, dorsolateral striatum fiber."},
		{ph.DLSSignal, "dls_signal", "Demodulated calcium-dependent signal, dorsolateral striatum fiber."},
		{ph.CommandedStream, "commanded_voltage", "LED command voltages driving the excitation channels."},
	}
}

// buildMapping pairs the box-clock nose-poke times with the tank-clock TTL
// onsets they triggered. A side contributes anchors only when the box and
// the tank agree on how many pokes happened; a side that disagrees is a
// recording fault and is left out rather than guessed at.
func (p *Pipeline) buildMapping(ctx context.Context, src *discovery.Source, session *behavior.Session, leftTTLs, rightTTLs []float64) *align.Mapping {
	type pair struct{ session, tank float64 }
	var pairs []pair

	addSide := func(side string, pokes, ttls []float64) {
		if len(ttls) == 0 {
			return
		}
		if len(pokes) != len(ttls) {
			p.logger.WarnContext(ctx, "nose poke and TTL counts disagree, side excluded from alignment",
				logging.String("side", side),
				logging.String("subject", src.Subject),
				logging.Int("pokes", len(pokes)),
				logging.Int("ttls", len(ttls)))
			return
		}
		for i := range pokes {
			pairs = append(pairs, pair{pokes[i], ttls[i]})
		}
	}
	addSide("left", session.Array(behavior.FieldLeftNosePokeTimes), leftTTLs)
	addSide("right", session.Array(behavior.FieldRightNosePokeTimes), rightTTLs)

	if len(pairs) < align.MinPairs {
		p.logger.WarnContext(ctx, "no usable TTL anchors, behavioral timestamps stay on the box clock",
			logging.String("subject", src.Subject),
			logging.String("tank", src.TankPath))
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].session < pairs[j].session })

	sessionPulses := make([]float64, len(pairs))
	tankPulses := make([]float64, len(pairs))
	for i, pr := range pairs {
		sessionPulses[i] = pr.session
		tankPulses[i] = pr.tank
	}
	mapping, err := align.NewMapping(sessionPulses, tankPulses)
	if err != nil {
		p.logger.WarnContext(ctx, "TTL anchors rejected, behavioral timestamps stay on the box clock",
			logging.String("subject", src.Subject),
			logging.Error(err))
		return nil
	}
	first, last := mapping.Span()
	p.logger.DebugContext(ctx, "cross-clock alignment anchored",
		logging.String("subject", src.Subject),
		logging.Int("anchors", len(pairs)),
		logging.Float64("first_pulse", first),
		logging.Float64("last_pulse", last))
	return mapping
}

// alignSession substitutes tank-clock timestamps for every box-clock event
// array of the session.
func alignSession(session *behavior.Session, mapping *align.Mapping) {
	aligned := make(map[string][]float64, len(session.Arrays))
	for name, array := range session.Arrays {
		if name == behavior.FieldPortEntryDuration {
			aligned[name] = array
			continue
		}
		aligned[name] = mapping.Apply(array)
	}
	session.Arrays = aligned
}
