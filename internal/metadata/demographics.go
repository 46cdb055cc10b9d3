package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// demographicsSheet is the workbook sheet the lab maintains subject rows
// in. The sheet name is part of the workbook's contract; the workbook path
// itself comes from configuration.
const demographicsSheet = "Mouse Demographics"

// Viral constructs inferred from a subject's experiment assignment.
const (
	VirusGCaMP = "AAV5-CAG-FLEX-jGCaMP7b-WPRE"
	VirusChR2  = "AAV5-EF1a-DIO-hChR2(H134R)-EYFP"
	VirusNpHR  = "AAV5-EF1a-DIO-eNpHR3.0-EYFP"
	VirusEYFP  = "AAV5-EF1a-DIO-EYFP"
)

// Subject is one demographics row. Sex is normalized to single-letter
// exchange codes: M, F, or U when the workbook does not know the subject.
type Subject struct {
	ID                string
	Sex               string
	Surgery           string
	Treatment         string
	Experiment        string
	HemisphereWithDMS string
	Behavior          string
	PunishmentGroup   string
}

// Virus infers the injected viral construct from the subject's experiment
// assignment. Control-treated subjects received the fluorophore-only
// construct regardless of experiment.
func (s *Subject) Virus() string {
	virus := ""
	switch s.Experiment {
	case "Fiber Photometry":
		virus = VirusGCaMP
	case "DLS-Excitatory", "DMS-Excitatory":
		virus = VirusChR2
	case "DMS-Inhibitory", "DMS-Inhibitory Group 2":
		virus = VirusNpHR
	}
	if s.Treatment == "Control" {
		virus = VirusEYFP
	}
	return virus
}

// Notes renders the free-text subject notes block. The workbook misspells
// "Resistant" in some punishment-group cells; the rendered notes correct
// it.
func (s *Subject) Notes() string {
	punishment := strings.ReplaceAll(s.PunishmentGroup, "Resitant", "Resistant")
	return fmt.Sprintf(
		"Hemisphere with DMS: %s\nExperiment: %s\nBehavior: %s\nPunishment Group: %s\n",
		s.HemisphereWithDMS, s.Experiment, s.Behavior, punishment,
	)
}

// Demographics is the loaded subject workbook, indexed by subject ID.
type Demographics struct {
	Path     string
	subjects map[string]*Subject
}

// LoadDemographics reads the subject sheet of the workbook at path. Rows
// without a subject ID are skipped.
func LoadDemographics(path string) (*Demographics, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open demographics workbook: %w", err)
	}
	defer book.Close()

	rows, err := book.GetRows(demographicsSheet)
	if err != nil {
		return nil, fmt.Errorf("demographics workbook %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("demographics workbook %s: sheet %q is empty", path, demographicsSheet)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.TrimSpace(header)] = i
	}
	if _, ok := columns["Mouse ID"]; !ok {
		return nil, fmt.Errorf("demographics workbook %s: sheet %q has no Mouse ID column", path, demographicsSheet)
	}

	cell := func(row []string, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	d := &Demographics{Path: path, subjects: make(map[string]*Subject, len(rows)-1)}
	for _, row := range rows[1:] {
		id := cell(row, "Mouse ID")
		if id == "" {
			continue
		}
		d.subjects[id] = &Subject{
			ID:                id,
			Sex:               normalizeSex(cell(row, "Sex")),
			Surgery:           cell(row, "Surgical Manipulation"),
			Treatment:         cell(row, "Treatment"),
			Experiment:        cell(row, "Experiment"),
			HemisphereWithDMS: cell(row, "Hemisphere with DMS"),
			Behavior:          cell(row, "Behavior"),
			PunishmentGroup:   cell(row, "Punishment Group"),
		}
	}
	return d, nil
}

// Lookup returns the demographics row for a subject.
func (d *Demographics) Lookup(id string) (*Subject, bool) {
	s, ok := d.subjects[id]
	return s, ok
}

// Unknown returns the placeholder profile used for subjects absent from
// the workbook: sex U, everything else empty. Callers log the gap.
func (d *Demographics) Unknown(id string) *Subject {
	return &Subject{ID: id, Sex: "U"}
}

// SubjectIDs lists the workbook's subjects in sorted order.
func (d *Demographics) SubjectIDs() []string {
	ids := make([]string, 0, len(d.subjects))
	for id := range d.subjects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeSex(raw string) string {
	switch raw {
	case "Male", "M":
		return "M"
	case "Female", "F":
		return "F"
	default:
		return "U"
	}
}
