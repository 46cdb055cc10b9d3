package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"tether/internal/behavior"
	"tether/internal/medpc"
)

// midnightClock is the placeholder start time for spreadsheet-backed
// sessions, whose exports never recorded a clock.
const midnightClock = "00:00:00"

// candidate is one session enumerated from a log header scan, before it is
// matched, skip-checked, and promoted to a Source. subject and box are empty
// when the log does not record them.
type candidate struct {
	date    string
	clock   string
	msn     string
	path    string
	subject string
	box     string
}

// rawRow is one session's header values in a by-date log.
type rawRow struct {
	subject string
	date    string
	clock   string
	msn     string
	box     string
}

type rawFile struct {
	path string
	rows []rawRow
}

// readRawLogs scans every by-date log in dir for session headers. Files are
// visited in name order so enumeration is deterministic.
func readRawLogs(dir string) ([]rawFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read by-date logs: %w", err)
	}
	files := make([]rawFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		path := filepath.Join(dir, name)
		vars, err := medpc.ScanVariables(path, []string{condSubject, condStartDate, condStartTime, "MSN", condBox})
		if err != nil {
			return nil, err
		}
		n := min(len(vars[condSubject]), len(vars[condStartDate]), len(vars[condStartTime]), len(vars["MSN"]), len(vars[condBox]))
		rows := make([]rawRow, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, rawRow{
				subject: vars[condSubject][i],
				date:    vars[condStartDate][i],
				clock:   vars[condStartTime][i],
				msn:     vars["MSN"][i],
				box:     vars[condBox][i],
			})
		}
		files = append(files, rawFile{path: path, rows: rows})
	}
	return files, nil
}

// scanCandidates enumerates the sessions of one multi-session log that
// carries no per-session subject or box headers.
func scanCandidates(path string) ([]candidate, error) {
	vars, err := medpc.ScanVariables(path, []string{condStartDate, condStartTime, "MSN"})
	if err != nil {
		return nil, err
	}
	n := min(len(vars[condStartDate]), len(vars[condStartTime]), len(vars["MSN"]))
	cands := make([]candidate, 0, n)
	for i := 0; i < n; i++ {
		cands = append(cands, candidate{
			date:  vars[condStartDate][i],
			clock: vars[condStartTime][i],
			msn:   vars["MSN"][i],
			path:  path,
		})
	}
	return cands, nil
}

// fpCandidates enumerates every behavior session recorded for one fiber
// photometry subject: from the per-subject log when one exists, from the
// by-date logs otherwise, supplemented by spreadsheet exports for days
// neither kind of log covers.
func (d *Discoverer) fpCandidates(subjectDir, subjectID string, rawLogs []rawFile) ([]candidate, error) {
	var cands []candidate
	subjectLog := filepath.Join(subjectDir, subjectID)
	info, err := os.Stat(subjectLog)
	switch {
	case err == nil && !info.IsDir():
		cands, err = scanCandidates(subjectLog)
		if err != nil {
			return nil, err
		}
	case err == nil || errors.Is(err, fs.ErrNotExist):
		for _, raw := range rawLogs {
			for _, row := range raw.rows {
				if row.subject != subjectID {
					continue
				}
				cands = append(cands, candidate{
					date:    row.date,
					clock:   row.clock,
					msn:     row.msn,
					path:    raw.path,
					subject: subjectID,
				})
			}
		}
	default:
		return nil, fmt.Errorf("stat %s: %w", subjectLog, err)
	}

	known := make(map[string]bool, len(cands))
	for _, cand := range cands {
		known[cand.date] = true
	}
	csvDates, err := csvSessionDates(subjectDir)
	if err != nil {
		return nil, err
	}
	for _, csvDate := range csvDates {
		if known[csvDate] {
			continue
		}
		csvPath := filepath.Join(subjectDir, subjectID+"_"+strings.ReplaceAll(csvDate, "/", "-")+".csv")
		matched, found, err := d.matchCSVToRaw(csvPath, csvDate, rawLogs)
		if err != nil {
			return nil, err
		}
		if !found {
			matched = candidate{
				date:    csvDate,
				clock:   midnightClock,
				msn:     behavior.UnknownValue,
				path:    csvPath,
				subject: subjectID,
			}
		}
		cands = append(cands, matched)
	}
	return cands, nil
}

// matchCSVToRaw identifies the by-date log session a spreadsheet export came
// from. Exports record no clock time or box, so equality of the port-entry
// array is the only reliable join.
func (d *Discoverer) matchCSVToRaw(csvPath, csvDate string, rawLogs []rawFile) (candidate, bool, error) {
	session, err := behavior.ReadCSV(csvPath, d.registry)
	if err != nil {
		return candidate{}, false, err
	}
	want := session.Array(behavior.FieldPortEntryTimes)

	for _, raw := range rawLogs {
		for _, row := range raw.rows {
			if row.date != csvDate {
				continue
			}
			fields, err := d.registry.FieldMap(row.msn)
			if err != nil {
				continue
			}
			letterMap, ok := arrayLetterMap(fields, behavior.FieldPortEntryTimes)
			if !ok {
				continue
			}
			conditions := medpc.Conditions{condStartDate: row.date, condStartTime: row.clock, condBox: row.box}
			record, err := medpc.ReadSession(raw.path, conditions, d.startVariable, letterMap)
			if err != nil {
				return candidate{}, false, err
			}
			got, _ := record.Events(behavior.FieldPortEntryTimes)
			if floatsEqual(want, got) {
				return candidate{date: row.date, clock: row.clock, msn: row.msn, path: raw.path, box: row.box}, true, nil
			}
		}
	}
	return candidate{}, false, nil
}

// csvSessionDates lists the session dates of the per-session spreadsheet
// exports in a subject directory. Aggregate spreadsheets are ignored, and a
// subject recorded only in by-date logs may have no directory at all.
func csvSessionDates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read subject directory: %w", err)
	}
	var dates []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		if strings.Contains(name, "dataForEachAnimal") {
			continue
		}
		date, err := csvSessionDate(name)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, nil
}

func csvSessionDate(name string) (string, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.SplitN(stem, "_", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("spreadsheet name %q does not match {subject}_{date}.csv", name)
	}
	return strings.ReplaceAll(parts[1], "-", "/"), nil
}

// optoCandidates enumerates the sessions recorded for one optogenetics
// subject entry, which is either a single multi-session log or a directory
// of per-session logs and spreadsheet exports.
func optoCandidates(path string, isDir bool) ([]candidate, error) {
	if !isDir {
		return scanCandidates(path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read subject directory: %w", err)
	}
	var logs, sheets []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".csv") {
			sheets = append(sheets, name)
			continue
		}
		logs = append(logs, name)
	}
	var cands []candidate
	for _, name := range logs {
		fromLog, err := scanCandidates(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		cands = append(cands, fromLog...)
	}
	for _, name := range sheets {
		date, err := csvSessionDate(name)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate{
			date:  date,
			clock: midnightClock,
			msn:   behavior.UnknownValue,
			path:  filepath.Join(path, name),
		})
	}
	return cands, nil
}

var (
	canonicalSubjectID = regexp.MustCompile(`^[0-9]{2,3}\.[0-9]{3}`)
	datedDoubleID      = regexp.MustCompile(`^[1-2][0-9]{3}-[0-1][0-9]-[0-3][0-9]_[0-9]{2,3}_[0-9]{3}`)
	datedIDPatterns    = []*regexp.Regexp{
		regexp.MustCompile(`^[1-2][0-9]{3}-[0-1][0-9]-[0-3][0-9]_[0-9]{2,3}\.[0-9]{3}`),
		regexp.MustCompile(`^[1-2][0-9]{3}[0-1][0-9][0-3][0-9]_[0-9]{2,3}\.[0-9]{3}`),
		regexp.MustCompile(`^[1-2][0-9]{3}-[0-1][0-9]-[0-3][0-9]_[0-9]{2,3}`),
	}
	datedDoubleUnderscore = regexp.MustCompile(`^[1-2][0-9]{3}-[0-1][0-9]-[0-3][0-9]__`)
	datedDashID           = regexp.MustCompile(`^[1-2][0-9]{3}-[0-1][0-9]-[0-3][0-9]-`)
	bareNumericPatterns   = []*regexp.Regexp{
		regexp.MustCompile(`^[0-9]{3}_[0-9]{4}`),
		regexp.MustCompile(`^[0-9]{3}_[0-9]{2}_[0-9]{2}`),
	}
)

// optoSubjectID recovers the canonical subject id from an optogenetics
// entry name. The dataset filed subjects under a dozen naming conventions;
// each rule handles one observed form, in priority order.
func optoSubjectID(name string, isDir bool, ov *Overrides) (string, error) {
	var id string
	switch {
	case canonicalSubjectID.MatchString(name):
		// 139.298
		id = name
	case strings.Contains(name, "Subject"):
		// 2021-10-25_10h44m_Subject 266.477
		parts := strings.Split(name, " ")
		if len(parts) < 2 {
			return "", fmt.Errorf("no subject id in %q", name)
		}
		id = parts[1]
	case datedDoubleID.MatchString(name):
		// 2021-10-29_262_259.478
		parts := strings.Split(name, "_")
		id = parts[1] + "." + strings.Split(parts[2], " ")[0]
	case matchAny(datedIDPatterns, name):
		// 2021-10-25_266.477, 20211025_244.465, 2021-11-01_202
		id = strings.Split(name, "_")[1]
	case datedDoubleUnderscore.MatchString(name):
		// 2021-10-29__340.483
		id = strings.SplitN(name, "__", 2)[1]
	case datedDashID.MatchString(name):
		// 2021-11-01-313
		parts := strings.Split(name, "-")
		id = parts[len(parts)-1]
	case matchAny(bareNumericPatterns, name):
		// 344_1021 session files named {subject}_{date fragment}
		id = strings.Split(name, "_")[0]
	case isDir:
		// 139_298
		id = strings.ReplaceAll(name, "_", ".")
	default:
		return "", fmt.Errorf("no subject id in %q", name)
	}
	id = strings.TrimSuffix(id, ".txt")
	id = ov.Alias(id)
	if !canonicalSubjectID.MatchString(id) {
		return "", fmt.Errorf("subject id %q from %q does not match {nn}.{nnn}", id, name)
	}
	return id, nil
}

func matchAny(patterns []*regexp.Regexp, name string) bool {
	for _, p := range patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// parseTankFolder splits a tank folder name, Photo_{subject}-{yymmdd}-{hhmmss},
// into the recorded subject id and the session date as MM/DD/YY.
func parseTankFolder(name string) (subject, date string, err error) {
	trimmed, ok := strings.CutPrefix(name, "Photo_")
	if !ok {
		return "", "", fmt.Errorf("photometry folder %q does not match Photo_{subject}-{yymmdd}-{hhmmss}", name)
	}
	parts := strings.Split(trimmed, "-")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("photometry folder %q does not match Photo_{subject}-{yymmdd}-{hhmmss}", name)
	}
	day, err := time.Parse("060102", parts[1])
	if err != nil {
		return "", "", fmt.Errorf("photometry folder %q: %w", name, err)
	}
	return strings.ReplaceAll(parts[0], "_", "."), day.Format("01/02/06"), nil
}

// arrayLetterMap extracts the single-letter mapping for one output array
// from a program field map.
func arrayLetterMap(fields medpc.FieldMap, name string) (medpc.FieldMap, bool) {
	for letter, spec := range fields {
		if spec.Name == name && spec.Type == medpc.FieldArray {
			return medpc.FieldMap{letter: spec}, true
		}
	}
	return nil, false
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
