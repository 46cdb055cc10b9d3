package behavior

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tether/internal/medpc"
)

// csvColumnToField maps spreadsheet-export column headers to the semantic
// array names of Session.Arrays.
var csvColumnToField = map[string]string{
	"portEntryTs":   FieldPortEntryTimes,
	"DurationOfPE":  FieldPortEntryDuration,
	"LeftNoseTs":    FieldLeftNosePokeTimes,
	"RightNoseTs":   FieldRightNosePokeTimes,
	"RightRewardTs": FieldRightRewardTimes,
	"LeftRewardTs":  FieldLeftRewardTimes,
	"Z":             FieldOptoStimTimes,
}

// ReadCSV loads a spreadsheet-exported session. Event columns drop blank
// cells and trailing zero padding exactly as the MedPC reader does; missing
// metadata columns fall back to the filename convention
// {subject}_{MM-DD-YY}.csv with a midnight placeholder start time.
func ReadCSV(path string, reg *Registry) (*Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session spreadsheet: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read session spreadsheet %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read session spreadsheet %s: no header row", path)
	}

	header := rows[0]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	session := &Session{
		MSN:    UnknownValue,
		Box:    UnknownValue,
		Arrays: make(map[string][]float64),
	}

	for column, field := range csvColumnToField {
		idx, ok := columns[column]
		if !ok {
			continue
		}
		values, err := columnFloats(rows[1:], idx)
		if err != nil {
			return nil, fmt.Errorf("column %s of %s: %w", column, path, err)
		}
		session.Arrays[field] = medpc.TrimTrailingZeros(values)
	}

	meta := func(column string) (string, bool) {
		idx, ok := columns[column]
		if !ok || len(rows) < 2 || idx >= len(rows[1]) {
			return "", false
		}
		value := strings.TrimSpace(rows[1][idx])
		if value == "" {
			return "", false
		}
		return value, true
	}

	startDateText, haveDate := meta("Start Date")
	if !haveDate {
		subject, date, err := csvNameParts(path)
		if err != nil {
			return nil, err
		}
		session.Subject = subject
		startDateText = date
	}
	if v, ok := meta("Subject"); ok {
		session.Subject = v
	} else if session.Subject == "" {
		if subject, _, err := csvNameParts(path); err == nil {
			session.Subject = subject
		}
	}
	session.StartDate, err = ParseSessionDate(startDateText)
	if err != nil {
		return nil, err
	}

	if v, ok := meta("Start Time"); ok {
		session.StartTime, err = ParseSessionClock(v)
		if err != nil {
			return nil, err
		}
	}
	if v, ok := meta("End Date"); ok {
		if day, err := ParseSessionDate(v); err == nil {
			session.EndDate = day
		}
	}
	if v, ok := meta("End Time"); ok {
		if clock, err := ParseSessionClock(v); err == nil {
			session.EndTime = clock
		}
	}
	if v, ok := meta("MSN"); ok {
		session.MSN = v
	}
	if v, ok := meta("Box"); ok {
		session.Box = v
	}
	if v, ok := meta("Experiment"); ok {
		session.Experiment = v
	}
	session.Stage = reg.Stage(session.MSN)

	return session, nil
}

// columnFloats collects the non-blank cells of one column. Blank cells are
// skipped wherever they fall; the exports leave ragged columns when arrays
// have different lengths.
func columnFloats(rows [][]string, idx int) ([]float64, error) {
	var values []float64
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			continue
		}
		x, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric cell %q", cell)
		}
		values = append(values, x)
	}
	if values == nil {
		values = []float64{}
	}
	return values, nil
}

// csvNameParts splits a {subject}_{MM-DD-YY}.csv filename into its subject
// and slash-separated date.
func csvNameParts(path string) (subject, date string, err error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.SplitN(stem, "_", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("spreadsheet name %q does not match {subject}_{date}.csv", filepath.Base(path))
	}
	return parts[0], strings.ReplaceAll(parts[1], "-", "/"), nil
}
