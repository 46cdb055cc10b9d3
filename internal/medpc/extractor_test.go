package medpc

import (
	"errors"
	"reflect"
	"testing"
)

func demoFields() FieldMap {
	return FieldMap{
		"Start Date": {Name: "start_date", Type: FieldDate},
		"Start Time": {Name: "start_time", Type: FieldTime},
		"Subject":    {Name: "subject", Type: FieldString},
		"MSN":        {Name: "MSN", Type: FieldString},
		"A":          {Name: "left_nose_poke_times", Type: FieldArray},
		"G":          {Name: "port_entry_times", Type: FieldArray},
		"Z":          {Name: "stimulation_times", Type: FieldArray},
	}
}

func TestExtractRecordScalarsAndArrays(t *testing.T) {
	block := []string{
		"Start Date: 04/18/19",
		"Subject: 95.259",
		"MSN: RR20_Left",
		"A:",
		"     0:      175.150      270.750      762.050      762.900     1042.600",
		"     5:     1567.800     1774.950",
		"G:",
		"     0:       28.250       87.900",
	}

	raw, err := extractRecord(block, demoFields(), 0)
	if err != nil {
		t.Fatalf("extractRecord returned error: %v", err)
	}
	if got := raw["subject"].text; got != "95.259" {
		t.Fatalf("unexpected subject: %q", got)
	}
	if got := raw["start_date"].text; got != "04/18/19" {
		t.Fatalf("unexpected start date: %q", got)
	}
	pokes := raw["left_nose_poke_times"]
	if !pokes.isArray {
		t.Fatal("expected left_nose_poke_times to be an array")
	}
	want := []string{"175.150", "270.750", "762.050", "762.900", "1042.600", "1567.800", "1774.950"}
	if !reflect.DeepEqual(pokes.tokens, want) {
		t.Fatalf("unexpected poke tokens: %v", pokes.tokens)
	}
	if got := raw["port_entry_times"].tokens; !reflect.DeepEqual(got, []string{"28.250", "87.900"}) {
		t.Fatalf("unexpected port entry tokens: %v", got)
	}
}

func TestExtractRecordSkipsUnknownLabels(t *testing.T) {
	block := []string{
		"Start Date: 04/18/19",
		"Experiment: FOOD",
		"Q:",
		"     0:        1.000        2.000",
		"G:",
		"     0:       28.250",
	}

	raw, err := extractRecord(block, demoFields(), 0)
	if err != nil {
		t.Fatalf("extractRecord returned error: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected only requested fields, got %v", raw)
	}
	if got := raw["port_entry_times"].tokens; !reflect.DeepEqual(got, []string{"28.250"}) {
		t.Fatalf("unknown array bled into a requested one: %v", got)
	}
}

func TestExtractRecordTruncatesTabGarbage(t *testing.T) {
	block := []string{
		"G:",
		"     0:       12.500\tGARBAGE       13.000",
	}

	raw, err := extractRecord(block, demoFields(), 0)
	if err != nil {
		t.Fatalf("extractRecord returned error: %v", err)
	}
	if got := raw["port_entry_times"].tokens; !reflect.DeepEqual(got, []string{"12.500", "13.000"}) {
		t.Fatalf("unexpected tokens: %v", got)
	}
}

func TestExtractRecordSkipsCommentLines(t *testing.T) {
	block := []string{
		`\ This is an annotation from the box`,
		"Subject: 95.259",
	}

	raw, err := extractRecord(block, demoFields(), 0)
	if err != nil {
		t.Fatalf("extractRecord returned error: %v", err)
	}
	if got := raw["subject"].text; got != "95.259" {
		t.Fatalf("unexpected subject: %q", got)
	}
}

func TestExtractRecordEmptyArrayHeader(t *testing.T) {
	block := []string{
		"Z:",
		"Subject: 95.259",
	}

	raw, err := extractRecord(block, demoFields(), 0)
	if err != nil {
		t.Fatalf("extractRecord returned error: %v", err)
	}
	stim := raw["stimulation_times"]
	if stim.isArray || stim.text != "" {
		t.Fatalf("expected empty scalar placeholder for headerless array, got %+v", stim)
	}
}

func TestExtractRecordMissingColonFails(t *testing.T) {
	block := []string{
		"Subject: 95.259",
		"this line has no separator",
	}

	_, err := extractRecord(block, demoFields(), 10)
	if !errors.Is(err, ErrMalformedLog) {
		t.Fatalf("expected ErrMalformedLog, got %v", err)
	}
	var malformed *MalformedLogError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedLogError, got %T", err)
	}
	if malformed.Line != 12 {
		t.Fatalf("expected file line 12, got %d", malformed.Line)
	}
}

func TestExtractRecordScalarDeclaredButArrayObserved(t *testing.T) {
	block := []string{
		"Subject:",
		"     0:        1.000        2.000",
	}

	_, err := extractRecord(block, demoFields(), 0)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *TypeMismatchError, got %T", err)
	}
	if mismatch.Field != "subject" {
		t.Fatalf("expected offending field %q, got %q", "subject", mismatch.Field)
	}
}
