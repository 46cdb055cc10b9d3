package medpc

// Conditions identifies one session among many concatenated in a file:
// every entry must hold, as an exact "label: value" line, within the same
// block. Key order is irrelevant. An empty map matches the first block that
// follows a start marker.
type Conditions map[string]string

// FieldType declares how a raw field's text is interpreted after
// extraction.
type FieldType int

const (
	FieldString FieldType = iota
	FieldDate
	FieldTime
	FieldArray
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldDate:
		return "date"
	case FieldTime:
		return "time"
	case FieldArray:
		return "array"
	default:
		return "unknown"
	}
}

// FieldSpec names a field in the output record and declares its type.
type FieldSpec struct {
	Name string
	Type FieldType
}

// FieldMap maps raw labels as they appear in the file (for example "G" or
// "Start Date") to output field specs. Labels present in the file but
// absent from the map are skipped silently; callers request only the fields
// their behavioral program recorded.
type FieldMap map[string]FieldSpec

// outputTypes indexes declared types by output name for the coercion pass.
// Two raw labels may share one output name (programs that record durations
// under U instead of E); they must agree on type.
func (m FieldMap) outputTypes() map[string]FieldType {
	types := make(map[string]FieldType, len(m))
	for _, spec := range m {
		types[spec.Name] = spec.Type
	}
	return types
}
