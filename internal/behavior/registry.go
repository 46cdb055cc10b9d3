package behavior

import (
	"errors"
	"fmt"
	"os"
	"sort"

	_ "embed"

	"gopkg.in/yaml.v3"

	"tether/internal/medpc"
)

// ErrUnknownProgram reports an MSN with no registry entry. Sessions recorded
// under unregistered programs cannot be read because the meaning of their
// array letters is unknown.
var ErrUnknownProgram = errors.New("unknown behavioral program")

//go:embed registry.yaml
var defaultRegistry []byte

// Program describes one behavioral program (MSN): its training stage and any
// array-letter assignments that differ from the registry defaults.
type Program struct {
	Name   string            `yaml:"name"`
	Stage  string            `yaml:"stage"`
	Arrays map[string]string `yaml:"arrays,omitempty"`
}

type registryFile struct {
	DefaultArrays    map[string]string `yaml:"default_arrays"`
	DurationFallback struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"duration_fallback"`
	Programs []Program `yaml:"programs"`
}

// Registry maps MSN names to training stages and array-letter field maps.
// The mapping is data, not code: a default ships embedded in the binary and
// dataset.registry_path substitutes a site-specific file.
type Registry struct {
	defaults     map[string]string
	fallbackFrom string
	fallbackTo   string
	programs     map[string]Program
}

// LoadRegistry reads a program registry from path, or the embedded default
// when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	data := defaultRegistry
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read program registry: %w", err)
		}
		data = fileData
	}
	return parseRegistry(data)
}

func parseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse program registry: %w", err)
	}
	if len(file.DefaultArrays) == 0 {
		return nil, errors.New("program registry: default_arrays is empty")
	}
	if len(file.Programs) == 0 {
		return nil, errors.New("program registry: no programs defined")
	}

	reg := &Registry{
		defaults:     file.DefaultArrays,
		fallbackFrom: file.DurationFallback.From,
		fallbackTo:   file.DurationFallback.To,
		programs:     make(map[string]Program, len(file.Programs)),
	}
	for _, program := range file.Programs {
		if program.Name == "" {
			return nil, errors.New("program registry: program with empty name")
		}
		if _, dup := reg.programs[program.Name]; dup {
			return nil, fmt.Errorf("program registry: duplicate program %q", program.Name)
		}
		reg.programs[program.Name] = program
	}
	if reg.fallbackFrom != "" {
		if _, ok := reg.defaults[reg.fallbackFrom]; !ok {
			return nil, fmt.Errorf("program registry: duration_fallback.from %q is not a default array", reg.fallbackFrom)
		}
		if reg.fallbackTo == "" {
			return nil, errors.New("program registry: duration_fallback.to is empty")
		}
	}
	return reg, nil
}

// Lookup returns the registry entry for msn.
func (r *Registry) Lookup(msn string) (Program, bool) {
	program, ok := r.programs[msn]
	return program, ok
}

// Stage returns the training stage recorded for msn, or UnknownValue when
// the program is not registered.
func (r *Registry) Stage(msn string) string {
	if program, ok := r.programs[msn]; ok && program.Stage != "" {
		return program.Stage
	}
	return UnknownValue
}

// ArrayFields returns the letter-to-name assignments for msn: the registry
// defaults overlaid with the program's own entries.
func (r *Registry) ArrayFields(msn string) (map[string]string, error) {
	program, ok := r.programs[msn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, msn)
	}
	merged := make(map[string]string, len(r.defaults)+len(program.Arrays))
	for letter, name := range r.defaults {
		merged[letter] = name
	}
	for letter, name := range program.Arrays {
		if name == "" {
			delete(merged, letter)
			continue
		}
		merged[letter] = name
	}
	return merged, nil
}

// FieldMap builds the full medpc field map for msn: the shared header fields
// plus the program's array letters.
func (r *Registry) FieldMap(msn string) (medpc.FieldMap, error) {
	arrays, err := r.ArrayFields(msn)
	if err != nil {
		return nil, err
	}
	fields := headerFieldMap()
	for letter, name := range arrays {
		fields[letter] = medpc.FieldSpec{Name: name, Type: medpc.FieldArray}
	}
	return fields, nil
}

// FallbackFieldMap builds the alternate field map used when the primary
// duration letter turns out to hold a scalar: the duration array moves to
// the fallback letter and the primary letter is dropped entirely. Returns
// false when msn is unregistered or no fallback is configured.
func (r *Registry) FallbackFieldMap(msn string) (medpc.FieldMap, bool) {
	if r.fallbackFrom == "" || r.fallbackTo == "" {
		return nil, false
	}
	arrays, err := r.ArrayFields(msn)
	if err != nil {
		return nil, false
	}
	name, ok := arrays[r.fallbackFrom]
	if !ok {
		return nil, false
	}
	fields := headerFieldMap()
	for letter, arrayName := range arrays {
		if letter == r.fallbackFrom {
			continue
		}
		fields[letter] = medpc.FieldSpec{Name: arrayName, Type: medpc.FieldArray}
	}
	fields[r.fallbackTo] = medpc.FieldSpec{Name: name, Type: medpc.FieldArray}
	return fields, true
}

// DurationField returns the semantic name the duration fallback applies to,
// or "" when no fallback is configured.
func (r *Registry) DurationField() string {
	if r.fallbackFrom == "" {
		return ""
	}
	return r.defaults[r.fallbackFrom]
}

// Programs lists the registered MSN names in sorted order.
func (r *Registry) Programs() []string {
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
