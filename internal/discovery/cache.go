package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"tether/internal/behavior"
	"tether/internal/fileutil"
	"tether/internal/medpc"
)

// NoDurationSessions returns the keys of sessions that never recorded
// port-entry durations, so their port activity converts as entry events
// instead of intervals. Answering requires reading a duration array out of
// every log, so the result is cached at path as a YAML list of session
// keys; pass refresh to rebuild from the logs.
func NoDurationSessions(path string, sources []*Source, registry *behavior.Registry, refresh bool) (map[string]bool, error) {
	if !refresh {
		cached, err := readDurationCache(path)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	missing := make(map[string]bool)
	for _, src := range sources {
		has, err := hasPortEntryDurations(src, registry)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", src.Key(), err)
		}
		if !has {
			missing[src.Key()] = true
		}
	}
	if err := writeDurationCache(path, missing); err != nil {
		return nil, err
	}
	return missing, nil
}

// MarkMissingDurations flags each source whose key is in the missing set.
func MarkMissingDurations(sources []*Source, missing map[string]bool) {
	for _, src := range sources {
		if missing[src.Key()] {
			src.NoDurations = true
		}
	}
}

func readDurationCache(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keys []string
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parse duration cache %s: %w", path, err)
	}
	missing := make(map[string]bool, len(keys))
	for _, key := range keys {
		missing[key] = true
	}
	return missing, nil
}

func writeDurationCache(path string, missing map[string]bool) error {
	keys := make([]string, 0, len(missing))
	for key := range missing {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	data, err := yaml.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode duration cache: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write duration cache %s: %w", path, err)
	}
	return nil
}

// hasPortEntryDurations reads just the duration array for one session,
// retrying with the registry's fallback letter the same way the full
// session reader does.
func hasPortEntryDurations(src *Source, registry *behavior.Registry) (bool, error) {
	if src.IsCSV() {
		session, err := behavior.ReadCSV(src.BehaviorPath, registry)
		if err != nil {
			return false, err
		}
		return session.HasPortEntryDurations(), nil
	}

	fields, err := registry.FieldMap(src.MSN)
	if err != nil {
		return false, err
	}
	name := registry.DurationField()
	letterMap, ok := arrayLetterMap(fields, name)
	if !ok {
		return false, nil
	}
	record, err := medpc.ReadSession(src.BehaviorPath, src.Conditions, src.StartVariable, letterMap)
	if err != nil {
		var mismatch *medpc.TypeMismatchError
		if !errors.As(err, &mismatch) || mismatch.Field != name {
			return false, err
		}
		fallback, ok := registry.FallbackFieldMap(src.MSN)
		if !ok {
			return false, err
		}
		letterMap, ok = arrayLetterMap(fallback, name)
		if !ok {
			return false, err
		}
		record, err = medpc.ReadSession(src.BehaviorPath, src.Conditions, src.StartVariable, letterMap)
		if err != nil {
			return false, err
		}
	}
	durations, _ := record.Events(name)
	return len(durations) > 0, nil
}
