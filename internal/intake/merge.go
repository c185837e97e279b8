package intake

import (
	"reflect"
	"strings"
	"time"
)

// Merge folds an extraction result into a profile as a sparse overlay:
// nothing previously accepted is ever discarded, and keys absent from the
// result (or nil) are left untouched. completed_fields only ever grows.
func Merge(p Profile, r Result) Profile {
	return MergeAt(p, r, time.Now().UTC())
}

func MergeAt(p Profile, r Result, now time.Time) Profile {
	merged := make(Profile, len(p)+2)
	for k, v := range p {
		merged[k] = v
	}

	completed := coerceCompleted(merged[KeyCompletedFields])

	for key, value := range r {
		if value == nil {
			continue
		}
		if key == KeyCompletedFields {
			// Extractor-marked completions (declined english tests) carry no
			// value; only recognized field keys may enter the set.
			for k := range coerceCompleted(value) {
				if IsFieldKey(k) {
					completed[k] = struct{}{}
				}
			}
			continue
		}
		switch {
		case key == FieldEnglishTests:
			merged[key] = mergeTestRecords(asList(merged[key]), asList(value))
		case isList(value):
			merged[key] = appendUnique(asList(merged[key]), asList(value))
		case isObject(value):
			merged[key] = overlayObject(merged[key], value.(map[string]any))
		default:
			merged[key] = value
		}

		if key == FieldEnglishTests {
			if tests, ok := merged[key].([]any); ok && len(tests) > 0 {
				completed[key] = struct{}{}
			}
		} else {
			completed[key] = struct{}{}
		}
	}

	merged[KeyCompletedFields] = sortedKeys(completed)
	merged[KeyLastUpdated] = now.Format(time.RFC3339)
	return merged
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []string, []map[string]any:
		return true
	default:
		return false
	}
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// asList widens the list shapes extractors and JSON round-trips produce into
// a single []any form.
func asList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, 0, len(t))
		for _, s := range t {
			out = append(out, s)
		}
		return out
	case []map[string]any:
		out := make([]any, 0, len(t))
		for _, m := range t {
			out = append(out, m)
		}
		return out
	default:
		return nil
	}
}

// appendUnique keeps existing order and appends only elements not already
// present by value equality.
func appendUnique(existing, incoming []any) []any {
	out := make([]any, len(existing))
	copy(out, existing)
	for _, candidate := range incoming {
		found := false
		for _, have := range out {
			if reflect.DeepEqual(have, candidate) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, candidate)
		}
	}
	return out
}

// mergeTestRecords de-duplicates English test records by test name; a repeat
// mention overlays its non-nil sub-keys onto the record already held.
func mergeTestRecords(existing, incoming []any) []any {
	out := make([]any, len(existing))
	copy(out, existing)

	indexOf := func(name string) int {
		for i, item := range out {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if have, _ := rec["test_name"].(string); strings.EqualFold(have, name) {
				return i
			}
		}
		return -1
	}

	for _, item := range incoming {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := rec["test_name"].(string)
		if name == "" {
			out = append(out, rec)
			continue
		}
		if i := indexOf(name); i >= 0 {
			out[i] = overlayObject(out[i], rec).(map[string]any)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// overlayObject shallow-merges patch over base; new sub-keys win, nil patch
// values are skipped so they cannot erase prior data.
func overlayObject(base any, patch map[string]any) any {
	merged := map[string]any{}
	if existing, ok := base.(map[string]any); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range patch {
		if v == nil {
			continue
		}
		merged[k] = v
	}
	return merged
}
