package intake

import (
	"sort"
	"strings"
)

// Profile is the per-session applicant record, stored as a JSON object on the
// session row. After Normalize it always carries every schema key (possibly
// nil) plus a de-duplicated completed_fields list.
type Profile map[string]any

// Result is a partial field->value mapping produced by an extractor for one
// turn. Nil values never appear; absent means "not extracted". A
// completed_fields entry lists fields answered without a value, such as a
// declined english test.
type Result map[string]any

// Satisfies reports whether the result answers the named field: with a
// value, or by listing it under completed_fields.
func (r Result) Satisfies(key string) bool {
	if _, ok := r[key]; ok {
		return true
	}
	done, _ := r[KeyCompletedFields].([]any)
	for _, item := range done {
		if s, ok := item.(string); ok && s == key {
			return true
		}
	}
	return false
}

// Normalize returns a copy of p with every schema key present and
// completed_fields coerced to a sorted, de-duplicated list of strings.
// Identity fields supplied at session creation (name, email, phone) are
// seeded into completed_fields so they are never asked again.
func Normalize(p Profile) Profile {
	out := make(Profile, len(p)+4)
	for k, v := range p {
		out[k] = v
	}
	for _, key := range AllKeys() {
		if _, ok := out[key]; !ok {
			out[key] = nil
		}
	}

	completed := coerceCompleted(out[KeyCompletedFields])
	for _, seedKey := range []string{FieldFullName, FieldEmail, FieldPhone} {
		if !IsEmptyValue(out[seedKey]) {
			completed[seedKey] = struct{}{}
		}
	}
	out[KeyCompletedFields] = sortedKeys(completed)
	return out
}

// coerceCompleted folds whatever shape completed_fields arrived in (JSON
// round-trips produce []any, callers may pass []string or a lone string) into
// a set. Malformed input degrades to empty rather than failing the turn.
func coerceCompleted(raw any) map[string]struct{} {
	set := map[string]struct{}{}
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				set[s] = struct{}{}
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					set[s] = struct{}{}
				}
			}
		}
	case string:
		if s := strings.TrimSpace(v); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsEmptyValue reports whether a profile value counts as "not yet collected":
// nil, blank string, or an empty list/object.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// CompletedSet returns the profile's completed_fields as a set.
func CompletedSet(p Profile) map[string]struct{} {
	return coerceCompleted(p[KeyCompletedFields])
}

// SplitIncomplete lists the fields still worth asking about: not completed and
// currently empty. Used to keep the model prompt focused on what is missing.
func SplitIncomplete(p Profile) []string {
	normalized := Normalize(p)
	completed := CompletedSet(normalized)
	out := make([]string, 0, len(BasicOrder))
	for _, f := range BasicOrder {
		if _, done := completed[f.Key]; done {
			continue
		}
		if IsEmptyValue(normalized[f.Key]) {
			out = append(out, f.Key)
		}
	}
	return out
}
