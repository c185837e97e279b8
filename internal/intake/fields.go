package intake

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EnglishTestRecord mirrors one entry of the english_tests list.
type EnglishTestRecord struct {
	TestName     *string  `json:"test_name"`
	OverallScore *float64 `json:"overall_score"`
	TestDate     *string  `json:"test_date"`
}

// FinancialInfo mirrors the compound financial field.
type FinancialInfo struct {
	FundingType *string `json:"funding_type"`
	BudgetRange *string `json:"budget_range"`
}

// Fields is the schema-shaped view of one extraction. Every field is
// optional; nil means "not extracted this turn".
type Fields struct {
	FullName           *string             `json:"full_name"`
	Age                *int                `json:"age"`
	Email              *string             `json:"email"`
	Phone              *string             `json:"phone"`
	AcademicLevel      *string             `json:"academic_level"`
	RecentGrades       *string             `json:"recent_grades"`
	Institution        *string             `json:"institution"`
	YearCompleted      *int                `json:"year_completed"`
	Major              *string             `json:"major"`
	FieldOfStudy       *string             `json:"field_of_study"`
	PreferredCountries []string            `json:"preferred_countries"`
	TargetLevel        *string             `json:"target_level"`
	EnglishTests       []EnglishTestRecord `json:"english_tests"`
	Financial          *FinancialInfo      `json:"financial"`
	BudgetMin          *int                `json:"budget_min"`
	BudgetMax          *int                `json:"budget_max"`
	CareerGoals        *string             `json:"career_goals"`
	CompletedFields    []string            `json:"completed_fields"`
}

// ParseFields validates a raw model object against the field schema. Unknown
// keys are dropped silently; a known key holding the wrong type fails the
// whole parse so the caller can retry or fall back.
func ParseFields(raw map[string]any) (*Fields, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil extraction object")
	}

	known := map[string]struct{}{KeyCompletedFields: {}}
	for _, k := range AllKeys() {
		known[k] = struct{}{}
	}

	filtered := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, ok := known[k]; ok {
			filtered[k] = v
		}
	}
	coerceLooseShapes(filtered)

	buf, err := json.Marshal(filtered)
	if err != nil {
		return nil, fmt.Errorf("re-encode extraction object: %w", err)
	}
	var out Fields
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, fmt.Errorf("extraction object does not match schema: %w", err)
	}
	return &out, nil
}

// coerceLooseShapes repairs shapes some models emit in place of plain values:
// contact fields wrapped as {"raw": ...} and numeric grades.
func coerceLooseShapes(m map[string]any) {
	for _, key := range []string{FieldEmail, FieldPhone} {
		if wrapped, ok := m[key].(map[string]any); ok {
			m[key] = wrapped["raw"]
		}
	}
	if v, ok := m[FieldRecentGrades].(float64); ok {
		m[FieldRecentGrades] = strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// Result flattens the non-nil fields into an extraction result with
// JSON-generic values, ready for the merge engine. A completed_fields entry
// survives with only recognized field keys: it is how the model marks a
// field answered by declination (english tests "not yet") without a value.
func (f *Fields) Result() Result {
	if f == nil {
		return Result{}
	}
	buf, err := json.Marshal(f)
	if err != nil {
		return Result{}
	}
	var generic map[string]any
	if err := json.Unmarshal(buf, &generic); err != nil {
		return Result{}
	}

	out := Result{}
	for k, v := range generic {
		if v == nil {
			continue
		}
		if k == KeyCompletedFields {
			if keys := knownFieldKeys(v); len(keys) > 0 {
				out[k] = keys
			}
			continue
		}
		out[k] = v
	}
	return out
}

func knownFieldKeys(raw any) []any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && IsFieldKey(s) {
			out = append(out, s)
		}
	}
	return out
}

// Has reports whether the named field carries a non-nil value.
func (f *Fields) Has(key string) bool {
	if f == nil {
		return false
	}
	_, ok := f.Result()[key]
	return ok
}
