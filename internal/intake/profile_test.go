package intake

import (
	"reflect"
	"testing"
)

func TestNormalizeShape(t *testing.T) {
	got := Normalize(Profile{FieldAge: 21})

	for _, key := range AllKeys() {
		if _, ok := got[key]; !ok {
			t.Fatalf("normalized profile missing key %q", key)
		}
	}
	if got[FieldAge] != 21 {
		t.Fatalf("age = %v, want 21", got[FieldAge])
	}
	if got[FieldFullName] != nil {
		t.Fatalf("full_name = %v, want nil", got[FieldFullName])
	}
}

func TestNormalizeSeedsIdentity(t *testing.T) {
	got := Normalize(Profile{
		FieldFullName: "Amina Khan",
		FieldEmail:    "amina@example.com",
		FieldPhone:    "+15551234567",
	})

	completed := CompletedSet(got)
	for _, key := range []string{FieldFullName, FieldEmail, FieldPhone} {
		if _, ok := completed[key]; !ok {
			t.Fatalf("completed_fields missing seeded %q: %v", key, got[KeyCompletedFields])
		}
	}
}

func TestNormalizeCoercesCompletedFields(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"string list", []string{"age", "age", "email"}, []string{"age", "email"}},
		{"any list with junk", []any{"age", 42, "  "}, []string{"age"}},
		{"lone string", "age", []string{"age"}},
		{"non list", map[string]any{"age": true}, []string{}},
		{"nil", nil, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(Profile{KeyCompletedFields: tc.in})
			if !reflect.DeepEqual(got[KeyCompletedFields], tc.want) {
				t.Fatalf("completed_fields = %v, want %v", got[KeyCompletedFields], tc.want)
			}
		})
	}
}

func TestIsEmptyValue(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, true},
		{"blank string", "   ", true},
		{"empty list", []any{}, true},
		{"empty map", map[string]any{}, true},
		{"zero int", 0, false},
		{"value", "Bachelor's", false},
		{"populated list", []any{"USA"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsEmptyValue(tc.in); got != tc.want {
				t.Fatalf("IsEmptyValue(%#v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSplitIncomplete(t *testing.T) {
	p := Profile{
		FieldFullName:      "Amina",
		KeyCompletedFields: []string{FieldAge},
	}
	got := SplitIncomplete(p)

	for _, key := range got {
		if key == FieldFullName || key == FieldAge {
			t.Fatalf("incomplete list contains satisfied field %q: %v", key, got)
		}
	}
	if got[0] != FieldAcademicLevel {
		t.Fatalf("first incomplete = %q, want %q", got[0], FieldAcademicLevel)
	}
}
