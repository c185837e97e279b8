package intake

import "testing"

func TestQuestionIDRoundTrip(t *testing.T) {
	for _, f := range BasicOrder {
		id := QuestionID(f.Key)
		if got := FieldForQuestionID(id); got != f.Key {
			t.Fatalf("FieldForQuestionID(%q) = %q, want %q", id, got, f.Key)
		}
	}
}

func TestFieldForQuestionIDRejectsUnknown(t *testing.T) {
	for _, id := range []string{"", "ask_", "ask_unknown", "full_name", "ask_budget_min", " ask_age "} {
		got := FieldForQuestionID(id)
		switch id {
		case " ask_age ":
			if got != FieldAge {
				t.Fatalf("FieldForQuestionID(%q) = %q, want age", id, got)
			}
		default:
			if got != "" {
				t.Fatalf("FieldForQuestionID(%q) = %q, want empty", id, got)
			}
		}
	}
}

func TestAllKeysCoversPromptedAndUnprompted(t *testing.T) {
	keys := AllKeys()
	seen := map[string]struct{}{}
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = struct{}{}
	}
	for _, want := range []string{FieldFullName, FieldInstitution, FieldBudgetMax, FieldCareerGoals} {
		if _, ok := seen[want]; !ok {
			t.Fatalf("AllKeys missing %q", want)
		}
	}
	if keys[0] != BasicOrder[0].Key {
		t.Fatalf("prompted keys must come first, got %q", keys[0])
	}
}

func TestQuickRepliesForReturnsCopy(t *testing.T) {
	a := QuickRepliesFor(FieldTargetLevel)
	if len(a) == 0 {
		t.Fatal("target_level should have canned replies")
	}
	a[0] = "mutated"
	b := QuickRepliesFor(FieldTargetLevel)
	if b[0] == "mutated" {
		t.Fatal("QuickRepliesFor must return a fresh slice")
	}
	if QuickRepliesFor(FieldFullName) != nil {
		t.Fatal("full_name has no canned replies")
	}
}
