package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/brightpath-labs/intake-backend/internal/intake"
	"github.com/brightpath-labs/intake-backend/internal/pkg/dbctx"
	"github.com/brightpath-labs/intake-backend/internal/repos"
	"github.com/brightpath-labs/intake-backend/internal/types"
)

type fakeStudentProfileRepo struct {
	repos.StudentProfileRepo
	upserts []map[string]interface{}
}

func (f *fakeStudentProfileRepo) UpsertFields(_ dbctx.Context, _ uuid.UUID, updates map[string]interface{}) error {
	f.upserts = append(f.upserts, updates)
	return nil
}

type fakeAcademicHistoryRepo struct {
	repos.AcademicHistoryRepo
	upserts []map[string]interface{}
}

func (f *fakeAcademicHistoryRepo) UpsertFields(_ dbctx.Context, _ uuid.UUID, updates map[string]interface{}) error {
	f.upserts = append(f.upserts, updates)
	return nil
}

type fakeEnglishTestRepo struct {
	repos.EnglishTestRepo
	names   []string
	updates []map[string]interface{}
}

func (f *fakeEnglishTestRepo) UpsertByName(_ dbctx.Context, _ uuid.UUID, testName string, updates map[string]interface{}) error {
	f.names = append(f.names, testName)
	f.updates = append(f.updates, updates)
	return nil
}

type fakeStudyPreferenceRepo struct {
	repos.StudyPreferenceRepo
	upserts []map[string]interface{}
}

func (f *fakeStudyPreferenceRepo) UpsertFields(_ dbctx.Context, _ uuid.UUID, updates map[string]interface{}) error {
	f.upserts = append(f.upserts, updates)
	return nil
}

type fakeAICallLogRepo struct {
	rows []*types.AICallLog
}

func (f *fakeAICallLogRepo) Create(_ dbctx.Context, row *types.AICallLog) (*types.AICallLog, error) {
	f.rows = append(f.rows, row)
	return row, nil
}

func newFakeChatService(t *testing.T) (*intakeChatService, *fakeStudentProfileRepo, *fakeAcademicHistoryRepo, *fakeEnglishTestRepo, *fakeStudyPreferenceRepo) {
	t.Helper()
	profiles := &fakeStudentProfileRepo{}
	academics := &fakeAcademicHistoryRepo{}
	tests := &fakeEnglishTestRepo{}
	prefs := &fakeStudyPreferenceRepo{}
	svc := &intakeChatService{
		profiles:    profiles,
		academics:   academics,
		tests:       tests,
		preferences: prefs,
		aiCalls:     &fakeAICallLogRepo{},
		log:         testLogger(t),
	}
	return svc, profiles, academics, tests, prefs
}

func TestPersistExtractedMirrorsTables(t *testing.T) {
	svc, profiles, academics, tests, prefs := newFakeChatService(t)
	sessionID := uuid.New()

	result := intake.Result{
		intake.FieldFullName:           "Amina Khan",
		intake.FieldAge:                float64(21),
		intake.FieldAcademicLevel:      "Bachelor's",
		intake.FieldInstitution:        "UMT",
		intake.FieldYearCompleted:      float64(2022),
		intake.FieldMajor:              "Artificial Intelligence",
		intake.FieldPreferredCountries: []any{"UK", "Canada"},
		intake.FieldEnglishTests: []any{
			map[string]any{"test_name": "IELTS", "overall_score": 7.5},
		},
		intake.FieldFinancial: map[string]any{
			"funding_type": "self-funded",
			"budget_range": "10k - 20k",
		},
		intake.FieldCareerGoals: "AI researcher",
	}
	if err := svc.persistExtracted(dbctx.Context{}, sessionID, result); err != nil {
		t.Fatalf("persistExtracted: %v", err)
	}

	if len(profiles.upserts) != 1 {
		t.Fatalf("profile upserts = %d", len(profiles.upserts))
	}
	identity := profiles.upserts[0]
	if identity["full_name"] != "Amina Khan" || identity["age"] != 21 {
		t.Fatalf("identity = %v", identity)
	}

	acad := academics.upserts[0]
	if acad["level"] != "Bachelor's" || acad["institution"] != "UMT" || acad["year_completed"] != 2022 {
		t.Fatalf("academics = %v", acad)
	}

	if len(tests.names) != 1 || tests.names[0] != "IELTS" {
		t.Fatalf("english test names = %v", tests.names)
	}
	if tests.updates[0]["overall_score"] != 7.5 {
		t.Fatalf("english test updates = %v", tests.updates[0])
	}

	pref := prefs.upserts[0]
	if pref["preferred_countries"] != "UK,Canada" {
		t.Fatalf("preferred_countries = %v", pref["preferred_countries"])
	}
	if pref["funding_type"] != "self-funded" {
		t.Fatalf("funding_type = %v", pref["funding_type"])
	}
	if pref["budget_min"] != 10000 || pref["budget_max"] != 20000 {
		t.Fatalf("budget = %v / %v", pref["budget_min"], pref["budget_max"])
	}
	if pref["career_goals"] != "AI researcher" {
		t.Fatalf("career_goals = %v", pref["career_goals"])
	}
}

func TestPersistExtractedSkipsEmptyResult(t *testing.T) {
	svc, profiles, _, _, _ := newFakeChatService(t)
	if err := svc.persistExtracted(dbctx.Context{}, uuid.New(), intake.Result{}); err != nil {
		t.Fatalf("persistExtracted: %v", err)
	}
	if len(profiles.upserts) != 0 {
		t.Fatalf("empty result still touched tables: %v", profiles.upserts)
	}
}

func TestPersistExtractedExplicitBudgetWins(t *testing.T) {
	svc, _, _, _, prefs := newFakeChatService(t)

	result := intake.Result{
		intake.FieldBudgetMin: float64(15000),
		intake.FieldFinancial: map[string]any{"budget_range": "10k - 20k"},
	}
	if err := svc.persistExtracted(dbctx.Context{}, uuid.New(), result); err != nil {
		t.Fatalf("persistExtracted: %v", err)
	}
	pref := prefs.upserts[0]
	if pref["budget_min"] != 15000 {
		t.Fatalf("budget_min = %v, want explicit 15000", pref["budget_min"])
	}
	if pref["budget_max"] != 20000 {
		t.Fatalf("budget_max = %v, want 20000 from range", pref["budget_max"])
	}
}

func TestFinalizeOutcomeAdvancesOnEmpty(t *testing.T) {
	svc, _, _, _, _ := newFakeChatService(t)

	merged := intake.Normalize(intake.Profile{
		intake.FieldFullName: "Amina Khan",
		intake.FieldAge:      21,
	})
	out := svc.finalizeOutcome(intake.Outcome{}, merged)
	if out.NextQuestionID != intake.QuestionID(intake.FieldAcademicLevel) {
		t.Fatalf("next_question_id = %q", out.NextQuestionID)
	}
}

func TestFinalizeOutcomeNeverReasksCompleted(t *testing.T) {
	svc, _, _, _, _ := newFakeChatService(t)

	merged := intake.Merge(intake.Normalize(intake.Profile{
		intake.FieldFullName: "Amina Khan",
		intake.FieldAge:      21,
	}), intake.Result{intake.FieldAcademicLevel: "Bachelor's"})

	out := svc.finalizeOutcome(intake.Outcome{
		BotMessage:     "And what is your academic level?",
		NextQuestionID: intake.QuestionID(intake.FieldAcademicLevel),
	}, merged)

	if out.NextQuestionID == intake.QuestionID(intake.FieldAcademicLevel) {
		t.Fatal("re-asked a completed field")
	}
	if out.NextQuestionID != intake.QuestionID(intake.FieldRecentGrades) {
		t.Fatalf("next_question_id = %q", out.NextQuestionID)
	}
}

func TestFinalizeOutcomeFillsQuickReplies(t *testing.T) {
	svc, _, _, _, _ := newFakeChatService(t)

	merged := intake.Normalize(intake.Profile{intake.FieldFullName: "Amina Khan"})
	out := svc.finalizeOutcome(intake.Outcome{
		BotMessage:     "Which level are you aiming for next?",
		NextQuestionID: intake.QuestionID(intake.FieldTargetLevel),
	}, merged)

	if len(out.QuickReplies) == 0 {
		t.Fatal("canned quick replies not attached")
	}
}

func TestDecodeProfileDegradesToEmpty(t *testing.T) {
	p := decodeProfile(nil)
	if p == nil || len(p) != 0 {
		t.Fatalf("decodeProfile(nil) = %v", p)
	}
	p = decodeProfile([]byte(`{"full_name":"Amina Khan"}`))
	if p[intake.FieldFullName] != "Amina Khan" {
		t.Fatalf("decodeProfile = %v", p)
	}
	p = decodeProfile([]byte(`not json`))
	if p == nil {
		t.Fatal("malformed profile must decode to empty, not nil")
	}
}
