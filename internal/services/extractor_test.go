package services

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/brightpath-labs/intake-backend/internal/intake"
	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
)

type scriptedCall struct {
	raw map[string]any
	err error
}

// scriptedAIClient replays a fixed sequence of structured-output responses.
type scriptedAIClient struct {
	t     *testing.T
	calls []scriptedCall
	n     int
}

func (c *scriptedAIClient) GenerateJSON(_ context.Context, _, _, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" || schema == nil {
		c.t.Fatal("GenerateJSON called without schema")
	}
	if c.n >= len(c.calls) {
		c.t.Fatalf("unexpected GenerateJSON call #%d", c.n+1)
	}
	call := c.calls[c.n]
	c.n++
	return call.raw, call.err
}

func (c *scriptedAIClient) Model() string { return "test-model" }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func unifiedResponse(dialog, fields map[string]any) map[string]any {
	return map[string]any{"dialog": dialog, "intake": fields}
}

func TestExtractorGreetingSkipsModel(t *testing.T) {
	ai := &scriptedAIClient{t: t}
	ex := NewExtractor(ai, testLogger(t))

	profile := intake.Profile{intake.FieldFullName: "Amina Khan", intake.FieldAge: 21}
	outcome, result, stats := ex.ExtractAndReply(context.Background(), profile, "  Hello! ", "", "")

	if stats.Source != SourceGreeting {
		t.Fatalf("source = %q, want greeting", stats.Source)
	}
	if len(result) != 0 {
		t.Fatalf("greeting produced fields: %v", result)
	}
	if outcome.NextQuestionID != intake.QuestionID(intake.FieldAcademicLevel) {
		t.Fatalf("next_question_id = %q", outcome.NextQuestionID)
	}
	if ai.n != 0 {
		t.Fatalf("model was called %d times for a greeting", ai.n)
	}
}

func TestExtractorUnifiedSuccess(t *testing.T) {
	ai := &scriptedAIClient{t: t, calls: []scriptedCall{
		{raw: unifiedResponse(
			map[string]any{
				"bot_message":      "Great, a Bachelor's! What are your recent grades?",
				"next_question_id": "ask_recent_grades",
				"quick_replies":    []any{"3.0+ GPA", "60-70%"},
			},
			map[string]any{
				"academic_level": "Bachelor's",
				"major":          "Artificial Intelligence",
				"institution":    "UMT",
				"year_completed": 2022,
			},
		)},
	}}
	ex := NewExtractor(ai, testLogger(t))

	profile := intake.Profile{intake.FieldFullName: "Amina Khan", intake.FieldAge: 21}
	outcome, result, stats := ex.ExtractAndReply(
		context.Background(), profile,
		"I have a BS in AI from UMT, 2022",
		intake.FieldAcademicLevel, "ask_academic_level",
	)

	if stats.Source != SourceModel || stats.Attempts != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if result[intake.FieldAcademicLevel] != "Bachelor's" {
		t.Fatalf("academic_level = %v", result[intake.FieldAcademicLevel])
	}
	if result[intake.FieldInstitution] != "UMT" {
		t.Fatalf("institution = %v", result[intake.FieldInstitution])
	}
	if outcome.NextQuestionID != "ask_recent_grades" {
		t.Fatalf("next_question_id = %q", outcome.NextQuestionID)
	}
	if len(outcome.QuickReplies) != 2 {
		t.Fatalf("quick_replies = %v", outcome.QuickReplies)
	}

	// Merging the turn advances the deterministic floor past academics.
	merged := intake.Merge(intake.Normalize(profile), result)
	next := intake.NextQuestion(merged)
	if next.NextQuestionID != intake.QuestionID(intake.FieldRecentGrades) {
		t.Fatalf("post-merge next question = %q", next.NextQuestionID)
	}
}

func TestExtractorRetriesMalformedOutput(t *testing.T) {
	ai := &scriptedAIClient{t: t, calls: []scriptedCall{
		{raw: map[string]any{"dialog": "not an object"}},
		{raw: unifiedResponse(
			map[string]any{"bot_message": "Noted!", "next_question_id": nil, "quick_replies": nil},
			map[string]any{"age": 21},
		)},
	}}
	ex := NewExtractor(ai, testLogger(t))

	_, result, stats := ex.ExtractAndReply(context.Background(), intake.Profile{}, "I am 21", intake.FieldAge, "ask_age")

	if stats.Attempts != 2 || stats.Err != "" {
		t.Fatalf("stats = %+v", stats)
	}
	if result[intake.FieldAge] != float64(21) {
		t.Fatalf("age = %v (%T)", result[intake.FieldAge], result[intake.FieldAge])
	}
}

func TestExtractorFallsBackToRulesAfterExhaustion(t *testing.T) {
	fail := scriptedCall{err: errors.New("upstream unavailable")}
	ai := &scriptedAIClient{t: t, calls: []scriptedCall{fail, fail, fail}}
	ex := NewExtractor(ai, testLogger(t))

	outcome, result, stats := ex.ExtractAndReply(
		context.Background(), intake.Profile{},
		"you can reach me at +1 (555) 123-4567",
		intake.FieldPhone, "ask_phone",
	)

	if stats.Source != SourceRules {
		t.Fatalf("source = %q, want rules", stats.Source)
	}
	if stats.Err == "" {
		t.Fatal("stats.Err empty after exhausted retries")
	}
	if result[intake.FieldPhone] != "+15551234567" {
		t.Fatalf("phone = %v", result[intake.FieldPhone])
	}
	// The rule floor satisfied the asked field, so the caller's selector
	// drives the next question.
	if outcome.BotMessage != "" || outcome.NextQuestionID != "" {
		t.Fatalf("outcome should be empty, got %+v", outcome)
	}
}

func TestExtractorFocusMissRetriesThenReasks(t *testing.T) {
	offTopic := scriptedCall{raw: unifiedResponse(
		map[string]any{"bot_message": "Nice!", "next_question_id": nil, "quick_replies": nil},
		map[string]any{"career_goals": "become a researcher"},
	)}
	ai := &scriptedAIClient{t: t, calls: []scriptedCall{offTopic, offTopic, offTopic}}
	ex := NewExtractor(ai, testLogger(t))

	outcome, result, stats := ex.ExtractAndReply(
		context.Background(), intake.Profile{},
		"I want to become a researcher",
		intake.FieldAge, "ask_age",
	)

	if stats.Source != SourceRules || stats.Attempts != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	if _, ok := result[intake.FieldAge]; ok {
		t.Fatalf("age should not be extracted from %v", result)
	}
	if outcome.NextQuestionID != intake.QuestionID(intake.FieldAge) {
		t.Fatalf("outcome should re-ask age, got %+v", outcome)
	}
}

func TestExtractorAcceptsDeclinedEnglishTests(t *testing.T) {
	ai := &scriptedAIClient{t: t, calls: []scriptedCall{
		{raw: unifiedResponse(
			map[string]any{
				"bot_message":      "No problem, a test is usually preferred but we can move on. How will you fund your studies?",
				"next_question_id": "ask_financial",
				"quick_replies":    []any{"Self-funded", "Scholarship", "Loan"},
			},
			map[string]any{
				"english_tests":    nil,
				"completed_fields": []any{"english_tests"},
			},
		)},
	}}
	ex := NewExtractor(ai, testLogger(t))

	profile := intake.Profile{intake.FieldFullName: "Amina Khan"}
	outcome, result, stats := ex.ExtractAndReply(
		context.Background(), profile,
		"Not yet",
		intake.FieldEnglishTests, "ask_english_tests",
	)

	if stats.Source != SourceModel || stats.Attempts != 1 || stats.Err != "" {
		t.Fatalf("stats = %+v, want single model attempt", stats)
	}
	if outcome.NextQuestionID != intake.QuestionID(intake.FieldFinancial) {
		t.Fatalf("next_question_id = %q, want ask_financial", outcome.NextQuestionID)
	}

	merged := intake.Merge(intake.Normalize(profile), result)
	if _, done := intake.CompletedSet(merged)[intake.FieldEnglishTests]; !done {
		t.Fatalf("english_tests not completed after declination: %v", merged[intake.KeyCompletedFields])
	}
	if next := intake.NextQuestion(merged); next.NextQuestionID == intake.QuestionID(intake.FieldEnglishTests) {
		t.Fatal("selector re-asks english_tests after the student declined")
	}
}

func TestExtractorSanitizesNextQuestionID(t *testing.T) {
	ai := &scriptedAIClient{t: t, calls: []scriptedCall{
		{raw: unifiedResponse(
			map[string]any{
				"bot_message":      "Done!",
				"next_question_id": "ask_visa_status",
				"quick_replies":    []any{"Yes", "No"},
			},
			map[string]any{"age": 24},
		)},
	}}
	ex := NewExtractor(ai, testLogger(t))

	outcome, _, _ := ex.ExtractAndReply(context.Background(), intake.Profile{}, "24", intake.FieldAge, "ask_age")

	if outcome.NextQuestionID != "" {
		t.Fatalf("off-schema question id survived: %q", outcome.NextQuestionID)
	}
	if outcome.QuickReplies != nil {
		t.Fatalf("quick_replies must be dropped with the id, got %v", outcome.QuickReplies)
	}
}

func TestExtractorNormalizesPhoneFromModel(t *testing.T) {
	ai := &scriptedAIClient{t: t, calls: []scriptedCall{
		{raw: unifiedResponse(
			map[string]any{"bot_message": "Thanks!", "next_question_id": nil, "quick_replies": nil},
			map[string]any{"phone": "+1 (555) 123-4567"},
		)},
	}}
	ex := NewExtractor(ai, testLogger(t))

	_, result, _ := ex.ExtractAndReply(context.Background(), intake.Profile{}, "+1 (555) 123-4567", intake.FieldPhone, "ask_phone")
	if result[intake.FieldPhone] != "+15551234567" {
		t.Fatalf("phone = %v", result[intake.FieldPhone])
	}
}

func TestExtractDocumentText(t *testing.T) {
	ai := &scriptedAIClient{t: t, calls: []scriptedCall{
		{raw: map[string]any{
			"academic_level": "Bachelor's",
			"recent_grades":  "3.8 GPA",
			"institution":    "UMT",
		}},
	}}
	ex := NewExtractor(ai, testLogger(t))

	result, stats := ex.Extract(context.Background(), intake.Profile{}, "Transcript: BS, CGPA 3.8, UMT", "")
	if stats.Source != SourceModel {
		t.Fatalf("stats = %+v", stats)
	}
	if result[intake.FieldRecentGrades] != "3.8 GPA" {
		t.Fatalf("recent_grades = %v", result[intake.FieldRecentGrades])
	}
}

func TestClipKeepsRuneBoundaries(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		// é is two bytes and each CJK rune is three; the cut may land
		// mid-rune and must back up to the boundary.
		{"héllo", 2, "h"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
		{"日本語", 0, ""},
	}
	for _, tc := range cases {
		got := clip(tc.in, tc.n)
		if got != tc.want {
			t.Fatalf("clip(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("clip(%q, %d) produced invalid UTF-8: %q", tc.in, tc.n, got)
		}
	}
}

func TestRuleExtractorReasksFocusedField(t *testing.T) {
	ex := NewExtractor(nil, testLogger(t))

	outcome, result, stats := ex.ExtractAndReply(context.Background(), intake.Profile{}, "hmm not sure", intake.FieldAge, "ask_age")
	if stats.Source != SourceRules {
		t.Fatalf("source = %q", stats.Source)
	}
	if len(result) != 0 {
		t.Fatalf("result = %v, want empty", result)
	}
	if outcome.NextQuestionID != intake.QuestionID(intake.FieldAge) {
		t.Fatalf("outcome = %+v, want re-ask of age", outcome)
	}
}
