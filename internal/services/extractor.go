package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brightpath-labs/intake-backend/internal/intake"
	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
)

// Extractor turns a free-text student message into typed intake fields and,
// for chat turns, a dialog outcome. Two implementations exist: the
// model-backed one (chained onto the rule-based floor) and the rule-based one
// used when no generation backend is configured. Callers cannot tell which
// path produced a result other than through CallStats.
type Extractor interface {
	// ExtractAndReply runs the unified call: one structured generation
	// producing both the conversational reply and the extracted fields.
	// focusField names the field the previous question asked about.
	ExtractAndReply(ctx context.Context, profile intake.Profile, text, focusField, lastQuestionID string) (intake.Outcome, intake.Result, CallStats)

	// Extract runs extraction only, used for document text. No dialog is
	// produced.
	Extract(ctx context.Context, profile intake.Profile, text, focusField string) (intake.Result, CallStats)
}

// CallStats describes how an extraction was produced, for the audit log.
type CallStats struct {
	Source   string // "model", "rules" or "greeting"
	Model    string
	Attempts int
	Err      string
}

const (
	SourceModel    = "model"
	SourceRules    = "rules"
	SourceGreeting = "greeting"

	extractAttempts = 3
	maxMessageChars = 1000
)

// NewExtractor selects the model-backed engine when a client is available and
// the rule-based floor otherwise.
func NewExtractor(ai OpenAIClient, log *logger.Logger) Extractor {
	rules := &ruleExtractor{log: log.With("service", "RuleExtractor")}
	if ai == nil {
		return rules
	}
	return &modelExtractor{
		ai:    ai,
		rules: rules,
		log:   log.With("service", "ModelExtractor"),
	}
}

// ---- rule-based floor ----

type ruleExtractor struct {
	log *logger.Logger
}

func (e *ruleExtractor) Extract(_ context.Context, _ intake.Profile, text, focusField string) (intake.Result, CallStats) {
	res := intake.ExtractRules(text, focusField)
	return res, CallStats{Source: SourceRules}
}

func (e *ruleExtractor) ExtractAndReply(ctx context.Context, profile intake.Profile, text, focusField, _ string) (intake.Outcome, intake.Result, CallStats) {
	if isGreeting(text) {
		return greetingOutcome(profile), intake.Result{}, CallStats{Source: SourceGreeting}
	}
	res, stats := e.Extract(ctx, profile, text, focusField)
	return fallbackOutcome(focusField, res), res, stats
}

// fallbackOutcome re-asks the focused field when the reply was unusable for
// it; otherwise it leaves the outcome empty so the caller advances through
// the deterministic selector after merging.
func fallbackOutcome(focusField string, res intake.Result) intake.Outcome {
	if focusField == "" || res.Satisfies(focusField) {
		return intake.Outcome{}
	}
	q := intake.PromptFor(focusField)
	if q == "" {
		return intake.Outcome{}
	}
	return intake.Outcome{
		BotMessage:     q,
		NextQuestionID: intake.QuestionID(focusField),
		QuickReplies:   intake.QuickRepliesFor(focusField),
	}
}

var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "salam": {},
	"hi!": {}, "hello!": {}, "hey!": {},
}

func isGreeting(text string) bool {
	_, ok := greetings[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func greetingOutcome(profile intake.Profile) intake.Outcome {
	out := intake.NextQuestion(profile)
	if out.NextQuestionID == "" {
		out.BotMessage = "Hi! Let's get started. Could you share your details?"
	}
	// A greeting carries no field answer, so no quick replies beyond canned.
	return out
}

// ---- model-backed engine ----

type modelExtractor struct {
	ai    OpenAIClient
	rules *ruleExtractor
	log   *logger.Logger
}

func (e *modelExtractor) ExtractAndReply(ctx context.Context, profile intake.Profile, text, focusField, lastQuestionID string) (intake.Outcome, intake.Result, CallStats) {
	if isGreeting(text) {
		return greetingOutcome(profile), intake.Result{}, CallStats{Source: SourceGreeting}
	}

	normalized := intake.Normalize(profile)
	user := e.unifiedUserPrompt(normalized, text, lastQuestionID)

	stats := CallStats{Source: SourceModel, Model: e.ai.Model()}
	var lastErr error
	for attempt := 1; attempt <= extractAttempts; attempt++ {
		stats.Attempts = attempt
		raw, err := e.ai.GenerateJSON(ctx, unifiedSystemPrompt, user, "intake_turn", unifiedSchema())
		if err != nil {
			lastErr = err
			e.log.Warn("unified call failed", "attempt", attempt, "error", err)
			continue
		}

		outcome, result, perr := e.parseUnified(raw)
		if perr != nil {
			lastErr = perr
			e.log.Warn("unified output rejected", "attempt", attempt, "error", perr)
			continue
		}

		// A declination counts: the model may answer the focused field by
		// listing it in completed_fields with no value (english "not yet").
		if focusField != "" && !result.Satisfies(focusField) {
			// Soft failure: the reply may still be unusable for the asked
			// field; give the model another chance before re-asking.
			lastErr = fmt.Errorf("focused field %q absent from result", focusField)
			e.log.Info("focused field missing, retrying", "field", focusField, "attempt", attempt)
			continue
		}
		return outcome, result, stats
	}

	if lastErr != nil {
		stats.Err = lastErr.Error()
	}
	res, _ := e.rules.Extract(ctx, profile, text, focusField)
	stats.Source = SourceRules
	return fallbackOutcome(focusField, res), res, stats
}

func (e *modelExtractor) Extract(ctx context.Context, profile intake.Profile, text, focusField string) (intake.Result, CallStats) {
	normalized := intake.Normalize(profile)
	user := e.extractUserPrompt(normalized, text, focusField)

	stats := CallStats{Source: SourceModel, Model: e.ai.Model()}
	var lastErr error
	for attempt := 1; attempt <= extractAttempts; attempt++ {
		stats.Attempts = attempt
		raw, err := e.ai.GenerateJSON(ctx, extractSystemPrompt, user, "intake_fields", intakeSchema())
		if err != nil {
			lastErr = err
			e.log.Warn("extraction call failed", "attempt", attempt, "error", err)
			continue
		}
		fields, perr := intake.ParseFields(raw)
		if perr != nil {
			lastErr = perr
			e.log.Warn("extraction output rejected", "attempt", attempt, "error", perr)
			continue
		}
		result := postProcess(fields.Result())
		if focusField != "" && !result.Satisfies(focusField) {
			lastErr = fmt.Errorf("focused field %q absent from result", focusField)
			continue
		}
		return result, stats
	}

	if lastErr != nil {
		stats.Err = lastErr.Error()
	}
	res, _ := e.rules.Extract(ctx, profile, text, focusField)
	stats.Source = SourceRules
	return res, stats
}

// parseUnified validates the two-part model object. Any shape deviation fails
// the whole attempt.
func (e *modelExtractor) parseUnified(raw map[string]any) (intake.Outcome, intake.Result, error) {
	dialogRaw, _ := raw["dialog"].(map[string]any)
	intakeRaw, _ := raw["intake"].(map[string]any)
	if dialogRaw == nil || intakeRaw == nil {
		return intake.Outcome{}, nil, fmt.Errorf("missing dialog or intake object")
	}

	fields, err := intake.ParseFields(intakeRaw)
	if err != nil {
		return intake.Outcome{}, nil, err
	}
	result := postProcess(fields.Result())

	var outcome intake.Outcome
	if s, ok := dialogRaw["bot_message"].(string); ok {
		outcome.BotMessage = strings.TrimSpace(s)
	} else if s, ok := dialogRaw["response"].(string); ok {
		// Some models answer under "response" despite the schema.
		outcome.BotMessage = strings.TrimSpace(s)
	}
	if s, ok := dialogRaw["next_question_id"].(string); ok {
		// Unknown identifiers cannot steer the conversation off-schema.
		if key := intake.FieldForQuestionID(s); key != "" {
			outcome.NextQuestionID = intake.QuestionID(key)
		}
	}
	if list, ok := dialogRaw["quick_replies"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				outcome.QuickReplies = append(outcome.QuickReplies, s)
			}
		}
	}

	if outcome.BotMessage == "" && outcome.NextQuestionID != "" {
		outcome.BotMessage = intake.PromptFor(intake.FieldForQuestionID(outcome.NextQuestionID))
	}
	if outcome.NextQuestionID == "" {
		outcome.QuickReplies = nil
	}
	return outcome, result, nil
}

// postProcess applies the minimal normalization the backend owns: phone
// shape. Everything else (synonyms, relative years, budgets) is the model's
// duty per the prompt.
func postProcess(res intake.Result) intake.Result {
	if raw, ok := res[intake.FieldPhone].(string); ok {
		if normalized := intake.NormalizePhone(raw); normalized != "" {
			res[intake.FieldPhone] = normalized
		}
	}
	return res
}

const unifiedSystemPrompt = `You are a warm, concise study-abroad intake assistant. Use the student's message and the provided profile to (1) reply naturally with ONE clear next question if needed, and (2) return updated intake fields.

Rules (strict and exhaustive):
- completed_fields is authoritative; NEVER re-ask those fields. Always preserve existing completed_fields (merge, do not overwrite).
- Treat the student's latest reply as the answer to last_question_id when one is given. If the reply is valid, set the corresponding intake field and add it to completed_fields. If the reply is unclear or irrelevant, politely re-ask the same field instead of skipping it.
- When the student provides structured details (e.g. "BS in AI from UMT in 2022"), set all implied fields: academic_level, major, institution, year_completed, and target_level when clearly implied.
- Map degree synonyms: BS/BSc/Bachelor's => academic_level "Bachelor's"; MS/MSc/Master's => academic_level "Master's".
- Resolve relative years against system_time: "this year" => current year, "last year" => current year minus one.
- Normalize budget phrases like "20k - 40k" into numeric budget_min and budget_max, no currency symbols.
- Canonicalize country names to full names.
- English tests: if the student says "not yet", leave english_tests null, add "english_tests" to completed_fields, briefly note a test is preferred, and move on. Do not ask again.
- Ask ONLY ONE field per turn and it must not be completed. Follow the ask order: name, age, academic level, grades, field of study, countries, english tests, financial, target level, career goals, email, phone.
- bot_message must be 1-2 friendly sentences. When next_question_id is set, include 3-5 quick_replies relevant to THAT field only; when it is null, quick_replies must be null.
- Set intake fields only from what the student states; never invent values. Unknown fields stay null.`

const extractSystemPrompt = `You are a precise study-abroad intake extractor. Extract ONLY the requested fields into one strict JSON object, already normalized for storage.

Rules:
- Return every schema field; set missing information to null, never an empty string or array.
- Reuse existing profile values unless the new text clearly updates or contradicts them.
- Never invent or guess values. Keep the most recent clearly stated value when several appear.
- Map degree synonyms: BS/BSc => "Bachelor's"; MS/MSc => "Master's". Canonicalize country names.
- Do NOT infer field_of_study from a degree mention; only set it when interest is stated explicitly.
- Resolve relative years against system_time.
- For budget text like "10k - 20k" output numeric budget_min=10000 and budget_max=20000.
- For English tests include test_name and overall_score when stated.`

func (e *modelExtractor) unifiedUserPrompt(profile intake.Profile, text, lastQuestionID string) string {
	incomplete := intake.SplitIncomplete(profile)
	if lastQuestionID == "" {
		lastQuestionID = "none"
	}
	return fmt.Sprintf(
		"Profile (normalized, includes completed_fields):\n%s\n\nIncomplete fields:\n%s\n\nlast_question_id: %s\nsystem_time: %s\nAllowed next_question_id values: %s\n\nStudent message:\n%s",
		mustJSON(profile),
		mustJSON(incomplete),
		lastQuestionID,
		time.Now().UTC().Format(time.RFC3339),
		strings.Join(intake.AllowedQuestionIDs(), ", "),
		clip(text, maxMessageChars),
	)
}

func (e *modelExtractor) extractUserPrompt(profile intake.Profile, text, focusField string) string {
	if focusField == "" {
		focusField = "none"
	}
	return fmt.Sprintf(
		"Current profile:\n%s\n\nexpected_field: %s\nsystem_time: %s\n\nText:\n%s",
		mustJSON(profile),
		focusField,
		time.Now().UTC().Format(time.RFC3339),
		clip(text, 8000),
	)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte rune.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ---- schemas ----

func nullable(t string) map[string]any {
	return map[string]any{"type": []string{t, "null"}}
}

func intakeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"full_name":      nullable("string"),
			"age":            nullable("integer"),
			"email":          nullable("string"),
			"phone":          nullable("string"),
			"academic_level": nullable("string"),
			"recent_grades":  nullable("string"),
			"institution":    nullable("string"),
			"year_completed": nullable("integer"),
			"major":          nullable("string"),
			"field_of_study": nullable("string"),
			"preferred_countries": map[string]any{
				"type":  []string{"array", "null"},
				"items": map[string]any{"type": "string"},
			},
			"target_level": nullable("string"),
			"english_tests": map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"test_name":     nullable("string"),
						"overall_score": nullable("number"),
						"test_date":     nullable("string"),
					},
					"required":             []string{"test_name", "overall_score", "test_date"},
					"additionalProperties": false,
				},
			},
			"financial": map[string]any{
				"type": []string{"object", "null"},
				"properties": map[string]any{
					"funding_type": nullable("string"),
					"budget_range": nullable("string"),
				},
				"required":             []string{"funding_type", "budget_range"},
				"additionalProperties": false,
			},
			"budget_min":   nullable("integer"),
			"budget_max":   nullable("integer"),
			"career_goals": nullable("string"),
			"completed_fields": map[string]any{
				"type":  []string{"array", "null"},
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{
			"full_name", "age", "email", "phone", "academic_level", "recent_grades",
			"institution", "year_completed", "major", "field_of_study",
			"preferred_countries", "target_level", "english_tests", "financial",
			"budget_min", "budget_max", "career_goals", "completed_fields",
		},
		"additionalProperties": false,
	}
}

func unifiedSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dialog": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"bot_message":      map[string]any{"type": "string"},
					"next_question_id": nullable("string"),
					"quick_replies": map[string]any{
						"type":  []string{"array", "null"},
						"items": map[string]any{"type": "string"},
					},
				},
				"required":             []string{"bot_message", "next_question_id", "quick_replies"},
				"additionalProperties": false,
			},
			"intake": intakeSchema(),
		},
		"required":             []string{"dialog", "intake"},
		"additionalProperties": false,
	}
}
