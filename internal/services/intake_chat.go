package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brightpath-labs/intake-backend/internal/intake"
	"github.com/brightpath-labs/intake-backend/internal/pkg/dbctx"
	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/repos"
	"github.com/brightpath-labs/intake-backend/internal/types"
)

const welcomeMessage = "Hi! Welcome to the Study Abroad Intake. Let's start with your current academic level."

// TurnResponse is what one chat turn hands back to the transport layer.
type TurnResponse struct {
	SessionID      uuid.UUID      `json:"session_id"`
	BotMessage     string         `json:"bot_message"`
	Profile        intake.Profile `json:"profile"`
	NextQuestionID string         `json:"next_question_id,omitempty"`
	QuickReplies   []string       `json:"quick_replies,omitempty"`
	Extracted      intake.Result  `json:"extracted,omitempty"`
}

type IntakeChatService interface {
	StartSession(ctx context.Context, name, phone, email string) (*types.IntakeSession, string, error)
	HandleTurn(ctx context.Context, sessionID uuid.UUID, text string) (*TurnResponse, error)
	IngestDocumentText(ctx context.Context, sessionID, documentID uuid.UUID, text string) (intake.Result, error)
}

type intakeChatService struct {
	db          *gorm.DB
	extractor   Extractor
	sessions    repos.SessionRepo
	messages    repos.MessageRepo
	documents   repos.DocumentRepo
	profiles    repos.StudentProfileRepo
	academics   repos.AcademicHistoryRepo
	tests       repos.EnglishTestRepo
	preferences repos.StudyPreferenceRepo
	aiCalls     repos.AICallLogRepo
	log         *logger.Logger
}

func NewIntakeChatService(
	db *gorm.DB,
	extractor Extractor,
	sessions repos.SessionRepo,
	messages repos.MessageRepo,
	documents repos.DocumentRepo,
	profiles repos.StudentProfileRepo,
	academics repos.AcademicHistoryRepo,
	tests repos.EnglishTestRepo,
	preferences repos.StudyPreferenceRepo,
	aiCalls repos.AICallLogRepo,
	log *logger.Logger,
) IntakeChatService {
	return &intakeChatService{
		db:          db,
		extractor:   extractor,
		sessions:    sessions,
		messages:    messages,
		documents:   documents,
		profiles:    profiles,
		academics:   academics,
		tests:       tests,
		preferences: preferences,
		aiCalls:     aiCalls,
		log:         log.With("service", "IntakeChatService"),
	}
}

func (s *intakeChatService) StartSession(ctx context.Context, name, phone, email string) (*types.IntakeSession, string, error) {
	profile := intake.Normalize(intake.Profile{
		intake.FieldFullName: strings.TrimSpace(name),
		intake.FieldPhone:    intake.NormalizePhone(phone),
		intake.FieldEmail:    strings.TrimSpace(email),
	})

	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, "", fmt.Errorf("encode profile: %w", err)
	}

	session := &types.IntakeSession{
		Profile: datatypes.JSON(raw),
		Status:  types.SessionStatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.sessions.Create(dbc, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		identity := map[string]interface{}{}
		if v, ok := profile[intake.FieldFullName].(string); ok && v != "" {
			identity["full_name"] = v
		}
		if v, ok := profile[intake.FieldEmail].(string); ok && v != "" {
			identity["email"] = v
		}
		if v, ok := profile[intake.FieldPhone].(string); ok && v != "" {
			identity["phone"] = v
		}
		if err := s.profiles.UpsertFields(dbc, session.ID, identity); err != nil {
			return fmt.Errorf("seed student profile: %w", err)
		}
		_, err := s.messages.Create(dbc, []*types.ChatMessage{{
			SessionID: session.ID,
			Sender:    types.SenderBot,
			Text:      welcomeMessage,
			Metadata:  datatypes.JSON([]byte(`{}`)),
		}})
		return err
	})
	if err != nil {
		return nil, "", err
	}

	s.log.Info("session started", "session_id", session.ID.String())
	return session, welcomeMessage, nil
}

func (s *intakeChatService) HandleTurn(ctx context.Context, sessionID uuid.UUID, text string) (*TurnResponse, error) {
	dbc := dbctx.Context{Ctx: ctx}
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}

	profile := decodeProfile(session.Profile)

	// The field the previous question asked about binds this reply; when no
	// question is outstanding, aim at the first missing field.
	focus := intake.FieldForQuestionID(session.LastQuestionID)
	if focus == "" {
		if f, ok := intake.NextMissingField(intake.Normalize(profile)); ok {
			focus = f.Key
		}
	}

	outcome, result, stats := s.extractor.ExtractAndReply(ctx, profile, text, focus, session.LastQuestionID)
	merged := intake.Merge(profile, result)
	outcome = s.finalizeOutcome(outcome, merged)

	status := types.SessionStatusActive
	if outcome.NextQuestionID == "" {
		status = types.SessionStatusComplete
	}

	mergedRaw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	botMeta, _ := json.Marshal(map[string]any{
		"next_question_id": outcome.NextQuestionID,
		"quick_replies":    outcome.QuickReplies,
		"source":           stats.Source,
	})

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.messages.Create(txc, []*types.ChatMessage{{
			SessionID: sessionID,
			Sender:    types.SenderUser,
			Text:      text,
			Metadata:  datatypes.JSON([]byte(`{}`)),
		}}); err != nil {
			return fmt.Errorf("save user message: %w", err)
		}
		if err := s.sessions.UpdateFields(txc, sessionID, map[string]interface{}{
			"profile":          datatypes.JSON(mergedRaw),
			"last_question_id": outcome.NextQuestionID,
			"status":           status,
		}); err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if err := s.persistExtracted(txc, sessionID, result); err != nil {
			return fmt.Errorf("persist extracted: %w", err)
		}
		if _, err := s.messages.Create(txc, []*types.ChatMessage{{
			SessionID: sessionID,
			Sender:    types.SenderBot,
			Text:      outcome.BotMessage,
			Metadata:  datatypes.JSON(botMeta),
		}}); err != nil {
			return fmt.Errorf("save bot message: %w", err)
		}
		return s.recordCall(txc, sessionID, "turn", stats, result)
	})
	if err != nil {
		return nil, err
	}

	return &TurnResponse{
		SessionID:      sessionID,
		BotMessage:     outcome.BotMessage,
		Profile:        merged,
		NextQuestionID: outcome.NextQuestionID,
		QuickReplies:   outcome.QuickReplies,
		Extracted:      result,
	}, nil
}

func (s *intakeChatService) IngestDocumentText(ctx context.Context, sessionID, documentID uuid.UUID, text string) (intake.Result, error) {
	dbc := dbctx.Context{Ctx: ctx}
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}

	profile := decodeProfile(session.Profile)
	result, stats := s.extractor.Extract(ctx, profile, text, "")
	merged := intake.Merge(profile, result)

	mergedRaw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	extractedRaw, _ := json.Marshal(result)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.sessions.UpdateFields(txc, sessionID, map[string]interface{}{
			"profile": datatypes.JSON(mergedRaw),
		}); err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if err := s.persistExtracted(txc, sessionID, result); err != nil {
			return fmt.Errorf("persist extracted: %w", err)
		}
		if err := s.documents.UpdateFields(txc, documentID, map[string]interface{}{
			"status":           types.DocumentStatusProcessed,
			"extracted_fields": datatypes.JSON(extractedRaw),
		}); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return s.recordCall(txc, sessionID, "document", stats, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finalizeOutcome applies the deterministic floor to whatever the engine
// produced: empty outcomes advance through the selector, an asked field must
// not already be satisfied, and canned quick replies fill in when the engine
// offered none.
func (s *intakeChatService) finalizeOutcome(outcome intake.Outcome, merged intake.Profile) intake.Outcome {
	if outcome.NextQuestionID == "" || outcome.BotMessage == "" {
		return intake.NextQuestion(merged)
	}

	key := intake.FieldForQuestionID(outcome.NextQuestionID)
	completed := intake.CompletedSet(merged)
	if _, done := completed[key]; done {
		return intake.NextQuestion(merged)
	}

	if len(outcome.QuickReplies) == 0 {
		outcome.QuickReplies = intake.QuickRepliesFor(key)
	}
	return outcome
}

// persistExtracted mirrors one extraction into the normalized tables.
// Re-applying the same result touches the same rows again without creating
// duplicates.
func (s *intakeChatService) persistExtracted(dbc dbctx.Context, sessionID uuid.UUID, result intake.Result) error {
	if len(result) == 0 {
		return nil
	}

	identity := map[string]interface{}{}
	if v, ok := result[intake.FieldFullName].(string); ok {
		identity["full_name"] = v
	}
	if v, ok := asInt(result[intake.FieldAge]); ok {
		identity["age"] = v
	}
	if v, ok := result[intake.FieldEmail].(string); ok {
		identity["email"] = v
	}
	if v, ok := result[intake.FieldPhone].(string); ok {
		identity["phone"] = v
	}
	if err := s.profiles.UpsertFields(dbc, sessionID, identity); err != nil {
		return err
	}

	academics := map[string]interface{}{}
	if v, ok := result[intake.FieldAcademicLevel].(string); ok {
		academics["level"] = v
	}
	if v, ok := result[intake.FieldRecentGrades].(string); ok {
		academics["grades"] = v
	}
	if v, ok := result[intake.FieldInstitution].(string); ok {
		academics["institution"] = v
	}
	if v, ok := asInt(result[intake.FieldYearCompleted]); ok {
		academics["year_completed"] = v
	}
	if v, ok := result[intake.FieldMajor].(string); ok {
		academics["major"] = v
	}
	if err := s.academics.UpsertFields(dbc, sessionID, academics); err != nil {
		return err
	}

	if err := s.persistEnglishTests(dbc, sessionID, result[intake.FieldEnglishTests]); err != nil {
		return err
	}

	return s.persistPreferences(dbc, sessionID, result)
}

func (s *intakeChatService) persistEnglishTests(dbc dbctx.Context, sessionID uuid.UUID, raw any) error {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := rec["test_name"].(string)
		if strings.TrimSpace(name) == "" {
			continue
		}
		updates := map[string]interface{}{}
		if score, ok := rec["overall_score"].(float64); ok {
			updates["overall_score"] = score
		}
		if ds, ok := rec["test_date"].(string); ok {
			if d, err := time.Parse("2006-01-02", ds); err == nil {
				updates["test_date"] = d
			}
		}
		if err := s.tests.UpsertByName(dbc, sessionID, name, updates); err != nil {
			return err
		}
	}
	return nil
}

func (s *intakeChatService) persistPreferences(dbc dbctx.Context, sessionID uuid.UUID, result intake.Result) error {
	prefs := map[string]interface{}{}
	if v, ok := result[intake.FieldTargetLevel].(string); ok {
		prefs["target_level"] = v
	}
	if v, ok := result[intake.FieldFieldOfStudy].(string); ok {
		prefs["field_of_study"] = v
	}
	if list, ok := result[intake.FieldPreferredCountries].([]any); ok {
		names := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				names = append(names, s)
			}
		}
		if len(names) > 0 {
			prefs["preferred_countries"] = strings.Join(names, ",")
		}
	}
	if v, ok := result[intake.FieldCareerGoals].(string); ok {
		prefs["career_goals"] = v
	}

	budgetMin, hasMin := asInt(result[intake.FieldBudgetMin])
	budgetMax, hasMax := asInt(result[intake.FieldBudgetMax])
	if fin, ok := result[intake.FieldFinancial].(map[string]any); ok {
		if v, ok := fin["funding_type"].(string); ok && v != "" {
			prefs["funding_type"] = v
		}
		if br, ok := fin["budget_range"].(string); ok && (!hasMin || !hasMax) {
			if lo, hi, ok := intake.ParseBudgetRange(br); ok {
				if !hasMin {
					budgetMin, hasMin = lo, true
				}
				if !hasMax && hi > 0 {
					budgetMax, hasMax = hi, true
				}
			}
		}
	}
	if hasMin {
		prefs["budget_min"] = budgetMin
	}
	if hasMax {
		prefs["budget_max"] = budgetMax
	}

	return s.preferences.UpsertFields(dbc, sessionID, prefs)
}

func (s *intakeChatService) recordCall(dbc dbctx.Context, sessionID uuid.UUID, callType string, stats CallStats, result intake.Result) error {
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	detail, _ := json.Marshal(map[string]any{
		"source": stats.Source,
		"fields": keys,
	})
	_, err := s.aiCalls.Create(dbc, &types.AICallLog{
		SessionID: &sessionID,
		CallType:  callType,
		Model:     stats.Model,
		Success:   stats.Err == "",
		Error:     stats.Err,
		Attempts:  stats.Attempts,
		Detail:    datatypes.JSON(detail),
	})
	return err
}

func decodeProfile(raw datatypes.JSON) intake.Profile {
	var p intake.Profile
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &p)
	}
	if p == nil {
		p = intake.Profile{}
	}
	return p
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	}
	return 0, false
}
