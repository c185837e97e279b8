package app

import (
	"gorm.io/gorm"

	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/services"
)

type Services struct {
	AI             services.OpenAIClient
	Extractor      services.Extractor
	IntakeChat     services.IntakeChatService
	DocumentIngest services.DocumentIngestService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos) Services {
	log.Info("Wiring services...")

	// Without credentials the rule-based extractor carries the conversation;
	// callers cannot tell the difference.
	ai, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Warn("OpenAI client unavailable, extraction degrades to rules", "error", err)
		ai = nil
	}

	extractor := services.NewExtractor(ai, log)

	chat := services.NewIntakeChatService(
		db,
		extractor,
		reposet.Session,
		reposet.Message,
		reposet.Document,
		reposet.StudentProfile,
		reposet.AcademicHistory,
		reposet.EnglishTest,
		reposet.StudyPreference,
		reposet.AICallLog,
		log,
	)

	docs := services.NewDocumentIngestService(chat, reposet.Session, reposet.Document, log)

	return Services{
		AI:             ai,
		Extractor:      extractor,
		IntakeChat:     chat,
		DocumentIngest: docs,
	}
}
