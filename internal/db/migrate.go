package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/brightpath-labs/intake-backend/internal/types"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Conversation
		&types.IntakeSession{},
		&types.ChatMessage{},
		&types.Document{},

		// Normalized profile mirrors
		&types.StudentProfile{},
		&types.AcademicHistory{},
		&types.EnglishTest{},
		&types.StudyPreference{},

		// Audit
		&types.AICallLog{},
	)
}

func EnsureIntakeIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	// Case-insensitive uniqueness for the per-session english test upsert.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_english_test_session_name_ci
		ON english_test (session_id, lower(test_name));
	`).Error; err != nil {
		return fmt.Errorf("create idx_english_test_session_name_ci: %w", err)
	}

	// Fast transcript pagination per session.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chat_message_session_created_at
		ON chat_message (session_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_chat_message_session_created_at: %w", err)
	}

	// Status-filtered document listings.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_document_status_uploaded
		ON document (status, uploaded_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_document_status_uploaded: %w", err)
	}

	return nil
}
