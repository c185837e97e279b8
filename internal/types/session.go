package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// IntakeSession owns the conversational intake for one applicant. The
// evolving profile lives here as a JSON object; the normalized mirrors hang
// off session_id.
type IntakeSession struct {
	ID      uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Profile datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"profile"`
	Status  string         `gorm:"column:status;not null;default:'active';index" json:"status"`

	// Identifier of the question asked on the previous turn, used to bind the
	// next reply to the field it answers.
	LastQuestionID string `gorm:"column:last_question_id;not null;default:''" json:"last_question_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (IntakeSession) TableName() string { return "intake_session" }

const (
	SessionStatusActive   = "active"
	SessionStatusComplete = "complete"
)
