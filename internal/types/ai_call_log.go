package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AICallLog records every structured-generation call so malformed model
// output is logged rather than surfaced to the applicant.
type AICallLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`

	CallType string `gorm:"column:call_type;not null" json:"call_type"`
	Model    string `gorm:"column:model;not null" json:"model"`
	Success  bool   `gorm:"column:success;not null" json:"success"`
	Error    string `gorm:"column:error" json:"error,omitempty"`
	Attempts int    `gorm:"column:attempts;not null;default:0" json:"attempts"`

	Detail datatypes.JSON `gorm:"type:jsonb;column:detail;not null;default:'{}'" json:"detail,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AICallLog) TableName() string { return "ai_call_log" }
