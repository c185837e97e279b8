package types

import (
	"time"

	"github.com/google/uuid"
)

type AcademicHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"session_id"`

	Level         string `gorm:"column:level" json:"level,omitempty"`
	Grades        string `gorm:"column:grades" json:"grades,omitempty"`
	Institution   string `gorm:"column:institution" json:"institution,omitempty"`
	Major         string `gorm:"column:major" json:"major,omitempty"`
	YearCompleted *int   `gorm:"column:year_completed" json:"year_completed,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AcademicHistory) TableName() string { return "academic_history" }
