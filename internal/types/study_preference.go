package types

import (
	"time"

	"github.com/google/uuid"
)

// StudyPreference holds one row per session, upserted field by field as
// preference data arrives.
type StudyPreference struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"session_id"`

	TargetLevel        string `gorm:"column:target_level" json:"target_level,omitempty"`
	FieldOfStudy       string `gorm:"column:field_of_study" json:"field_of_study,omitempty"`
	PreferredCountries string `gorm:"column:preferred_countries" json:"preferred_countries,omitempty"`
	FundingType        string `gorm:"column:funding_type" json:"funding_type,omitempty"`
	BudgetMin          *int   `gorm:"column:budget_min" json:"budget_min,omitempty"`
	BudgetMax          *int   `gorm:"column:budget_max" json:"budget_max,omitempty"`
	CareerGoals        string `gorm:"column:career_goals;type:text" json:"career_goals,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StudyPreference) TableName() string { return "study_preference" }
