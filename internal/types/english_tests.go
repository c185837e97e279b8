package types

import (
	"time"

	"github.com/google/uuid"
)

// EnglishTest rows are upserted by (session_id, test_name) so re-applying the
// same extraction never duplicates a test.
type EnglishTest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_english_test_session_name,unique,priority:1" json:"session_id"`

	TestName     string     `gorm:"column:test_name;not null;index:idx_english_test_session_name,unique,priority:2" json:"test_name"`
	OverallScore *float64   `gorm:"column:overall_score" json:"overall_score,omitempty"`
	TestDate     *time.Time `gorm:"column:test_date;type:date" json:"test_date,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (EnglishTest) TableName() string { return "english_test" }
