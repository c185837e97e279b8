package types

import (
	"time"

	"github.com/google/uuid"
)

// StudentProfile is the normalized identity mirror: one row per session,
// upserted as identity fields arrive.
type StudentProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"session_id"`

	FullName string `gorm:"column:full_name" json:"full_name,omitempty"`
	Age      *int   `gorm:"column:age" json:"age,omitempty"`
	Email    string `gorm:"column:email" json:"email,omitempty"`
	Phone    string `gorm:"column:phone" json:"phone,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StudentProfile) TableName() string { return "student_profile" }
