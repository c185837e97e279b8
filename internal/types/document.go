package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`

	StorageKey string `gorm:"column:storage_key;not null" json:"storage_key"`
	Filename   string `gorm:"column:filename;not null" json:"filename"`
	DocType    string `gorm:"column:doc_type" json:"doc_type,omitempty"`
	Status     string `gorm:"column:status;not null;default:'queued';index" json:"status"`

	// Fields pulled out of the document text, kept for audit alongside the
	// merged profile.
	ExtractedFields datatypes.JSON `gorm:"type:jsonb;column:extracted_fields;not null;default:'{}'" json:"extracted_fields,omitempty"`

	UploadedAt time.Time `gorm:"not null;default:now()" json:"uploaded_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "document" }

const (
	DocumentStatusQueued    = "queued"
	DocumentStatusProcessed = "processed"
	DocumentStatusFailed    = "failed"
)
