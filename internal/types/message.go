package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_message_session_created" json:"session_id"`

	Sender string `gorm:"column:sender;not null;index" json:"sender"`
	Text   string `gorm:"column:text;type:text;not null;default:''" json:"text"`

	// Dialog metadata for bot messages: next_question_id, quick_replies.
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index:idx_chat_message_session_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

const (
	SenderUser = "user"
	SenderBot  = "bot"
)
