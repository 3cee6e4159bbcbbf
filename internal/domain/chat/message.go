package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Source is a scripture citation attached to an assistant reply.
type Source struct {
	Tradition string `json:"tradition"`
	Scripture string `json:"scripture"`
	Excerpt   string `json:"excerpt"`
}

// ChatMessage is immutable once written. Seq is assigned under the thread row lock.
type ChatMessage struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_chat_message_thread_seq,priority:1" json:"thread_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Seq int64 `gorm:"column:seq;not null;uniqueIndex:idx_chat_message_thread_seq,priority:2" json:"seq"`

	Role     string                      `gorm:"column:role;not null;index" json:"role"`
	Content  string                      `gorm:"column:content;type:text;not null" json:"content"`
	Sources  datatypes.JSONSlice[Source] `gorm:"column:sources" json:"sources"`
	IsCrisis bool                        `gorm:"column:is_crisis;not null;default:false" json:"is_crisis"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
