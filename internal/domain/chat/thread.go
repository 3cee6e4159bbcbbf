package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ModeStandard   = "standard"
	ModePrayer     = "prayer"
	ModeJournal    = "journal"
	ModeMeditation = "meditation"
)

type ChatThread struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title string `gorm:"column:title;not null" json:"title"`
	// AutoTitled is true while Title is still the generated "New Chat N" placeholder.
	AutoTitled bool   `gorm:"column:auto_titled;not null;default:false" json:"auto_titled"`
	Tradition  string `gorm:"column:tradition;not null;default:''" json:"tradition"`
	Mode       string `gorm:"column:mode;not null;default:'standard'" json:"mode"`
	IsCurrent  bool   `gorm:"column:is_current;not null;default:false;index" json:"is_current"`

	MessageCount int    `gorm:"column:message_count;not null;default:0" json:"message_count"`
	LastSeq      int64  `gorm:"column:last_seq;not null;default:0" json:"last_seq"`
	Preview      string `gorm:"column:preview;type:text;not null;default:''" json:"preview"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (ChatThread) TableName() string { return "chat_thread" }

func (t *ChatThread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func ValidMode(mode string) bool {
	switch mode {
	case ModeStandard, ModePrayer, ModeJournal, ModeMeditation:
		return true
	}
	return false
}
