package journal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxEntryChars      = 1000
	MaxReflectionChars = 500
	// KeepEntries is how many recent entries a user retains.
	KeepEntries = 30
)

type JournalEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Entry      string    `gorm:"column:entry;type:text;not null" json:"entry"`
	Reflection string    `gorm:"column:reflection;type:text;not null;default:''" json:"reflection"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

func (JournalEntry) TableName() string { return "journal_entry" }

func (e *JournalEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
