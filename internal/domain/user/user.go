package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors the identity issued by the auth provider. The ID is the token subject.
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	DisplayName      string    `gorm:"column:display_name;not null;default:''" json:"display_name"`
	DefaultTradition string    `gorm:"column:default_tradition;not null;default:''" json:"default_tradition"`
	Theme            string    `gorm:"column:theme;not null;default:'light'" json:"theme"`

	LastSeenAt time.Time `gorm:"column:last_seen_at;index" json:"last_seen_at"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
