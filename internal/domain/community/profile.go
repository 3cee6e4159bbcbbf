package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/domain/memory"
)

// CommunityProfile is the discoverable face of a user. Only OptIn profiles are matched.
type CommunityProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	DisplayName         string                              `gorm:"column:display_name;not null" json:"display_name"`
	Bio                 string                              `gorm:"column:bio;type:text;not null;default:''" json:"bio"`
	PreferredTraditions datatypes.JSONSlice[string]         `gorm:"column:preferred_traditions" json:"preferred_traditions"`
	OptIn               bool                                `gorm:"column:opt_in;not null;default:false;index" json:"opt_in"`
	Traits              datatypes.JSONType[memory.TraitSet] `gorm:"column:traits" json:"traits"`

	LastActiveAt time.Time `gorm:"column:last_active_at;not null;index" json:"last_active_at"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (CommunityProfile) TableName() string { return "community_profile" }

func (p *CommunityProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *CommunityProfile) TraitSet() memory.TraitSet {
	if p == nil {
		return memory.TraitSet{}
	}
	ts := p.Traits.Data()
	if ts == nil {
		return memory.TraitSet{}
	}
	return ts
}
