package memory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Journey tracks the longer arc of what a user keeps coming back to.
type Journey struct {
	PrimaryConcerns []string    `json:"primary_concerns"`
	GrowthAreas     []string    `json:"growth_areas"`
	Milestones      []Milestone `json:"milestones"`
}

type Milestone struct {
	Exchanges int       `json:"exchanges"`
	Note      string    `json:"note"`
	At        time.Time `json:"at"`
}

// Insights are derived personality hints, recomputed every few exchanges.
type Insights struct {
	EmotionalState     string `json:"emotional_state,omitempty"`
	CommunicationStyle string `json:"communication_style,omitempty"`
	InquiryStyle       string `json:"inquiry_style,omitempty"`
}

// UserMemory is one row per user, rewritten whole by each extraction run.
type UserMemory struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	Themes   datatypes.JSONSlice[string]  `gorm:"column:themes" json:"themes"`
	Traits   datatypes.JSONType[TraitSet] `gorm:"column:traits" json:"traits"`
	Insights datatypes.JSONType[Insights] `gorm:"column:insights" json:"insights"`
	Journey  datatypes.JSONType[Journey]  `gorm:"column:journey" json:"journey"`

	Summary       string `gorm:"column:summary;type:text;not null;default:''" json:"summary"`
	ExchangeCount int    `gorm:"column:exchange_count;not null;default:0" json:"exchange_count"`

	// LastThemes is the theme list of the most recent extraction, newest last.
	LastThemes datatypes.JSONSlice[string] `gorm:"column:last_themes" json:"last_themes"`

	VisitCount  int        `gorm:"column:visit_count;not null;default:0" json:"visit_count"`
	LastVisitAt *time.Time `gorm:"column:last_visit_at" json:"last_visit_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (UserMemory) TableName() string { return "user_memory" }

func (m *UserMemory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TraitSet returns the stored traits, never nil.
func (m *UserMemory) TraitSet() TraitSet {
	if m == nil {
		return TraitSet{}
	}
	ts := m.Traits.Data()
	if ts == nil {
		return TraitSet{}
	}
	return ts
}

// NewUserMemory returns an empty row with every JSON column set, so reads never scan SQL NULL.
func NewUserMemory(userID uuid.UUID) *UserMemory {
	return &UserMemory{
		UserID:     userID,
		Themes:     datatypes.JSONSlice[string]{},
		LastThemes: datatypes.JSONSlice[string]{},
		Traits:     datatypes.NewJSONType(TraitSet{}),
		Insights:   datatypes.NewJSONType(Insights{}),
		Journey:    datatypes.NewJSONType(Journey{}),
	}
}
