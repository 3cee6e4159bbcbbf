package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// ConnectionRequest moves pending -> accepted | declined and never back.
// At most one pending row exists per direction (partial unique index).
type ConnectionRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FromUserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_connection_request_pending_pair,priority:1,where:status = 'pending'" json:"from_user_id"`
	ToUserID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_connection_request_pending_pair,priority:2" json:"to_user_id"`

	Status      string     `gorm:"column:status;not null;index" json:"status"`
	Message     string     `gorm:"column:message;type:text;not null;default:''" json:"message"`
	RespondedAt *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConnectionRequest) TableName() string { return "connection_request" }

func (r *ConnectionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *ConnectionRequest) IsTerminal() bool {
	return r != nil && (r.Status == RequestAccepted || r.Status == RequestDeclined)
}

// Connection is one direction of a symmetric pair. Rows are always written and removed in pairs.
type Connection struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_connection_pair,priority:1" json:"user_id"`
	PeerUserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_connection_pair,priority:2;index" json:"peer_user_id"`
	RequestID  uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Connection) TableName() string { return "connection" }

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
