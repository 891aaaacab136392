package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a numbered therapy session for a client. SessionNumber is
// assigned per client: the service auto-increments it when the caller
// omits one.
type Session struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	SessionNumber int          `gorm:"not null;column:session_number;index" json:"session_number"`
	Summary       string       `gorm:"column:summary" json:"summary,omitempty"`
	FocusArea     string       `gorm:"column:focus_area" json:"focus_area,omitempty"`
	ClientID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"client_id"`
	Client        *Client      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ClientID;references:ID" json:"client,omitempty"`
	TherapistID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"therapist_id"`
	Therapist     *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:TherapistID;references:ID" json:"therapist,omitempty"`
	Assignments   []Assignment `gorm:"foreignKey:SessionID;references:ID" json:"assignments,omitempty"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string {
	return "session"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
