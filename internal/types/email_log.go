package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog records one send attempt for an assignment. Rows are
// append-only: every attempt writes exactly one row, success or not.
type EmailLog struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"assignment_id"`
	Assignment   *Assignment `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssignmentID;references:ID" json:"assignment,omitempty"`
	TherapistID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"therapist_id"`
	ClientEmail  string      `gorm:"column:client_email" json:"client_email"`
	Subject      string      `gorm:"column:subject" json:"subject"`
	Status       string      `gorm:"not null;column:status" json:"status"`
	MessageID    string      `gorm:"column:message_id" json:"message_id,omitempty"`
	ErrorMessage string      `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time   `gorm:"not null;index" json:"created_at"`
}

func (EmailLog) TableName() string {
	return "email_log"
}

func (e *EmailLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
