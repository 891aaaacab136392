package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AssignmentStatusDraft     = "DRAFT"
	AssignmentStatusSent      = "SENT"
	AssignmentStatusCompleted = "COMPLETED"
)

// Assignment is a homework task authored for one client/session pair.
// Edits never mutate a row: each edit inserts a new row with Version+1
// and ParentAssignmentID pointing into the version chain, so history is
// append-only.
type Assignment struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title              string         `gorm:"not null;column:title" json:"title"`
	TaskDescription    string         `gorm:"column:task_description" json:"task_description"`
	LearningObjectives string         `gorm:"column:learning_objectives" json:"learning_objectives"`
	ReflectionPrompts  string         `gorm:"column:reflection_prompts" json:"reflection_prompts"`
	EstimatedTime      *int           `gorm:"column:estimated_time" json:"estimated_time,omitempty"`
	DifficultyLevel    string         `gorm:"column:difficulty_level" json:"difficulty_level,omitempty"`
	CustomFields       datatypes.JSON `gorm:"column:custom_fields" json:"custom_fields,omitempty"`
	Status             string         `gorm:"not null;default:'DRAFT';column:status;index" json:"status"`
	Version            int            `gorm:"not null;default:1;column:version" json:"version"`
	ParentAssignmentID *uuid.UUID     `gorm:"type:uuid;column:parent_assignment_id;index" json:"parent_assignment_id,omitempty"`
	ClientID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"client_id"`
	Client             *Client        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ClientID;references:ID" json:"client,omitempty"`
	SessionID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Session            *Session       `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`
	TherapistID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"therapist_id"`
	Therapist          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:TherapistID;references:ID" json:"therapist,omitempty"`
	SentAt             *time.Time     `gorm:"column:sent_at" json:"sent_at,omitempty"`
	CreatedAt          time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
}

func (Assignment) TableName() string {
	return "assignment"
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	if a.Status == "" {
		a.Status = AssignmentStatusDraft
	}
	return nil
}
