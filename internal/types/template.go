package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TemplateStatusPrivate  = "PRIVATE"
	TemplateStatusPending  = "PENDING"
	TemplateStatusApproved = "APPROVED"
	TemplateStatusRejected = "REJECTED"
)

// Template is a reusable, client-agnostic assignment definition. Status
// moves PRIVATE→PENDING by the owning therapist and PENDING→APPROVED or
// REJECTED by an admin.
type Template struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title              string         `gorm:"not null;column:title" json:"title"`
	TaskDescription    string         `gorm:"column:task_description" json:"task_description"`
	LearningObjectives string         `gorm:"column:learning_objectives" json:"learning_objectives"`
	ReflectionPrompts  string         `gorm:"column:reflection_prompts" json:"reflection_prompts"`
	EstimatedTime      *int           `gorm:"column:estimated_time" json:"estimated_time,omitempty"`
	DifficultyLevel    string         `gorm:"column:difficulty_level" json:"difficulty_level,omitempty"`
	CustomFields       datatypes.JSON `gorm:"column:custom_fields" json:"custom_fields,omitempty"`
	Tags               datatypes.JSON `gorm:"column:tags" json:"tags"`
	Status             string         `gorm:"not null;default:'PRIVATE';column:status;index" json:"status"`
	ApprovedAt         *time.Time     `gorm:"column:approved_at" json:"approved_at,omitempty"`
	ApprovedBy         *uuid.UUID     `gorm:"type:uuid;column:approved_by" json:"approved_by,omitempty"`
	TherapistID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"therapist_id"`
	Therapist          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:TherapistID;references:ID" json:"therapist,omitempty"`
	CreatedAt          time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
}

func (Template) TableName() string {
	return "template"
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TemplateStatusPrivate
	}
	return nil
}
