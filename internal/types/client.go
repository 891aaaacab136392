package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	Email        string    `gorm:"column:email" json:"email"`
	Age          *int      `gorm:"column:age" json:"age,omitempty"`
	Gender       string    `gorm:"column:gender" json:"gender,omitempty"`
	Condition    string    `gorm:"column:condition" json:"condition,omitempty"`
	TherapyGoals string    `gorm:"column:therapy_goals" json:"therapy_goals,omitempty"`
	TherapistID  uuid.UUID `gorm:"type:uuid;not null;index" json:"therapist_id"`
	Therapist    *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TherapistID;references:ID" json:"therapist,omitempty"`
	Sessions     []Session `gorm:"foreignKey:ClientID;references:ID" json:"sessions,omitempty"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Client) TableName() string {
	return "client"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
