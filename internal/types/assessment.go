package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Assessment struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson    *Lesson        `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	Questions datatypes.JSON `gorm:"column:questions;type:jsonb" json:"questions"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Assessment) TableName() string { return "assessment" }
