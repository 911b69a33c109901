package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Module struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course            *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Position          int            `gorm:"column:position;not null" json:"position"`
	Name              string         `gorm:"column:name;not null" json:"name"`
	Description       string         `gorm:"column:description" json:"description"`
	LearningOutcomes  datatypes.JSON `gorm:"column:learning_outcomes;type:jsonb" json:"learning_outcomes,omitempty"`
	Prerequisites     datatypes.JSON `gorm:"column:prerequisites;type:jsonb" json:"prerequisites,omitempty"`
	EstimatedDuration string         `gorm:"column:estimated_duration" json:"estimated_duration,omitempty"`
	ThemeContext      datatypes.JSON `gorm:"column:theme_context;type:jsonb" json:"theme_context,omitempty"`
	ContextCache      datatypes.JSON `gorm:"column:context_cache;type:jsonb" json:"context_cache,omitempty"`

	Lessons []*Lesson `gorm:"foreignKey:ModuleID;references:ID" json:"lessons,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Module) TableName() string { return "module" }
