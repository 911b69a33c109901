package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Lesson struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"module_id"`
	Module          *Module        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Position        int            `gorm:"column:position;not null" json:"position"`
	Name            string         `gorm:"column:name;not null" json:"name"`
	Description     string         `gorm:"column:description" json:"description"`
	Content         string         `gorm:"column:content;type:text" json:"content"`
	KeyPoints       datatypes.JSON `gorm:"column:key_points;type:jsonb" json:"key_points,omitempty"`
	Activities      datatypes.JSON `gorm:"column:activities;type:jsonb" json:"activities,omitempty"`
	Resources       datatypes.JSON `gorm:"column:resources;type:jsonb" json:"resources,omitempty"`
	AssessmentIdeas datatypes.JSON `gorm:"column:assessment_ideas;type:jsonb" json:"assessment_ideas,omitempty"`
	Examples        datatypes.JSON `gorm:"column:examples;type:jsonb" json:"examples,omitempty"`
	Exercises       datatypes.JSON `gorm:"column:exercises;type:jsonb" json:"exercises,omitempty"`
	TopicContext    datatypes.JSON `gorm:"column:topic_context;type:jsonb" json:"topic_context,omitempty"`
	ContextCache    datatypes.JSON `gorm:"column:context_cache;type:jsonb" json:"context_cache,omitempty"`

	Assessments []*Assessment `gorm:"foreignKey:LessonID;references:ID" json:"assessments,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }
