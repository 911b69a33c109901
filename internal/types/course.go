package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Course generation status values. A course is created "pending", moves to
// "generating" while workflow steps run, and ends "ready" or "failed".
// This is distinct from IsFinalized, which only the finalize step sets.
const (
	GenerationPending    = "pending"
	GenerationGenerating = "generating"
	GenerationReady      = "ready"
	GenerationFailed     = "failed"
)

type Course struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string      `gorm:"column:title;not null" json:"title"`
	DurationWeeks int         `gorm:"column:duration_weeks;not null" json:"duration_weeks"`
	IsFinalized   bool        `gorm:"column:is_finalized;not null;default:false" json:"is_finalized"`
	SchoolID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"school_id"`
	School        *School     `gorm:"constraint:OnDelete:CASCADE;foreignKey:SchoolID;references:ID" json:"school,omitempty"`
	CurriculumID  *uuid.UUID  `gorm:"type:uuid;index" json:"curriculum_id,omitempty"`
	Curriculum    *Curriculum `gorm:"constraint:OnDelete:SET NULL;foreignKey:CurriculumID;references:ID" json:"curriculum,omitempty"`

	GenerationStatus string `gorm:"column:generation_status;not null;default:'pending'" json:"generation_status"`

	// Curriculum-derived context, populated only when the course was
	// created from a processed curriculum.
	LearningObjectives datatypes.JSON `gorm:"column:learning_objectives;type:jsonb" json:"learning_objectives,omitempty"`
	KeyConcepts        datatypes.JSON `gorm:"column:key_concepts;type:jsonb" json:"key_concepts,omitempty"`
	SkillLevel         string         `gorm:"column:skill_level" json:"skill_level,omitempty"`
	Themes             datatypes.JSON `gorm:"column:themes;type:jsonb" json:"themes,omitempty"`
	ProgressionPath    datatypes.JSON `gorm:"column:progression_path;type:jsonb" json:"progression_path,omitempty"`
	TeachingApproach   datatypes.JSON `gorm:"column:teaching_approach;type:jsonb" json:"teaching_approach,omitempty"`
	CoreCompetencies   datatypes.JSON `gorm:"column:core_competencies;type:jsonb" json:"core_competencies,omitempty"`
	ContextCache       datatypes.JSON `gorm:"column:context_cache;type:jsonb" json:"context_cache,omitempty"`
	LastContextUpdate  *time.Time     `gorm:"column:last_context_update" json:"last_context_update,omitempty"`

	Modules []*Module `gorm:"foreignKey:CourseID;references:ID" json:"modules,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }
