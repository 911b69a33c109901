package types

import (
	"time"

	"github.com/google/uuid"
)

// Curriculum is an uploaded source document. VectorKey names the vector
// collection holding its embeddings; an empty VectorKey means the document
// has not been ingested yet.
type Curriculum struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	FilePath  string    `gorm:"column:file_path;not null" json:"file_path"`
	VectorKey string    `gorm:"column:vector_key;not null;default:''" json:"vector_key"`
	SchoolID  uuid.UUID `gorm:"type:uuid;not null;index" json:"school_id"`
	School    *School   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SchoolID;references:ID" json:"school,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Curriculum) TableName() string { return "curriculum" }

// Processed reports whether ingestion has completed successfully at least
// once for this curriculum.
func (c *Curriculum) Processed() bool { return c != nil && c.VectorKey != "" }
