package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleSuperadmin = "superadmin"
	RoleTeacher    = "teacher"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"column:username;not null;uniqueIndex" json:"username"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	Role         string     `gorm:"column:role;not null;default:'teacher'" json:"role"`
	SchoolID     *uuid.UUID `gorm:"type:uuid;index" json:"school_id,omitempty"`
	School       *School    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SchoolID;references:ID" json:"school,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

// IsSuperadmin reports whether the user bypasses school scoping.
func (u *User) IsSuperadmin() bool { return u != nil && u.Role == RoleSuperadmin }
