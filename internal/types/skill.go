package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// Skill is a trackable competency with point-based progression. Categories
// holds the course-category ids the skill applies to; empty means global.
type Skill struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	IdentityKey string         `gorm:"column:identity_key;not null;uniqueIndex" json:"identity_key"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	Status      string         `gorm:"not null;default:'enabled'" json:"status"`
	Archived    bool           `gorm:"not null;default:false" json:"archived"`
	ArchivedAt  *time.Time     `gorm:"column:archived_at" json:"archived_at,omitempty"`
	Categories  datatypes.JSON `gorm:"type:jsonb;column:categories" json:"categories,omitempty"`
	Levels      []SkillLevel   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SkillID;references:ID" json:"levels,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Skill) TableName() string { return "skills" }

func (s *Skill) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
