package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SkillLevel is a named point threshold within a skill. The level with the
// highest threshold marks skill completion; Sort 0 is the base level.
type SkillLevel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SkillID   uuid.UUID `gorm:"type:uuid;not null;index" json:"skill_id"`
	Name      string    `gorm:"not null" json:"name"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	Color     string    `gorm:"column:color" json:"color,omitempty"`
	Image     string    `gorm:"column:image" json:"image,omitempty"`
	Sort      int       `gorm:"column:sort;not null;default:0" json:"sort"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SkillLevel) TableName() string { return "skill_levels" }

func (l *SkillLevel) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
