package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserPoints is the running point total one user holds for one skill.
// It is the authoritative fast-read balance; the award log carries the
// provenance. Only the points service mutates Points. Totals may go
// negative: deduction rules are not clamped.
type UserPoints struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_user_skill,unique" json:"user_id"`
	SkillID   uuid.UUID `gorm:"type:uuid;not null;index:idx_user_skill,unique" json:"skill_id"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserPoints) TableName() string { return "user_points" }

func (up *UserPoints) BeforeCreate(tx *gorm.DB) error {
	if up.ID == uuid.Nil {
		up.ID = uuid.New()
	}
	return nil
}
