package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseCompletion mirrors the LMS completion state for one user in one
// course. Its presence is the reconciler's trigger condition: no row, no
// award pass.
type CourseCompletion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_completion,unique" json:"user_id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index:idx_completion,unique" json:"course_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (CourseCompletion) TableName() string { return "course_completions" }

func (cc *CourseCompletion) BeforeCreate(tx *gorm.DB) error {
	if cc.ID == uuid.Nil {
		cc.ID = uuid.New()
	}
	return nil
}
