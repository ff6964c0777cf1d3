package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrolment mirrors the LMS enrolment state for one user in one course.
// Fed by enrolment events; the reconciler's bulk pass iterates active rows.
type Enrolment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_enrolment,unique" json:"user_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index:idx_enrolment,unique" json:"course_id"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrolment) TableName() string { return "enrolments" }

func (e *Enrolment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
