package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Completion rules for a course-bound skill.
const (
	CompletionNothing    = "nothing"
	CompletionPoints     = "points"
	CompletionSetLevel   = "setlevel"
	CompletionForceLevel = "forcelevel"
)

// CourseSkill binds a skill to a course with the rule applied when a user
// completes the course. One binding per (skill, course); unassigning a skill
// disables the binding instead of deleting it so granted points stay
// revocable.
type CourseSkill struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SkillID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_skill_course,unique" json:"skill_id"`
	Skill          *Skill     `gorm:"constraint:OnDelete:CASCADE;foreignKey:SkillID;references:ID" json:"skill,omitempty"`
	CourseID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_skill_course,unique" json:"course_id"`
	UponCompletion string     `gorm:"column:upon_completion;not null;default:'nothing'" json:"upon_completion"`
	Points         int        `gorm:"not null;default:0" json:"points"`
	LevelID        *uuid.UUID `gorm:"type:uuid;column:level_id" json:"level_id,omitempty"`
	Status         string     `gorm:"not null;default:'enabled'" json:"status"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (CourseSkill) TableName() string { return "course_skills" }

func (cs *CourseSkill) BeforeCreate(tx *gorm.DB) error {
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	return nil
}

// ValidCompletionRule reports whether rule is one of the known completion
// rules.
func ValidCompletionRule(rule string) bool {
	switch rule {
	case CompletionNothing, CompletionPoints, CompletionSetLevel, CompletionForceLevel:
		return true
	}
	return false
}
