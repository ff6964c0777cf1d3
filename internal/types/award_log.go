package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AwardGranted = 1
	AwardRevoked = 0
)

// AwardLog records the points one allocation-method instance currently
// contributes to one user's skill. At most one live row per
// (user, skill, method, method_id); re-evaluation corrects Points in place,
// revocation zeroes it but keeps the row.
type AwardLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_award_key,unique" json:"user_id"`
	SkillID   uuid.UUID `gorm:"type:uuid;not null;index:idx_award_key,unique" json:"skill_id"`
	Method    string    `gorm:"not null;index:idx_award_key,unique" json:"method"`
	MethodID  uuid.UUID `gorm:"type:uuid;column:method_id;not null;index:idx_award_key,unique" json:"method_id"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	Status    int       `gorm:"not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (AwardLog) TableName() string { return "award_logs" }

func (al *AwardLog) BeforeCreate(tx *gorm.DB) error {
	if al.ID == uuid.Nil {
		al.ID = uuid.New()
	}
	return nil
}
