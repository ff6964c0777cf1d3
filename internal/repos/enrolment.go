package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/types"
)

type EnrolmentRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Enrolment) error
	ListActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrolment, error)
	Deactivate(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type enrolmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrolmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrolmentRepo {
	repoLog := baseLog.With("repo", "EnrolmentRepo")
	return &enrolmentRepo{db: db, log: repoLog}
}

func (r *enrolmentRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Enrolment) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	// Upsert by unique user_id + course_id
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", row.UserID, row.CourseID).
		Assign(map[string]interface{}{"active": row.Active}).
		FirstOrCreate(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *enrolmentRepo) ListActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrolment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Enrolment
	if courseID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("course_id = ? AND active = ?", courseID, true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrolmentRepo) Deactivate(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Enrolment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("active", false).Error; err != nil {
		return err
	}
	return nil
}

func (r *enrolmentRepo) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if courseID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&types.Enrolment{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *enrolmentRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.Enrolment{}).Error; err != nil {
		return err
	}
	return nil
}
