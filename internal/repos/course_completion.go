package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/types"
)

type CourseCompletionRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.CourseCompletion) error
	Get(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseCompletion, error)
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type courseCompletionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseCompletionRepo(db *gorm.DB, baseLog *logger.Logger) CourseCompletionRepo {
	repoLog := baseLog.With("repo", "CourseCompletionRepo")
	return &courseCompletionRepo{db: db, log: repoLog}
}

func (r *courseCompletionRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.CourseCompletion) error {
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
		Assign(map[string]interface{}{"completed_at": row.CompletedAt}).
		FirstOrCreate(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *courseCompletionRepo) Get(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseCompletion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}

	var result types.CourseCompletion
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *courseCompletionRepo) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if courseID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&types.CourseCompletion{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *courseCompletionRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.CourseCompletion{}).Error; err != nil {
		return err
	}
	return nil
}
