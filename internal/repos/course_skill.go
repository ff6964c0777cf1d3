package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/types"
)

type CourseSkillRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.CourseSkill) error
	Update(ctx context.Context, tx *gorm.DB, row *types.CourseSkill) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CourseSkill, error)
	GetBySkillAndCourse(ctx context.Context, tx *gorm.DB, skillID, courseID uuid.UUID) (*types.CourseSkill, error)
	// ListByCourse returns the bindings for a course, filtered by status
	// when status is non-empty.
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, status string) ([]*types.CourseSkill, error)
	ListBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) ([]*types.CourseSkill, error)
	UpdateStatusBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID, status string) error
	DeleteBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type courseSkillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseSkillRepo(db *gorm.DB, baseLog *logger.Logger) CourseSkillRepo {
	repoLog := baseLog.With("repo", "CourseSkillRepo")
	return &courseSkillRepo{db: db, log: repoLog}
}

func (r *courseSkillRepo) Create(ctx context.Context, tx *gorm.DB, row *types.CourseSkill) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	if err := transaction.WithContext(ctx).Omit("Skill").Create(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *courseSkillRepo) Update(ctx context.Context, tx *gorm.DB, row *types.CourseSkill) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil || row.ID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).Omit("Skill").Save(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *courseSkillRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CourseSkill, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var result types.CourseSkill
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *courseSkillRepo) GetBySkillAndCourse(ctx context.Context, tx *gorm.DB, skillID, courseID uuid.UUID) (*types.CourseSkill, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if skillID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}

	var result types.CourseSkill
	if err := transaction.WithContext(ctx).
		Where("skill_id = ? AND course_id = ?", skillID, courseID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *courseSkillRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, status string) ([]*types.CourseSkill, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CourseSkill
	if courseID == uuid.Nil {
		return results, nil
	}

	query := transaction.WithContext(ctx).Where("course_id = ?", courseID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseSkillRepo) ListBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) ([]*types.CourseSkill, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CourseSkill
	if skillID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseSkillRepo) UpdateStatusBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if skillID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.CourseSkill{}).
		Where("skill_id = ?", skillID).
		Update("status", status).Error; err != nil {
		return err
	}
	return nil
}

func (r *courseSkillRepo) DeleteBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if skillID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Delete(&types.CourseSkill{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *courseSkillRepo) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if courseID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&types.CourseSkill{}).Error; err != nil {
		return err
	}
	return nil
}
