package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/types"
)

type SkillLevelRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.SkillLevel) error
	Update(ctx context.Context, tx *gorm.DB, row *types.SkillLevel) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SkillLevel, error)
	GetBySkillID(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) ([]*types.SkillLevel, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteBySkillID(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error
}

type skillLevelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillLevelRepo(db *gorm.DB, baseLog *logger.Logger) SkillLevelRepo {
	repoLog := baseLog.With("repo", "SkillLevelRepo")
	return &skillLevelRepo{db: db, log: repoLog}
}

func (r *skillLevelRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.SkillLevel) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}
	return nil
}

func (r *skillLevelRepo) Update(ctx context.Context, tx *gorm.DB, row *types.SkillLevel) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil || row.ID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).Save(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *skillLevelRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SkillLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var result types.SkillLevel
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

func (r *skillLevelRepo) GetBySkillID(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) ([]*types.SkillLevel, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SkillLevel
	if skillID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Order("sort, points").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *skillLevelRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.SkillLevel{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *skillLevelRepo) DeleteBySkillID(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if skillID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Delete(&types.SkillLevel{}).Error; err != nil {
		return err
	}
	return nil
}
