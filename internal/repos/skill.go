package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/types"
)

type SkillRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Skill) error
	Update(ctx context.Context, tx *gorm.DB, row *types.Skill) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Skill, error)
	GetByIdentityKey(ctx context.Context, tx *gorm.DB, key string, excludeID uuid.UUID) (*types.Skill, error)
	List(ctx context.Context, tx *gorm.DB, archived *bool) ([]*types.Skill, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type skillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillRepo(db *gorm.DB, baseLog *logger.Logger) SkillRepo {
	repoLog := baseLog.With("repo", "SkillRepo")
	return &skillRepo{db: db, log: repoLog}
}

func (r *skillRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Skill) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	if err := transaction.WithContext(ctx).Omit("Levels").Create(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *skillRepo) Update(ctx context.Context, tx *gorm.DB, row *types.Skill) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil || row.ID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).Omit("Levels").Save(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *skillRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || len(fields) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Skill{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return err
	}
	return nil
}

func (r *skillRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Skill, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var result types.Skill
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

func (r *skillRepo) GetByIdentityKey(ctx context.Context, tx *gorm.DB, key string, excludeID uuid.UUID) (*types.Skill, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Where("identity_key = ?", key)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var result types.Skill
	if err := query.First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *skillRepo) List(ctx context.Context, tx *gorm.DB, archived *bool) ([]*types.Skill, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Order("created_at")
	if archived != nil {
		query = query.Where("archived = ?", *archived)
	}

	var results []*types.Skill
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *skillRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Skill{}).Error; err != nil {
		return err
	}
	return nil
}
