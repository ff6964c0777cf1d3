package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/types"
)

type UserPointsRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.UserPoints) error
	Update(ctx context.Context, tx *gorm.DB, row *types.UserPoints) error
	// Get returns the balance row, or nil when absent. lock takes a row
	// lock for the enclosing transaction's read-modify-write.
	Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, lock bool) (*types.UserPoints, error)
	ListBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) ([]*types.UserPoints, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserPoints, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	DeleteBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error
}

type userPointsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserPointsRepo(db *gorm.DB, baseLog *logger.Logger) UserPointsRepo {
	repoLog := baseLog.With("repo", "UserPointsRepo")
	return &userPointsRepo{db: db, log: repoLog}
}

func (r *userPointsRepo) Create(ctx context.Context, tx *gorm.DB, row *types.UserPoints) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *userPointsRepo) Update(ctx context.Context, tx *gorm.DB, row *types.UserPoints) error {
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

func (r *userPointsRepo) Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, lock bool) (*types.UserPoints, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil || skillID == uuid.Nil {
		return nil, nil
	}

	query := transaction.WithContext(ctx)
	if lock {
		query = forUpdate(query)
	}

	var result types.UserPoints
	if err := query.
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *userPointsRepo) ListBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) ([]*types.UserPoints, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserPoints
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

func (r *userPointsRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserPoints, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserPoints
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userPointsRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserPoints{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *userPointsRepo) DeleteBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if skillID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Delete(&types.UserPoints{}).Error; err != nil {
		return err
	}
	return nil
}
