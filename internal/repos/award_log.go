package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/types"
)

type AwardLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.AwardLog) error
	Update(ctx context.Context, tx *gorm.DB, row *types.AwardLog) error
	// Get returns the live award row for the method instance, or nil.
	Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, method string, methodID uuid.UUID, lock bool) (*types.AwardLog, error)
	ListByUserAndSkill(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID) ([]*types.AwardLog, error)
	ListByMethod(ctx context.Context, tx *gorm.DB, method string, methodID uuid.UUID) ([]*types.AwardLog, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	DeleteBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error
	DeleteByMethod(ctx context.Context, tx *gorm.DB, method string, methodID uuid.UUID) error
}

type awardLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAwardLogRepo(db *gorm.DB, baseLog *logger.Logger) AwardLogRepo {
	repoLog := baseLog.With("repo", "AwardLogRepo")
	return &awardLogRepo{db: db, log: repoLog}
}

func (r *awardLogRepo) Create(ctx context.Context, tx *gorm.DB, row *types.AwardLog) error {
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

func (r *awardLogRepo) Update(ctx context.Context, tx *gorm.DB, row *types.AwardLog) error {
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

func (r *awardLogRepo) Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, method string, methodID uuid.UUID, lock bool) (*types.AwardLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil || skillID == uuid.Nil || methodID == uuid.Nil {
		return nil, nil
	}

	query := transaction.WithContext(ctx)
	if lock {
		query = forUpdate(query)
	}

	var result types.AwardLog
	if err := query.
		Where("user_id = ? AND skill_id = ? AND method = ? AND method_id = ?", userID, skillID, method, methodID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *awardLogRepo) ListByUserAndSkill(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID) ([]*types.AwardLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.AwardLog
	if userID == uuid.Nil || skillID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *awardLogRepo) ListByMethod(ctx context.Context, tx *gorm.DB, method string, methodID uuid.UUID) ([]*types.AwardLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.AwardLog
	if method == "" || methodID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("method = ? AND method_id = ?", method, methodID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *awardLogRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.AwardLog{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *awardLogRepo) DeleteBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if skillID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Delete(&types.AwardLog{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *awardLogRepo) DeleteByMethod(ctx context.Context, tx *gorm.DB, method string, methodID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if method == "" || methodID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("method = ? AND method_id = ?", method, methodID).
		Delete(&types.AwardLog{}).Error; err != nil {
		return err
	}
	return nil
}
