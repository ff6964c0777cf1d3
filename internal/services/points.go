package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/repos"
	"github.com/openlms/skills-backend/internal/skillerr"
	"github.com/openlms/skills-backend/internal/types"
)

// UserSkillSummary is the per-skill progress view for one user.
type UserSkillSummary struct {
	SkillID          uuid.UUID `json:"skill_id"`
	SkillName        string    `json:"skill_name"`
	Points           int       `json:"points"`
	PointsToComplete int       `json:"points_to_complete"`
	ProficiencyLevel string    `json:"proficiency_level,omitempty"`
	Percentage       int       `json:"percentage"`
	Proficient       bool      `json:"proficient"`
}

// PointsService owns the balance column and the award ledger. Every balance
// mutation in the system funnels through AdjustBalance, so a balance is the
// sum of currently-live award deltas by construction; the ledger is the
// provenance record, never re-summed to answer reads.
type PointsService interface {
	// GetBalance returns the balance row, materializing a zero row on
	// first read. lock takes a row lock when called inside a transaction.
	GetBalance(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, lock bool) (*types.UserPoints, error)
	// AdjustBalance is the only mutator of UserPoints.Points.
	AdjustBalance(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, delta int) (*types.UserPoints, error)
	AwardHistory(ctx context.Context, userID, skillID uuid.UUID) ([]*types.AwardLog, error)
	ProficientUsers(ctx context.Context, skillID uuid.UUID) ([]uuid.UUID, error)
	UserSkillSummaries(ctx context.Context, userID uuid.UUID) ([]*UserSkillSummary, error)
	// PurgeUser removes every balance and ledger row for the user, with the
	// user's enrolment and completion mirrors, in one transaction.
	PurgeUser(ctx context.Context, userID uuid.UUID) error
}

type pointsService struct {
	db             *gorm.DB
	log            *logger.Logger
	skillRepo      repos.SkillRepo
	levelRepo      repos.SkillLevelRepo
	userPointsRepo repos.UserPointsRepo
	awardRepo      repos.AwardLogRepo
	enrolmentRepo  repos.EnrolmentRepo
	completionRepo repos.CourseCompletionRepo
}

func NewPointsService(
	db *gorm.DB,
	log *logger.Logger,
	skillRepo repos.SkillRepo,
	levelRepo repos.SkillLevelRepo,
	userPointsRepo repos.UserPointsRepo,
	awardRepo repos.AwardLogRepo,
	enrolmentRepo repos.EnrolmentRepo,
	completionRepo repos.CourseCompletionRepo,
) PointsService {
	serviceLog := log.With("service", "PointsService")
	return &pointsService{
		db:             db,
		log:            serviceLog,
		skillRepo:      skillRepo,
		levelRepo:      levelRepo,
		userPointsRepo: userPointsRepo,
		awardRepo:      awardRepo,
		enrolmentRepo:  enrolmentRepo,
		completionRepo: completionRepo,
	}
}

func (ps *pointsService) GetBalance(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, lock bool) (*types.UserPoints, error) {
	if userID == uuid.Nil || skillID == uuid.Nil {
		return nil, skillerr.Validation("user id and skill id required")
	}

	row, err := ps.userPointsRepo.Get(ctx, tx, userID, skillID, lock)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}
	if row != nil {
		return row, nil
	}

	row = &types.UserPoints{UserID: userID, SkillID: skillID, Points: 0}
	if err := ps.userPointsRepo.Create(ctx, tx, row); err != nil {
		return nil, fmt.Errorf("materialize balance: %w", err)
	}
	return row, nil
}

func (ps *pointsService) AdjustBalance(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID, delta int) (*types.UserPoints, error) {
	row, err := ps.GetBalance(ctx, tx, userID, skillID, true)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return row, nil
	}

	// Negative totals are allowed: deduction rules are not clamped.
	row.Points += delta
	if err := ps.userPointsRepo.Update(ctx, tx, row); err != nil {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}
	return row, nil
}

func (ps *pointsService) AwardHistory(ctx context.Context, userID, skillID uuid.UUID) ([]*types.AwardLog, error) {
	return ps.awardRepo.ListByUserAndSkill(ctx, nil, userID, skillID)
}

func (ps *pointsService) ProficientUsers(ctx context.Context, skillID uuid.UUID) ([]uuid.UUID, error) {
	skill, err := ps.skillRepo.GetByID(ctx, nil, skillID)
	if err != nil {
		return nil, fmt.Errorf("fetch skill: %w", err)
	}
	if skill == nil {
		return nil, skillerr.NotFound("skill")
	}

	threshold, err := ps.pointsToComplete(ctx, nil, skillID)
	if err != nil {
		return nil, err
	}

	rows, err := ps.userPointsRepo.ListBySkill(ctx, nil, skillID)
	if err != nil {
		return nil, fmt.Errorf("fetch user points: %w", err)
	}

	var list []uuid.UUID
	for _, row := range rows {
		// Boundary included: balance == threshold is proficient.
		if row.Points >= threshold {
			list = append(list, row.UserID)
		}
	}
	return list, nil
}

func (ps *pointsService) UserSkillSummaries(ctx context.Context, userID uuid.UUID) ([]*UserSkillSummary, error) {
	rows, err := ps.userPointsRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user points: %w", err)
	}

	summaries := make([]*UserSkillSummary, 0, len(rows))
	for _, row := range rows {
		skill, err := ps.skillRepo.GetByID(ctx, nil, row.SkillID)
		if err != nil {
			return nil, fmt.Errorf("fetch skill: %w", err)
		}
		if skill == nil {
			continue
		}
		levels, err := ps.levelRepo.GetBySkillID(ctx, nil, row.SkillID)
		if err != nil {
			return nil, fmt.Errorf("fetch levels: %w", err)
		}

		summary := &UserSkillSummary{
			SkillID:   row.SkillID,
			SkillName: skill.Name,
			Points:    row.Points,
		}
		for _, level := range levels {
			if level.Points > summary.PointsToComplete {
				summary.PointsToComplete = level.Points
			}
			// Highest threshold the user has reached names their level.
			if row.Points >= level.Points {
				summary.ProficiencyLevel = level.Name
			}
		}
		if summary.PointsToComplete > 0 {
			summary.Percentage = row.Points * 100 / summary.PointsToComplete
		}
		summary.Proficient = row.Points >= summary.PointsToComplete
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (ps *pointsService) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return skillerr.Validation("user id required")
	}

	start := time.Now()
	if err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ps.userPointsRepo.DeleteByUser(ctx, tx, userID); err != nil {
			return fmt.Errorf("delete user points: %w", err)
		}
		if err := ps.awardRepo.DeleteByUser(ctx, tx, userID); err != nil {
			return fmt.Errorf("delete award logs: %w", err)
		}
		if err := ps.enrolmentRepo.DeleteByUser(ctx, tx, userID); err != nil {
			return fmt.Errorf("delete enrolments: %w", err)
		}
		if err := ps.completionRepo.DeleteByUser(ctx, tx, userID); err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	ps.log.Info("Purged user skill data", "user_id", userID, "took", time.Since(start))
	return nil
}

func (ps *pointsService) pointsToComplete(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) (int, error) {
	levels, err := ps.levelRepo.GetBySkillID(ctx, tx, skillID)
	if err != nil {
		return 0, fmt.Errorf("fetch levels: %w", err)
	}
	max := 0
	for _, level := range levels {
		if level.Points > max {
			max = level.Points
		}
	}
	return max, nil
}
