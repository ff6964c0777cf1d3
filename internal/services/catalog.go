package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/repos"
	"github.com/openlms/skills-backend/internal/skillerr"
	"github.com/openlms/skills-backend/internal/types"
)

// LevelInput carries one level of a skill save. ID set means update the
// existing level in place (bindings reference level ids, so levels are never
// recreated on edit); ID nil means create.
type LevelInput struct {
	ID     *uuid.UUID `json:"id"`
	Name   string     `json:"name"`
	Points int        `json:"points"`
	Color  string     `json:"color"`
	Image  string     `json:"image"`
}

// SkillInput is the admin-facing skill save payload. Levels replaces the
// full level set: levels absent from the list are deleted.
type SkillInput struct {
	Name        string       `json:"name"`
	IdentityKey string       `json:"identity_key"`
	Description string       `json:"description"`
	Enabled     bool         `json:"enabled"`
	Categories  []string     `json:"categories"`
	Levels      []LevelInput `json:"levels"`
}

// CatalogService manages the skill and level catalog.
type CatalogService interface {
	CreateSkill(ctx context.Context, in SkillInput) (*types.Skill, error)
	UpdateSkill(ctx context.Context, id uuid.UUID, in SkillInput) (*types.Skill, error)
	GetSkill(ctx context.Context, id uuid.UUID) (*types.Skill, error)
	ListSkills(ctx context.Context, archived *bool, category string) ([]*types.Skill, error)
	GetLevels(ctx context.Context, skillID uuid.UUID) ([]*types.SkillLevel, error)
	PointsToComplete(ctx context.Context, skillID uuid.UUID) (int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, enabled bool) error
	ArchiveSkill(ctx context.Context, id uuid.UUID) error
	ActivateSkill(ctx context.Context, id uuid.UUID) error
	DeleteSkill(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	db             *gorm.DB
	log            *logger.Logger
	registry       *Registry
	skillRepo      repos.SkillRepo
	levelRepo      repos.SkillLevelRepo
	courseSkills   repos.CourseSkillRepo
	userPointsRepo repos.UserPointsRepo
	awardRepo      repos.AwardLogRepo
}

func NewCatalogService(
	db *gorm.DB,
	log *logger.Logger,
	registry *Registry,
	skillRepo repos.SkillRepo,
	levelRepo repos.SkillLevelRepo,
	courseSkills repos.CourseSkillRepo,
	userPointsRepo repos.UserPointsRepo,
	awardRepo repos.AwardLogRepo,
) CatalogService {
	serviceLog := log.With("service", "CatalogService")
	return &catalogService{
		db:             db,
		log:            serviceLog,
		registry:       registry,
		skillRepo:      skillRepo,
		levelRepo:      levelRepo,
		courseSkills:   courseSkills,
		userPointsRepo: userPointsRepo,
		awardRepo:      awardRepo,
	}
}

func (cs *catalogService) CreateSkill(ctx context.Context, in SkillInput) (*types.Skill, error) {
	if err := validateSkillInput(in); err != nil {
		return nil, err
	}

	var created *types.Skill
	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := cs.skillRepo.GetByIdentityKey(ctx, tx, in.IdentityKey, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check identity key: %w", err)
		}
		if existing != nil {
			return skillerr.Validation("identity key %q already exists", in.IdentityKey)
		}

		categories, err := marshalCategories(in.Categories)
		if err != nil {
			return err
		}

		skill := &types.Skill{
			Name:        strings.TrimSpace(in.Name),
			IdentityKey: strings.TrimSpace(in.IdentityKey),
			Description: in.Description,
			Status:      statusFromEnabled(in.Enabled),
			Categories:  categories,
		}
		if err := cs.skillRepo.Create(ctx, tx, skill); err != nil {
			return fmt.Errorf("create skill: %w", err)
		}

		if err := cs.saveLevels(ctx, tx, skill.ID, in.Levels); err != nil {
			return err
		}
		created = skill
		return nil
	}); err != nil {
		return nil, err
	}

	cs.log.Info("Skill created", "skill_id", created.ID, "identity_key", created.IdentityKey)
	return cs.GetSkill(ctx, created.ID)
}

func (cs *catalogService) UpdateSkill(ctx context.Context, id uuid.UUID, in SkillInput) (*types.Skill, error) {
	if err := validateSkillInput(in); err != nil {
		return nil, err
	}

	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := cs.skillRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("fetch skill: %w", err)
		}
		if skill == nil {
			return skillerr.NotFound("skill")
		}

		duplicate, err := cs.skillRepo.GetByIdentityKey(ctx, tx, in.IdentityKey, id)
		if err != nil {
			return fmt.Errorf("check identity key: %w", err)
		}
		if duplicate != nil {
			return skillerr.Validation("identity key %q already exists", in.IdentityKey)
		}

		categories, err := marshalCategories(in.Categories)
		if err != nil {
			return err
		}

		skill.Name = strings.TrimSpace(in.Name)
		skill.IdentityKey = strings.TrimSpace(in.IdentityKey)
		skill.Description = in.Description
		skill.Status = statusFromEnabled(in.Enabled)
		skill.Categories = categories
		if err := cs.skillRepo.Update(ctx, tx, skill); err != nil {
			return fmt.Errorf("update skill: %w", err)
		}

		return cs.saveLevels(ctx, tx, id, in.Levels)
	}); err != nil {
		return nil, err
	}

	cs.log.Info("Skill updated", "skill_id", id)
	return cs.GetSkill(ctx, id)
}

// saveLevels diffs the stored level set against the input: ids present are
// updated, new entries created, stored levels missing from the input
// deleted.
func (cs *catalogService) saveLevels(ctx context.Context, tx *gorm.DB, skillID uuid.UUID, inputs []LevelInput) error {
	existing, err := cs.levelRepo.GetBySkillID(ctx, tx, skillID)
	if err != nil {
		return fmt.Errorf("fetch levels: %w", err)
	}
	byID := make(map[uuid.UUID]*types.SkillLevel, len(existing))
	for _, level := range existing {
		byID[level.ID] = level
	}

	var creates []*types.SkillLevel
	seen := make(map[uuid.UUID]bool, len(inputs))
	for i, in := range inputs {
		if in.ID != nil {
			level, ok := byID[*in.ID]
			if !ok {
				return skillerr.NotFound(fmt.Sprintf("level %s", *in.ID))
			}
			seen[*in.ID] = true
			level.Name = in.Name
			level.Points = in.Points
			level.Color = in.Color
			level.Image = in.Image
			level.Sort = i
			if err := cs.levelRepo.Update(ctx, tx, level); err != nil {
				return fmt.Errorf("update level: %w", err)
			}
			continue
		}
		creates = append(creates, &types.SkillLevel{
			SkillID: skillID,
			Name:    in.Name,
			Points:  in.Points,
			Color:   in.Color,
			Image:   in.Image,
			Sort:    i,
		})
	}

	var removals []uuid.UUID
	for _, level := range existing {
		if !seen[level.ID] {
			removals = append(removals, level.ID)
		}
	}
	if err := cs.levelRepo.DeleteByIDs(ctx, tx, removals); err != nil {
		return fmt.Errorf("delete levels: %w", err)
	}
	if err := cs.levelRepo.Create(ctx, tx, creates); err != nil {
		return fmt.Errorf("create levels: %w", err)
	}
	return nil
}

func (cs *catalogService) GetSkill(ctx context.Context, id uuid.UUID) (*types.Skill, error) {
	skill, err := cs.skillRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("fetch skill: %w", err)
	}
	if skill == nil {
		return nil, skillerr.NotFound("skill")
	}

	levels, err := cs.levelRepo.GetBySkillID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("fetch levels: %w", err)
	}
	skill.Levels = make([]types.SkillLevel, 0, len(levels))
	for _, level := range levels {
		skill.Levels = append(skill.Levels, *level)
	}
	return skill, nil
}

func (cs *catalogService) ListSkills(ctx context.Context, archived *bool, category string) ([]*types.Skill, error) {
	skills, err := cs.skillRepo.List(ctx, nil, archived)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	if category == "" {
		return skills, nil
	}

	// Category filter: skills with no categories are global and always
	// included.
	filtered := make([]*types.Skill, 0, len(skills))
	for _, skill := range skills {
		categories, err := unmarshalCategories(skill.Categories)
		if err != nil {
			return nil, err
		}
		if len(categories) == 0 {
			filtered = append(filtered, skill)
			continue
		}
		for _, c := range categories {
			if c == category {
				filtered = append(filtered, skill)
				break
			}
		}
	}
	return filtered, nil
}

func (cs *catalogService) GetLevels(ctx context.Context, skillID uuid.UUID) ([]*types.SkillLevel, error) {
	skill, err := cs.skillRepo.GetByID(ctx, nil, skillID)
	if err != nil {
		return nil, fmt.Errorf("fetch skill: %w", err)
	}
	if skill == nil {
		return nil, skillerr.NotFound("skill")
	}
	return cs.levelRepo.GetBySkillID(ctx, nil, skillID)
}

func (cs *catalogService) PointsToComplete(ctx context.Context, skillID uuid.UUID) (int, error) {
	levels, err := cs.GetLevels(ctx, skillID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, level := range levels {
		if level.Points > max {
			max = level.Points
		}
	}
	return max, nil
}

func (cs *catalogService) UpdateStatus(ctx context.Context, id uuid.UUID, enabled bool) error {
	skill, err := cs.skillRepo.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("fetch skill: %w", err)
	}
	if skill == nil {
		return skillerr.NotFound("skill")
	}
	return cs.skillRepo.UpdateFields(ctx, nil, id, map[string]interface{}{
		"status": statusFromEnabled(enabled),
	})
}

// ArchiveSkill soft-disables a skill and force-disables every binding to it.
func (cs *catalogService) ArchiveSkill(ctx context.Context, id uuid.UUID) error {
	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := cs.skillRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("fetch skill: %w", err)
		}
		if skill == nil {
			return skillerr.NotFound("skill")
		}

		now := time.Now()
		if err := cs.skillRepo.UpdateFields(ctx, tx, id, map[string]interface{}{
			"archived":    true,
			"archived_at": &now,
		}); err != nil {
			return fmt.Errorf("archive skill: %w", err)
		}
		if err := cs.courseSkills.UpdateStatusBySkill(ctx, tx, id, types.StatusDisabled); err != nil {
			return fmt.Errorf("disable bindings: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	cs.log.Info("Skill archived", "skill_id", id)
	return nil
}

// ActivateSkill clears the archived flag. Bindings disabled by archiving
// stay disabled; re-enabling them is an explicit admin action per binding.
func (cs *catalogService) ActivateSkill(ctx context.Context, id uuid.UUID) error {
	skill, err := cs.skillRepo.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("fetch skill: %w", err)
	}
	if skill == nil {
		return skillerr.NotFound("skill")
	}

	if err := cs.skillRepo.UpdateFields(ctx, nil, id, map[string]interface{}{
		"archived":    false,
		"archived_at": nil,
	}); err != nil {
		return fmt.Errorf("activate skill: %w", err)
	}

	cs.log.Info("Skill activated", "skill_id", id)
	return nil
}

// DeleteSkill removes the skill and everything hanging off it: levels,
// every allocation method's configs, user balances and award logs. One
// transaction; a failure mid-cascade leaves no partial rows.
func (cs *catalogService) DeleteSkill(ctx context.Context, id uuid.UUID) error {
	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := cs.skillRepo.GetByID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("fetch skill: %w", err)
		}
		if skill == nil {
			return skillerr.NotFound("skill")
		}

		for _, method := range cs.registry.All() {
			if err := method.RemoveAllForSkill(ctx, tx, id); err != nil {
				return fmt.Errorf("remove %s configs: %w", method.Kind(), err)
			}
		}
		if err := cs.levelRepo.DeleteBySkillID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete levels: %w", err)
		}
		if err := cs.userPointsRepo.DeleteBySkill(ctx, tx, id); err != nil {
			return fmt.Errorf("delete user points: %w", err)
		}
		if err := cs.awardRepo.DeleteBySkill(ctx, tx, id); err != nil {
			return fmt.Errorf("delete award logs: %w", err)
		}
		if err := cs.skillRepo.Delete(ctx, tx, id); err != nil {
			return fmt.Errorf("delete skill: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	cs.log.Info("Skill deleted", "skill_id", id)
	return nil
}

func validateSkillInput(in SkillInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return skillerr.Validation("skill name required")
	}
	if strings.TrimSpace(in.IdentityKey) == "" {
		return skillerr.Validation("identity key required")
	}
	for _, level := range in.Levels {
		if strings.TrimSpace(level.Name) == "" {
			return skillerr.Validation("level name required")
		}
		if level.Points < 0 {
			return skillerr.Validation("level %q: points must not be negative", level.Name)
		}
	}
	return nil
}

func statusFromEnabled(enabled bool) string {
	if enabled {
		return types.StatusEnabled
	}
	return types.StatusDisabled
}

func marshalCategories(categories []string) (datatypes.JSON, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return nil, skillerr.Validation("invalid categories: %v", err)
	}
	return datatypes.JSON(raw), nil
}

func unmarshalCategories(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var categories []string
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}
