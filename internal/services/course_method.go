package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/repos"
	"github.com/openlms/skills-backend/internal/skillerr"
	"github.com/openlms/skills-backend/internal/types"
)

// SaveBindingInput is the admin-facing payload binding a skill to a course.
type SaveBindingInput struct {
	SkillID  uuid.UUID  `json:"skill_id"`
	CourseID uuid.UUID  `json:"course_id"`
	Rule     string     `json:"upon_completion"`
	Points   int        `json:"points"`
	LevelID  *uuid.UUID `json:"level_id"`
	Enabled  bool       `json:"enabled"`
}

// CourseCompletionMethod awards skill points when a user completes a course.
type CourseCompletionMethod struct {
	baseMethod
	db              *gorm.DB
	skillRepo       repos.SkillRepo
	levelRepo       repos.SkillLevelRepo
	courseSkillRepo repos.CourseSkillRepo
}

func NewCourseCompletionMethod(
	db *gorm.DB,
	log *logger.Logger,
	skillRepo repos.SkillRepo,
	levelRepo repos.SkillLevelRepo,
	courseSkillRepo repos.CourseSkillRepo,
	awardRepo repos.AwardLogRepo,
	points PointsService,
) *CourseCompletionMethod {
	methodLog := log.With("service", "CourseCompletionMethod")
	return &CourseCompletionMethod{
		baseMethod: baseMethod{
			kind:      MethodCourse,
			log:       methodLog,
			awardRepo: awardRepo,
			points:    points,
		},
		db:              db,
		skillRepo:       skillRepo,
		levelRepo:       levelRepo,
		courseSkillRepo: courseSkillRepo,
	}
}

func (m *CourseCompletionMethod) Bindings(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, status string) ([]Binding, error) {
	rows, err := m.courseSkillRepo.ListByCourse(ctx, tx, courseID, status)
	if err != nil {
		return nil, fmt.Errorf("fetch course skills: %w", err)
	}

	bindings := make([]Binding, 0, len(rows))
	for _, row := range rows {
		b, err := m.toBinding(ctx, tx, row)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func (m *CourseCompletionMethod) toBinding(ctx context.Context, tx *gorm.DB, row *types.CourseSkill) (Binding, error) {
	b := Binding{
		ID:        row.ID,
		Kind:      MethodCourse,
		SkillID:   row.SkillID,
		ContextID: row.CourseID,
		Rule:      row.UponCompletion,
		Points:    row.Points,
		LevelID:   row.LevelID,
		Status:    row.Status,
	}

	if row.UponCompletion == types.CompletionSetLevel || row.UponCompletion == types.CompletionForceLevel {
		if row.LevelID == nil {
			return Binding{}, skillerr.Validation("binding %s uses rule %q without a level", row.ID, row.UponCompletion)
		}
		level, err := m.levelRepo.GetByID(ctx, tx, *row.LevelID)
		if err != nil {
			return Binding{}, fmt.Errorf("fetch level: %w", err)
		}
		if level == nil {
			return Binding{}, skillerr.NotFound(fmt.Sprintf("level %s", *row.LevelID))
		}
		b.LevelPoints = level.Points
	}
	return b, nil
}

func (m *CourseCompletionMethod) RemoveAllForSkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error {
	return m.courseSkillRepo.DeleteBySkill(ctx, tx, skillID)
}

// RemoveAllForContext drops every binding of a deleted course together with
// the ledger rows those bindings produced. Balances are left as they are:
// already-earned points survive course deletion, only their provenance
// rows go.
func (m *CourseCompletionMethod) RemoveAllForContext(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	rows, err := m.courseSkillRepo.ListByCourse(ctx, tx, courseID, "")
	if err != nil {
		return fmt.Errorf("fetch course skills: %w", err)
	}
	for _, row := range rows {
		if err := m.awardRepo.DeleteByMethod(ctx, tx, MethodCourse, row.ID); err != nil {
			return fmt.Errorf("delete method logs: %w", err)
		}
	}
	if err := m.courseSkillRepo.DeleteByCourse(ctx, tx, courseID); err != nil {
		return fmt.Errorf("delete course skills: %w", err)
	}
	return nil
}

// SaveConfig creates or updates the binding for (skill, course). The caller
// is expected to follow up with a scoped reconciliation of the course's
// enrolled users.
func (m *CourseCompletionMethod) SaveConfig(ctx context.Context, in SaveBindingInput) (*types.CourseSkill, error) {
	if in.SkillID == uuid.Nil || in.CourseID == uuid.Nil {
		return nil, skillerr.Validation("skill id and course id required")
	}
	if !types.ValidCompletionRule(in.Rule) {
		return nil, skillerr.Validation("unknown completion rule %q", in.Rule)
	}

	skill, err := m.skillRepo.GetByID(ctx, nil, in.SkillID)
	if err != nil {
		return nil, fmt.Errorf("fetch skill: %w", err)
	}
	if skill == nil {
		return nil, skillerr.NotFound("skill")
	}
	if skill.Archived {
		return nil, skillerr.Validation("skill %s is archived", in.SkillID)
	}

	if in.Rule == types.CompletionSetLevel || in.Rule == types.CompletionForceLevel {
		if in.LevelID == nil {
			return nil, skillerr.Validation("rule %q requires a level", in.Rule)
		}
		level, err := m.levelRepo.GetByID(ctx, nil, *in.LevelID)
		if err != nil {
			return nil, fmt.Errorf("fetch level: %w", err)
		}
		if level == nil {
			return nil, skillerr.NotFound("level")
		}
		if level.SkillID != in.SkillID {
			return nil, skillerr.Validation("level %s does not belong to skill %s", *in.LevelID, in.SkillID)
		}
	}

	status := types.StatusDisabled
	if in.Enabled {
		status = types.StatusEnabled
	}

	var saved *types.CourseSkill
	if err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := m.courseSkillRepo.GetBySkillAndCourse(ctx, tx, in.SkillID, in.CourseID)
		if err != nil {
			return fmt.Errorf("fetch binding: %w", err)
		}
		if row == nil {
			row = &types.CourseSkill{SkillID: in.SkillID, CourseID: in.CourseID}
		}
		row.UponCompletion = in.Rule
		row.Points = in.Points
		row.LevelID = in.LevelID
		row.Status = status

		if row.ID == uuid.Nil {
			if err := m.courseSkillRepo.Create(ctx, tx, row); err != nil {
				return fmt.Errorf("create binding: %w", err)
			}
		} else if err := m.courseSkillRepo.Update(ctx, tx, row); err != nil {
			return fmt.Errorf("update binding: %w", err)
		}
		saved = row
		return nil
	}); err != nil {
		return nil, err
	}

	m.log.Info("Course skill binding saved", "skill_id", in.SkillID, "course_id", in.CourseID, "rule", in.Rule, "status", status)
	return saved, nil
}

// DisableConfig turns the binding off without deleting it, so the next
// reconciliation pass retracts its points.
func (m *CourseCompletionMethod) DisableConfig(ctx context.Context, skillID, courseID uuid.UUID) (*types.CourseSkill, error) {
	row, err := m.courseSkillRepo.GetBySkillAndCourse(ctx, nil, skillID, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch binding: %w", err)
	}
	if row == nil {
		return nil, skillerr.NotFound("course skill binding")
	}

	row.Status = types.StatusDisabled
	if err := m.courseSkillRepo.Update(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("disable binding: %w", err)
	}

	m.log.Info("Course skill binding disabled", "skill_id", skillID, "course_id", courseID)
	return row, nil
}
