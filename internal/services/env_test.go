package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/repos"
	"github.com/openlms/skills-backend/internal/testkit"
	"github.com/openlms/skills-backend/internal/types"
)

type testEnv struct {
	db           *gorm.DB
	skillRepo    repos.SkillRepo
	levelRepo    repos.SkillLevelRepo
	bindingRepo  repos.CourseSkillRepo
	pointsRepo   repos.UserPointsRepo
	awardRepo    repos.AwardLogRepo
	enrolments   repos.EnrolmentRepo
	completions  repos.CourseCompletionRepo
	points       PointsService
	courseMethod *CourseCompletionMethod
	registry     *Registry
	catalog      CatalogService
	reconciler   ReconcilerService
	events       EventService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testkit.OpenTestDB(t)
	log := logger.Nop()

	skillRepo := repos.NewSkillRepo(db, log)
	levelRepo := repos.NewSkillLevelRepo(db, log)
	bindingRepo := repos.NewCourseSkillRepo(db, log)
	pointsRepo := repos.NewUserPointsRepo(db, log)
	awardRepo := repos.NewAwardLogRepo(db, log)
	enrolments := repos.NewEnrolmentRepo(db, log)
	completions := repos.NewCourseCompletionRepo(db, log)

	points := NewPointsService(db, log, skillRepo, levelRepo, pointsRepo, awardRepo, enrolments, completions)
	courseMethod := NewCourseCompletionMethod(db, log, skillRepo, levelRepo, bindingRepo, awardRepo, points)
	registry := NewRegistry(courseMethod)
	catalog := NewCatalogService(db, log, registry, skillRepo, levelRepo, bindingRepo, pointsRepo, awardRepo)
	reconciler := NewReconcilerService(db, log, registry, enrolments, completions)
	events := NewEventService(db, log, registry, reconciler, points, enrolments, completions)

	return &testEnv{
		db:           db,
		skillRepo:    skillRepo,
		levelRepo:    levelRepo,
		bindingRepo:  bindingRepo,
		pointsRepo:   pointsRepo,
		awardRepo:    awardRepo,
		enrolments:   enrolments,
		completions:  completions,
		points:       points,
		courseMethod: courseMethod,
		registry:     registry,
		catalog:      catalog,
		reconciler:   reconciler,
		events:       events,
	}
}

// seedSkill creates an enabled skill with levels of the given point
// thresholds, lowest first.
func (e *testEnv) seedSkill(t *testing.T, name string, levelPoints ...int) *types.Skill {
	t.Helper()
	in := SkillInput{Name: name, IdentityKey: name, Enabled: true}
	for i, pts := range levelPoints {
		in.Levels = append(in.Levels, LevelInput{Name: levelName(i), Points: pts})
	}
	skill, err := e.catalog.CreateSkill(context.Background(), in)
	if err != nil {
		t.Fatalf("seed skill %q: %v", name, err)
	}
	return skill
}

func levelName(i int) string {
	names := []string{"Beginner", "Intermediate", "Advanced", "Expert"}
	if i < len(names) {
		return names[i]
	}
	return names[len(names)-1]
}

// seedBinding saves an enabled binding for the skill on a fresh course id.
func (e *testEnv) seedBinding(t *testing.T, skill *types.Skill, rule string, points int, levelID *uuid.UUID) (*types.CourseSkill, uuid.UUID) {
	t.Helper()
	courseID := uuid.New()
	row, err := e.courseMethod.SaveConfig(context.Background(), SaveBindingInput{
		SkillID:  skill.ID,
		CourseID: courseID,
		Rule:     rule,
		Points:   points,
		LevelID:  levelID,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("seed binding: %v", err)
	}
	return row, courseID
}

func (e *testEnv) complete(t *testing.T, userID, courseID uuid.UUID) {
	t.Helper()
	if err := e.completions.Upsert(context.Background(), nil, &types.CourseCompletion{
		UserID:      userID,
		CourseID:    courseID,
		CompletedAt: time.Now(),
	}); err != nil {
		t.Fatalf("record completion: %v", err)
	}
}

func (e *testEnv) balance(t *testing.T, userID, skillID uuid.UUID) int {
	t.Helper()
	row, err := e.points.GetBalance(context.Background(), nil, userID, skillID, false)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return row.Points
}

func (e *testEnv) binding(t *testing.T, row *types.CourseSkill) Binding {
	t.Helper()
	bindings, err := e.courseMethod.Bindings(context.Background(), nil, row.CourseID, "")
	if err != nil {
		t.Fatalf("resolve bindings: %v", err)
	}
	for _, b := range bindings {
		if b.ID == row.ID {
			return b
		}
	}
	t.Fatalf("binding %s not found", row.ID)
	return Binding{}
}
