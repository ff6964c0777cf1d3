package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/openlms/skills-backend/internal/skillerr"
	"github.com/openlms/skills-backend/internal/types"
)

func TestGetBalanceMaterializesZeroRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	userID := uuid.New()

	row, err := env.points.GetBalance(ctx, nil, userID, skill.ID, false)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if row.Points != 0 {
		t.Fatalf("points = %d, want 0", row.Points)
	}

	again, err := env.points.GetBalance(ctx, nil, userID, skill.ID, false)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.ID != row.ID {
		t.Fatalf("second read created a new row")
	}
}

func TestGetBalanceRejectsNilIDs(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.points.GetBalance(context.Background(), nil, uuid.Nil, uuid.New(), false); !skillerr.IsValidation(err) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestProficientUsersBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10, 50)

	exactly := uuid.New()
	above := uuid.New()
	below := uuid.New()
	for userID, pts := range map[uuid.UUID]int{exactly: 50, above: 80, below: 49} {
		if _, err := env.points.AdjustBalance(ctx, nil, userID, skill.ID, pts); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}

	users, err := env.points.ProficientUsers(ctx, skill.ID)
	if err != nil {
		t.Fatalf("proficient users: %v", err)
	}
	found := map[uuid.UUID]bool{}
	for _, id := range users {
		found[id] = true
	}
	if !found[exactly] || !found[above] {
		t.Fatalf("boundary or above user missing: %v", users)
	}
	if found[below] {
		t.Fatalf("below-threshold user reported proficient")
	}
}

func TestProficientUsersUnknownSkill(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.points.ProficientUsers(context.Background(), uuid.New()); !skillerr.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUserSkillSummaries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10, 50, 100)
	userID := uuid.New()

	if _, err := env.points.AdjustBalance(ctx, nil, userID, skill.ID, 50); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	summaries, err := env.points.UserSkillSummaries(ctx, userID)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	s := summaries[0]
	if s.SkillID != skill.ID || s.Points != 50 {
		t.Fatalf("summary = %+v", s)
	}
	if s.PointsToComplete != 100 || s.Percentage != 50 {
		t.Fatalf("progress wrong: %+v", s)
	}
	if s.ProficiencyLevel != "Intermediate" {
		t.Fatalf("proficiency level = %q, want Intermediate", s.ProficiencyLevel)
	}
	if s.Proficient {
		t.Fatalf("user should not be proficient at 50/100")
	}
}

func TestPurgeUserRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	row, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	userID := uuid.New()

	if err := env.events.UserEnrolled(ctx, userID, courseID); err != nil {
		t.Fatalf("enrol: %v", err)
	}
	env.complete(t, userID, courseID)
	b := env.binding(t, row)
	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if err := env.points.PurgeUser(ctx, userID); err != nil {
		t.Fatalf("purge: %v", err)
	}

	balances, err := env.pointsRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		t.Fatalf("list balances: %v", err)
	}
	if len(balances) != 0 {
		t.Fatalf("balances survived purge")
	}
	logs, err := env.awardRepo.ListByUserAndSkill(ctx, nil, userID, skill.ID)
	if err != nil {
		t.Fatalf("list awards: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("award logs survived purge")
	}
	completion, err := env.completions.Get(ctx, nil, userID, courseID)
	if err != nil {
		t.Fatalf("get completion: %v", err)
	}
	if completion != nil {
		t.Fatalf("completion survived purge")
	}
}
