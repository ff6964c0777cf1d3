package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/openlms/skills-backend/internal/skillerr"
	"github.com/openlms/skills-backend/internal/types"
)

func TestApplyPointsRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10, 50, 100)
	row, _ := env.seedBinding(t, skill, types.CompletionPoints, 25, nil)
	userID := uuid.New()

	b := env.binding(t, row)
	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 25 {
		t.Fatalf("balance = %d, want 25", got)
	}

	award, err := env.awardRepo.Get(ctx, nil, userID, skill.ID, MethodCourse, b.ID, false)
	if err != nil {
		t.Fatalf("fetch award: %v", err)
	}
	if award == nil || award.Points != 25 || award.Status != types.AwardGranted {
		t.Fatalf("award = %+v, want granted 25", award)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 100)
	row, _ := env.seedBinding(t, skill, types.CompletionPoints, 25, nil)
	userID := uuid.New()
	b := env.binding(t, row)

	for i := 0; i < 3; i++ {
		if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}
	if got := env.balance(t, userID, skill.ID); got != 25 {
		t.Fatalf("balance after re-apply = %d, want 25", got)
	}

	logs, err := env.awardRepo.ListByUserAndSkill(ctx, nil, userID, skill.ID)
	if err != nil {
		t.Fatalf("list awards: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("award rows = %d, want 1", len(logs))
	}
}

func TestApplyNegativePoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 100)
	userID := uuid.New()

	if _, err := env.points.AdjustBalance(ctx, env.db, userID, skill.ID, 10); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	row, _ := env.seedBinding(t, skill, types.CompletionPoints, -20, nil)
	b := env.binding(t, row)
	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != -10 {
		t.Fatalf("balance = %d, want -10", got)
	}
}

func TestApplySetLevelNeverLowers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10, 50)
	userID := uuid.New()

	levels, err := env.catalog.GetLevels(ctx, skill.ID)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	low := levels[0]

	// Already above the target level.
	if _, err := env.points.AdjustBalance(ctx, env.db, userID, skill.ID, 40); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	row, _ := env.seedBinding(t, skill, types.CompletionSetLevel, 0, &low.ID)
	b := env.binding(t, row)
	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 40 {
		t.Fatalf("balance = %d, want 40 (setlevel must not lower)", got)
	}

	award, err := env.awardRepo.Get(ctx, nil, userID, skill.ID, MethodCourse, b.ID, false)
	if err != nil {
		t.Fatalf("fetch award: %v", err)
	}
	if award == nil || award.Points != 0 {
		t.Fatalf("award = %+v, want zero delta", award)
	}
}

func TestApplySetLevelRaisesToThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10, 50)
	userID := uuid.New()

	levels, err := env.catalog.GetLevels(ctx, skill.ID)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	high := levels[1]

	row, _ := env.seedBinding(t, skill, types.CompletionSetLevel, 0, &high.ID)
	b := env.binding(t, row)
	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 50 {
		t.Fatalf("balance = %d, want 50", got)
	}
}

func TestApplyForceLevelLowers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10, 50)
	userID := uuid.New()

	levels, err := env.catalog.GetLevels(ctx, skill.ID)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	low := levels[0]

	if _, err := env.points.AdjustBalance(ctx, env.db, userID, skill.ID, 40); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	row, _ := env.seedBinding(t, skill, types.CompletionForceLevel, 0, &low.ID)
	b := env.binding(t, row)
	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 10 {
		t.Fatalf("balance = %d, want 10 (forcelevel replaces)", got)
	}
}

// A setlevel award followed by a rule change to forcelevel at a lower level
// must walk the balance back down, since the method's contribution is
// replaced rather than stacked.
func TestRuleChangeReplacesContribution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 0, 50)
	userID := uuid.New()

	levels, err := env.catalog.GetLevels(ctx, skill.ID)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	base, high := levels[0], levels[1]

	row, _ := env.seedBinding(t, skill, types.CompletionSetLevel, 0, &high.ID)
	b := env.binding(t, row)
	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply setlevel: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 50 {
		t.Fatalf("balance = %d, want 50", got)
	}

	if _, err := env.courseMethod.SaveConfig(ctx, SaveBindingInput{
		SkillID:  skill.ID,
		CourseID: row.CourseID,
		Rule:     types.CompletionForceLevel,
		LevelID:  &base.ID,
		Enabled:  true,
	}); err != nil {
		t.Fatalf("update binding: %v", err)
	}

	b = env.binding(t, row)
	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply forcelevel: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}

	award, err := env.awardRepo.Get(ctx, nil, userID, skill.ID, MethodCourse, b.ID, false)
	if err != nil {
		t.Fatalf("fetch award: %v", err)
	}
	if award == nil || award.Points != 0 {
		t.Fatalf("award = %+v, want corrected to zero delta", award)
	}
}

func TestRevokeSubtractsLoggedDelta(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 100)
	row, _ := env.seedBinding(t, skill, types.CompletionPoints, 30, nil)
	userID := uuid.New()
	b := env.binding(t, row)

	if _, err := env.courseMethod.Apply(ctx, env.db, userID, b); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// Points from elsewhere must survive the revoke.
	if _, err := env.points.AdjustBalance(ctx, env.db, userID, skill.ID, 5); err != nil {
		t.Fatalf("extra points: %v", err)
	}

	if err := env.courseMethod.Revoke(ctx, env.db, userID, b); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 5 {
		t.Fatalf("balance = %d, want 5", got)
	}

	award, err := env.awardRepo.Get(ctx, nil, userID, skill.ID, MethodCourse, b.ID, false)
	if err != nil {
		t.Fatalf("fetch award: %v", err)
	}
	if award == nil || award.Points != 0 || award.Status != types.AwardRevoked {
		t.Fatalf("award = %+v, want revoked zero row", award)
	}

	// Revoking again changes nothing.
	if err := env.courseMethod.Revoke(ctx, env.db, userID, b); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 5 {
		t.Fatalf("balance after second revoke = %d, want 5", got)
	}
}

func TestApplyUnconfiguredBinding(t *testing.T) {
	env := newTestEnv(t)
	skill := env.seedSkill(t, "golang", 100)

	_, err := env.courseMethod.Apply(context.Background(), env.db, uuid.New(), Binding{SkillID: skill.ID})
	if !skillerr.IsNotConfigured(err) {
		t.Fatalf("err = %v, want not configured", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.registry.Get(MethodCourse)
	if err != nil {
		t.Fatalf("get course method: %v", err)
	}
	if m.Kind() != MethodCourse {
		t.Fatalf("kind = %q", m.Kind())
	}
	if _, err := env.registry.Get("nope"); !skillerr.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}
