package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/openlms/skills-backend/internal/types"
)

func TestReconcileUserWithoutCompletionSkips(t *testing.T) {
	env := newTestEnv(t)
	skill := env.seedSkill(t, "golang", 10)
	_, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	userID := uuid.New()

	result, err := env.reconciler.ReconcileUser(context.Background(), userID, courseID, Scope{})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.State != StateSkipped {
		t.Fatalf("state = %q, want skipped", result.State)
	}
	if got := env.balance(t, userID, skill.ID); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func TestReconcileUserAppliesEnabledBindings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	other := env.seedSkill(t, "python", 10)
	_, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	if _, err := env.courseMethod.SaveConfig(ctx, SaveBindingInput{
		SkillID:  other.ID,
		CourseID: courseID,
		Rule:     types.CompletionPoints,
		Points:   7,
		Enabled:  true,
	}); err != nil {
		t.Fatalf("second binding: %v", err)
	}

	userID := uuid.New()
	env.complete(t, userID, courseID)

	result, err := env.reconciler.ReconcileUser(ctx, userID, courseID, Scope{})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.State != StateApplied || result.Applied != 2 {
		t.Fatalf("result = %+v, want applied 2", result)
	}
	if got := env.balance(t, userID, skill.ID); got != 10 {
		t.Fatalf("skill balance = %d, want 10", got)
	}
	if got := env.balance(t, userID, other.ID); got != 7 {
		t.Fatalf("other balance = %d, want 7", got)
	}
}

func TestReconcileScopeRestrictsSkill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	other := env.seedSkill(t, "python", 10)
	_, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	if _, err := env.courseMethod.SaveConfig(ctx, SaveBindingInput{
		SkillID:  other.ID,
		CourseID: courseID,
		Rule:     types.CompletionPoints,
		Points:   7,
		Enabled:  true,
	}); err != nil {
		t.Fatalf("second binding: %v", err)
	}

	userID := uuid.New()
	env.complete(t, userID, courseID)

	result, err := env.reconciler.ReconcileUser(ctx, userID, courseID, Scope{SkillID: skill.ID})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Applied != 1 {
		t.Fatalf("applied = %d, want 1", result.Applied)
	}
	if got := env.balance(t, userID, other.ID); got != 0 {
		t.Fatalf("out-of-scope balance = %d, want 0", got)
	}
}

func TestReconcileRevokesDisabledBinding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	row, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	userID := uuid.New()
	env.complete(t, userID, courseID)

	if _, err := env.reconciler.ReconcileUser(ctx, userID, courseID, Scope{}); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if got := env.balance(t, userID, skill.ID); got != 10 {
		t.Fatalf("balance = %d, want 10", got)
	}

	if _, err := env.courseMethod.DisableConfig(ctx, skill.ID, courseID); err != nil {
		t.Fatalf("disable: %v", err)
	}
	result, err := env.reconciler.ReconcileUser(ctx, userID, courseID, Scope{SkillID: skill.ID, Status: types.StatusDisabled})
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if result.Revoked != 1 {
		t.Fatalf("revoked = %d, want 1", result.Revoked)
	}
	if got := env.balance(t, userID, skill.ID); got != 0 {
		t.Fatalf("balance after revoke = %d, want 0", got)
	}

	award, err := env.awardRepo.Get(ctx, nil, userID, skill.ID, MethodCourse, row.ID, false)
	if err != nil {
		t.Fatalf("fetch award: %v", err)
	}
	if award == nil || award.Points != 0 || award.Status != types.AwardRevoked {
		t.Fatalf("award = %+v, want revoked zero row", award)
	}
}

func TestReconcileCourseCoversEnrolledUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	_, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)

	finished := uuid.New()
	enrolledOnly := uuid.New()
	for _, userID := range []uuid.UUID{finished, enrolledOnly} {
		if err := env.events.UserEnrolled(ctx, userID, courseID); err != nil {
			t.Fatalf("enrol: %v", err)
		}
	}
	env.complete(t, finished, courseID)

	results, err := env.reconciler.ReconcileCourse(ctx, courseID, Scope{})
	if err != nil {
		t.Fatalf("reconcile course: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	states := map[uuid.UUID]ReconcileState{}
	for _, r := range results {
		states[r.UserID] = r.State
	}
	if states[finished] != StateApplied {
		t.Fatalf("finished user state = %q", states[finished])
	}
	if states[enrolledOnly] != StateSkipped {
		t.Fatalf("enrolled-only user state = %q", states[enrolledOnly])
	}
	if got := env.balance(t, finished, skill.ID); got != 10 {
		t.Fatalf("finished balance = %d, want 10", got)
	}
	if got := env.balance(t, enrolledOnly, skill.ID); got != 0 {
		t.Fatalf("enrolled-only balance = %d, want 0", got)
	}
}

func TestReconcileCourseSkipsUnenrolled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	_, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)

	userID := uuid.New()
	if err := env.events.UserEnrolled(ctx, userID, courseID); err != nil {
		t.Fatalf("enrol: %v", err)
	}
	if err := env.events.UserUnenrolled(ctx, userID, courseID); err != nil {
		t.Fatalf("unenrol: %v", err)
	}
	env.complete(t, userID, courseID)

	results, err := env.reconciler.ReconcileCourse(ctx, courseID, Scope{})
	if err != nil {
		t.Fatalf("reconcile course: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0 for unenrolled user", len(results))
	}
}
