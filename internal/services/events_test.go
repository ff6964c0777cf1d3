package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openlms/skills-backend/internal/types"
)

func TestCourseCompletedAwardsPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	_, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	userID := uuid.New()

	result, err := env.events.CourseCompleted(ctx, userID, courseID, time.Now())
	if err != nil {
		t.Fatalf("course completed: %v", err)
	}
	if result.State != StateApplied || result.Applied != 1 {
		t.Fatalf("result = %+v", result)
	}
	if got := env.balance(t, userID, skill.ID); got != 10 {
		t.Fatalf("balance = %d, want 10", got)
	}

	// The completion record is kept for later passes.
	completion, err := env.completions.Get(ctx, nil, userID, courseID)
	if err != nil {
		t.Fatalf("get completion: %v", err)
	}
	if completion == nil {
		t.Fatalf("completion not recorded")
	}
}

func TestCourseCompletedTwiceDoesNotStack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	_, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := env.events.CourseCompleted(ctx, userID, courseID, time.Now()); err != nil {
			t.Fatalf("completion %d: %v", i, err)
		}
	}
	if got := env.balance(t, userID, skill.ID); got != 10 {
		t.Fatalf("balance = %d, want 10", got)
	}
}

func TestCourseDeletedDropsBindingsKeepsBalances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	row, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	userID := uuid.New()

	if err := env.events.UserEnrolled(ctx, userID, courseID); err != nil {
		t.Fatalf("enrol: %v", err)
	}
	if _, err := env.events.CourseCompleted(ctx, userID, courseID, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := env.events.CourseDeleted(ctx, courseID); err != nil {
		t.Fatalf("course deleted: %v", err)
	}

	// Earned points stay; the binding and its ledger rows go.
	if got := env.balance(t, userID, skill.ID); got != 10 {
		t.Fatalf("balance = %d, want 10", got)
	}
	bindings, err := env.bindingRepo.ListByCourse(ctx, nil, courseID, "")
	if err != nil {
		t.Fatalf("list bindings: %v", err)
	}
	if len(bindings) != 0 {
		t.Fatalf("bindings survived course deletion")
	}
	award, err := env.awardRepo.Get(ctx, nil, userID, skill.ID, MethodCourse, row.ID, false)
	if err != nil {
		t.Fatalf("fetch award: %v", err)
	}
	if award != nil {
		t.Fatalf("award log survived course deletion")
	}
	enrolments, err := env.enrolments.ListActiveByCourse(ctx, nil, courseID)
	if err != nil {
		t.Fatalf("list enrolments: %v", err)
	}
	if len(enrolments) != 0 {
		t.Fatalf("enrolments survived course deletion")
	}
}

func TestUserDeletedPurges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	skill := env.seedSkill(t, "golang", 10)
	_, courseID := env.seedBinding(t, skill, types.CompletionPoints, 10, nil)
	userID := uuid.New()

	if _, err := env.events.CourseCompleted(ctx, userID, courseID, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := env.events.UserDeleted(ctx, userID); err != nil {
		t.Fatalf("user deleted: %v", err)
	}

	balances, err := env.pointsRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		t.Fatalf("list balances: %v", err)
	}
	if len(balances) != 0 {
		t.Fatalf("balances survived user deletion")
	}
}
