package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/repos"
	"github.com/openlms/skills-backend/internal/skillerr"
	"github.com/openlms/skills-backend/internal/types"
)

// ReconcileState tracks a user's progress through one reconciliation pass.
type ReconcileState string

const (
	StatePending   ReconcileState = "pending"
	StateEvaluated ReconcileState = "evaluated"
	StateApplied   ReconcileState = "applied"
	StateSkipped   ReconcileState = "skipped"
)

// maxReconcileAttempts bounds the retry loop on transient transaction
// failures (deadlocks, serialization aborts).
const maxReconcileAttempts = 3

// Scope narrows a reconciliation pass. Zero SkillID means every skill bound
// to the course; empty Status means bindings of any status.
type Scope struct {
	SkillID uuid.UUID
	Status  string
}

// Result reports one user's outcome: the terminal state plus how many
// bindings were applied and revoked.
type Result struct {
	UserID  uuid.UUID      `json:"user_id"`
	State   ReconcileState `json:"state"`
	Applied int            `json:"applied"`
	Revoked int            `json:"revoked"`
}

// ReconcilerService re-runs the allocation rules for users against a
// course's bindings so the point ledger always reflects the current
// configuration.
type ReconcilerService interface {
	// ReconcileUser brings one user's awards for one course in line with
	// the bindings matching scope.
	ReconcileUser(ctx context.Context, userID, courseID uuid.UUID, scope Scope) (Result, error)
	// ReconcileCourse reconciles every actively enrolled user of the
	// course. Per-user failures are logged and do not stop the pass.
	ReconcileCourse(ctx context.Context, courseID uuid.UUID, scope Scope) ([]Result, error)
}

type reconcilerService struct {
	db             *gorm.DB
	log            *logger.Logger
	registry       *Registry
	enrolmentRepo  repos.EnrolmentRepo
	completionRepo repos.CourseCompletionRepo
}

func NewReconcilerService(
	db *gorm.DB,
	log *logger.Logger,
	registry *Registry,
	enrolmentRepo repos.EnrolmentRepo,
	completionRepo repos.CourseCompletionRepo,
) ReconcilerService {
	serviceLog := log.With("service", "ReconcilerService")
	return &reconcilerService{
		db:             db,
		log:            serviceLog,
		registry:       registry,
		enrolmentRepo:  enrolmentRepo,
		completionRepo: completionRepo,
	}
}

func (rs *reconcilerService) ReconcileUser(ctx context.Context, userID, courseID uuid.UUID, scope Scope) (Result, error) {
	bindings, err := rs.resolveBindings(ctx, courseID, scope)
	if err != nil {
		return Result{UserID: userID, State: StatePending}, err
	}
	return rs.reconcileOne(ctx, userID, courseID, bindings)
}

func (rs *reconcilerService) ReconcileCourse(ctx context.Context, courseID uuid.UUID, scope Scope) ([]Result, error) {
	ctx, span := otel.Tracer("skills-backend/reconciler").Start(ctx, "ReconcileCourse",
		trace.WithAttributes(attribute.String("course_id", courseID.String())))
	defer span.End()

	// Bindings are resolved once and shared across every user of the pass;
	// level thresholds ride along inside each Binding.
	bindings, err := rs.resolveBindings(ctx, courseID, scope)
	if err != nil {
		return nil, err
	}

	enrolments, err := rs.enrolmentRepo.ListActiveByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("list enrolments: %w", err)
	}

	results := make([]Result, 0, len(enrolments))
	for _, enrolment := range enrolments {
		result, err := rs.reconcileOne(ctx, enrolment.UserID, courseID, bindings)
		if err != nil {
			rs.log.Error("Reconcile failed for user", "user_id", enrolment.UserID, "course_id", courseID, "error", err)
		}
		results = append(results, result)
	}

	span.SetAttributes(attribute.Int("users", len(results)), attribute.Int("bindings", len(bindings)))
	rs.log.Info("Course reconciled", "course_id", courseID, "users", len(results), "bindings", len(bindings))
	return results, nil
}

func (rs *reconcilerService) resolveBindings(ctx context.Context, courseID uuid.UUID, scope Scope) ([]Binding, error) {
	var bindings []Binding
	for _, method := range rs.registry.All() {
		resolved, err := method.Bindings(ctx, nil, courseID, scope.Status)
		if err != nil {
			return nil, fmt.Errorf("resolve %s bindings: %w", method.Kind(), err)
		}
		for _, b := range resolved {
			if scope.SkillID != uuid.Nil && b.SkillID != scope.SkillID {
				continue
			}
			bindings = append(bindings, b)
		}
	}
	return bindings, nil
}

// reconcileOne walks one user through the state machine: skipped without a
// completion record, otherwise evaluated then applied inside a single
// transaction. Transient transaction failures are retried from scratch.
func (rs *reconcilerService) reconcileOne(ctx context.Context, userID, courseID uuid.UUID, bindings []Binding) (Result, error) {
	result := Result{UserID: userID, State: StatePending}

	completion, err := rs.completionRepo.Get(ctx, nil, userID, courseID)
	if err != nil {
		return result, fmt.Errorf("fetch completion: %w", err)
	}
	if completion == nil {
		result.State = StateSkipped
		return result, nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxReconcileAttempts; attempt++ {
		applied, revoked := 0, 0
		err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, b := range bindings {
				method, err := rs.registry.Get(b.Kind)
				if err != nil {
					return err
				}
				if b.Status == types.StatusEnabled {
					if _, err := method.Apply(ctx, tx, userID, b); err != nil {
						return err
					}
					applied++
					continue
				}
				if err := method.Revoke(ctx, tx, userID, b); err != nil {
					return err
				}
				revoked++
			}
			return nil
		})
		if err == nil {
			result.State = StateApplied
			result.Applied = applied
			result.Revoked = revoked
			return result, nil
		}
		lastErr = err
		if !skillerr.Retryable(err) {
			break
		}
		rs.log.Warn("Retrying reconcile after transient failure", "user_id", userID, "course_id", courseID, "attempt", attempt)
	}

	result.State = StateEvaluated
	return result, lastErr
}
