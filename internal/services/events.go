package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/repos"
	"github.com/openlms/skills-backend/internal/types"
)

// EventService ingests lifecycle events from the LMS and drives the ledger
// reactions: completions trigger allocation, deletions trigger cleanup.
type EventService interface {
	CourseCompleted(ctx context.Context, userID, courseID uuid.UUID, completedAt time.Time) (Result, error)
	CourseDeleted(ctx context.Context, courseID uuid.UUID) error
	UserDeleted(ctx context.Context, userID uuid.UUID) error
	UserEnrolled(ctx context.Context, userID, courseID uuid.UUID) error
	UserUnenrolled(ctx context.Context, userID, courseID uuid.UUID) error
}

type eventService struct {
	db             *gorm.DB
	log            *logger.Logger
	registry       *Registry
	reconciler     ReconcilerService
	points         PointsService
	enrolmentRepo  repos.EnrolmentRepo
	completionRepo repos.CourseCompletionRepo
}

func NewEventService(
	db *gorm.DB,
	log *logger.Logger,
	registry *Registry,
	reconciler ReconcilerService,
	points PointsService,
	enrolmentRepo repos.EnrolmentRepo,
	completionRepo repos.CourseCompletionRepo,
) EventService {
	serviceLog := log.With("service", "EventService")
	return &eventService{
		db:             db,
		log:            serviceLog,
		registry:       registry,
		reconciler:     reconciler,
		points:         points,
		enrolmentRepo:  enrolmentRepo,
		completionRepo: completionRepo,
	}
}

// CourseCompleted records the completion, then reconciles the user against
// every enabled binding of the course. The completion record survives even
// if reconciliation fails; a later pass catches up from it.
func (es *eventService) CourseCompleted(ctx context.Context, userID, courseID uuid.UUID, completedAt time.Time) (Result, error) {
	if completedAt.IsZero() {
		completedAt = time.Now()
	}
	row := &types.CourseCompletion{
		UserID:      userID,
		CourseID:    courseID,
		CompletedAt: completedAt,
	}
	if err := es.completionRepo.Upsert(ctx, nil, row); err != nil {
		return Result{UserID: userID, State: StatePending}, fmt.Errorf("record completion: %w", err)
	}

	// Unscoped pass: enabled bindings apply, disabled ones with a live
	// award revoke.
	result, err := es.reconciler.ReconcileUser(ctx, userID, courseID, Scope{})
	if err != nil {
		es.log.Error("Completion reconcile failed", "error", err, "user_id", userID, "course_id", courseID)
		return result, err
	}
	es.log.Info("Completion processed", "user_id", userID, "course_id", courseID, "applied", result.Applied)
	return result, nil
}

// CourseDeleted drops the course's bindings along with their ledger rows,
// then the enrolment and completion records. Balances already earned from
// the course are kept.
func (es *eventService) CourseDeleted(ctx context.Context, courseID uuid.UUID) error {
	if err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, method := range es.registry.All() {
			if err := method.RemoveAllForContext(ctx, tx, courseID); err != nil {
				return fmt.Errorf("remove %s configs: %w", method.Kind(), err)
			}
		}
		if err := es.enrolmentRepo.DeleteByCourse(ctx, tx, courseID); err != nil {
			return fmt.Errorf("delete enrolments: %w", err)
		}
		if err := es.completionRepo.DeleteByCourse(ctx, tx, courseID); err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	es.log.Info("Course removed", "course_id", courseID)
	return nil
}

func (es *eventService) UserDeleted(ctx context.Context, userID uuid.UUID) error {
	if err := es.points.PurgeUser(ctx, userID); err != nil {
		return err
	}
	es.log.Info("User purged", "user_id", userID)
	return nil
}

func (es *eventService) UserEnrolled(ctx context.Context, userID, courseID uuid.UUID) error {
	return es.enrolmentRepo.Upsert(ctx, nil, &types.Enrolment{
		UserID:   userID,
		CourseID: courseID,
		Active:   true,
	})
}

// UserUnenrolled deactivates the enrolment only. Points already earned stay
// with the user.
func (es *eventService) UserUnenrolled(ctx context.Context, userID, courseID uuid.UUID) error {
	return es.enrolmentRepo.Deactivate(ctx, nil, userID, courseID)
}
