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

// MethodCourse is the built-in course-completion allocation method.
const MethodCourse = "course"

// Binding is a resolved allocation-method config: one skill bound to one
// context with a completion rule. LevelPoints carries the target level's
// threshold for the level-based rules so evaluation needs no further catalog
// reads.
type Binding struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	SkillID     uuid.UUID  `json:"skill_id"`
	ContextID   uuid.UUID  `json:"context_id"`
	Rule        string     `json:"upon_completion"`
	Points      int        `json:"points"`
	LevelID     *uuid.UUID `json:"level_id,omitempty"`
	LevelPoints int        `json:"level_points,omitempty"`
	Status      string     `json:"status"`
}

// Outcome is the result of evaluating one binding for one user.
type Outcome struct {
	Rule  string
	Delta int
}

// AllocationMethod translates one configured rule into a point delta for one
// user and knows how to undo it. Implementations are registered explicitly
// at wiring time; there is no runtime discovery.
type AllocationMethod interface {
	Kind() string
	// Bindings resolves the method configs for a context, filtered by
	// status when non-empty.
	Bindings(ctx context.Context, tx *gorm.DB, contextID uuid.UUID, status string) ([]Binding, error)
	Evaluate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, b Binding) (Outcome, error)
	Apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, b Binding) (*types.AwardLog, error)
	Revoke(ctx context.Context, tx *gorm.DB, userID uuid.UUID, b Binding) error
	// RemoveAllForSkill is the cascade hook the catalog calls during skill
	// deletion.
	RemoveAllForSkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) error
	// RemoveAllForContext drops the method's configs and their ledger rows
	// when the context (course) is deleted.
	RemoveAllForContext(ctx context.Context, tx *gorm.DB, contextID uuid.UUID) error
}

// Registry is the closed set of allocation methods known to this deployment.
type Registry struct {
	methods []AllocationMethod
	byKind  map[string]AllocationMethod
}

func NewRegistry(methods ...AllocationMethod) *Registry {
	r := &Registry{byKind: make(map[string]AllocationMethod, len(methods))}
	for _, m := range methods {
		r.methods = append(r.methods, m)
		r.byKind[m.Kind()] = m
	}
	return r
}

func (r *Registry) Get(kind string) (AllocationMethod, error) {
	m, ok := r.byKind[kind]
	if !ok {
		return nil, skillerr.NotFound(fmt.Sprintf("allocation method %q", kind))
	}
	return m, nil
}

func (r *Registry) All() []AllocationMethod {
	return r.methods
}

// baseMethod carries the rule engine shared by every allocation method: how
// a binding's rule turns into a delta, how the delta lands on the balance,
// and how the ledger row is kept in step.
type baseMethod struct {
	kind      string
	log       *logger.Logger
	awardRepo repos.AwardLogRepo
	points    PointsService
}

func (m *baseMethod) Kind() string { return m.kind }

// Evaluate computes the points this binding should currently contribute.
// The target is always computed against the balance minus the method's
// previously logged delta, so re-evaluation replaces the old contribution
// instead of stacking on it.
func (m *baseMethod) Evaluate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, b Binding) (Outcome, error) {
	out, _, _, err := m.evaluate(ctx, tx, userID, b)
	return out, err
}

func (m *baseMethod) evaluate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, b Binding) (Outcome, *types.AwardLog, *types.UserPoints, error) {
	if b.ID == uuid.Nil {
		return Outcome{}, nil, nil, fmt.Errorf("binding for skill %s: %w", b.SkillID, skillerr.ErrNotConfigured)
	}

	award, err := m.awardRepo.Get(ctx, tx, userID, b.SkillID, m.kind, b.ID, true)
	if err != nil {
		return Outcome{}, nil, nil, fmt.Errorf("fetch award log: %w", err)
	}
	previous := 0
	if award != nil {
		previous = award.Points
	}

	balance, err := m.points.GetBalance(ctx, tx, userID, b.SkillID, true)
	if err != nil {
		return Outcome{}, nil, nil, err
	}
	base := balance.Points - previous

	var delta int
	switch b.Rule {
	case types.CompletionNothing:
		delta = 0
	case types.CompletionPoints:
		delta = b.Points
	case types.CompletionSetLevel:
		// Only raises, never lowers.
		delta = b.LevelPoints - base
		if delta < 0 {
			delta = 0
		}
	case types.CompletionForceLevel:
		delta = b.LevelPoints - base
	default:
		return Outcome{}, nil, nil, skillerr.Validation("unknown completion rule %q", b.Rule)
	}

	return Outcome{Rule: b.Rule, Delta: delta}, award, balance, nil
}

// Apply evaluates the binding and lands the delta, keyed by
// (user, skill, method, method id). Re-running with an unchanged outcome is
// a no-op; a changed outcome corrects the ledger row and moves the balance
// by the difference.
func (m *baseMethod) Apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, b Binding) (*types.AwardLog, error) {
	out, award, _, err := m.evaluate(ctx, tx, userID, b)
	if err != nil {
		return nil, err
	}

	previous := 0
	if award != nil {
		previous = award.Points
	}

	if adjust := out.Delta - previous; adjust != 0 {
		if _, err := m.points.AdjustBalance(ctx, tx, userID, b.SkillID, adjust); err != nil {
			return nil, err
		}
	}

	if award == nil {
		award = &types.AwardLog{
			UserID:   userID,
			SkillID:  b.SkillID,
			Method:   m.kind,
			MethodID: b.ID,
			Points:   out.Delta,
			Status:   types.AwardGranted,
		}
		if err := m.awardRepo.Create(ctx, tx, award); err != nil {
			return nil, fmt.Errorf("create award log: %w", err)
		}
		m.log.Debug("Award granted", "user_id", userID, "skill_id", b.SkillID, "method_id", b.ID, "rule", out.Rule, "delta", out.Delta)
		return award, nil
	}

	if award.Points == out.Delta && award.Status == types.AwardGranted {
		return award, nil
	}

	award.Points = out.Delta
	award.Status = types.AwardGranted
	if err := m.awardRepo.Update(ctx, tx, award); err != nil {
		return nil, fmt.Errorf("correct award log: %w", err)
	}
	m.log.Debug("Award corrected", "user_id", userID, "skill_id", b.SkillID, "method_id", b.ID, "rule", out.Rule, "delta", out.Delta, "previous", previous)
	return award, nil
}

// Revoke subtracts the previously recorded delta and zeroes the ledger row.
// The row is kept so a later re-enable has something to correct against.
func (m *baseMethod) Revoke(ctx context.Context, tx *gorm.DB, userID uuid.UUID, b Binding) error {
	if b.ID == uuid.Nil {
		return fmt.Errorf("binding for skill %s: %w", b.SkillID, skillerr.ErrNotConfigured)
	}

	award, err := m.awardRepo.Get(ctx, tx, userID, b.SkillID, m.kind, b.ID, true)
	if err != nil {
		return fmt.Errorf("fetch award log: %w", err)
	}
	if award == nil {
		return nil
	}

	if award.Points != 0 {
		if _, err := m.points.AdjustBalance(ctx, tx, userID, b.SkillID, -award.Points); err != nil {
			return err
		}
	}
	if award.Points == 0 && award.Status == types.AwardRevoked {
		return nil
	}

	revoked := award.Points
	award.Points = 0
	award.Status = types.AwardRevoked
	if err := m.awardRepo.Update(ctx, tx, award); err != nil {
		return fmt.Errorf("zero award log: %w", err)
	}
	m.log.Debug("Award revoked", "user_id", userID, "skill_id", b.SkillID, "method_id", b.ID, "delta", revoked)
	return nil
}
