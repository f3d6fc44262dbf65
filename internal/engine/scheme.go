package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lairkeep/internal/domain"
	"lairkeep/internal/events"
)

// Success likelihood weights. The score starts from the configured base and
// is clamped to [0,100] after all adjustments.
const (
	matchingMinionWeight   = 10
	workingEquipmentWeight = 5
	overBudgetPenalty      = -20
	underResourcedPenalty  = -15
	pastDeadlinePenalty    = -25
)

// OverBudget reports whether spending strictly exceeds the budget.
func OverBudget(s domain.Scheme) bool {
	return s.CurrentSpending > s.Budget
}

// Overdue reports whether now is strictly past the target date. Unparseable
// target dates count as not overdue.
func (e Engine) Overdue(s domain.Scheme) bool {
	target, err := time.Parse(time.RFC3339, s.TargetDate)
	if err != nil {
		return false
	}
	return e.now().After(target)
}

// ListOverdueSchemes returns schemes past their target date that are still
// in play (not Completed or Failed).
func (e Engine) ListOverdueSchemes(ctx context.Context) ([]domain.Scheme, error) {
	all, err := e.Repo.ListSchemes(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []domain.Scheme
	for _, s := range all {
		if s.Status == "Completed" || s.Status == "Failed" {
			continue
		}
		if e.Overdue(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// SuccessLikelihood scores a scheme from its current crew and gear. Each
// assigned minion whose specialty matches adds matchingMinionWeight; each
// assigned item at or above the operational condition adds
// workingEquipmentWeight. Overspending, a crew of fewer than two or with no
// matching specialist, and a missed target date each subtract their penalty.
func (e Engine) SuccessLikelihood(ctx context.Context, s *domain.Scheme) (int, error) {
	if err := e.requireConfig(); err != nil {
		return 0, err
	}
	if s == nil {
		return 0, errors.New("scheme is nil")
	}
	score := e.Tunables().Schemes.BaseSuccessLikelihood

	minions, err := e.Repo.ListMinionsByScheme(ctx, s.ID)
	if err != nil {
		return 0, err
	}
	matching := 0
	for _, m := range minions {
		if m.Specialty == s.RequiredSpecialty {
			matching++
		}
	}
	score += matching * matchingMinionWeight

	gear, err := e.Repo.ListEquipmentByScheme(ctx, s.ID)
	if err != nil {
		return 0, err
	}
	for _, eq := range gear {
		if e.Operational(eq) {
			score += workingEquipmentWeight
		}
	}

	if OverBudget(*s) {
		score += overBudgetPenalty
	}
	if len(minions) < 2 || matching < 1 {
		score += underResourcedPenalty
	}
	if e.Overdue(*s) {
		score += pastDeadlinePenalty
	}
	return clampScore(score), nil
}

// RescoreScheme recomputes and persists the success likelihood.
func (e Engine) RescoreScheme(ctx context.Context, id int64, actorID string) (domain.Scheme, error) {
	if err := requireActor(actorID); err != nil {
		return domain.Scheme{}, err
	}
	s, err := e.Repo.GetScheme(ctx, id)
	if err != nil {
		return s, err
	}
	score, err := e.SuccessLikelihood(ctx, &s)
	if err != nil {
		return s, err
	}
	s.SuccessLikelihood = score

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateScheme(ctx, tx, s); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, "scheme.scored", "scheme", s.ID, actorID, events.EventPayload{
		"success_likelihood": score,
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

// SchemeCreateOptions are parameters for plotting a scheme.
type SchemeCreateOptions struct {
	Name               string
	Description        string
	Budget             float64
	RequiredSkillLevel int
	RequiredSpecialty  string
	Status             string
	StartDate          *string
	TargetDate         string
	DiabolicalRating   int
	ActorID            string
}

func (e Engine) CreateScheme(ctx context.Context, opts SchemeCreateOptions) (domain.Scheme, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Scheme{}, err
	}
	if err := requireActor(opts.ActorID); err != nil {
		return domain.Scheme{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Scheme{}, errors.New("name is required")
	}
	if opts.Status == "" {
		opts.Status = "Planning"
	}
	if !ValidStatus(opts.Status) {
		return domain.Scheme{}, fmt.Errorf("unknown status %q", opts.Status)
	}
	if !ValidSkillLevel(opts.RequiredSkillLevel) {
		return domain.Scheme{}, fmt.Errorf("required skill level %d out of range 1-10", opts.RequiredSkillLevel)
	}
	if !e.ValidSpecialty(opts.RequiredSpecialty) {
		return domain.Scheme{}, fmt.Errorf("unknown specialty %q", opts.RequiredSpecialty)
	}
	if !ValidSkillLevel(opts.DiabolicalRating) {
		return domain.Scheme{}, fmt.Errorf("diabolical rating %d out of range 1-10", opts.DiabolicalRating)
	}
	if opts.Budget < 0 {
		return domain.Scheme{}, errors.New("budget must be non-negative")
	}
	if err := validateRFC3339("target date", opts.TargetDate); err != nil {
		return domain.Scheme{}, err
	}
	if opts.StartDate != nil {
		if err := validateRFC3339("start date", *opts.StartDate); err != nil {
			return domain.Scheme{}, err
		}
	}

	s := domain.Scheme{
		Name:               opts.Name,
		Description:        opts.Description,
		Budget:             opts.Budget,
		RequiredSkillLevel: opts.RequiredSkillLevel,
		RequiredSpecialty:  opts.RequiredSpecialty,
		Status:             opts.Status,
		StartDate:          opts.StartDate,
		TargetDate:         opts.TargetDate,
		DiabolicalRating:   opts.DiabolicalRating,
		SuccessLikelihood:  e.Tunables().Schemes.BaseSuccessLikelihood,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Scheme{}, err
	}
	defer tx.Rollback()

	s, err = e.Repo.InsertScheme(ctx, tx, s)
	if err != nil {
		return domain.Scheme{}, err
	}
	if err := e.Events.Append(ctx, tx, "scheme.created", "scheme", s.ID, opts.ActorID, events.EventPayload{
		"name": s.Name, "status": s.Status,
	}); err != nil {
		return domain.Scheme{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Scheme{}, err
	}
	return s, nil
}

// SchemeUpdateOptions encapsulates allowed updates.
type SchemeUpdateOptions struct {
	ID                 int64
	Name               *string
	Description        *string
	Budget             *float64
	Spend              *float64
	RequiredSkillLevel *int
	RequiredSpecialty  *string
	Status             *string
	StartDate          *string
	TargetDate         *string
	DiabolicalRating   *int
	ActorID            string
}

func (e Engine) UpdateScheme(ctx context.Context, opts SchemeUpdateOptions) (domain.Scheme, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Scheme{}, err
	}
	if err := requireActor(opts.ActorID); err != nil {
		return domain.Scheme{}, err
	}
	s, err := e.Repo.GetScheme(ctx, opts.ID)
	if err != nil {
		return s, err
	}
	if opts.Name != nil {
		if strings.TrimSpace(*opts.Name) == "" {
			return s, errors.New("name is required")
		}
		s.Name = *opts.Name
	}
	if opts.Description != nil {
		s.Description = *opts.Description
	}
	if opts.Budget != nil {
		if *opts.Budget < 0 {
			return s, errors.New("budget must be non-negative")
		}
		s.Budget = *opts.Budget
	}
	if opts.Spend != nil {
		if *opts.Spend < 0 {
			return s, errors.New("spend must be non-negative")
		}
		s.CurrentSpending += *opts.Spend
	}
	if opts.RequiredSkillLevel != nil {
		if !ValidSkillLevel(*opts.RequiredSkillLevel) {
			return s, fmt.Errorf("required skill level %d out of range 1-10", *opts.RequiredSkillLevel)
		}
		s.RequiredSkillLevel = *opts.RequiredSkillLevel
	}
	if opts.RequiredSpecialty != nil {
		if !e.ValidSpecialty(*opts.RequiredSpecialty) {
			return s, fmt.Errorf("unknown specialty %q", *opts.RequiredSpecialty)
		}
		s.RequiredSpecialty = *opts.RequiredSpecialty
	}
	if opts.Status != nil {
		if !ValidStatus(*opts.Status) {
			return s, fmt.Errorf("unknown status %q", *opts.Status)
		}
		s.Status = *opts.Status
	}
	if opts.StartDate != nil {
		if *opts.StartDate == "" {
			s.StartDate = nil
		} else {
			if err := validateRFC3339("start date", *opts.StartDate); err != nil {
				return s, err
			}
			s.StartDate = opts.StartDate
		}
	}
	if opts.TargetDate != nil {
		if err := validateRFC3339("target date", *opts.TargetDate); err != nil {
			return s, err
		}
		s.TargetDate = *opts.TargetDate
	}
	if opts.DiabolicalRating != nil {
		if !ValidSkillLevel(*opts.DiabolicalRating) {
			return s, fmt.Errorf("diabolical rating %d out of range 1-10", *opts.DiabolicalRating)
		}
		s.DiabolicalRating = *opts.DiabolicalRating
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return s, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateScheme(ctx, tx, s); err != nil {
		return s, err
	}
	if err := e.Events.Append(ctx, tx, "scheme.updated", "scheme", s.ID, opts.ActorID, events.EventPayload{
		"status": s.Status, "current_spending": s.CurrentSpending,
	}); err != nil {
		return s, err
	}
	if err := tx.Commit(); err != nil {
		return s, err
	}
	return s, nil
}

func (e Engine) DeleteScheme(ctx context.Context, id int64, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteScheme(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "scheme.deleted", "scheme", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}
