package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lairkeep/internal/domain"
	"lairkeep/internal/events"
	"lairkeep/internal/repo"
)

// Operational reports whether the item meets the configured minimum condition.
func (e Engine) Operational(eq domain.Equipment) bool {
	return eq.Condition >= e.Tunables().Equipment.MinOperationalCondition
}

// Broken reports whether the item is below the configured broken threshold.
func (e Engine) Broken(eq domain.Equipment) bool {
	return eq.Condition < e.Tunables().Equipment.BrokenBelowCondition
}

// EquipmentCreateOptions are parameters for registering equipment. Condition
// nil means factory-fresh (100).
type EquipmentCreateOptions struct {
	Name               string
	Category           string
	Condition          *int
	PurchasePrice      float64
	SchemeID           *int64
	BaseID             *int64
	RequiresSpecialist bool
	ActorID            string
}

func (e Engine) CreateEquipment(ctx context.Context, opts EquipmentCreateOptions) (domain.Equipment, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Equipment{}, err
	}
	if err := requireActor(opts.ActorID); err != nil {
		return domain.Equipment{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Equipment{}, errors.New("name is required")
	}
	if !e.ValidCategory(opts.Category) {
		return domain.Equipment{}, fmt.Errorf("unknown category %q", opts.Category)
	}
	if opts.PurchasePrice < 0 {
		return domain.Equipment{}, errors.New("purchase price must be non-negative")
	}
	condition := 100
	if opts.Condition != nil {
		if *opts.Condition < 0 || *opts.Condition > 100 {
			return domain.Equipment{}, fmt.Errorf("condition %d out of range 0-100", *opts.Condition)
		}
		condition = *opts.Condition
	}
	if opts.SchemeID != nil {
		if _, err := e.Repo.GetScheme(ctx, *opts.SchemeID); err != nil {
			return domain.Equipment{}, fmt.Errorf("scheme %d: %w", *opts.SchemeID, err)
		}
	}
	if opts.BaseID != nil {
		if _, err := e.Repo.GetBase(ctx, *opts.BaseID); err != nil {
			return domain.Equipment{}, fmt.Errorf("base %d: %w", *opts.BaseID, err)
		}
	}

	eq := domain.Equipment{
		Name:               opts.Name,
		Category:           opts.Category,
		Condition:          condition,
		PurchasePrice:      opts.PurchasePrice,
		SchemeID:           opts.SchemeID,
		BaseID:             opts.BaseID,
		RequiresSpecialist: opts.RequiresSpecialist,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Equipment{}, err
	}
	defer tx.Rollback()

	eq, err = e.Repo.InsertEquipment(ctx, tx, eq)
	if err != nil {
		return domain.Equipment{}, err
	}
	if err := e.Events.Append(ctx, tx, "equipment.created", "equipment", eq.ID, opts.ActorID, events.EventPayload{
		"name": eq.Name, "category": eq.Category, "condition": eq.Condition,
	}); err != nil {
		return domain.Equipment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Equipment{}, err
	}
	return eq, nil
}

// EquipmentUpdateOptions encapsulates allowed updates. SetScheme or SetBase
// pointing at 0 clears the assignment.
type EquipmentUpdateOptions struct {
	ID                 int64
	Name               *string
	Category           *string
	Condition          *int
	PurchasePrice      *float64
	SetScheme          *int64
	SetBase            *int64
	RequiresSpecialist *bool
	ActorID            string
}

func (e Engine) UpdateEquipment(ctx context.Context, opts EquipmentUpdateOptions) (domain.Equipment, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Equipment{}, err
	}
	if err := requireActor(opts.ActorID); err != nil {
		return domain.Equipment{}, err
	}
	eq, err := e.Repo.GetEquipment(ctx, opts.ID)
	if err != nil {
		return eq, err
	}
	if opts.Name != nil {
		if strings.TrimSpace(*opts.Name) == "" {
			return eq, errors.New("name is required")
		}
		eq.Name = *opts.Name
	}
	if opts.Category != nil {
		if !e.ValidCategory(*opts.Category) {
			return eq, fmt.Errorf("unknown category %q", *opts.Category)
		}
		eq.Category = *opts.Category
	}
	if opts.Condition != nil {
		if *opts.Condition < 0 || *opts.Condition > 100 {
			return eq, fmt.Errorf("condition %d out of range 0-100", *opts.Condition)
		}
		eq.Condition = *opts.Condition
	}
	if opts.PurchasePrice != nil {
		if *opts.PurchasePrice < 0 {
			return eq, errors.New("purchase price must be non-negative")
		}
		eq.PurchasePrice = *opts.PurchasePrice
	}
	if opts.RequiresSpecialist != nil {
		eq.RequiresSpecialist = *opts.RequiresSpecialist
	}
	if opts.SetScheme != nil {
		if *opts.SetScheme == 0 {
			eq.SchemeID = nil
		} else {
			if _, err := e.Repo.GetScheme(ctx, *opts.SetScheme); err != nil {
				return eq, fmt.Errorf("scheme %d: %w", *opts.SetScheme, err)
			}
			eq.SchemeID = opts.SetScheme
		}
	}
	if opts.SetBase != nil {
		if *opts.SetBase == 0 {
			eq.BaseID = nil
		} else {
			if _, err := e.Repo.GetBase(ctx, *opts.SetBase); err != nil {
				return eq, fmt.Errorf("base %d: %w", *opts.SetBase, err)
			}
			eq.BaseID = opts.SetBase
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return eq, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateEquipment(ctx, tx, eq); err != nil {
		return eq, err
	}
	if err := e.Events.Append(ctx, tx, "equipment.updated", "equipment", eq.ID, opts.ActorID, events.EventPayload{
		"condition": eq.Condition,
	}); err != nil {
		return eq, err
	}
	if err := tx.Commit(); err != nil {
		return eq, err
	}
	return eq, nil
}

func (e Engine) DeleteEquipment(ctx context.Context, id int64, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteEquipment(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "equipment.deleted", "equipment", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// DegradeEquipment applies one wear step to an item assigned to an active
// scheme. Items that are unassigned, or whose scheme is not in the active
// status, are left untouched and nothing is written.
func (e Engine) DegradeEquipment(ctx context.Context, id int64, actorID string) (domain.Equipment, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Equipment{}, err
	}
	if err := requireActor(actorID); err != nil {
		return domain.Equipment{}, err
	}
	eq, err := e.Repo.GetEquipment(ctx, id)
	if err != nil {
		return eq, err
	}
	if eq.SchemeID == nil {
		return eq, nil
	}
	scheme, err := e.Repo.GetScheme(ctx, *eq.SchemeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return eq, nil
		}
		return eq, err
	}
	cfg := e.Tunables()
	if scheme.Status != cfg.Schemes.ActiveStatus {
		return eq, nil
	}
	eq.Condition -= cfg.Equipment.DegradationRate
	if eq.Condition < 0 {
		eq.Condition = 0
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return eq, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateEquipment(ctx, tx, eq); err != nil {
		return eq, err
	}
	if err := e.Events.Append(ctx, tx, "equipment.degraded", "equipment", eq.ID, actorID, events.EventPayload{
		"condition": eq.Condition, "scheme_id": scheme.ID,
	}); err != nil {
		return eq, err
	}
	if err := tx.Commit(); err != nil {
		return eq, err
	}
	return eq, nil
}

// MaintainEquipment restores an item to full condition and returns the cost,
// a percentage of the purchase price. The doomsday category carries a higher
// rate than everything else.
func (e Engine) MaintainEquipment(ctx context.Context, id int64, actorID string) (domain.Equipment, float64, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Equipment{}, 0, err
	}
	if err := requireActor(actorID); err != nil {
		return domain.Equipment{}, 0, err
	}
	eq, err := e.Repo.GetEquipment(ctx, id)
	if err != nil {
		return eq, 0, err
	}
	cfg := e.Tunables()
	pct := cfg.Equipment.MaintenancePct
	if eq.Category == cfg.Equipment.DoomsdayCategory {
		pct = cfg.Equipment.DoomsdayMaintenancePct
	}
	cost := eq.PurchasePrice * pct
	now := e.nowRFC3339()
	eq.Condition = 100
	eq.MaintenanceCost = cost
	eq.LastMaintenanceAt = &now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return eq, 0, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateEquipment(ctx, tx, eq); err != nil {
		return eq, 0, err
	}
	if err := e.Events.Append(ctx, tx, "equipment.maintained", "equipment", eq.ID, actorID, events.EventPayload{
		"cost": cost, "category": eq.Category,
	}); err != nil {
		return eq, 0, err
	}
	if err := tx.Commit(); err != nil {
		return eq, 0, err
	}
	return eq, cost, nil
}
