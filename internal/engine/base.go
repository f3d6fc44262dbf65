package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lairkeep/internal/domain"
	"lairkeep/internal/events"
)

// BaseOccupancy returns how many minions are stationed at the base.
func (e Engine) BaseOccupancy(ctx context.Context, baseID int64) (int, error) {
	return e.Repo.CountMinionsByBase(ctx, baseID)
}

// BaseAtCapacity reports whether the base has no room left.
func (e Engine) BaseAtCapacity(ctx context.Context, baseID int64) (bool, error) {
	b, err := e.Repo.GetBase(ctx, baseID)
	if err != nil {
		return false, err
	}
	n, err := e.Repo.CountMinionsByBase(ctx, baseID)
	if err != nil {
		return false, err
	}
	return n >= b.Capacity, nil
}

// BaseCreateOptions are parameters for establishing a base.
type BaseCreateOptions struct {
	Name              string
	Location          string
	Capacity          int
	SecurityLevel     int
	MonthlyUpkeep     float64
	HasDoomsdayDevice bool
	ActorID           string
}

func (e Engine) CreateBase(ctx context.Context, opts BaseCreateOptions) (domain.Base, error) {
	if err := requireActor(opts.ActorID); err != nil {
		return domain.Base{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Base{}, errors.New("name is required")
	}
	if strings.TrimSpace(opts.Location) == "" {
		return domain.Base{}, errors.New("location is required")
	}
	if opts.Capacity < 1 {
		return domain.Base{}, errors.New("capacity must be at least 1")
	}
	if opts.SecurityLevel < 1 || opts.SecurityLevel > 10 {
		return domain.Base{}, fmt.Errorf("security level %d out of range 1-10", opts.SecurityLevel)
	}
	if opts.MonthlyUpkeep < 0 {
		return domain.Base{}, errors.New("monthly upkeep must be non-negative")
	}

	b := domain.Base{
		Name:              opts.Name,
		Location:          opts.Location,
		Capacity:          opts.Capacity,
		SecurityLevel:     opts.SecurityLevel,
		MonthlyUpkeep:     opts.MonthlyUpkeep,
		HasDoomsdayDevice: opts.HasDoomsdayDevice,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Base{}, err
	}
	defer tx.Rollback()

	b, err = e.Repo.InsertBase(ctx, tx, b)
	if err != nil {
		return domain.Base{}, err
	}
	if err := e.Events.Append(ctx, tx, "base.created", "base", b.ID, opts.ActorID, events.EventPayload{
		"name": b.Name, "location": b.Location,
	}); err != nil {
		return domain.Base{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Base{}, err
	}
	return b, nil
}

// BaseUpdateOptions encapsulates allowed updates.
type BaseUpdateOptions struct {
	ID                int64
	Name              *string
	Location          *string
	Capacity          *int
	SecurityLevel     *int
	MonthlyUpkeep     *float64
	HasDoomsdayDevice *bool
	Compromised       *bool
	Inspected         bool
	ActorID           string
}

func (e Engine) UpdateBase(ctx context.Context, opts BaseUpdateOptions) (domain.Base, error) {
	if err := requireActor(opts.ActorID); err != nil {
		return domain.Base{}, err
	}
	b, err := e.Repo.GetBase(ctx, opts.ID)
	if err != nil {
		return b, err
	}
	if opts.Name != nil {
		if strings.TrimSpace(*opts.Name) == "" {
			return b, errors.New("name is required")
		}
		b.Name = *opts.Name
	}
	if opts.Location != nil {
		if strings.TrimSpace(*opts.Location) == "" {
			return b, errors.New("location is required")
		}
		b.Location = *opts.Location
	}
	if opts.Capacity != nil {
		if *opts.Capacity < 1 {
			return b, errors.New("capacity must be at least 1")
		}
		b.Capacity = *opts.Capacity
	}
	if opts.SecurityLevel != nil {
		if *opts.SecurityLevel < 1 || *opts.SecurityLevel > 10 {
			return b, fmt.Errorf("security level %d out of range 1-10", *opts.SecurityLevel)
		}
		b.SecurityLevel = *opts.SecurityLevel
	}
	if opts.MonthlyUpkeep != nil {
		if *opts.MonthlyUpkeep < 0 {
			return b, errors.New("monthly upkeep must be non-negative")
		}
		b.MonthlyUpkeep = *opts.MonthlyUpkeep
	}
	if opts.HasDoomsdayDevice != nil {
		b.HasDoomsdayDevice = *opts.HasDoomsdayDevice
	}
	if opts.Compromised != nil {
		b.Compromised = *opts.Compromised
	}
	if opts.Inspected {
		now := e.nowRFC3339()
		b.LastInspectionAt = &now
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return b, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateBase(ctx, tx, b); err != nil {
		return b, err
	}
	if err := e.Events.Append(ctx, tx, "base.updated", "base", b.ID, opts.ActorID, events.EventPayload{
		"compromised": b.Compromised,
	}); err != nil {
		return b, err
	}
	if err := tx.Commit(); err != nil {
		return b, err
	}
	return b, nil
}

func (e Engine) DeleteBase(ctx context.Context, id int64, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteBase(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "base.deleted", "base", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}
