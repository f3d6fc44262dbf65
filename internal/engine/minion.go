package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lairkeep/internal/domain"
	"lairkeep/internal/events"
)

// ClassifyMood maps a loyalty score to a mood label. Scores exactly at a
// threshold fall in the middle band.
func (e Engine) ClassifyMood(loyalty int) string {
	cfg := e.Tunables()
	switch {
	case loyalty > cfg.Loyalty.High:
		return cfg.Moods.Happy
	case loyalty < cfg.Loyalty.Low:
		return cfg.Moods.Betrayal
	default:
		return cfg.Moods.Grumpy
	}
}

func clampLoyalty(n int) int {
	return clampScore(n)
}

// MinionCreateOptions are parameters for hiring a minion. Loyalty nil means
// the configured default.
type MinionCreateOptions struct {
	Name         string
	SkillLevel   int
	Specialty    string
	Loyalty      *int
	SalaryDemand float64
	BaseID       *int64
	SchemeID     *int64
	ActorID      string
}

func (e Engine) CreateMinion(ctx context.Context, opts MinionCreateOptions) (domain.Minion, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Minion{}, err
	}
	if err := requireActor(opts.ActorID); err != nil {
		return domain.Minion{}, err
	}
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Minion{}, errors.New("name is required")
	}
	if !ValidSkillLevel(opts.SkillLevel) {
		return domain.Minion{}, fmt.Errorf("skill level %d out of range 1-10", opts.SkillLevel)
	}
	if !e.ValidSpecialty(opts.Specialty) {
		return domain.Minion{}, fmt.Errorf("unknown specialty %q", opts.Specialty)
	}
	if opts.SalaryDemand < 0 {
		return domain.Minion{}, errors.New("salary demand must be non-negative")
	}
	loyalty := e.Tunables().Loyalty.Default
	if opts.Loyalty != nil {
		loyalty = clampLoyalty(*opts.Loyalty)
	}
	if opts.SchemeID != nil {
		if _, err := e.Repo.GetScheme(ctx, *opts.SchemeID); err != nil {
			return domain.Minion{}, fmt.Errorf("scheme %d: %w", *opts.SchemeID, err)
		}
	}
	if opts.BaseID != nil {
		full, err := e.BaseAtCapacity(ctx, *opts.BaseID)
		if err != nil {
			return domain.Minion{}, fmt.Errorf("base %d: %w", *opts.BaseID, err)
		}
		if full {
			return domain.Minion{}, fmt.Errorf("base %d is at capacity", *opts.BaseID)
		}
	}

	m := domain.Minion{
		Name:          opts.Name,
		SkillLevel:    opts.SkillLevel,
		Specialty:     opts.Specialty,
		LoyaltyScore:  loyalty,
		SalaryDemand:  opts.SalaryDemand,
		BaseID:        opts.BaseID,
		SchemeID:      opts.SchemeID,
		Mood:          e.ClassifyMood(loyalty),
		MoodUpdatedAt: e.nowRFC3339(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Minion{}, err
	}
	defer tx.Rollback()

	m, err = e.Repo.InsertMinion(ctx, tx, m)
	if err != nil {
		return domain.Minion{}, err
	}
	if err := e.Events.Append(ctx, tx, "minion.created", "minion", m.ID, opts.ActorID, events.EventPayload{
		"name": m.Name, "specialty": m.Specialty, "loyalty": m.LoyaltyScore,
	}); err != nil {
		return domain.Minion{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Minion{}, err
	}
	return m, nil
}

// MinionUpdateOptions encapsulates allowed updates. Pointer fields left nil
// are untouched; SetBase or SetScheme pointing at 0 clears the assignment.
type MinionUpdateOptions struct {
	ID           int64
	Name         *string
	SkillLevel   *int
	Specialty    *string
	Loyalty      *int
	SalaryDemand *float64
	SetBase      *int64
	SetScheme    *int64
	ActorID      string
}

func (e Engine) UpdateMinion(ctx context.Context, opts MinionUpdateOptions) (domain.Minion, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Minion{}, err
	}
	if err := requireActor(opts.ActorID); err != nil {
		return domain.Minion{}, err
	}
	m, err := e.Repo.GetMinion(ctx, opts.ID)
	if err != nil {
		return m, err
	}
	if opts.Name != nil {
		if strings.TrimSpace(*opts.Name) == "" {
			return m, errors.New("name is required")
		}
		m.Name = *opts.Name
	}
	if opts.SkillLevel != nil {
		if !ValidSkillLevel(*opts.SkillLevel) {
			return m, fmt.Errorf("skill level %d out of range 1-10", *opts.SkillLevel)
		}
		m.SkillLevel = *opts.SkillLevel
	}
	if opts.Specialty != nil {
		if !e.ValidSpecialty(*opts.Specialty) {
			return m, fmt.Errorf("unknown specialty %q", *opts.Specialty)
		}
		m.Specialty = *opts.Specialty
	}
	if opts.SalaryDemand != nil {
		if *opts.SalaryDemand < 0 {
			return m, errors.New("salary demand must be non-negative")
		}
		m.SalaryDemand = *opts.SalaryDemand
	}
	if opts.Loyalty != nil {
		m.LoyaltyScore = clampLoyalty(*opts.Loyalty)
		m.Mood = e.ClassifyMood(m.LoyaltyScore)
		m.MoodUpdatedAt = e.nowRFC3339()
	}
	if opts.SetScheme != nil {
		if *opts.SetScheme == 0 {
			m.SchemeID = nil
		} else {
			if _, err := e.Repo.GetScheme(ctx, *opts.SetScheme); err != nil {
				return m, fmt.Errorf("scheme %d: %w", *opts.SetScheme, err)
			}
			m.SchemeID = opts.SetScheme
		}
	}
	if opts.SetBase != nil {
		if *opts.SetBase == 0 {
			m.BaseID = nil
		} else {
			moving := m.BaseID == nil || *m.BaseID != *opts.SetBase
			if moving {
				full, err := e.BaseAtCapacity(ctx, *opts.SetBase)
				if err != nil {
					return m, fmt.Errorf("base %d: %w", *opts.SetBase, err)
				}
				if full {
					return m, fmt.Errorf("base %d is at capacity", *opts.SetBase)
				}
			}
			m.BaseID = opts.SetBase
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return m, err
	}
	defer tx.Rollback()

	if err := e.Repo.UpdateMinion(ctx, tx, m); err != nil {
		return m, err
	}
	if err := e.Events.Append(ctx, tx, "minion.updated", "minion", m.ID, opts.ActorID, events.EventPayload{
		"loyalty": m.LoyaltyScore, "mood": m.Mood,
	}); err != nil {
		return m, err
	}
	if err := tx.Commit(); err != nil {
		return m, err
	}
	return m, nil
}

func (e Engine) DeleteMinion(ctx context.Context, id int64, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteMinion(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "minion.deleted", "minion", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// RefreshMood re-derives the stored mood from the current loyalty score.
func (e Engine) RefreshMood(ctx context.Context, id int64, actorID string) (domain.Minion, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Minion{}, err
	}
	if err := requireActor(actorID); err != nil {
		return domain.Minion{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Minion{}, err
	}
	defer tx.Rollback()

	m, err := e.Repo.GetMinionTx(ctx, tx, id)
	if err != nil {
		return m, err
	}
	m.Mood = e.ClassifyMood(m.LoyaltyScore)
	m.MoodUpdatedAt = e.nowRFC3339()
	if err := e.Repo.UpdateMinion(ctx, tx, m); err != nil {
		return m, err
	}
	if err := e.Events.Append(ctx, tx, "minion.mood.updated", "minion", m.ID, actorID, events.EventPayload{
		"mood": m.Mood, "loyalty": m.LoyaltyScore,
	}); err != nil {
		return m, err
	}
	if err := tx.Commit(); err != nil {
		return m, err
	}
	return m, nil
}

// PayMinion records a salary payment. Paying at least the demand grows
// loyalty by the configured growth rate; paying less decays it. The score is
// clamped to [0,100] and the mood re-derived from the result.
func (e Engine) PayMinion(ctx context.Context, id int64, amount float64, actorID string) (domain.Minion, error) {
	if err := e.requireConfig(); err != nil {
		return domain.Minion{}, err
	}
	if err := requireActor(actorID); err != nil {
		return domain.Minion{}, err
	}
	if amount < 0 {
		return domain.Minion{}, errors.New("amount must be non-negative")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Minion{}, err
	}
	defer tx.Rollback()

	m, err := e.Repo.GetMinionTx(ctx, tx, id)
	if err != nil {
		return m, err
	}
	cfg := e.Tunables()
	if amount >= m.SalaryDemand {
		m.LoyaltyScore += cfg.Loyalty.GrowthRate
	} else {
		m.LoyaltyScore -= cfg.Loyalty.DecayRate
	}
	m.LoyaltyScore = clampLoyalty(m.LoyaltyScore)
	m.Mood = e.ClassifyMood(m.LoyaltyScore)
	m.MoodUpdatedAt = e.nowRFC3339()

	if err := e.Repo.UpdateMinion(ctx, tx, m); err != nil {
		return m, err
	}
	if err := e.Events.Append(ctx, tx, "minion.paid", "minion", m.ID, actorID, events.EventPayload{
		"amount": amount, "loyalty": m.LoyaltyScore, "mood": m.Mood,
	}); err != nil {
		return m, err
	}
	if err := tx.Commit(); err != nil {
		return m, err
	}
	return m, nil
}
