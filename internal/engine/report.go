package engine

import (
	"context"
	"fmt"

	"lairkeep/internal/repo"
)

// Report is a fleet-wide snapshot composed from the per-entity rules. It
// introduces no rules of its own.
type Report struct {
	Minions   MinionStats `json:"minions"`
	Schemes   SchemeStats `json:"schemes"`
	Bases     BaseStats   `json:"bases"`
	Equipment GearStats   `json:"equipment"`
	Costs     CostStats   `json:"costs"`
	Alerts    []Alert     `json:"alerts"`
}

type MinionStats struct {
	Total      int            `json:"total"`
	MoodCounts map[string]int `json:"mood_counts"`
}

type SchemeStats struct {
	Total      int     `json:"total"`
	Active     int     `json:"active"`
	AvgSuccess float64 `json:"avg_success_likelihood"`
}

type BaseStats struct {
	Total       int `json:"total"`
	Compromised int `json:"compromised"`
}

type GearStats struct {
	Total       int `json:"total"`
	Operational int `json:"operational"`
	Broken      int `json:"broken"`
}

type CostStats struct {
	MinionSalaries       float64 `json:"minion_salaries"`
	BaseUpkeep           float64 `json:"base_upkeep"`
	EquipmentMaintenance float64 `json:"equipment_maintenance"`
	TotalMonthly         float64 `json:"total_monthly"`
}

type Alert struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Count    int    `json:"count"`
}

// BuildReport composes the full report from current store state. Mood counts
// are re-derived from loyalty scores rather than read from the stored mood,
// so a stale mood field cannot skew the breakdown.
func (e Engine) BuildReport(ctx context.Context) (Report, error) {
	if err := e.requireConfig(); err != nil {
		return Report{}, err
	}
	cfg := e.Tunables()
	var rep Report

	minions, err := e.Repo.ListMinions(ctx, repo.MinionFilters{})
	if err != nil {
		return rep, err
	}
	rep.Minions.Total = len(minions)
	rep.Minions.MoodCounts = map[string]int{
		cfg.Moods.Happy:    0,
		cfg.Moods.Grumpy:   0,
		cfg.Moods.Betrayal: 0,
	}
	lowLoyalty := 0
	for _, m := range minions {
		rep.Minions.MoodCounts[e.ClassifyMood(m.LoyaltyScore)]++
		rep.Costs.MinionSalaries += m.SalaryDemand
		if m.LoyaltyScore < cfg.Loyalty.Low {
			lowLoyalty++
		}
	}

	schemes, err := e.Repo.ListSchemes(ctx, "")
	if err != nil {
		return rep, err
	}
	rep.Schemes.Total = len(schemes)
	sum := 0
	overBudget := 0
	for _, s := range schemes {
		if OverBudget(s) {
			overBudget++
		}
		if s.Status != cfg.Schemes.ActiveStatus {
			continue
		}
		rep.Schemes.Active++
		score, err := e.SuccessLikelihood(ctx, &s)
		if err != nil {
			return rep, err
		}
		sum += score
	}
	if rep.Schemes.Active > 0 {
		rep.Schemes.AvgSuccess = float64(sum) / float64(rep.Schemes.Active)
	}

	bases, err := e.Repo.ListBases(ctx, repo.BaseFilters{})
	if err != nil {
		return rep, err
	}
	rep.Bases.Total = len(bases)
	for _, b := range bases {
		if b.Compromised {
			rep.Bases.Compromised++
		}
		rep.Costs.BaseUpkeep += b.MonthlyUpkeep
	}

	gear, err := e.Repo.ListEquipment(ctx, repo.EquipmentFilters{})
	if err != nil {
		return rep, err
	}
	rep.Equipment.Total = len(gear)
	broken := 0
	for _, eq := range gear {
		if e.Operational(eq) {
			rep.Equipment.Operational++
		}
		if e.Broken(eq) {
			broken++
		}
		rep.Costs.EquipmentMaintenance += eq.MaintenanceCost
	}
	rep.Equipment.Broken = broken

	rep.Costs.TotalMonthly = rep.Costs.MinionSalaries + rep.Costs.BaseUpkeep + rep.Costs.EquipmentMaintenance

	if lowLoyalty > 0 {
		rep.Alerts = append(rep.Alerts, Alert{
			Severity: "warning",
			Message:  fmt.Sprintf("%d minions have low loyalty and may betray you", lowLoyalty),
			Count:    lowLoyalty,
		})
	}
	if broken > 0 {
		rep.Alerts = append(rep.Alerts, Alert{
			Severity: "warning",
			Message:  fmt.Sprintf("%d equipment items are broken", broken),
			Count:    broken,
		})
	}
	if overBudget > 0 {
		rep.Alerts = append(rep.Alerts, Alert{
			Severity: "critical",
			Message:  fmt.Sprintf("%d schemes are over budget", overBudget),
			Count:    overBudget,
		})
	}
	return rep, nil
}
