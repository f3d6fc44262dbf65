package engine_test

import (
	"testing"

	"lairkeep/internal/engine"
)

func newScoringScheme(t *testing.T, env testEnv, budget, spending float64, targetDate string) int64 {
	t.Helper()
	s, err := env.Engine.CreateScheme(env.Ctx, engine.SchemeCreateOptions{
		Name: "World Domination", Budget: budget, RequiredSkillLevel: 5, RequiredSpecialty: "Hacking",
		Status: "Active", TargetDate: targetDate, DiabolicalRating: 10, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create scheme: %v", err)
	}
	if spending > 0 {
		if _, err := env.Engine.UpdateScheme(env.Ctx, engine.SchemeUpdateOptions{
			ID: s.ID, Spend: floatPtr(spending), ActorID: "tester",
		}); err != nil {
			t.Fatalf("record spending: %v", err)
		}
	}
	return s.ID
}

func addCrew(t *testing.T, env testEnv, schemeID int64, specialty string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
			Name: "Crew", SkillLevel: 6, Specialty: specialty, SchemeID: int64Ptr(schemeID), ActorID: "tester",
		}); err != nil {
			t.Fatalf("add crew: %v", err)
		}
	}
}

func addGear(t *testing.T, env testEnv, schemeID int64, condition, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := env.Engine.CreateEquipment(env.Ctx, engine.EquipmentCreateOptions{
			Name: "Gear", Category: "Gadget", Condition: intPtr(condition),
			PurchasePrice: 100, SchemeID: int64Ptr(schemeID), ActorID: "tester",
		}); err != nil {
			t.Fatalf("add gear: %v", err)
		}
	}
}

func score(t *testing.T, env testEnv, schemeID int64) int {
	t.Helper()
	s, err := env.Engine.Repo.GetScheme(env.Ctx, schemeID)
	if err != nil {
		t.Fatalf("get scheme: %v", err)
	}
	got, err := env.Engine.SuccessLikelihood(env.Ctx, &s)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	return got
}

func TestSuccessLikelihoodLoneSpecialist(t *testing.T) {
	env := newTestEnv(t)
	// one matching specialist, no teammates: bonus +10 but the crew penalty
	// still applies in full
	id := newScoringScheme(t, env, 100000, 50000, "2024-12-31T00:00:00Z")
	addCrew(t, env, id, "Hacking", 1)
	if got := score(t, env, id); got != 45 {
		t.Fatalf("score = %d, want 45", got)
	}
}

func TestSuccessLikelihoodCeiling(t *testing.T) {
	env := newTestEnv(t)
	id := newScoringScheme(t, env, 100000, 0, "2024-12-31T00:00:00Z")
	addCrew(t, env, id, "Hacking", 3)
	addGear(t, env, id, 80, 4)
	if got := score(t, env, id); got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
}

func TestSuccessLikelihoodOverBudget(t *testing.T) {
	env := newTestEnv(t)
	id := newScoringScheme(t, env, 100000, 150000, "2024-12-31T00:00:00Z")
	addCrew(t, env, id, "Hacking", 2)
	addGear(t, env, id, 60, 2)
	if got := score(t, env, id); got != 60 {
		t.Fatalf("score = %d, want 60", got)
	}
}

func TestSuccessLikelihoodFloor(t *testing.T) {
	env := newTestEnv(t)
	// no crew, no gear, over budget, past deadline: raw -10 clamps to 0
	id := newScoringScheme(t, env, 100000, 150000, "2024-01-01T00:00:00Z")
	if got := score(t, env, id); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
}

func TestSuccessLikelihoodIgnoresBrokenGear(t *testing.T) {
	env := newTestEnv(t)
	id := newScoringScheme(t, env, 100000, 0, "2024-12-31T00:00:00Z")
	addCrew(t, env, id, "Hacking", 2)
	addGear(t, env, id, 49, 3) // below the operational cutoff
	addGear(t, env, id, 50, 1) // exactly at the cutoff counts
	if got := score(t, env, id); got != 75 {
		t.Fatalf("score = %d, want 75", got)
	}
}

func TestSuccessLikelihoodReferentiallyTransparent(t *testing.T) {
	env := newTestEnv(t)
	id := newScoringScheme(t, env, 100000, 50000, "2024-12-31T00:00:00Z")
	addCrew(t, env, id, "Hacking", 2)
	first := score(t, env, id)
	second := score(t, env, id)
	if first != second {
		t.Fatalf("scores differ on unchanged inputs: %d vs %d", first, second)
	}
}

func TestRescorePersistsScore(t *testing.T) {
	env := newTestEnv(t)
	id := newScoringScheme(t, env, 100000, 0, "2024-12-31T00:00:00Z")
	addCrew(t, env, id, "Hacking", 2)
	s, err := env.Engine.RescoreScheme(env.Ctx, id, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if s.SuccessLikelihood != 70 {
		t.Fatalf("persisted score = %d, want 70", s.SuccessLikelihood)
	}
	stored, err := env.Engine.Repo.GetScheme(env.Ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.SuccessLikelihood != 70 {
		t.Fatalf("stored score = %d, want 70", stored.SuccessLikelihood)
	}
}

func TestReportAverageWithNoActiveSchemes(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateScheme(env.Ctx, engine.SchemeCreateOptions{
		Name: "Shelved", Budget: 1000, RequiredSkillLevel: 3, RequiredSpecialty: "Disguise",
		Status: "On Hold", TargetDate: "2024-12-31T00:00:00Z", DiabolicalRating: 3, ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	rep, err := env.Engine.BuildReport(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Schemes.AvgSuccess != 0 {
		t.Fatalf("avg success = %v, want 0 with no active schemes", rep.Schemes.AvgSuccess)
	}
	if rep.Schemes.Total != 1 || rep.Schemes.Active != 0 {
		t.Fatalf("scheme counts = %d/%d, want 1 total 0 active", rep.Schemes.Total, rep.Schemes.Active)
	}
}

func TestReportMoodCountsAndAlerts(t *testing.T) {
	env := newTestEnv(t)
	for _, loyalty := range []int{90, 55, 20} {
		if _, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
			Name: "M", SkillLevel: 4, Specialty: "Combat", Loyalty: intPtr(loyalty),
			SalaryDemand: 1000, ActorID: "tester",
		}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.Engine.CreateEquipment(env.Ctx, engine.EquipmentCreateOptions{
		Name: "Rusty Ray", Category: "Weapon", Condition: intPtr(10), PurchasePrice: 100, ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}

	rep, err := env.Engine.BuildReport(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Minions.MoodCounts["Happy"] != 1 || rep.Minions.MoodCounts["Grumpy"] != 1 || rep.Minions.MoodCounts["Plotting Betrayal"] != 1 {
		t.Fatalf("mood counts = %v", rep.Minions.MoodCounts)
	}
	if rep.Costs.MinionSalaries != 3000 {
		t.Fatalf("salaries = %v, want 3000", rep.Costs.MinionSalaries)
	}
	if rep.Equipment.Broken != 1 {
		t.Fatalf("broken = %d, want 1", rep.Equipment.Broken)
	}

	var loyaltyAlert, brokenAlert bool
	for _, a := range rep.Alerts {
		if a.Count == 1 && a.Severity == "warning" {
			switch {
			case a.Message == "1 minions have low loyalty and may betray you":
				loyaltyAlert = true
			case a.Message == "1 equipment items are broken":
				brokenAlert = true
			}
		}
	}
	if !loyaltyAlert || !brokenAlert {
		t.Fatalf("missing alerts: %+v", rep.Alerts)
	}
}
