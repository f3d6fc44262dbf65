package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"lairkeep/internal/config"
	"lairkeep/internal/db"
	"lairkeep/internal/engine"
	"lairkeep/internal/migrate"
	"lairkeep/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func intPtr(n int) *int           { return &n }
func int64Ptr(n int64) *int64     { return &n }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
func boolPtr(b bool) *bool        { return &b }

func TestClassifyMoodBoundaries(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		loyalty int
		want    string
	}{
		{0, "Plotting Betrayal"},
		{39, "Plotting Betrayal"},
		{40, "Grumpy"}, // exactly at the low threshold
		{50, "Grumpy"},
		{70, "Grumpy"}, // exactly at the high threshold
		{71, "Happy"},
		{100, "Happy"},
	}
	for _, c := range cases {
		if got := env.Engine.ClassifyMood(c.loyalty); got != c.want {
			t.Errorf("ClassifyMood(%d) = %q, want %q", c.loyalty, got, c.want)
		}
	}
}

func TestPayMinionLoyalty(t *testing.T) {
	env := newTestEnv(t)
	m, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
		Name: "Igor", SkillLevel: 5, Specialty: "Hacking", SalaryDemand: 1000, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create minion: %v", err)
	}
	if m.LoyaltyScore != 50 {
		t.Fatalf("default loyalty = %d, want 50", m.LoyaltyScore)
	}
	if m.Mood != "Grumpy" {
		t.Fatalf("initial mood = %q, want Grumpy", m.Mood)
	}

	// full payment grows loyalty by the growth rate
	m, err = env.Engine.PayMinion(env.Ctx, m.ID, 1000, "tester")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if m.LoyaltyScore != 53 {
		t.Fatalf("loyalty after full pay = %d, want 53", m.LoyaltyScore)
	}

	// short payment decays it
	m, err = env.Engine.PayMinion(env.Ctx, m.ID, 999.99, "tester")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if m.LoyaltyScore != 48 {
		t.Fatalf("loyalty after short pay = %d, want 48", m.LoyaltyScore)
	}
}

func TestPayMinionClamps(t *testing.T) {
	env := newTestEnv(t)
	m, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
		Name: "Boris", SkillLevel: 3, Specialty: "Combat", Loyalty: intPtr(99), SalaryDemand: 500, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	m, err = env.Engine.PayMinion(env.Ctx, m.ID, 500, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if m.LoyaltyScore != 100 {
		t.Fatalf("loyalty = %d, want ceiling 100", m.LoyaltyScore)
	}
	if m.Mood != "Happy" {
		t.Fatalf("mood = %q, want Happy", m.Mood)
	}

	low, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
		Name: "Vlad", SkillLevel: 3, Specialty: "Combat", Loyalty: intPtr(2), SalaryDemand: 500, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	low, err = env.Engine.PayMinion(env.Ctx, low.ID, 0, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if low.LoyaltyScore != 0 {
		t.Fatalf("loyalty = %d, want floor 0", low.LoyaltyScore)
	}
	if low.Mood != "Plotting Betrayal" {
		t.Fatalf("mood = %q, want Plotting Betrayal", low.Mood)
	}
}

func TestValidSpecialty(t *testing.T) {
	env := newTestEnv(t)
	if env.Engine.ValidSpecialty("") {
		t.Error("blank specialty must be invalid")
	}
	if env.Engine.ValidSpecialty("Gardening") {
		t.Error("unknown specialty must be invalid")
	}
	if !env.Engine.ValidSpecialty("Explosives") {
		t.Error("configured specialty must be valid")
	}
	if _, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
		Name: "Nameless", SkillLevel: 5, Specialty: "Gardening", ActorID: "tester",
	}); err == nil {
		t.Error("expected rejection for unknown specialty")
	}
}

func TestEquipmentDegradeRequiresActiveScheme(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.CreateScheme(env.Ctx, engine.SchemeCreateOptions{
		Name: "Weather Machine", Budget: 100000, RequiredSkillLevel: 5, RequiredSpecialty: "Engineering",
		Status: "Planning", TargetDate: "2024-12-31T00:00:00Z", DiabolicalRating: 8, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create scheme: %v", err)
	}
	eq, err := env.Engine.CreateEquipment(env.Ctx, engine.EquipmentCreateOptions{
		Name: "Laser Drill", Category: "Gadget", PurchasePrice: 20000, SchemeID: int64Ptr(s.ID), ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create equipment: %v", err)
	}

	// planning scheme: no wear
	eq, err = env.Engine.DegradeEquipment(env.Ctx, eq.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if eq.Condition != 100 {
		t.Fatalf("condition = %d, want 100 while scheme is not active", eq.Condition)
	}

	if _, err := env.Engine.UpdateScheme(env.Ctx, engine.SchemeUpdateOptions{
		ID: s.ID, Status: strPtr("Active"), ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	eq, err = env.Engine.DegradeEquipment(env.Ctx, eq.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if eq.Condition != 95 {
		t.Fatalf("condition = %d, want 95 after one wear step", eq.Condition)
	}
}

func TestEquipmentConditionFloor(t *testing.T) {
	env := newTestEnv(t)
	s, err := env.Engine.CreateScheme(env.Ctx, engine.SchemeCreateOptions{
		Name: "Heist", Budget: 5000, RequiredSkillLevel: 4, RequiredSpecialty: "Disguise",
		Status: "Active", TargetDate: "2024-12-31T00:00:00Z", DiabolicalRating: 5, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	eq, err := env.Engine.CreateEquipment(env.Ctx, engine.EquipmentCreateOptions{
		Name: "Getaway Van", Category: "Vehicle", Condition: intPtr(7),
		PurchasePrice: 9000, SchemeID: int64Ptr(s.ID), ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		eq, err = env.Engine.DegradeEquipment(env.Ctx, eq.ID, "tester")
		if err != nil {
			t.Fatal(err)
		}
		if eq.Condition < 0 {
			t.Fatalf("condition went negative: %d", eq.Condition)
		}
	}
	if eq.Condition != 0 {
		t.Fatalf("condition = %d, want floor 0", eq.Condition)
	}
	if !env.Engine.Broken(eq) {
		t.Error("item at condition 0 must be broken")
	}
	if env.Engine.Operational(eq) {
		t.Error("item at condition 0 must not be operational")
	}
}

func TestMaintainEquipmentCost(t *testing.T) {
	env := newTestEnv(t)
	gadget, err := env.Engine.CreateEquipment(env.Ctx, engine.EquipmentCreateOptions{
		Name: "Shark Tank", Category: "Gadget", Condition: intPtr(30), PurchasePrice: 10000, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	gadget, cost, err := env.Engine.MaintainEquipment(env.Ctx, gadget.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if cost != 1500 {
		t.Fatalf("standard maintenance cost = %v, want 1500", cost)
	}
	if gadget.Condition != 100 {
		t.Fatalf("condition = %d, want 100 after maintenance", gadget.Condition)
	}
	if gadget.LastMaintenanceAt == nil {
		t.Fatal("last maintenance timestamp not stamped")
	}

	device, err := env.Engine.CreateEquipment(env.Ctx, engine.EquipmentCreateOptions{
		Name: "Orbital Laser", Category: "Doomsday Device", Condition: intPtr(60), PurchasePrice: 10000, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	device, cost, err = env.Engine.MaintainEquipment(env.Ctx, device.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if cost != 3000 {
		t.Fatalf("doomsday maintenance cost = %v, want 3000", cost)
	}
	if device.MaintenanceCost != 3000 {
		t.Fatalf("stored maintenance cost = %v, want 3000", device.MaintenanceCost)
	}
}

func TestBaseCapacity(t *testing.T) {
	env := newTestEnv(t)
	b, err := env.Engine.CreateBase(env.Ctx, engine.BaseCreateOptions{
		Name: "Volcano Lair", Location: "Pacific", Capacity: 2, SecurityLevel: 9,
		MonthlyUpkeep: 50000, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Minion A", "Minion B"} {
		if _, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
			Name: name, SkillLevel: 2, Specialty: "Combat", BaseID: int64Ptr(b.ID), ActorID: "tester",
		}); err != nil {
			t.Fatalf("station %s: %v", name, err)
		}
	}
	full, err := env.Engine.BaseAtCapacity(env.Ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !full {
		t.Fatal("base with 2/2 stationed must be at capacity")
	}
	if _, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
		Name: "Minion C", SkillLevel: 2, Specialty: "Combat", BaseID: int64Ptr(b.ID), ActorID: "tester",
	}); err == nil {
		t.Fatal("expected rejection when base is full")
	}
}

func TestMutationsRequireActor(t *testing.T) {
	env := newTestEnv(t)
	m, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
		Name: "Igor", SkillLevel: 5, Specialty: "Hacking", SalaryDemand: 1000, ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create minion: %v", err)
	}

	// every audit row carries an actor, so an anonymous payment must be
	// rejected before anything is written
	_, err = env.Engine.PayMinion(env.Ctx, m.ID, 1000, "")
	if err == nil {
		t.Fatal("expected rejection for payment with no actor")
	}
	if !strings.Contains(err.Error(), "actor id is required") {
		t.Fatalf("error = %q, want actor id rejection", err)
	}
	got, err := env.Engine.Repo.GetMinion(env.Ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LoyaltyScore != 50 {
		t.Fatalf("loyalty = %d after rejected payment, want untouched 50", got.LoyaltyScore)
	}

	if _, err := env.Engine.CreateMinion(env.Ctx, engine.MinionCreateOptions{
		Name: "Anon", SkillLevel: 2, Specialty: "Combat", ActorID: "  ",
	}); err == nil {
		t.Fatal("expected rejection for blank actor id")
	}
	if err := env.Engine.DeleteMinion(env.Ctx, m.ID, ""); err == nil {
		t.Fatal("expected rejection for delete with no actor")
	}
}

func TestReplaceConfigVisibleAcrossCopies(t *testing.T) {
	env := newTestEnv(t)
	cp := env.Engine // value copy, as handlers receive it

	cfg := env.Engine.Tunables()
	cfg.Loyalty.GrowthRate = 7
	env.Engine.ReplaceConfig(cfg)

	if got := cp.Tunables().Loyalty.GrowthRate; got != 7 {
		t.Fatalf("growth rate via copy = %d, want 7", got)
	}

	m, err := cp.CreateMinion(env.Ctx, engine.MinionCreateOptions{
		Name: "Igor", SkillLevel: 5, Specialty: "Hacking", SalaryDemand: 1000, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	m, err = cp.PayMinion(env.Ctx, m.ID, 1000, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if m.LoyaltyScore != 57 {
		t.Fatalf("loyalty = %d, want 57 under replaced growth rate", m.LoyaltyScore)
	}
}

func TestListBasesFilters(t *testing.T) {
	env := newTestEnv(t)
	volcano, err := env.Engine.CreateBase(env.Ctx, engine.BaseCreateOptions{
		Name: "Volcano Lair", Location: "Pacific", Capacity: 10, SecurityLevel: 9,
		MonthlyUpkeep: 50000, HasDoomsdayDevice: true, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	warehouse, err := env.Engine.CreateBase(env.Ctx, engine.BaseCreateOptions{
		Name: "Warehouse", Location: "Docklands", Capacity: 5, SecurityLevel: 3,
		MonthlyUpkeep: 2000, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.UpdateBase(env.Ctx, engine.BaseUpdateOptions{
		ID: warehouse.ID, Compromised: boolPtr(true), ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}

	armed, err := env.Engine.Repo.ListBases(env.Ctx, repo.BaseFilters{Doomsday: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(armed) != 1 || armed[0].ID != volcano.ID {
		t.Fatalf("doomsday filter returned %d bases, want only the volcano lair", len(armed))
	}

	blown, err := env.Engine.Repo.ListBases(env.Ctx, repo.BaseFilters{Compromised: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(blown) != 1 || blown[0].ID != warehouse.ID {
		t.Fatalf("compromised filter returned %d bases, want only the warehouse", len(blown))
	}

	all, err := env.Engine.Repo.ListBases(env.Ctx, repo.BaseFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered list returned %d bases, want 2", len(all))
	}
}
