package domain

type Minion struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	SkillLevel    int     `json:"skill_level" minimum:"1" maximum:"10"`
	Specialty     string  `json:"specialty"`
	LoyaltyScore  int     `json:"loyalty_score" minimum:"0" maximum:"100"`
	SalaryDemand  float64 `json:"salary_demand"`
	BaseID        *int64  `json:"base_id,omitempty"`
	SchemeID      *int64  `json:"scheme_id,omitempty"`
	Mood          string  `json:"mood,omitempty"`
	MoodUpdatedAt string  `json:"mood_updated_at,omitempty" format:"date-time"`
}

type Scheme struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description,omitempty"`
	Budget             float64 `json:"budget"`
	CurrentSpending    float64 `json:"current_spending"`
	RequiredSkillLevel int     `json:"required_skill_level" minimum:"1" maximum:"10"`
	RequiredSpecialty  string  `json:"required_specialty"`
	Status             string  `json:"status" enum:"Planning,Active,Completed,Failed,On Hold"`
	StartDate          *string `json:"start_date,omitempty" format:"date-time"`
	TargetDate         string  `json:"target_date" format:"date-time"`
	DiabolicalRating   int     `json:"diabolical_rating" minimum:"1" maximum:"10"`
	SuccessLikelihood  int     `json:"success_likelihood" minimum:"0" maximum:"100"`
}

type Equipment struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	Condition          int     `json:"condition" minimum:"0" maximum:"100"`
	PurchasePrice      float64 `json:"purchase_price"`
	MaintenanceCost    float64 `json:"maintenance_cost"`
	SchemeID           *int64  `json:"scheme_id,omitempty"`
	BaseID             *int64  `json:"base_id,omitempty"`
	RequiresSpecialist bool    `json:"requires_specialist"`
	LastMaintenanceAt  *string `json:"last_maintenance_at,omitempty" format:"date-time"`
}

type Base struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Location          string  `json:"location"`
	Capacity          int     `json:"capacity" minimum:"1"`
	SecurityLevel     int     `json:"security_level" minimum:"1" maximum:"10"`
	MonthlyUpkeep     float64 `json:"monthly_upkeep"`
	HasDoomsdayDevice bool    `json:"has_doomsday_device"`
	Compromised       bool    `json:"compromised"`
	LastInspectionAt  *string `json:"last_inspection_at,omitempty" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   int64  `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
