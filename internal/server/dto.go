package server

import (
	"lairkeep/internal/domain"
	"lairkeep/internal/engine"
)

// Request payloads

type CreateMinionRequest struct {
	Name         string  `json:"name"`
	SkillLevel   int     `json:"skill_level" minimum:"1" maximum:"10"`
	Specialty    string  `json:"specialty"`
	Loyalty      *int    `json:"loyalty_score,omitempty" minimum:"0" maximum:"100"`
	SalaryDemand float64 `json:"salary_demand,omitempty"`
	BaseID       *int64  `json:"base_id,omitempty"`
	SchemeID     *int64  `json:"scheme_id,omitempty"`
}

type UpdateMinionRequest struct {
	Name         *string  `json:"name,omitempty"`
	SkillLevel   *int     `json:"skill_level,omitempty" minimum:"1" maximum:"10"`
	Specialty    *string  `json:"specialty,omitempty"`
	Loyalty      *int     `json:"loyalty_score,omitempty" minimum:"0" maximum:"100"`
	SalaryDemand *float64 `json:"salary_demand,omitempty"`
	BaseID       *int64   `json:"base_id,omitempty"`
	SchemeID     *int64   `json:"scheme_id,omitempty"`
}

type PayMinionRequest struct {
	Amount float64 `json:"amount" minimum:"0"`
}

type CreateSchemeRequest struct {
	Name               string  `json:"name"`
	Description        string  `json:"description,omitempty"`
	Budget             float64 `json:"budget,omitempty"`
	RequiredSkillLevel int     `json:"required_skill_level" minimum:"1" maximum:"10"`
	RequiredSpecialty  string  `json:"required_specialty"`
	Status             string  `json:"status,omitempty" enum:"Planning,Active,Completed,Failed,On Hold"`
	StartDate          *string `json:"start_date,omitempty" format:"date-time"`
	TargetDate         string  `json:"target_date" format:"date-time"`
	DiabolicalRating   int     `json:"diabolical_rating" minimum:"1" maximum:"10"`
}

type UpdateSchemeRequest struct {
	Name               *string  `json:"name,omitempty"`
	Description        *string  `json:"description,omitempty"`
	Budget             *float64 `json:"budget,omitempty"`
	Spend              *float64 `json:"spend,omitempty" minimum:"0"`
	RequiredSkillLevel *int     `json:"required_skill_level,omitempty" minimum:"1" maximum:"10"`
	RequiredSpecialty  *string  `json:"required_specialty,omitempty"`
	Status             *string  `json:"status,omitempty" enum:"Planning,Active,Completed,Failed,On Hold"`
	StartDate          *string  `json:"start_date,omitempty" format:"date-time"`
	TargetDate         *string  `json:"target_date,omitempty" format:"date-time"`
	DiabolicalRating   *int     `json:"diabolical_rating,omitempty" minimum:"1" maximum:"10"`
}

type CreateEquipmentRequest struct {
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	Condition          *int    `json:"condition,omitempty" minimum:"0" maximum:"100"`
	PurchasePrice      float64 `json:"purchase_price,omitempty"`
	SchemeID           *int64  `json:"scheme_id,omitempty"`
	BaseID             *int64  `json:"base_id,omitempty"`
	RequiresSpecialist bool    `json:"requires_specialist,omitempty"`
}

type UpdateEquipmentRequest struct {
	Name               *string  `json:"name,omitempty"`
	Category           *string  `json:"category,omitempty"`
	Condition          *int     `json:"condition,omitempty" minimum:"0" maximum:"100"`
	PurchasePrice      *float64 `json:"purchase_price,omitempty"`
	SchemeID           *int64   `json:"scheme_id,omitempty"`
	BaseID             *int64   `json:"base_id,omitempty"`
	RequiresSpecialist *bool    `json:"requires_specialist,omitempty"`
}

type CreateBaseRequest struct {
	Name              string  `json:"name"`
	Location          string  `json:"location"`
	Capacity          int     `json:"capacity" minimum:"1"`
	SecurityLevel     int     `json:"security_level" minimum:"1" maximum:"10"`
	MonthlyUpkeep     float64 `json:"monthly_upkeep,omitempty"`
	HasDoomsdayDevice bool    `json:"has_doomsday_device,omitempty"`
}

type UpdateBaseRequest struct {
	Name              *string  `json:"name,omitempty"`
	Location          *string  `json:"location,omitempty"`
	Capacity          *int     `json:"capacity,omitempty" minimum:"1"`
	SecurityLevel     *int     `json:"security_level,omitempty" minimum:"1" maximum:"10"`
	MonthlyUpkeep     *float64 `json:"monthly_upkeep,omitempty"`
	HasDoomsdayDevice *bool    `json:"has_doomsday_device,omitempty"`
	Compromised       *bool    `json:"compromised,omitempty"`
	Inspected         bool     `json:"inspected,omitempty"`
}

type CreateAPIKeyRequest struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name,omitempty"`
}

// Response payloads

type PayMinionResponse struct {
	Minion domain.Minion `json:"minion"`
	Amount float64       `json:"amount"`
}

type SchemeSuccessResponse struct {
	SchemeID          int64 `json:"scheme_id"`
	SuccessLikelihood int   `json:"success_likelihood" minimum:"0" maximum:"100"`
}

type MaintainEquipmentResponse struct {
	Equipment domain.Equipment `json:"equipment"`
	Cost      float64          `json:"cost"`
}

type BaseResponse struct {
	domain.Base
	Occupancy  int  `json:"occupancy"`
	AtCapacity bool `json:"at_capacity"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
	// Key is the plaintext secret, returned once on creation only.
	Key string `json:"key,omitempty"`
}

func apiKeyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{ID: k.ID, ActorID: k.ActorID, Name: k.Name, CreatedAt: k.CreatedAt}
}

type ReportResponse = engine.Report
