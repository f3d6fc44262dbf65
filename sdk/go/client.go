package lairkeepsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Lairkeep HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Minion represents the API minion model.
type Minion struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	SkillLevel   int     `json:"skill_level"`
	Specialty    string  `json:"specialty"`
	LoyaltyScore int     `json:"loyalty_score"`
	SalaryDemand float64 `json:"salary_demand"`
	BaseID       *int64  `json:"base_id,omitempty"`
	SchemeID     *int64  `json:"scheme_id,omitempty"`
	Mood         string  `json:"mood"`
}

// Scheme represents the API scheme model.
type Scheme struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Status            string  `json:"status"`
	Budget            float64 `json:"budget"`
	CurrentSpending   float64 `json:"current_spending"`
	RequiredSpecialty string  `json:"required_specialty"`
	TargetDate        string  `json:"target_date"`
	SuccessLikelihood int     `json:"success_likelihood"`
}

// Equipment represents the API equipment model.
type Equipment struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Condition       int     `json:"condition"`
	PurchasePrice   float64 `json:"purchase_price"`
	MaintenanceCost float64 `json:"maintenance_cost"`
	SchemeID        *int64  `json:"scheme_id,omitempty"`
	BaseID          *int64  `json:"base_id,omitempty"`
}

// Base represents the API base model with occupancy.
type Base struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	Capacity      int     `json:"capacity"`
	SecurityLevel int     `json:"security_level"`
	MonthlyUpkeep float64 `json:"monthly_upkeep"`
	Compromised   bool    `json:"compromised"`
	Occupancy     int     `json:"occupancy"`
	AtCapacity    bool    `json:"at_capacity"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   int64  `json:"entity_id"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// Report mirrors the aggregate report response.
type Report struct {
	Minions struct {
		Total      int            `json:"total"`
		MoodCounts map[string]int `json:"mood_counts"`
	} `json:"minions"`
	Schemes struct {
		Total      int     `json:"total"`
		Active     int     `json:"active"`
		AvgSuccess float64 `json:"avg_success_likelihood"`
	} `json:"schemes"`
	Costs struct {
		MinionSalaries       float64 `json:"minion_salaries"`
		BaseUpkeep           float64 `json:"base_upkeep"`
		EquipmentMaintenance float64 `json:"equipment_maintenance"`
		TotalMonthly         float64 `json:"total_monthly"`
	} `json:"costs"`
	Alerts []struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
		Count    int    `json:"count"`
	} `json:"alerts"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateMinion hires a minion.
func (c *Client) CreateMinion(ctx context.Context, name, specialty string, skillLevel int, salaryDemand float64) (Minion, error) {
	body := map[string]any{
		"name":          name,
		"specialty":     specialty,
		"skill_level":   skillLevel,
		"salary_demand": salaryDemand,
	}
	var resp Minion
	err := c.do(ctx, http.MethodPost, "v0/minions", body, &resp)
	return resp, err
}

// GetMinion fetches a minion by id.
func (c *Client) GetMinion(ctx context.Context, id int64) (Minion, error) {
	var resp Minion
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v0/minions/%d", id), nil, &resp)
	return resp, err
}

// ListMinions returns all minions.
func (c *Client) ListMinions(ctx context.Context) ([]Minion, error) {
	var resp []Minion
	err := c.do(ctx, http.MethodGet, "v0/minions", nil, &resp)
	return resp, err
}

// PayMinion records a salary payment and returns the adjusted minion.
func (c *Client) PayMinion(ctx context.Context, id int64, amount float64) (Minion, error) {
	var resp struct {
		Minion Minion  `json:"minion"`
		Amount float64 `json:"amount"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v0/minions/%d/pay", id), map[string]any{"amount": amount}, &resp)
	return resp.Minion, err
}

// GetScheme fetches a scheme by id.
func (c *Client) GetScheme(ctx context.Context, id int64) (Scheme, error) {
	var resp Scheme
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v0/schemes/%d", id), nil, &resp)
	return resp, err
}

// RescoreScheme recomputes and persists a scheme's success likelihood.
func (c *Client) RescoreScheme(ctx context.Context, id int64) (Scheme, error) {
	var resp Scheme
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v0/schemes/%d/rescore", id), nil, &resp)
	return resp, err
}

// DegradeEquipment applies one wear step.
func (c *Client) DegradeEquipment(ctx context.Context, id int64) (Equipment, error) {
	var resp Equipment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v0/equipment/%d/degrade", id), nil, &resp)
	return resp, err
}

// MaintainEquipment restores an item and returns it with the maintenance cost.
func (c *Client) MaintainEquipment(ctx context.Context, id int64) (Equipment, float64, error) {
	var resp struct {
		Equipment Equipment `json:"equipment"`
		Cost      float64   `json:"cost"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v0/equipment/%d/maintain", id), nil, &resp)
	return resp.Equipment, resp.Cost, err
}

// GetBase fetches a base with occupancy.
func (c *Client) GetBase(ctx context.Context, id int64) (Base, error) {
	var resp Base
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v0/bases/%d", id), nil, &resp)
	return resp, err
}

// GetReport fetches the aggregate status report.
func (c *Client) GetReport(ctx context.Context) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodGet, "v0/report", nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
