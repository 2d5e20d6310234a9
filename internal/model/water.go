package model

import "time"

// WaterSystem is a SDWIS public drinking-water system.
type WaterSystem struct {
	PWSID            string       `json:"pwsid"`
	Name             string       `json:"name"`
	State            string       `json:"state,omitempty"`
	PopulationServed int          `json:"population_served"`
	SystemType       string       `json:"system_type,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	DistanceMiles    *float64     `json:"distance_miles,omitempty"`

	Violations []WaterViolation `json:"violations,omitempty"`
}

func (w *WaterSystem) Coordinate() *Coordinates { return w.Coordinates }

func (w *WaterSystem) SetDistanceMiles(d float64) { w.DistanceMiles = &d }

// ViolationStatus is the lifecycle state of a drinking-water violation.
type ViolationStatus string

const (
	ViolationActive   ViolationStatus = "active"
	ViolationResolved ViolationStatus = "resolved"
)

// WaterViolation is one SDWIS violation record.
type WaterViolation struct {
	PWSID         string          `json:"pwsid"`
	ViolationID   string          `json:"violation_id,omitempty"`
	Code          string          `json:"code,omitempty"`
	Category      string          `json:"category,omitempty"`
	Status        ViolationStatus `json:"status"`
	IsHealthBased bool            `json:"is_health_based"`
	BeginDate     *time.Time      `json:"begin_date,omitempty"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
}

// ViolationSummary rolls water violations up across systems.
type ViolationSummary struct {
	TotalViolations       int `json:"total_violations"`
	ActiveViolations      int `json:"active_violations"`
	ResolvedViolations    int `json:"resolved_violations"`
	HealthBasedViolations int `json:"health_based_violations"`
	SystemsInViolation    int `json:"systems_in_violation"`

	// BySystem maps water-system id to its violation count.
	BySystem map[string]int `json:"by_system,omitempty"`
}
