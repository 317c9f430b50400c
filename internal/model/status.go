package model

import "time"

// Overall health values for gardens and the whole system.
const (
	OverallHealthy  = "healthy"
	OverallWarning  = "warning"
	OverallCritical = "critical"
)

// PlantStatus is the derived, per-plant view inside a GardenStatus.
type PlantStatus struct {
	Name           string     `json:"name"`
	Moisture       *int       `json:"moisture"`
	Health         string     `json:"health"`
	LastIrrigation *time.Time `json:"last_irrigation,omitempty"`
	LastUpdated    time.Time  `json:"last_updated"`
}

// GardenStatus is the derived snapshot of one garden and all its plants.
// It is computed on demand and never persisted.
type GardenStatus struct {
	GardenID       string                 `json:"garden_id"`
	GardenName     string                 `json:"garden_name"`
	Personality    string                 `json:"personality"`
	OverallHealth  string                 `json:"overall_health"`
	Plants         map[string]PlantStatus `json:"plant_status"`
	CriticalIssues []string               `json:"critical_issues"`
	Warnings       []string               `json:"warnings"`
	TotalPlants    int                    `json:"total_plants"`
	Status         string                 `json:"status"`
	Error          string                 `json:"error,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// SystemStatus aggregates every garden's status.
type SystemStatus struct {
	Status              string                  `json:"status"`
	OverallHealth       string                  `json:"overall_health"`
	Gardens             map[string]GardenStatus `json:"gardens"`
	TotalCriticalIssues int                     `json:"total_critical_issues"`
	TotalWarnings       int                     `json:"total_warnings"`
	Timestamp           time.Time               `json:"timestamp"`
}
