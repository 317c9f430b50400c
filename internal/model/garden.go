package model

import "time"

// Garden is a named collection of plants monitored as a unit.
type Garden struct {
	ID          string            `json:"id" firestore:"-"`
	Name        string            `json:"name" firestore:"name"`
	Personality string            `json:"personality" firestore:"personality"`
	Latitude    float64           `json:"latitude" firestore:"latitude"`
	Longitude   float64           `json:"longitude" firestore:"longitude"`
	CreatedAt   time.Time         `json:"created_at" firestore:"created_at"`
	History     []MoistureReading `json:"history,omitempty" firestore:"history"`
}

// Plant is one sensor-bearing irrigation target, always scoped to a garden.
type Plant struct {
	ID       string `json:"id" firestore:"-"`
	GardenID string `json:"garden_id,omitempty" firestore:"-"`
	Name     string `json:"name" firestore:"name"`

	// CurrentMoisture is an integer percentage 0-100; nil means the sensor
	// has never reported for this plant.
	CurrentMoisture *int              `json:"current_moisture" firestore:"current_moisture"`
	LastIrrigation  *time.Time        `json:"last_irrigation,omitempty" firestore:"last_irrigation"`
	LastUpdated     time.Time         `json:"last_updated" firestore:"last_updated"`
	History         []MoistureReading `json:"history,omitempty" firestore:"history"`
}

// MoistureReading is one historical sensor sample, stored most-recent-first.
type MoistureReading struct {
	Moisture  int       `json:"moisture" firestore:"moisture"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}

// Health labels derived from a moisture reading.
const (
	HealthUnknown = "unknown"
	HealthPoor    = "poor"
	HealthFair    = "fair"
	HealthGood    = "good"
)

// ClassifyHealth maps a moisture percentage to a health label. The bands are
// independent from the alerting thresholds in the monitor package; both sets
// are authoritative and must not be unified.
func ClassifyHealth(moisture *int) string {
	if moisture == nil {
		return HealthUnknown
	}
	m := *moisture
	switch {
	case m < 30:
		return HealthPoor
	case m < 50:
		return HealthFair
	case m <= 80:
		return HealthGood
	default:
		// Overwatering risk reads as fair, not good.
		return HealthFair
	}
}

// ClampMoisture bounds a moisture percentage to [0, 100]. All store writers
// clamp before persisting.
func ClampMoisture(m int) int {
	if m < 0 {
		return 0
	}
	if m > 100 {
		return 100
	}
	return m
}
