package model

// Alert severities emitted by the monitor.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// AlertTypeLowMoisture tags moisture alerts on the realtime channel.
const AlertTypeLowMoisture = "low_moisture"

// AlertRecord is an ephemeral, broadcast-only alert for one plant. The core
// never persists it; the alert log keeps its own flattened copy.
type AlertRecord struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	GardenID   string `json:"garden_id"`
	GardenName string `json:"garden_name"`
	PlantID    string `json:"plant_id"`
	PlantName  string `json:"plant_name"`
	Moisture   int    `json:"moisture"`
	Message    string `json:"message"`
}
