package monitor

import (
	"fmt"

	"growthai-backend/internal/model"
)

// Alerting thresholds. These bound the alert decision only; plant health
// labels and garden issue bands use their own cutoffs.
const (
	// CriticalMoisture is the strict upper bound of the critical band.
	CriticalMoisture = 30
	// WarningMoisture is the strict upper bound of the warning band.
	WarningMoisture = 45
)

// Classify maps a plant's current moisture to at most one alert. Moisture
// below CriticalMoisture is critical, below WarningMoisture is a warning,
// anything else raises nothing.
func Classify(garden model.Garden, plant model.Plant) (model.AlertRecord, bool) {
	if plant.CurrentMoisture == nil {
		return model.AlertRecord{}, false
	}
	m := *plant.CurrentMoisture

	alert := model.AlertRecord{
		Type:       model.AlertTypeLowMoisture,
		GardenID:   garden.ID,
		GardenName: garden.Name,
		PlantID:    plant.ID,
		PlantName:  plant.Name,
		Moisture:   m,
	}
	switch {
	case m < CriticalMoisture:
		alert.Severity = model.SeverityCritical
		alert.Message = fmt.Sprintf("[%s] critical moisture in %s: %d%%", garden.Name, plant.Name, m)
	case m < WarningMoisture:
		alert.Severity = model.SeverityWarning
		alert.Message = fmt.Sprintf("[%s] low moisture in %s: %d%%", garden.Name, plant.Name, m)
	default:
		return model.AlertRecord{}, false
	}
	return alert, true
}
