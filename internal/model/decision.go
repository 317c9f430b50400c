package model

import "time"

// Decision verbs the oracle may return. The Spanish forms are the wire
// protocol of the upstream model prompt; the English aliases are accepted
// when executing side effects.
const (
	DecisionIrrigate   = "regar"
	DecisionIrrigateEN = "irrigate"
	DecisionWait       = "esperar"
	DecisionWaitEN     = "wait"
	DecisionAlert      = "alerta"
	DecisionAlertEN    = "alert"
	DecisionAdjust     = "ajustar"
	DecisionAdjustEN   = "adjust"
	DecisionError      = "error"
	DecisionNoAction   = "no_action"
)

// Notification priorities.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// ActionParams carries oracle-provided parameters for a requested action.
type ActionParams struct {
	Duration int    `json:"duration,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ActionResult records the outcome of one action the core executed on behalf
// of a decision, including any store error.
type ActionResult struct {
	Type     string `json:"type"`
	Plant    string `json:"plant,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Decision is the structured response of the decision oracle. ActionsTaken is
// populated by the core after executing any implied irrigation.
type Decision struct {
	Decision     string         `json:"decision"`
	PlantID      string         `json:"plant_id,omitempty"`
	GardenID     string         `json:"garden_id,omitempty"`
	ActionParams ActionParams   `json:"action_params"`
	Explanation  string         `json:"explanation"`
	Priority     string         `json:"priority"`
	ActionsTaken []ActionResult `json:"actions_taken"`
	Timestamp    time.Time      `json:"timestamp"`
}

// WantsIrrigation reports whether the decision asks the core to irrigate.
func (d Decision) WantsIrrigation() bool {
	return d.Decision == DecisionIrrigate || d.Decision == DecisionIrrigateEN
}

// DecisionContext is the typed context record handed to the oracle alongside
// the condition string.
type DecisionContext struct {
	GardenID       string     `json:"garden_id"`
	GardenName     string     `json:"garden_name"`
	Personality    string     `json:"personality"`
	PlantID        string     `json:"plant_id"`
	PlantName      string     `json:"plant_name"`
	Moisture       int        `json:"moisture"`
	Threshold      int        `json:"threshold"`
	LastIrrigation *time.Time `json:"last_irrigation,omitempty"`
}
