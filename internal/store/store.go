package store

import (
	"context"
	"errors"

	"growthai-backend/internal/model"
)

// ErrNotFound is returned when a garden or plant does not exist. It is a
// normal, expected outcome for direct queries, never a crash.
var ErrNotFound = errors.New("not found")

// SeedRequest describes a garden seed operation. Seeding is idempotent on
// garden metadata, additive on plants, and appends history.
type SeedRequest struct {
	Name         string                  `json:"name"`
	Personality  string                  `json:"personality"`
	Latitude     float64                 `json:"latitude"`
	Longitude    float64                 `json:"longitude"`
	PlantCount   int                     `json:"plant_count"`
	BaseMoisture int                     `json:"base_moisture"`
	History      []model.MoistureReading `json:"history,omitempty"`
}

// Store is the sensor-data access contract shared by the monitor and the API
// layer. Two interchangeable backends implement it: a remote document store
// (Firestore) and a local file-backed simulation. The backend is chosen once
// at startup and fixed for the process lifetime.
//
// All operations are read-mostly and best-effort: backend failures surface as
// explicit errors, never panics, and list reads degrade to empty results.
type Store interface {
	ListGardens(ctx context.Context) (map[string]model.Garden, error)
	GetGarden(ctx context.Context, gardenID string) (*model.Garden, error)
	GetGardenPlants(ctx context.Context, gardenID string) (map[string]model.Plant, error)
	GetPlant(ctx context.Context, gardenID, plantID string) (*model.Plant, error)

	// GetPlantHistory returns up to window past readings for a plant,
	// most-recent-first.
	GetPlantHistory(ctx context.Context, gardenID, plantID string, window int) ([]model.MoistureReading, error)

	// UpdatePlantMoisture clamps moisture to [0,100], writes it and bumps
	// last_updated.
	UpdatePlantMoisture(ctx context.Context, gardenID, plantID string, moisture int) error

	// TriggerIrrigation applies the simulated irrigation effect: moisture
	// rises by durationSeconds/10 (integer division), capped at 100. The
	// effect model is not physically meaningful but the simulation and
	// testing paths depend on it exactly. An unknown plant is an error and
	// is never created.
	TriggerIrrigation(ctx context.Context, gardenID, plantID string, durationSeconds int) error

	// SeedGarden creates or extends a garden. Existing garden metadata is
	// never overwritten; plant ids allocated across calls never collide;
	// history is appended. Returns an opaque entry id for the operation.
	SeedGarden(ctx context.Context, gardenID string, req SeedRequest) (string, error)
}

// irrigationDelta converts a pump duration into a moisture gain. Kept in one
// place so both backends agree with the simulation contract.
func irrigationDelta(durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return durationSeconds / 10
}
