// Package status derives garden and system health snapshots from the sensor
// store. Snapshots are computed on demand and never persisted.
package status

import (
	"context"
	"fmt"
	"time"

	"growthai-backend/internal/model"
	"growthai-backend/internal/store"
)

// Issue bands for the per-garden critical/warning lists. These are the health
// inspection bands, not the monitor's alerting thresholds; the two sets are
// deliberately distinct.
const (
	dehydrationCritical = 20
	moistureLowWarning  = 40
	overwateredWarning  = 85
)

// Service computes derived statuses on top of a Store.
type Service struct {
	store store.Store
}

// NewService creates a status service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// GardenStatus builds the full per-plant snapshot for one garden. A missing
// garden surfaces as store.ErrNotFound; any other store failure is reported
// inside the status as well so SystemStatus can degrade per garden.
func (s *Service) GardenStatus(ctx context.Context, gardenID string) (*model.GardenStatus, error) {
	garden, err := s.store.GetGarden(ctx, gardenID)
	if err != nil {
		return nil, err
	}
	plants, err := s.store.GetGardenPlants(ctx, gardenID)
	if err != nil {
		return nil, err
	}

	gs := &model.GardenStatus{
		GardenID:       gardenID,
		GardenName:     garden.Name,
		Personality:    garden.Personality,
		Plants:         make(map[string]model.PlantStatus, len(plants)),
		CriticalIssues: []string{},
		Warnings:       []string{},
		TotalPlants:    len(plants),
		Status:         "success",
		Timestamp:      time.Now().UTC(),
	}

	for plantID, p := range plants {
		gs.Plants[plantID] = model.PlantStatus{
			Name:           plantName(p, plantID),
			Moisture:       p.CurrentMoisture,
			Health:         model.ClassifyHealth(p.CurrentMoisture),
			LastIrrigation: p.LastIrrigation,
			LastUpdated:    p.LastUpdated,
		}
		if p.CurrentMoisture == nil {
			continue
		}
		m := *p.CurrentMoisture
		switch {
		case m < dehydrationCritical:
			gs.CriticalIssues = append(gs.CriticalIssues, fmt.Sprintf("%s critically dehydrated (%d%%)", plantID, m))
		case m < moistureLowWarning:
			gs.Warnings = append(gs.Warnings, fmt.Sprintf("%s moisture low (%d%%)", plantID, m))
		case m > overwateredWarning:
			gs.Warnings = append(gs.Warnings, fmt.Sprintf("%s possibly overwatered (%d%%)", plantID, m))
		}
	}

	switch {
	case len(gs.CriticalIssues) > 0:
		gs.OverallHealth = model.OverallCritical
	case len(gs.Warnings) > 0:
		gs.OverallHealth = model.OverallWarning
	default:
		gs.OverallHealth = model.OverallHealthy
	}
	return gs, nil
}

// SystemStatus aggregates every garden. A single garden's failure degrades
// that garden to an error status (which counts as critical); only a failed
// top-level listing returns an error.
func (s *Service) SystemStatus(ctx context.Context) (*model.SystemStatus, error) {
	gardens, err := s.store.ListGardens(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gardens: %w", err)
	}

	sys := &model.SystemStatus{
		Status:    "success",
		Gardens:   make(map[string]model.GardenStatus, len(gardens)),
		Timestamp: time.Now().UTC(),
	}

	failed := false
	for gardenID := range gardens {
		gs, err := s.GardenStatus(ctx, gardenID)
		if err != nil {
			failed = true
			sys.Gardens[gardenID] = model.GardenStatus{
				GardenID:   gardenID,
				GardenName: gardens[gardenID].Name,
				Status:     "error",
				Error:      err.Error(),
				Timestamp:  time.Now().UTC(),
			}
			continue
		}
		sys.Gardens[gardenID] = *gs
		sys.TotalCriticalIssues += len(gs.CriticalIssues)
		sys.TotalWarnings += len(gs.Warnings)
	}

	switch {
	case failed || sys.TotalCriticalIssues > 0:
		sys.OverallHealth = model.OverallCritical
	case sys.TotalWarnings > 0:
		sys.OverallHealth = model.OverallWarning
	default:
		sys.OverallHealth = model.OverallHealthy
	}
	return sys, nil
}

func plantName(p model.Plant, fallback string) string {
	if p.Name != "" {
		return p.Name
	}
	return fallback
}
