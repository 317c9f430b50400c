// Package monitor runs the periodic moisture sweep: read every plant,
// classify, consult the decision oracle for critical conditions, execute
// irrigation it requests and fan the results out.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"growthai-backend/internal/alertlog"
	"growthai-backend/internal/metrics"
	"growthai-backend/internal/model"
	"growthai-backend/internal/notification"
	"growthai-backend/internal/oracle"
	"growthai-backend/internal/store"
	"growthai-backend/internal/ws"
)

const defaultIrrigationSeconds = 30

// Config tunes the loop cadence.
type Config struct {
	IntervalSeconds       int `yaml:"interval_seconds"`
	FailureBackoffSeconds int `yaml:"failure_backoff_seconds"`
}

// TickResult summarizes one monitoring pass.
type TickResult struct {
	AlertsFound   int                 `json:"alerts_found"`
	DecisionsMade int                 `json:"decisions_made"`
	Alerts        []model.AlertRecord `json:"alerts"`
	Decisions     []model.Decision    `json:"decisions"`
}

// Service is the monitoring loop. All collaborators except the store may be
// nil, which disables the corresponding output.
type Service struct {
	cfg      Config
	store    store.Store
	oracle   oracle.Oracle
	hub      *ws.Hub
	notifier *notification.Notifier
	alerts   *alertlog.Log
}

func New(cfg Config, st store.Store, orc oracle.Oracle, hub *ws.Hub, notifier *notification.Notifier, alerts *alertlog.Log) *Service {
	if cfg.IntervalSeconds <= 0 {
		cfg.IntervalSeconds = 30
	}
	if cfg.FailureBackoffSeconds <= 0 {
		cfg.FailureBackoffSeconds = 60
	}
	if orc == nil {
		orc = oracle.NewDisabled()
	}
	return &Service{cfg: cfg, store: st, oracle: orc, hub: hub, notifier: notifier, alerts: alerts}
}

// Run executes monitoring passes until ctx is cancelled. A failed pass backs
// off to the failure interval; a panic inside a pass is recovered, logged and
// treated as a failed pass.
func (s *Service) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	backoff := time.Duration(s.cfg.FailureBackoffSeconds) * time.Second
	log.Printf("monitor started, interval %s", interval)

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("monitor stopping")
			return
		case <-timer.C:
			next := interval
			if _, err := s.safeTick(ctx); err != nil {
				log.Printf("monitor tick failed: %v", err)
				next = backoff
			}
			timer.Reset(next)
		}
	}
}

// safeTick wraps RunOnce with panic recovery so one bad pass cannot take the
// loop down.
func (s *Service) safeTick(ctx context.Context) (result TickResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.MonitorTickFailures.Inc()
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()
	return s.RunOnce(ctx)
}

// RunOnce performs a single monitoring pass over every garden and plant. The
// whole pass is abandoned when the garden list cannot be read; a single
// garden's plant read failing only skips that garden. Gardens and plants are
// visited in sorted id order and oracle calls are serialized, so results are
// deterministic for a given dataset.
func (s *Service) RunOnce(ctx context.Context) (TickResult, error) {
	result := TickResult{
		Alerts:    []model.AlertRecord{},
		Decisions: []model.Decision{},
	}

	gardens, err := s.store.ListGardens(ctx)
	if err != nil {
		metrics.MonitorTickFailures.Inc()
		return result, err
	}

	for _, gardenID := range sortedKeys(gardens) {
		garden := gardens[gardenID]
		plants, err := s.store.GetGardenPlants(ctx, gardenID)
		if err != nil {
			log.Printf("monitor: reading plants of %s: %v", gardenID, err)
			continue
		}
		for _, plantID := range sortedKeys(plants) {
			alert, ok := Classify(garden, plants[plantID])
			if !ok {
				continue
			}
			result.Alerts = append(result.Alerts, alert)
			result.AlertsFound++
			metrics.Alerts.WithLabelValues(alert.Severity).Inc()

			if alert.Severity == model.SeverityCritical {
				decision := s.handleCritical(ctx, garden, plants[plantID], alert)
				result.Decisions = append(result.Decisions, decision)
				result.DecisionsMade++
			} else {
				s.handleWarning(garden, alert)
			}
		}
	}

	metrics.MonitorTicks.Inc()
	return result, nil
}

// handleCritical consults the oracle about a critical alert, executes any
// irrigation it requests and distributes alert plus decision.
func (s *Service) handleCritical(ctx context.Context, garden model.Garden, plant model.Plant, alert model.AlertRecord) model.Decision {
	dctx := model.DecisionContext{
		GardenID:       garden.ID,
		GardenName:     garden.Name,
		Personality:    garden.Personality,
		PlantID:        plant.ID,
		PlantName:      plant.Name,
		Moisture:       alert.Moisture,
		Threshold:      CriticalMoisture,
		LastIrrigation: plant.LastIrrigation,
	}
	decision := s.oracle.Decide(ctx, alert.Message, dctx)

	if decision.WantsIrrigation() && decision.PlantID != "" {
		duration := decision.ActionParams.Duration
		if duration <= 0 {
			duration = defaultIrrigationSeconds
		}
		action := model.ActionResult{
			Type:     "irrigation",
			Plant:    decision.PlantID,
			Duration: duration,
		}
		if err := s.store.TriggerIrrigation(ctx, garden.ID, decision.PlantID, duration); err != nil {
			log.Printf("monitor: irrigation of %s/%s failed: %v", garden.ID, decision.PlantID, err)
			action.Error = err.Error()
		} else {
			action.Result = "completed"
			metrics.Irrigations.Inc()
		}
		decision.ActionsTaken = append(decision.ActionsTaken, action)
	}

	if s.notifier != nil {
		s.notifier.Dispatch(notification.Job{Alert: alert, Decision: &decision})
	}
	s.alerts.Record(alert, &decision)
	if s.hub != nil {
		s.hub.Broadcast(map[string]any{
			"type":        "agent_decision",
			"garden_id":   garden.ID,
			"garden_name": garden.Name,
			"personality": garden.Personality,
			"alert":       alert,
			"decision":    decision,
			"timestamp":   ws.Timestamp(),
		})
	}
	return decision
}

// handleWarning distributes a warning alert; no oracle consultation.
func (s *Service) handleWarning(garden model.Garden, alert model.AlertRecord) {
	if s.notifier != nil {
		s.notifier.Dispatch(notification.Job{Alert: alert})
	}
	s.alerts.Record(alert, nil)
	if s.hub != nil {
		s.hub.Broadcast(map[string]any{
			"type":        "alert",
			"garden_id":   garden.ID,
			"garden_name": garden.Name,
			"alert":       alert,
			"timestamp":   ws.Timestamp(),
		})
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
