package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthai-backend/internal/model"
	"growthai-backend/internal/parse"
	"growthai-backend/internal/store"
	"growthai-backend/internal/ws"
)

// scriptedOracle records invocations and replays a fixed decision.
type scriptedOracle struct {
	decision model.Decision
	calls    []model.DecisionContext
}

func (o *scriptedOracle) Decide(_ context.Context, _ string, dctx model.DecisionContext) model.Decision {
	o.calls = append(o.calls, dctx)
	d := o.decision
	if d.PlantID == "" {
		d.PlantID = dctx.PlantID
	}
	if d.GardenID == "" {
		d.GardenID = dctx.GardenID
	}
	d.Timestamp = time.Now().UTC()
	return d
}

type failingStore struct {
	store.Store
}

func (failingStore) ListGardens(context.Context) (map[string]model.Garden, error) {
	return nil, errors.New("backend unreachable")
}

func seedStore(t *testing.T, moistures map[string][]int) store.Store {
	t.Helper()
	st := store.NewLocal(filepath.Join(t.TempDir(), "gardens.json"))
	ctx := context.Background()
	for gardenID, levels := range moistures {
		_, err := st.SeedGarden(ctx, gardenID, store.SeedRequest{
			Name:        "garden " + gardenID,
			Personality: "cuidadoso",
			PlantCount:  len(levels),
		})
		require.NoError(t, err)
		for i, m := range levels {
			plantID := parse.FormatPlantID(i + 1)
			require.NoError(t, st.UpdatePlantMoisture(ctx, gardenID, plantID, m))
		}
	}
	return st
}

func TestRunOnceCriticalTriggersIrrigation(t *testing.T) {
	st := seedStore(t, map[string][]int{"g1": {25}})
	orc := &scriptedOracle{decision: model.Decision{
		Decision:     model.DecisionIrrigate,
		ActionParams: model.ActionParams{Duration: 40, Reason: "dry"},
		Explanation:  "irrigate now",
		Priority:     model.PriorityHigh,
	}}
	svc := New(Config{}, st, orc, nil, nil, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.AlertsFound)
	assert.Equal(t, 1, result.DecisionsMade)
	require.Len(t, orc.calls, 1)
	assert.Equal(t, 25, orc.calls[0].Moisture)
	assert.Equal(t, CriticalMoisture, orc.calls[0].Threshold)

	require.Len(t, result.Decisions, 1)
	dec := result.Decisions[0]
	require.Len(t, dec.ActionsTaken, 1)
	assert.Equal(t, "irrigation", dec.ActionsTaken[0].Type)
	assert.Equal(t, 40, dec.ActionsTaken[0].Duration)
	assert.Equal(t, "completed", dec.ActionsTaken[0].Result)

	// 25 + 40/10 = 29
	plant, err := st.GetPlant(context.Background(), "g1", dec.PlantID)
	require.NoError(t, err)
	require.NotNil(t, plant.CurrentMoisture)
	assert.Equal(t, 29, *plant.CurrentMoisture)
	assert.NotNil(t, plant.LastIrrigation)
}

type recordingConn struct {
	messages []map[string]any
}

func (c *recordingConn) WriteJSON(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	c.messages = append(c.messages, m)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func TestRunOnceBroadcastsOneAgentDecision(t *testing.T) {
	st := seedStore(t, map[string][]int{"g1": {25, 60}})
	orc := &scriptedOracle{decision: model.Decision{
		Decision:     model.DecisionIrrigate,
		ActionParams: model.ActionParams{Duration: 40},
		Explanation:  "irrigate now",
		Priority:     model.PriorityHigh,
	}}
	hub := ws.NewHub()
	conn := &recordingConn{}
	hub.Connect(conn, "dev-A")
	svc := New(Config{}, st, orc, hub, nil, nil)

	_, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	var decisions []map[string]any
	for _, m := range conn.messages {
		if m["type"] == "agent_decision" {
			decisions = append(decisions, m)
		}
	}
	require.Len(t, decisions, 1, "exactly one agent_decision per critical plant")

	msg := decisions[0]
	assert.Equal(t, "g1", msg["garden_id"])
	alert, ok := msg["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(25), alert["moisture"])
	decision, ok := msg["decision"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "regar", decision["decision"])
	assert.NotEmpty(t, msg["timestamp"])
}

func TestRunOnceHealthyGardenIsQuiet(t *testing.T) {
	st := seedStore(t, map[string][]int{"g1": {60, 75}})
	orc := &scriptedOracle{decision: model.Decision{Decision: model.DecisionWait}}
	svc := New(Config{}, st, orc, nil, nil, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.AlertsFound)
	assert.Zero(t, result.DecisionsMade)
	assert.Empty(t, orc.calls)
}

func TestRunOnceWarningSkipsOracle(t *testing.T) {
	st := seedStore(t, map[string][]int{"g1": {38}})
	orc := &scriptedOracle{decision: model.Decision{Decision: model.DecisionIrrigate}}
	svc := New(Config{}, st, orc, nil, nil, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsFound)
	assert.Zero(t, result.DecisionsMade)
	assert.Empty(t, orc.calls, "warnings must not reach the oracle")
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, model.SeverityWarning, result.Alerts[0].Severity)
}

func TestRunOnceMixedGardens(t *testing.T) {
	st := seedStore(t, map[string][]int{
		"g1": {25, 90},
		"g2": {38},
	})
	orc := &scriptedOracle{decision: model.Decision{
		Decision: model.DecisionWait, Explanation: "hold off",
	}}
	svc := New(Config{}, st, orc, nil, nil, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.AlertsFound)
	assert.Equal(t, 1, result.DecisionsMade)
	require.Len(t, result.Alerts, 2)
	// Sorted garden order: g1's critical before g2's warning.
	assert.Equal(t, model.SeverityCritical, result.Alerts[0].Severity)
	assert.Equal(t, "g1", result.Alerts[0].GardenID)
	assert.Equal(t, model.SeverityWarning, result.Alerts[1].Severity)
	assert.Equal(t, "g2", result.Alerts[1].GardenID)
}

func TestRunOnceWaitDecisionDoesNotIrrigate(t *testing.T) {
	st := seedStore(t, map[string][]int{"g1": {20}})
	orc := &scriptedOracle{decision: model.Decision{
		Decision: model.DecisionWait, Explanation: "rain expected",
	}}
	svc := New(Config{}, st, orc, nil, nil, nil)

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Decisions, 1)
	assert.Empty(t, result.Decisions[0].ActionsTaken)

	plant, err := st.GetPlant(context.Background(), "g1", result.Decisions[0].PlantID)
	require.NoError(t, err)
	assert.Equal(t, 20, *plant.CurrentMoisture)
}

func TestRunOnceFailedListAbandonsTick(t *testing.T) {
	orc := &scriptedOracle{}
	svc := New(Config{}, failingStore{}, orc, nil, nil, nil)
	_, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, orc.calls)
}

func TestRunRespectsCancellation(t *testing.T) {
	st := seedStore(t, map[string][]int{"g1": {60}})
	svc := New(Config{IntervalSeconds: 1}, st, &scriptedOracle{}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
