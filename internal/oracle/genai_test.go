package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthai-backend/internal/model"
)

func TestParseDecision(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		ok       bool
		decision string
		duration int
	}{
		{
			name:     "plain object",
			raw:      `{"decision":"regar","action_params":{"duration":45,"reason":"dry"},"explanation":"soil is dry","priority":"high"}`,
			ok:       true,
			decision: "regar",
			duration: 45,
		},
		{
			name:     "fenced json",
			raw:      "```json\n{\"decision\": \"esperar\", \"explanation\": \"recently watered\"}\n```",
			ok:       true,
			decision: "esperar",
		},
		{
			name:     "object buried in prose",
			raw:      "Sure! Here is my decision:\n{\"decision\":\"alerta\",\"priority\":\"critical\"}\nLet me know.",
			ok:       true,
			decision: "alerta",
		},
		{name: "no json at all", raw: "I think you should water the plant.", ok: false},
		{name: "missing decision field", raw: `{"explanation":"hmm"}`, ok: false},
		{name: "malformed json", raw: `{"decision": "regar"`, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec, ok := parseDecision(tc.raw)
			require.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			assert.Equal(t, tc.decision, dec.Decision)
			if tc.duration != 0 {
				assert.Equal(t, tc.duration, dec.ActionParams.Duration)
			}
		})
	}
}

func fakeUpstream(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
			},
		}
		writeJSON(t, w, body)
	}))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGenAIDecide(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK,
		`{"decision":"regar","action_params":{"duration":40,"reason":"moisture 25% is below threshold"},"explanation":"irrigate now","priority":"high"}`)
	defer srv.Close()

	g := NewGenAI(Config{APIKey: "test", Endpoint: srv.URL, TimeoutSeconds: 5, MaxRetries: 1})
	dctx := model.DecisionContext{GardenID: "g1", PlantID: "plant-1", Moisture: 25, Threshold: 30}
	dec := g.Decide(context.Background(), "critical moisture in plant-1: 25%", dctx)

	assert.Equal(t, model.DecisionIrrigate, dec.Decision)
	assert.True(t, dec.WantsIrrigation())
	assert.Equal(t, 40, dec.ActionParams.Duration)
	assert.Equal(t, "plant-1", dec.PlantID)
	assert.Equal(t, "g1", dec.GardenID)
	assert.False(t, dec.Timestamp.IsZero())
}

func TestGenAIDecideFillsMissingIdentifiers(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, `{"decision":"esperar","explanation":"wait for the evening"}`)
	defer srv.Close()

	g := NewGenAI(Config{APIKey: "test", Endpoint: srv.URL, TimeoutSeconds: 5, MaxRetries: 1})
	dec := g.Decide(context.Background(), "condition", model.DecisionContext{GardenID: "g2", PlantID: "plant-3"})

	assert.Equal(t, "plant-3", dec.PlantID)
	assert.Equal(t, "g2", dec.GardenID)
	assert.Equal(t, model.PriorityMedium, dec.Priority)
}

func TestGenAIDecideUnparseableReply(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, "you should definitely water it")
	defer srv.Close()

	g := NewGenAI(Config{APIKey: "test", Endpoint: srv.URL, TimeoutSeconds: 5, MaxRetries: 1})
	dec := g.Decide(context.Background(), "condition", model.DecisionContext{PlantID: "plant-1"})

	assert.Equal(t, model.DecisionAlert, dec.Decision)
	assert.Equal(t, "you should definitely water it", dec.Explanation)
	assert.False(t, dec.WantsIrrigation())
}

func TestGenAIDecideUpstreamFailure(t *testing.T) {
	srv := fakeUpstream(t, http.StatusInternalServerError, "")
	defer srv.Close()

	g := NewGenAI(Config{APIKey: "test", Endpoint: srv.URL, TimeoutSeconds: 2, MaxRetries: 1})
	dec := g.Decide(context.Background(), "condition", model.DecisionContext{GardenID: "g1", PlantID: "plant-1"})

	assert.Equal(t, model.DecisionError, dec.Decision)
	assert.Equal(t, "plant-1", dec.PlantID)
	assert.Contains(t, dec.Explanation, "unavailable")
}

func TestDisabledOracle(t *testing.T) {
	dec := NewDisabled().Decide(context.Background(), "condition", model.DecisionContext{GardenID: "g1", PlantID: "p"})
	assert.Equal(t, model.DecisionNoAction, dec.Decision)
	assert.Equal(t, "g1", dec.GardenID)
}
