package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthai-backend/internal/alertlog"
	"growthai-backend/internal/model"
	"growthai-backend/internal/monitor"
	"growthai-backend/internal/status"
	"growthai-backend/internal/store"
	"growthai-backend/internal/ws"
)

func newTestRouter(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewLocal(filepath.Join(t.TempDir(), "gardens.json"))
	db, err := alertlog.Open(alertlog.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	alerts := alertlog.New(db)

	statusSvc := status.NewService(st)
	monitorSvc := monitor.New(monitor.Config{}, st, nil, nil, nil, alerts)
	h := NewHandler(st, statusSvc, monitorSvc, alerts, db, &webpush.Options{VAPIDPublicKey: "pub-key"})
	return NewRouter(h, ws.NewHub(), RouterOptions{RateLimitPerSec: 1000, RateLimitBurst: 1000}), st
}

func seedGarden(t *testing.T, r *gin.Engine, gardenID string, plantCount int) {
	t.Helper()
	body, _ := json.Marshal(store.SeedRequest{
		Name:         "garden " + gardenID,
		Personality:  "cuidadoso",
		PlantCount:   plantCount,
		BaseMoisture: 60,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gardens/"+gardenID+"/seed", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func doJSON(r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGardenLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	seedGarden(t, r, "g1", 2)

	w := doJSON(r, http.MethodGet, "/api/gardens", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Count   int                         `json:"count"`
		Gardens map[string]model.Garden     `json:"gardens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Count)
	assert.Equal(t, "garden g1", listResp.Gardens["g1"].Name)

	w = doJSON(r, http.MethodGet, "/api/gardens/g1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var gardenResp struct {
		Plants map[string]model.Plant `json:"plants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gardenResp))
	assert.Len(t, gardenResp.Plants, 2)

	w = doJSON(r, http.MethodGet, "/api/gardens/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoistureAndIrrigation(t *testing.T) {
	r, _ := newTestRouter(t)
	seedGarden(t, r, "g1", 1)

	w := doJSON(r, http.MethodPost, "/api/gardens/g1/plants/plant-1/moisture", gin.H{"moisture": 42})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var plant model.Plant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plant))
	require.NotNil(t, plant.CurrentMoisture)
	assert.Equal(t, 42, *plant.CurrentMoisture)

	// 42 + 50/10 = 47
	w = doJSON(r, http.MethodPost, "/api/gardens/g1/plants/plant-1/irrigate", gin.H{"duration": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var irrResp struct {
		Status string      `json:"status"`
		Plant  model.Plant `json:"plant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &irrResp))
	assert.Equal(t, "irrigated", irrResp.Status)
	require.NotNil(t, irrResp.Plant.CurrentMoisture)
	assert.Equal(t, 47, *irrResp.Plant.CurrentMoisture)

	w = doJSON(r, http.MethodPost, "/api/gardens/g1/plants/ghost/irrigate", gin.H{"duration": 50})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlantHistoryWindow(t *testing.T) {
	r, _ := newTestRouter(t)
	seedGarden(t, r, "g1", 1)
	for _, m := range []int{50, 40, 35} {
		w := doJSON(r, http.MethodPost, "/api/gardens/g1/plants/plant-1/moisture", gin.H{"moisture": m})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(r, http.MethodGet, "/api/gardens/g1/plants/plant-1/history?window=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count   int                     `json:"count"`
		History []model.MoistureReading `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	w = doJSON(r, http.MethodGet, "/api/gardens/g1/plants/plant-1/history?window=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManualMonitorRun(t *testing.T) {
	r, st := newTestRouter(t)
	seedGarden(t, r, "g1", 2)
	require.NoError(t, st.UpdatePlantMoisture(context.Background(), "g1", "plant-1", 25))
	require.NoError(t, st.UpdatePlantMoisture(context.Background(), "g1", "plant-2", 38))

	w := doJSON(r, http.MethodPost, "/api/monitor/trigger", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Status        string              `json:"status"`
		AlertsFound   int                 `json:"alerts_found"`
		DecisionsMade int                 `json:"decisions_made"`
		Alerts        []model.AlertRecord `json:"alerts"`
		Timestamp     string              `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 2, resp.AlertsFound)
	assert.Equal(t, 1, resp.DecisionsMade)
	assert.NotEmpty(t, resp.Timestamp)

	// The pass persisted its alerts.
	w = doJSON(r, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alertsResp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alertsResp))
	assert.Equal(t, 2, alertsResp.Count)
}

func TestSubscriptionLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	sub := gin.H{"endpoint": "https://example.com/push/1", "p256dh": "key", "auth": "secret"}
	w := doJSON(r, http.MethodPut, "/api/subscriptions", sub)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Upsert is idempotent on the endpoint.
	w = doJSON(r, http.MethodPut, "/api/subscriptions", sub)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/api/subscriptions?endpoint=https://example.com/push/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://example.com/push/1"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodGet, "/api/subscriptions?endpoint=https://example.com/push/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPut, "/api/subscriptions", gin.H{"endpoint": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVAPIDPublicKey(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pub-key")
}
