package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"growthai-backend/internal/store"
)

// Healthz is the liveness probe.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetGardens lists all gardens.
func (h *Handler) GetGardens(c *gin.Context) {
	gardens, err := h.store.ListGardens(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gardens": gardens, "count": len(gardens)})
}

// GetGarden returns one garden with its plants.
func (h *Handler) GetGarden(c *gin.Context) {
	ctx := c.Request.Context()
	gardenID := c.Param("garden_id")

	garden, err := h.store.GetGarden(ctx, gardenID)
	if err != nil {
		notFoundOr500(c, err, "garden not found")
		return
	}
	plants, err := h.store.GetGardenPlants(ctx, gardenID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"garden": garden, "plants": plants})
}

// GetSystemStatus returns the aggregated status of every garden.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	st, err := h.status.SystemStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetGardenStatus returns the health summary of one garden.
func (h *Handler) GetGardenStatus(c *gin.Context) {
	st, err := h.status.GardenStatus(c.Request.Context(), c.Param("garden_id"))
	if err != nil {
		notFoundOr500(c, err, "garden not found")
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetPlant returns one plant.
func (h *Handler) GetPlant(c *gin.Context) {
	plant, err := h.store.GetPlant(c.Request.Context(), c.Param("garden_id"), c.Param("plant_id"))
	if err != nil {
		notFoundOr500(c, err, "plant not found")
		return
	}
	c.JSON(http.StatusOK, plant)
}

// GetPlantHistory returns recent moisture readings, newest first. The window
// query parameter caps the number of readings; default 10.
func (h *Handler) GetPlantHistory(c *gin.Context) {
	window := 10
	if raw := c.Query("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive integer"})
			return
		}
		window = n
	}
	readings, err := h.store.GetPlantHistory(c.Request.Context(), c.Param("garden_id"), c.Param("plant_id"), window)
	if err != nil {
		notFoundOr500(c, err, "plant not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"garden_id": c.Param("garden_id"),
		"plant_id":  c.Param("plant_id"),
		"history":   readings,
		"count":     len(readings),
	})
}

// SeedGarden creates or extends a garden with simulated plants.
func (h *Handler) SeedGarden(c *gin.Context) {
	var req store.SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entryID, err := h.store.SeedGarden(c.Request.Context(), c.Param("garden_id"), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":    "seeded",
		"garden_id": c.Param("garden_id"),
		"entry_id":  entryID,
	})
}

type updateMoistureRequest struct {
	Moisture *int `json:"moisture" binding:"required"`
}

// UpdateMoisture sets a plant's current moisture, clamped to [0,100].
func (h *Handler) UpdateMoisture(c *gin.Context) {
	var req updateMoistureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	gardenID, plantID := c.Param("garden_id"), c.Param("plant_id")
	if err := h.store.UpdatePlantMoisture(c.Request.Context(), gardenID, plantID, *req.Moisture); err != nil {
		notFoundOr500(c, err, "plant not found")
		return
	}
	plant, err := h.store.GetPlant(c.Request.Context(), gardenID, plantID)
	if err != nil {
		notFoundOr500(c, err, "plant not found")
		return
	}
	c.JSON(http.StatusOK, plant)
}

type irrigateRequest struct {
	Duration int `json:"duration"`
}

// TriggerIrrigation runs the simulated irrigation effect on a plant.
func (h *Handler) TriggerIrrigation(c *gin.Context) {
	var req irrigateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Duration <= 0 {
		req.Duration = 30
	}
	gardenID, plantID := c.Param("garden_id"), c.Param("plant_id")
	if err := h.store.TriggerIrrigation(c.Request.Context(), gardenID, plantID, req.Duration); err != nil {
		notFoundOr500(c, err, "plant not found")
		return
	}
	plant, err := h.store.GetPlant(c.Request.Context(), gardenID, plantID)
	if err != nil {
		notFoundOr500(c, err, "plant not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "irrigated",
		"duration": req.Duration,
		"plant":    plant,
	})
}

func notFoundOr500(c *gin.Context, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
