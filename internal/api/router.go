package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"growthai-backend/internal/mw"
	"growthai-backend/internal/ws"
)

// RouterOptions tunes the middleware on the API group.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures the Gin router.
func NewRouter(h *Handler, hub *ws.Hub, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 20
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Second
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/:device_id", ws.Serve(hub, h.status))

	cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	caching := mw.Cache(cacheStore, opts.CacheTTL)

	api := r.Group("/api")
	api.Use(mw.RateLimit(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst))
	{
		api.GET("/status", caching, h.GetSystemStatus)
		api.GET("/gardens", caching, h.GetGardens)
		api.GET("/gardens/status", caching, h.GetSystemStatus)
		api.GET("/gardens/:garden_id", caching, h.GetGarden)
		api.GET("/gardens/:garden_id/status", caching, h.GetGardenStatus)
		api.GET("/gardens/:garden_id/plants/:plant_id", h.GetPlant)
		api.GET("/gardens/:garden_id/plants/:plant_id/history", h.GetPlantHistory)
		api.POST("/gardens/:garden_id/seed", h.SeedGarden)
		api.POST("/gardens/:garden_id/plants/:plant_id/moisture", h.UpdateMoisture)
		api.POST("/gardens/:garden_id/plants/:plant_id/irrigate", h.TriggerIrrigation)

		api.POST("/monitor/trigger", h.RunMonitor)
		api.GET("/alerts", h.GetAlerts)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
