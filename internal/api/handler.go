package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"growthai-backend/internal/alertlog"
	"growthai-backend/internal/monitor"
	"growthai-backend/internal/status"
	"growthai-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	status  *status.Service
	monitor *monitor.Service
	alerts  *alertlog.Log
	db      *gorm.DB
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, statusSvc *status.Service, monitorSvc *monitor.Service, alerts *alertlog.Log, db *gorm.DB, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		status:  statusSvc,
		monitor: monitorSvc,
		alerts:  alerts,
		db:      db,
		webpush: webpushOptions,
	}
}
