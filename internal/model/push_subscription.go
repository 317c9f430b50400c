package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscriptions are global: every subscriber receives critical alerts for
// every garden.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// AlertEntry is the persisted, flattened form of an AlertRecord plus the
// serialized decision that followed it (empty for warning alerts).
type AlertEntry struct {
	ID         int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	Type       string    `gorm:"size:64;not null" json:"type"`
	Severity   string    `gorm:"size:16;not null;index" json:"severity"`
	GardenID   string    `gorm:"size:128;not null;index" json:"garden_id"`
	GardenName string    `gorm:"size:256" json:"garden_name"`
	PlantID    string    `gorm:"size:128;not null" json:"plant_id"`
	PlantName  string    `gorm:"size:256" json:"plant_name"`
	Moisture   int       `gorm:"not null" json:"moisture"`
	Message    string    `gorm:"size:512" json:"message"`
	Decision   string    `gorm:"type:text" json:"decision,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}
