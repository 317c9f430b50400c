package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"growthai-backend/internal/alertlog"
	"growthai-backend/internal/monitor"
	"growthai-backend/internal/notification"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig            `yaml:"server"`
	Monitor      monitor.Config          `yaml:"monitor"`
	Storage      StorageConfig           `yaml:"storage"`
	Oracle       OracleConfig            `yaml:"oracle"`
	Notification notification.Config     `yaml:"notification"`
	Push         PushConfig              `yaml:"push"`
	Database     alertlog.DatabaseConfig `yaml:"database"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// StorageConfig selects the sensor-data backend.
type StorageConfig struct {
	// Backend is "firestore" or "local".
	Backend         string `yaml:"backend"`
	LocalPath       string `yaml:"local_path"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// OracleConfig holds the decision-oracle credentials and tuning.
type OracleConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Monitor.IntervalSeconds <= 0 {
		cfg.Monitor.IntervalSeconds = 30
	}
	if cfg.Monitor.FailureBackoffSeconds <= 0 {
		cfg.Monitor.FailureBackoffSeconds = 60
	}

	if cfg.Storage.Backend == "" {
		log.Printf("storage.backend is not set; defaulting to local simulation")
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "gardens.json"
	}

	if cfg.Notification.Workers <= 0 {
		cfg.Notification.Workers = 2
	}
	if cfg.Notification.QueueSize <= 0 {
		cfg.Notification.QueueSize = 64
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	return &cfg, nil
}
