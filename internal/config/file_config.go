package config

import (
	"time"

	"campusnest_backend/internal/storage"
)

// Defaults is the configuration used for every field a file or the
// environment leaves unset.
func Defaults() *Config {
	cfg := &Config{}

	cfg.Server.Host = ""
	cfg.Server.Port = 8080
	cfg.Server.Env = "development"
	cfg.Server.CORSOrigins = []string{"*"}

	cfg.Database.MaxOpenConns = 10
	cfg.Database.AutoMigrate = true

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = storage.DefaultPublicPrefix

	cfg.JWT.TTL = time.Hour

	cfg.Upload.TempSweepInterval = time.Hour
	cfg.Upload.TempMaxAge = time.Hour

	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"
	cfg.Metrics.Namespace = "campusnest"

	return cfg
}
