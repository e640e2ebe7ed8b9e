package config

import "time"

// DefaultMaxUploadBytes bounds a single upload at 50 MiB.
const DefaultMaxUploadBytes int64 = 50 << 20

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = Duration(60 * time.Second)
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "./uploads"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "./outputs"
	}
	if cfg.Storage.StaleAfter == 0 {
		cfg.Storage.StaleAfter = Duration(time.Hour)
	}
	if cfg.Storage.SweepInterval == 0 {
		cfg.Storage.SweepInterval = Duration(10 * time.Minute)
	}
	if cfg.Convert.MaxUploadBytes == 0 {
		cfg.Convert.MaxUploadBytes = DefaultMaxUploadBytes
	}
}
