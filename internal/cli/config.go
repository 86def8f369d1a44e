package cli

import (
	"errors"
	"io/fs"
	"time"

	"quest-service/internal/client"
	"quest-service/internal/config"
)

// loadConfig reads the YAML config; a missing file means all defaults,
// which runs the server on in-memory stores.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, nil
	}
	return cfg, err
}

// newClient builds an API client from the --api flag, the config, or the local port.
func newClient(configPath, flagURL string) (*client.Client, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	base := flagURL
	if base == "" {
		base = cfg.API.BaseURL
	}
	if base == "" {
		p := cfg.Server.Port
		if p == "" {
			p = "8080"
		}
		base = "http://localhost:" + p
	}
	return client.NewWithTimeout(base, config.TTLDuration(cfg.API.Timeout, 10*time.Second)), nil
}
