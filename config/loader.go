package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the global application configuration
var Config = Defaults()

// Defaults returns the configuration used when no file is present
func Defaults() AppConfig {
	return AppConfig{
		API: APIConfig{
			BaseURL:   "http://localhost:8080",
			TimeoutMS: 45000,
		},
		Storage: StorageConfig{
			Driver:         "memory",
			TTLDays:        30,
			CleanupMinutes: 10,
		},
	}
}

// LoadAppConfig loads the first config file found among paths (config.yml
// when none are given), applies env overrides and validates the result.
// A missing file leaves the defaults in place.
func LoadAppConfig(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{"config.yml", "./rally/config.yml"}
	}

	cfg := Defaults()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return err
		}
		break
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	Config = cfg
	return nil
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("RALLY_API_BASE")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("RALLY_STORAGE_DRIVER")); v != "" {
		cfg.Storage.Driver = v
	}
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c StorageConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

func (c StorageConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupMinutes) * time.Minute
}
