package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tunables overrides the fixed constants named in the concurrency model
// (health interval, grace period, retry backoff, max retries) and the
// registry/log bounds. Every field is optional; the zero value means
// "use the default." This is the overlay promised for "a future config
// surface may expose them."
type Tunables struct {
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	GracePeriod         time.Duration `yaml:"grace_period"`
	RetryBackoff        time.Duration `yaml:"retry_backoff"`
	MaxRetries          int           `yaml:"max_retries"`
	MaxRunlevels        int           `yaml:"max_runlevels"`
	MaxProcesses        int           `yaml:"max_processes"`
	MaxLogSize          int64         `yaml:"max_log_size"`
}

// Defaults returns the constants fixed by the concurrency model.
func Defaults() Tunables {
	return Tunables{
		HealthCheckInterval: 5 * time.Second,
		GracePeriod:         10 * time.Second,
		RetryBackoff:        1 * time.Second,
		MaxRetries:          3,
		MaxRunlevels:        8,
		MaxProcesses:        10,
		MaxLogSize:          1 << 20,
	}
}

// DefaultTunablesPath is the conventional location of the optional
// overlay file.
const DefaultTunablesPath = "/etc/init.conf.yaml"

// LoadTunables reads the optional YAML overlay at path and merges any
// set fields over Defaults(). A missing file is not an error: the
// overlay is optional and the supervisor runs on defaults alone.
func LoadTunables(path string) (Tunables, error) {
	t := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("reading tunables overlay: %w", err)
	}

	var override Tunables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return t, fmt.Errorf("parsing tunables overlay: %w", err)
	}

	if override.HealthCheckInterval > 0 {
		t.HealthCheckInterval = override.HealthCheckInterval
	}
	if override.GracePeriod > 0 {
		t.GracePeriod = override.GracePeriod
	}
	if override.RetryBackoff > 0 {
		t.RetryBackoff = override.RetryBackoff
	}
	if override.MaxRetries > 0 {
		t.MaxRetries = override.MaxRetries
	}
	if override.MaxRunlevels > 0 {
		t.MaxRunlevels = override.MaxRunlevels
	}
	if override.MaxProcesses > 0 {
		t.MaxProcesses = override.MaxProcesses
	}
	if override.MaxLogSize > 0 {
		t.MaxLogSize = override.MaxLogSize
	}

	return t, nil
}
