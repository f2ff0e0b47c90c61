// Package config loads and validates the YAML configuration for the
// trace router.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// RouterConfig is the top-level configuration.
type RouterConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Library LibraryConfig `yaml:"library"`
	Routing RoutingConfig `yaml:"routing"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig holds the admin and metrics listen addresses.
type ServerConfig struct {
	AdminPort   int `yaml:"admin_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// CacheConfig configures the cache tiers and the durable store.
type CacheConfig struct {
	Dir                    string `yaml:"dir"`
	ExactMax               int    `yaml:"exact_max_size"`
	NormalizedMax          int    `yaml:"normalized_max_size"`
	TemplateMax            int    `yaml:"template_max_size"`
	EvictionPolicy         string `yaml:"eviction_policy"`
	CleanupIntervalSeconds int    `yaml:"cleanup_interval_seconds"`
}

// CleanupInterval returns the sweep interval as a duration.
func (c CacheConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// LibraryConfig configures the template library.
type LibraryConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// RoutingConfig holds the confidence thresholds.
type RoutingConfig struct {
	FastThreshold    float64 `yaml:"fast_threshold"`
	InstantThreshold float64 `yaml:"instant_threshold"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"`
	Endpoint     string  `yaml:"endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

var (
	config     *RouterConfig
	configOnce sync.Once
	configErr  error
	configMu   sync.RWMutex
)

// Default returns a configuration populated with the built-in defaults.
func Default() *RouterConfig {
	cfg := &RouterConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *RouterConfig) applyDefaults() {
	if c.Server.AdminPort == 0 {
		c.Server.AdminPort = 8080
	}
	if c.Server.MetricsPort == 0 {
		c.Server.MetricsPort = 9190
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "data/cache"
	}
	if c.Cache.EvictionPolicy == "" {
		c.Cache.EvictionPolicy = "lru"
	}
	if c.Cache.CleanupIntervalSeconds == 0 {
		c.Cache.CleanupIntervalSeconds = 3600
	}
	if c.Library.Dir == "" {
		c.Library.Dir = "data/templates"
	}
	if c.Routing.FastThreshold == 0 {
		c.Routing.FastThreshold = 0.7
	}
	if c.Routing.InstantThreshold == 0 {
		c.Routing.InstantThreshold = 0.8
	}
	if c.Tracing.ExporterType == "" {
		c.Tracing.ExporterType = "stdout"
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = 1.0
	}
}

// Validate checks the parsed configuration for values that would
// misbehave at runtime.
func (c *RouterConfig) Validate() error {
	switch c.Cache.EvictionPolicy {
	case "fifo", "lru", "lfu":
	default:
		return fmt.Errorf("cache: unknown eviction_policy %q (want fifo, lru or lfu)", c.Cache.EvictionPolicy)
	}
	if c.Cache.ExactMax < 0 || c.Cache.NormalizedMax < 0 || c.Cache.TemplateMax < 0 {
		return fmt.Errorf("cache: tier sizes must not be negative")
	}
	if c.Cache.CleanupIntervalSeconds < 0 {
		return fmt.Errorf("cache: cleanup_interval_seconds must not be negative")
	}
	if c.Routing.FastThreshold <= 0 || c.Routing.FastThreshold > 1 {
		return fmt.Errorf("routing: fast_threshold must be in (0, 1], got %f", c.Routing.FastThreshold)
	}
	if c.Routing.InstantThreshold <= 0 || c.Routing.InstantThreshold > 1 {
		return fmt.Errorf("routing: instant_threshold must be in (0, 1], got %f", c.Routing.InstantThreshold)
	}
	if c.Routing.InstantThreshold < c.Routing.FastThreshold {
		return fmt.Errorf("routing: instant_threshold %f must not be below fast_threshold %f",
			c.Routing.InstantThreshold, c.Routing.FastThreshold)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing: sampling_rate must be in [0, 1], got %f", c.Tracing.SamplingRate)
	}
	return nil
}

// ParseConfigFile parses a YAML config file without touching the global
// cache. Missing values take the built-in defaults.
func ParseConfigFile(configPath string) (*RouterConfig, error) {
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &RouterConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads the configuration from the given YAML file once and
// caches it globally. Safe for concurrent readers.
func LoadConfig(configPath string) (*RouterConfig, error) {
	configOnce.Do(func() {
		cfg, err := ParseConfigFile(configPath)
		if err != nil {
			configErr = err
			return
		}
		configMu.Lock()
		config = cfg
		configMu.Unlock()
	})
	if configErr != nil {
		return nil, configErr
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return config, nil
}
