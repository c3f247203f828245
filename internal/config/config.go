// Package config loads the application configuration from a YAML file
// with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"taskpilot/internal/classify"
	"taskpilot/internal/defaults"
	"taskpilot/internal/extract"
	"taskpilot/internal/model"
)

type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Engine     EngineConfig     `yaml:"engine" json:"engine"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Defaults   DefaultsConfig   `yaml:"defaults" json:"defaults"`
	Heuristics HeuristicsConfig `yaml:"heuristics" json:"heuristics"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type EngineConfig struct {
	URL string `yaml:"url" json:"url"`
	// TimeoutSeconds bounds one completion call end to end, including
	// connect time. Expired calls surface as an extraction timeout.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the sqlite database file. Ignored for the memory driver.
	Path string `yaml:"path" json:"path"`
}

type DefaultsConfig struct {
	Timing        string `yaml:"timing" json:"timing"`
	Notifications bool   `yaml:"notifications" json:"notifications"`
}

// HeuristicsConfig holds the keyword tables. Empty sections fall back to
// the built-in tables.
type HeuristicsConfig struct {
	SmartRules     []defaults.Rule        `yaml:"smart_rules" json:"smart_rules"`
	Classifier     classify.Keywords      `yaml:"classifier" json:"classifier"`
	FolderKeywords extract.FolderKeywords `yaml:"folder_keywords" json:"folder_keywords"`
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Engine.URL == "" {
		c.Engine.URL = "http://localhost:11434/api/generate"
	}
	if c.Engine.TimeoutSeconds == 0 {
		c.Engine.TimeoutSeconds = 30
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		c.Store.Path = "taskpilot.db"
	}
	if c.Defaults.Timing == "" {
		c.Defaults.Timing = string(model.PolicyTomorrowMorning)
	}
	if len(c.Heuristics.SmartRules) == 0 {
		c.Heuristics.SmartRules = defaults.SmartRules()
	}
	if len(c.Heuristics.Classifier.Delete) == 0 {
		c.Heuristics.Classifier = classify.DefaultKeywords()
	}
	if len(c.Heuristics.FolderKeywords.Work) == 0 && len(c.Heuristics.FolderKeywords.Shopping) == 0 {
		c.Heuristics.FolderKeywords = extract.DefaultFolderKeywords()
	}
}

// Validate rejects values ApplyDefaults cannot repair.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	switch model.TimingPolicy(c.Defaults.Timing) {
	case model.PolicyManual, model.PolicyEndOfToday, model.PolicyTomorrowMorning,
		model.PolicyNextBusinessDay, model.PolicySmart:
	default:
		return fmt.Errorf("config: unknown default timing %q", c.Defaults.Timing)
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{Defaults: DefaultsConfig{Notifications: true}}
	c.ApplyDefaults()
	return c
}

// Load reads a YAML config file, fills in defaults and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
