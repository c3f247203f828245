package config

import (
	"os"
	"strconv"
)

// FromEnv layers environment overrides on top of cfg. Unset variables
// leave the value alone.
func FromEnv(cfg *Config) *Config {
	if v := os.Getenv("TASKPILOT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TASKPILOT_ENGINE_URL"); v != "" {
		cfg.Engine.URL = v
	}
	if v := getEnvInt("TASKPILOT_ENGINE_TIMEOUT_SECONDS"); v > 0 {
		cfg.Engine.TimeoutSeconds = v
	}
	if v := os.Getenv("TASKPILOT_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("TASKPILOT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TASKPILOT_DEFAULT_TIMING"); v != "" {
		cfg.Defaults.Timing = v
	}
	if v := os.Getenv("TASKPILOT_NOTIFICATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Defaults.Notifications = b
		}
	}
	return cfg
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
