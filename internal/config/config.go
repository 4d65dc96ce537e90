// Package config provides configuration for the Prism runtime.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Diff applier sandbox
	SandboxRoot string

	// Process runner
	AllowedCommands []string // empty = no allow-list
	MaxProcesses    int64

	// Retention (0 disables the bound)
	EventMaxAge   time.Duration
	EventMaxCount int
	TraceMaxAge   time.Duration
	TraceMaxCount int
	SweepInterval time.Duration

	// Policy
	DefaultMode string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:        getEnvInt("PRISM_HTTP_PORT", 8080),
		SandboxRoot:     getEnv("PRISM_SANDBOX_ROOT", "workspace"),
		AllowedCommands: getEnvList("PRISM_ALLOWED_COMMANDS"),
		MaxProcesses:    int64(getEnvInt("PRISM_MAX_PROCESSES", 8)),
		EventMaxAge:     time.Duration(getEnvInt("PRISM_EVENT_MAX_AGE_MS", 0)) * time.Millisecond,
		EventMaxCount:   getEnvInt("PRISM_EVENT_MAX_COUNT", 0),
		TraceMaxAge:     time.Duration(getEnvInt("PRISM_TRACE_MAX_AGE_MS", 0)) * time.Millisecond,
		TraceMaxCount:   getEnvInt("PRISM_TRACE_MAX_COUNT", 0),
		SweepInterval:   time.Duration(getEnvInt("PRISM_SWEEP_INTERVAL_MS", 60000)) * time.Millisecond,
		DefaultMode:     getEnv("PRISM_MODE", "dev"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
