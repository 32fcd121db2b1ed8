// Package server provides configuration helpers that define runtime defaults
// and validation for the room chat service.
package server

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	env "github.com/Netflix/go-env"
)

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 64 * 1024
	defaultSendBufferSize  = 256
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string
	AllowedOrigins  []string
	MaxMessageSize  int64
	SendBufferSize  int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// environment mirrors Config as raw strings so that a bad value falls back to
// its default instead of failing startup.
type environment struct {
	Port            string `env:"SERVER_PORT"`
	AllowedOrigins  string `env:"ALLOWED_ORIGINS"`
	MaxMessageSize  string `env:"MAX_MESSAGE_SIZE"`
	SendBufferSize  string `env:"SEND_BUFFER_SIZE"`
	LogLevel        string `env:"LOG_LEVEL"`
	LogFormat       string `env:"LOG_FORMAT"`
	ShutdownTimeout string `env:"SHUTDOWN_TIMEOUT"`
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize:  defaultMaxMessageSize,
		SendBufferSize:  defaultSendBufferSize,
		LogLevel:        defaultLogLevel,
		LogFormat:       defaultLogFormat,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = defaultLogFormat
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	normalizedOrigins, allowAll := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		sanitizeConfig(defaultConfig())
		return
	}

	sanitized := *cfg
	sanitized.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	sanitizeConfig(sanitized)
}

// CurrentConfig returns a copy of the active configuration.
func CurrentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Unset or invalid variables keep their default value.
func NewConfigFromEnv() (*Config, error) {
	var vars environment
	if _, err := env.UnmarshalFromEnviron(&vars); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg := defaultConfig()

	if vars.Port != "" {
		cfg.Port = normalizePort(vars.Port)
	}

	if vars.AllowedOrigins != "" {
		cfg.AllowedOrigins = parseOrigins(vars.AllowedOrigins)
	}

	if vars.MaxMessageSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(vars.MaxMessageSize, cfg.MaxMessageSize)
	}

	if vars.SendBufferSize != "" {
		cfg.SendBufferSize = parseIntValue(vars.SendBufferSize, cfg.SendBufferSize)
	}

	if vars.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(vars.LogLevel))
	}

	if vars.LogFormat != "" {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(vars.LogFormat))
	}

	if vars.ShutdownTimeout != "" {
		cfg.ShutdownTimeout = parseSeconds(vars.ShutdownTimeout, cfg.ShutdownTimeout)
	}

	return &cfg, nil
}

// normalizePort accepts both "9090" and ":9090".
func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if _, err := strconv.Atoi(port); err == nil {
		return ":" + port
	}
	return port
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

// parseSeconds reads either a whole number of seconds or a Go duration.
func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
