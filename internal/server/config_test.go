package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	req := require.New(t)

	cfg := NewConfig()

	req.Equal(":8080", cfg.Port)
	req.Equal([]string{"http://localhost:8080"}, cfg.AllowedOrigins)
	req.EqualValues(64*1024, cfg.MaxMessageSize)
	req.Equal(256, cfg.SendBufferSize)
	req.Equal("info", cfg.LogLevel)
	req.Equal("text", cfg.LogFormat)
	req.Equal(10*time.Second, cfg.ShutdownTimeout)
}

func TestNewConfigFromEnv_Reads_Variables(t *testing.T) {
	req := require.New(t)

	// Given every variable set
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://chat.example.com, http://localhost:3000")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("SEND_BUFFER_SIZE", "16")
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")

	// When the configuration is loaded
	cfg, err := NewConfigFromEnv()

	// Then each value is parsed
	req.NoError(err)
	req.Equal(":9090", cfg.Port)
	req.Equal([]string{"https://chat.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
	req.EqualValues(2048, cfg.MaxMessageSize)
	req.Equal(16, cfg.SendBufferSize)
	req.Equal("debug", cfg.LogLevel)
	req.Equal("json", cfg.LogFormat)
	req.Equal(3*time.Second, cfg.ShutdownTimeout)
}

func TestNewConfigFromEnv_Invalid_Values_Keep_Defaults(t *testing.T) {
	req := require.New(t)

	t.Setenv("SERVER_PORT", "")
	t.Setenv("MAX_MESSAGE_SIZE", "huge")
	t.Setenv("SEND_BUFFER_SIZE", "-4")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := NewConfigFromEnv()

	req.NoError(err)
	req.Equal(":8080", cfg.Port)
	req.EqualValues(64*1024, cfg.MaxMessageSize)
	req.Equal(256, cfg.SendBufferSize)
	req.Equal(10*time.Second, cfg.ShutdownTimeout)
}

func TestParseSeconds_Accepts_Durations(t *testing.T) {
	req := require.New(t)

	req.Equal(1500*time.Millisecond, parseSeconds("1.5s", time.Second))
	req.Equal(7*time.Second, parseSeconds("7", time.Second))
	req.Equal(time.Second, parseSeconds("0", time.Second))
}

func TestNormalizePort(t *testing.T) {
	req := require.New(t)

	req.Equal(":9090", normalizePort("9090"))
	req.Equal(":9090", normalizePort(":9090"))
	req.Equal("127.0.0.1:9090", normalizePort(" 127.0.0.1:9090 "))
}

func TestSetConfig_Sanitizes_And_Copies(t *testing.T) {
	req := require.New(t)
	t.Cleanup(func() { SetConfig(nil) })

	// Given a partial configuration
	cfg := &Config{AllowedOrigins: []string{"HTTPS://Chat.Example.com/path", "not a url"}}

	// When it is applied
	SetConfig(cfg)
	cfg.AllowedOrigins[0] = "mutated"

	// Then zero values take defaults and origins are normalized
	active := CurrentConfig()
	req.Equal(":8080", active.Port)
	req.Equal(256, active.SendBufferSize)
	req.Equal([]string{"https://chat.example.com"}, active.AllowedOrigins)

	// And nil restores the defaults
	SetConfig(nil)
	req.Equal([]string{"http://localhost:8080"}, CurrentConfig().AllowedOrigins)
}
