package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestIsOriginAllowed(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	SetConfig(&Config{AllowedOrigins: []string{"https://chat.example.com", "http://localhost:3000"}})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "listed origin", origin: "https://chat.example.com", want: true},
		{name: "case insensitive", origin: "HTTPS://CHAT.example.com", want: true},
		{name: "listed with port", origin: "http://localhost:3000", want: true},
		{name: "other port", origin: "http://localhost:3001", want: false},
		{name: "other scheme", origin: "http://chat.example.com", want: false},
		{name: "missing header", origin: "", want: false},
		{name: "garbage", origin: "::not-a-url", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isOriginAllowed(requestWithOrigin(tt.origin)))
		})
	}
}

func TestIsOriginAllowed_Wildcard(t *testing.T) {
	req := require.New(t)
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(&Config{AllowedOrigins: []string{"*"}})

	req.True(isOriginAllowed(requestWithOrigin("https://anything.example.org")))
	req.False(isOriginAllowed(requestWithOrigin("")))
}

func TestHub_CheckOrigin_Rejects_Unknown(t *testing.T) {
	req := require.New(t)
	t.Cleanup(func() { SetConfig(nil) })
	SetConfig(nil)

	hub := NewHub(nil)

	req.True(hub.checkOrigin(requestWithOrigin("http://localhost:8080")))
	req.False(hub.checkOrigin(requestWithOrigin("https://evil.example.com")))
}

func TestNormalizeOrigins_Logs_Invalid_Entries(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(newLogger(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(previous) })

	origins, allowAll := normalizeOrigins([]string{" https://Chat.example.com ", "no-scheme", "", "*"})

	req.Equal([]string{"https://chat.example.com"}, origins)
	req.True(allowAll)
	req.Contains(buf.String(), "ignoring invalid origin in configuration")
	req.Contains(buf.String(), "origin=no-scheme")
}
