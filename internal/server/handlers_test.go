package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// TestHealthHandler tests the health check endpoint handler.
func TestHealthHandler(t *testing.T) {
	req := require.New(t)
	recorder := httptest.NewRecorder()

	server.HealthHandler(recorder, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	req.Equal(http.StatusOK, recorder.Code)
	req.Equal("text/plain", recorder.Header().Get("Content-Type"))
	req.Equal("roomchat server is running!", recorder.Body.String())
}

// TestTestPageHandler tests that the test page speaks the room protocol.
func TestTestPageHandler(t *testing.T) {
	req := require.New(t)
	recorder := httptest.NewRecorder()

	server.TestPageHandler(recorder, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	req.Equal(http.StatusOK, recorder.Code)
	req.Equal("text/html", recorder.Header().Get("Content-Type"))
	body := recorder.Body.String()
	req.Contains(body, "<!DOCTYPE html>")
	req.Contains(body, "type: 'join'")
	req.Contains(body, "userCount")
}

// TestWebSocketHandler_Rejects_Other_Methods tests that only GET reaches the
// upgrader.
func TestWebSocketHandler_Rejects_Other_Methods(t *testing.T) {
	hub := server.NewHub(nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			hub.WebSocketHandler(recorder, httptest.NewRequest(method, "/ws", http.NoBody))
			require.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
		})
	}
}

// TestWebSocketHandler_Rejects_Plain_GET tests that a GET without upgrade
// headers fails the handshake and registers nothing.
func TestWebSocketHandler_Rejects_Plain_GET(t *testing.T) {
	req := require.New(t)
	hub := server.NewHub(nil)
	recorder := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	r.Header.Set("Origin", testhelpers.DefaultOrigin)

	hub.WebSocketHandler(recorder, r)

	req.Equal(http.StatusBadRequest, recorder.Code)
	req.Zero(hub.Rooms().Len())
}

// TestRoomsHandler tests the room statistics endpoint.
func TestRoomsHandler(t *testing.T) {
	req := require.New(t)
	hub := server.NewHub(nil)
	a, b, c := newRecordingConn("a"), newRecordingConn("b"), newRecordingConn("c")
	_, err := hub.Rooms().Join(a, "ROOM1", "alice")
	req.NoError(err)
	_, err = hub.Rooms().Join(b, "ROOM1", "bob")
	req.NoError(err)
	hub.Rooms().Admit(c)

	recorder := httptest.NewRecorder()
	hub.RoomsHandler(recorder, httptest.NewRequest(http.MethodGet, "/rooms", http.NoBody))

	req.Equal(http.StatusOK, recorder.Code)
	req.Equal("application/json", recorder.Header().Get("Content-Type"))
	var body server.RoomsResponse
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
	req.Equal(server.RoomsResponse{Connections: 3, Rooms: map[string]int{"ROOM1": 2}}, body)
}

// TestRoomCodeHandler tests that generated codes use the web client's format.
func TestRoomCodeHandler(t *testing.T) {
	req := require.New(t)
	handler, err := server.NewHub(nil).NewRoomCodeHandler()
	req.NoError(err)
	format := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		recorder := httptest.NewRecorder()
		handler(recorder, httptest.NewRequest(http.MethodGet, "/rooms/code", http.NoBody))

		req.Equal(http.StatusOK, recorder.Code)
		var body server.RoomCodeResponse
		req.NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
		req.Regexp(format, body.Code)
		seen[body.Code] = struct{}{}
	}
	req.Greater(len(seen), 1)

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodPost, "/rooms/code", http.NoBody))
	req.Equal(http.StatusMethodNotAllowed, recorder.Code)
}

// TestSetupRoutes tests that every route is mounted on the mux.
func TestSetupRoutes(t *testing.T) {
	_, testServer := startTestServer(t)

	tests := []struct {
		path        string
		contentType string
	}{
		{path: "/", contentType: "text/plain"},
		{path: "/test", contentType: "text/html"},
		{path: "/rooms", contentType: "application/json"},
		{path: "/rooms/code", contentType: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+tt.path)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
		})
	}
}

// TestMetricsEndpoint tests that relay metrics are exported.
func TestMetricsEndpoint(t *testing.T) {
	req := require.New(t)
	hub, testServer := startTestServer(t)
	_, err := hub.Rooms().Join(newRecordingConn("a"), "ROOM1", "alice")
	req.NoError(err)

	resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/metrics")
	req.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Contains(string(body), "roomchat_connections 1")
	req.Contains(string(body), "roomchat_rooms 1")
	req.Contains(string(body), "go_goroutines")
}
