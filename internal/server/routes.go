// Package server wires HTTP handlers into a ServeMux for the room chat
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// It sets up handlers for health check, WebSocket endpoint, room statistics,
// room codes, metrics, and the test page.
func SetupRoutes(h *Hub) (*http.ServeMux, error) {
	roomCode, err := h.NewRoomCodeHandler()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", h.WebSocketHandler)
	mux.HandleFunc("/test", TestPageHandler)
	mux.HandleFunc("/rooms", h.RoomsHandler)
	mux.HandleFunc("/rooms/code", roomCode)
	mux.Handle("/metrics", h.metrics.Handler())
	return mux, nil
}
