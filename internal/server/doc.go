// Package server implements the HTTP and WebSocket side of the room chat relay.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, frame dispatch, metrics, routing, and HTTP handlers.
// Room membership itself lives in the room package; this package only moves
// frames between sockets and the registry.
package server
