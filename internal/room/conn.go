//go:generate go run go.uber.org/mock/mockgen -source=conn.go -destination=../../mocks/mock_conn.go -package=mocks

// Package room tracks which live connections belong to which room and fans
// broadcast payloads out to the members of a room.
//
// The Registry is the only authority on membership once a connection has been
// admitted. Rooms are never stored on their own: a room exists exactly while at
// least one connection references its key.
package room

import (
	"errors"
	"fmt"
)

// DefaultDisplayName is used when a join carries no username.
const DefaultDisplayName = "Anonymous"

var (
	// ErrSendFailed is returned by Conn.Send when a payload could not be queued
	// for delivery.
	ErrSendFailed = errors.New("send failed")
	// ErrConnClosed is returned by Conn.Send once the connection is closed.
	// It wraps ErrSendFailed.
	ErrConnClosed = fmt.Errorf("%w: connection closed", ErrSendFailed)
	// ErrEmptyRoom is returned when a join names no room.
	ErrEmptyRoom = errors.New("room key is empty")
)

// ConnID identifies a connection for its whole lifetime.
type ConnID string

// Conn is the capability set the registry needs from a live transport stream.
type Conn interface {
	// ID returns the stable identity of the connection.
	ID() ConnID
	// Send queues payload for delivery. It must not block.
	Send(payload []byte) error
	// Close shuts the connection down. Calling it more than once is safe.
	Close() error
	// IsOpen reports whether the connection still accepts payloads.
	IsOpen() bool
}
