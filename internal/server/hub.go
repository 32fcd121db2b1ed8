// Package server coordinates client admission, room dispatch, and connection
// cleanup for the room chat system via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/gorilla/websocket"
)

// Hub owns the room registry and the lifecycle of every client. Admission and
// removal run on the Run goroutine; inbound frames are dispatched straight from
// each client's read pump.
type Hub struct {
	rooms      *room.Registry
	dispatcher *Dispatcher
	metrics    *Metrics
	log        *slog.Logger
	upgrader   websocket.Upgrader

	register   chan *Client
	unregister chan *Client
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates and initializes a new Hub instance with an empty registry.
// The returned Hub is ready to manage WebSocket connections once Run is started.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	rooms := room.NewRegistry()
	metrics := NewMetrics(rooms)

	h := &Hub{
		rooms:      rooms,
		dispatcher: NewDispatcher(rooms, metrics, logger),
		metrics:    metrics,
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Rooms returns the registry the hub dispatches into.
func (h *Hub) Rooms() *room.Registry {
	return h.rooms
}

// Metrics returns the hub's metrics.
func (h *Hub) Metrics() *Metrics {
	return h.metrics
}

// Register hands a new client to the hub, which starts its pumps. It returns
// false when the hub is shutting down; the connection is closed then.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		client.closeConnection()
		return false
	}
}

// Unregister removes a client. After shutdown it is handled inline since Run
// no longer reads the channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
		h.remove(client)
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. This method should be called in a separate goroutine as it
// runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("received nil client registration; skipping")
				continue
			}
			h.admit(client)

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) admit(client *Client) {
	h.rooms.Admit(client)
	h.log.Info("client registered", "conn", client.ID(), "addr", client.addr, "clients", h.rooms.Len())

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) remove(client *Client) {
	if client == nil {
		return
	}
	h.dispatcher.HandleDisconnect(client)
	_ = client.Close()
	h.log.Info("client unregistered", "conn", client.ID(), "addr", client.addr, "clients", h.rooms.Len())
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	h.log.Info("shutting down all client connections")

	conns := h.rooms.Conns()
	for _, conn := range conns {
		_ = conn.Close()
		if client, ok := conn.(*Client); ok {
			client.closeConnection()
		}
	}

	h.log.Info("closed client connections", "count", len(conns))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("initiating hub shutdown")

	h.cancel()

	select {
	case <-h.done:
	case <-time.After(timeout):
		h.log.Warn("hub loop did not stop before timeout")
		return context.DeadlineExceeded
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
