package server

import (
	"log/slog"

	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/room"
)

// Dispatcher turns inbound frames into registry operations and broadcasts the
// resulting notifications. It is safe for concurrent use: every connection's
// read loop calls it directly and the registry serializes membership changes.
type Dispatcher struct {
	rooms   *room.Registry
	metrics *Metrics
	log     *slog.Logger
}

// NewDispatcher creates a dispatcher over rooms. metrics may be nil.
func NewDispatcher(rooms *room.Registry, metrics *Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{rooms: rooms, metrics: metrics, log: logger}
}

// HandleMessage decodes one raw frame from c and applies it. Frames that
// cannot be decoded are logged and dropped; the connection stays open.
func (d *Dispatcher) HandleMessage(c room.Conn, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		d.metrics.frame("invalid")
		d.log.Warn("ignoring inbound frame", "conn", c.ID(), "err", err)
		return
	}

	switch in := msg.(type) {
	case protocol.Join:
		d.metrics.frame(protocol.TypeJoin)
		d.join(c, in)
	case protocol.Chat:
		d.metrics.frame(protocol.TypeChat)
		d.chat(c, in)
	}
}

// HandleError records a transport error reported for c. It never closes the
// connection.
func (d *Dispatcher) HandleError(c room.Conn, err error) {
	d.log.Warn("transport error", "conn", c.ID(), "err", err)
}

// HandleDisconnect removes c and tells the rest of its room the new count.
func (d *Dispatcher) HandleDisconnect(c room.Conn) {
	departure, ok := d.rooms.Leave(c)
	if !ok {
		d.log.Debug("connection left without joining", "conn", c.ID())
		return
	}

	d.log.Info("connection left room", "conn", c.ID(), "room", departure.Room, "count", len(departure.Members))
	d.notifyOccupancy(departure.Room, departure.Members)
}

func (d *Dispatcher) join(c room.Conn, in protocol.Join) {
	result, err := d.rooms.Join(c, in.RoomID, in.Username)
	if err != nil {
		d.log.Warn("join rejected", "conn", c.ID(), "err", err)
		return
	}

	d.log.Info("connection joined room", "conn", c.ID(), "room", result.Room, "count", len(result.Members))
	if result.Reparented() {
		d.log.Info("connection moved rooms", "conn", c.ID(), "from", result.Previous, "to", result.Room)
		d.notifyOccupancy(result.Previous, result.PreviousMembers)
	}
	d.notifyOccupancy(result.Room, result.Members)
}

func (d *Dispatcher) chat(c room.Conn, in protocol.Chat) {
	delivery, ok := d.rooms.Chat(c, in.Message)
	if !ok {
		d.log.Debug("dropping chat from connection outside any room", "conn", c.ID())
		return
	}

	payload, err := protocol.Encode(protocol.ChatDelivered{
		ID:        delivery.Message.ID,
		User:      delivery.Message.User,
		Message:   delivery.Message.Body,
		Timestamp: delivery.Message.Timestamp,
	})
	if err != nil {
		d.log.Error("encoding chat message", "conn", c.ID(), "err", err)
		return
	}

	d.log.Debug("broadcasting chat", "conn", c.ID(), "room", delivery.Room, "recipients", len(delivery.Members))
	d.fanOut(delivery.Room, delivery.Members, payload)
}

// notifyOccupancy sends the room's member count to its members. An empty
// room has nobody to tell.
func (d *Dispatcher) notifyOccupancy(roomID string, members []room.Conn) {
	if len(members) == 0 {
		return
	}

	payload, err := protocol.Encode(protocol.UserCount{Count: len(members)})
	if err != nil {
		d.log.Error("encoding user count", "room", roomID, "err", err)
		return
	}
	d.fanOut(roomID, members, payload)
}

// fanOut broadcasts payload and evicts any member found closed. Eviction goes
// through HandleDisconnect so the rest of that room learns the new count.
func (d *Dispatcher) fanOut(roomID string, members []room.Conn, payload []byte) {
	result := d.rooms.Broadcast(members, payload)
	d.metrics.broadcast(result)

	if result.Skipped > 0 {
		d.log.Debug("broadcast skipped recipients", "room", roomID, "delivered", result.Delivered, "skipped", result.Skipped)
	}

	for _, stale := range result.Stale {
		d.log.Info("evicting closed connection", "conn", stale.ID(), "room", roomID)
		d.metrics.eviction()
		d.HandleDisconnect(stale)
	}
}
