package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type member struct {
	conn Conn
	room string
	name string
}

// Registry maps connections to their membership record and indexes room keys
// to member identities. Both maps change together under one lock, so the size
// of a room's index entry is always the number of connections in that room.
type Registry struct {
	mu      sync.RWMutex
	members map[ConnID]*member
	rooms   map[string]map[ConnID]struct{}

	now   func() time.Time
	newID func() string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used to stamp chat messages.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides the chat message identifier generator.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		members: make(map[ConnID]*member),
		rooms:   make(map[string]map[ConnID]struct{}),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Admit registers a connection that has not joined a room yet. Admitting a
// known connection is a no-op.
func (r *Registry) Admit(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[c.ID()]; ok {
		return
	}
	r.members[c.ID()] = &member{conn: c}
}

// Join puts c into roomID under displayName, admitting it first if needed.
// A connection already in another room is moved, and the result then also
// carries the recomputed membership of the room it left.
func (r *Registry) Join(c Conn, roomID, displayName string) (JoinResult, error) {
	if roomID == "" {
		return JoinResult{}, ErrEmptyRoom
	}
	if displayName == "" {
		displayName = DefaultDisplayName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	m, ok := r.members[id]
	if !ok {
		m = &member{}
		r.members[id] = m
	}
	m.conn = c

	previous := m.room
	if previous != "" && previous != roomID {
		r.detach(id, previous)
	}
	m.room = roomID
	m.name = displayName
	r.attach(id, roomID)

	result := JoinResult{Room: roomID, Members: r.snapshot(roomID)}
	if previous != "" && previous != roomID {
		result.Previous = previous
		result.PreviousMembers = r.snapshot(previous)
	}
	return result, nil
}

// Chat builds a message from c to its current room. The second return value
// is false when c is unknown or has not joined a room; nothing is sent then.
func (r *Registry) Chat(c Conn, body string) (Delivery, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[c.ID()]
	if !ok || m.room == "" {
		return Delivery{}, false
	}

	return Delivery{
		Room: m.room,
		Message: ChatMessage{
			ID:        r.newID(),
			User:      m.name,
			Body:      body,
			Timestamp: r.now().UTC(),
		},
		Members: r.snapshot(m.room),
	}, true
}

// Leave removes c from the registry. The second return value is false when c
// was unknown or had never joined a room, in which case nobody needs telling.
func (r *Registry) Leave(c Conn) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	m, ok := r.members[id]
	if !ok {
		return Departure{}, false
	}
	delete(r.members, id)

	if m.room == "" {
		return Departure{}, false
	}
	r.detach(id, m.room)
	return Departure{Room: m.room, Members: r.snapshot(m.room)}, true
}

// Broadcast sends payload to every open member. Closed handles and failed
// sends are skipped so one bad recipient never stops the others. It does not
// take the registry lock; members should be a snapshot.
func (r *Registry) Broadcast(members []Conn, payload []byte) BroadcastResult {
	var result BroadcastResult
	for _, c := range members {
		if !c.IsOpen() {
			result.Skipped++
			result.Stale = append(result.Stale, c)
			continue
		}
		if err := c.Send(payload); err != nil {
			result.Skipped++
			continue
		}
		result.Delivered++
	}
	return result
}

// Members returns a snapshot of the connections in roomID.
func (r *Registry) Members(roomID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(roomID)
}

// Occupancy returns the number of connections in roomID.
func (r *Registry) Occupancy(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Lookup returns the membership record of id.
func (r *Registry) Lookup(id ConnID) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[id]
	if !ok {
		return Member{}, false
	}
	return Member{ID: id, Room: m.room, Name: m.name}, true
}

// Rooms returns the occupancy of every non-empty room.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapValues(r.rooms, func(set map[ConnID]struct{}, _ string) int {
		return len(set)
	})
}

// Conns returns every admitted connection, joined or not.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapToSlice(r.members, func(_ ConnID, m *member) Conn {
		return m.conn
	})
}

// Len returns the number of admitted connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// snapshot must be called with r.mu held.
func (r *Registry) snapshot(roomID string) []Conn {
	return lo.Map(lo.Keys(r.rooms[roomID]), func(id ConnID, _ int) Conn {
		return r.members[id].conn
	})
}

func (r *Registry) attach(id ConnID, roomID string) {
	set, ok := r.rooms[roomID]
	if !ok {
		set = make(map[ConnID]struct{})
		r.rooms[roomID] = set
	}
	set[id] = struct{}{}
}

// detach drops the index entry of an emptied room so it stops existing.
func (r *Registry) detach(id ConnID, roomID string) {
	set, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.rooms, roomID)
	}
}
