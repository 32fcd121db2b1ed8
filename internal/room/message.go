package room

import "time"

// ChatMessage is a broadcast event. It is built when a chat is dispatched and
// dropped once it has been fanned out.
type ChatMessage struct {
	ID        string
	User      string
	Body      string
	Timestamp time.Time
}

// Member is a read-only view of a membership record.
type Member struct {
	ID   ConnID
	Room string
	Name string
}

// Joined reports whether the member currently belongs to a room.
func (m Member) Joined() bool {
	return m.Room != ""
}

// JoinResult carries the member snapshots a join produces. Previous and
// PreviousMembers are only set when the connection moved out of another room.
type JoinResult struct {
	Room            string
	Members         []Conn
	Previous        string
	PreviousMembers []Conn
}

// Reparented reports whether the join moved the connection between rooms.
func (r JoinResult) Reparented() bool {
	return r.Previous != ""
}

// Delivery is a chat message together with the room members it goes to.
type Delivery struct {
	Room    string
	Message ChatMessage
	Members []Conn
}

// Departure is the room a connection left and the members still in it.
type Departure struct {
	Room    string
	Members []Conn
}

// BroadcastResult summarizes one fan-out. Stale lists members whose handle
// reported closed; they should be evicted by the caller.
type BroadcastResult struct {
	Delivered int
	Skipped   int
	Stale     []Conn
}
