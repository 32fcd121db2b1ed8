package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 form used for chat timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Outbound is a server frame: either UserCount or ChatDelivered.
type Outbound interface {
	outbound()
}

// UserCount announces the current occupancy of a room.
type UserCount struct {
	Count int
}

// ChatDelivered carries one chat message to a room member.
type ChatDelivered struct {
	ID        string
	User      string
	Message   string
	Timestamp time.Time
}

func (UserCount) outbound()     {}
func (ChatDelivered) outbound() {}

// The web client reads the count at the top level and the chat fields under
// payload.
type userCountFrame struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type messageFrame struct {
	Type    string         `json:"type"`
	Payload messagePayload `json:"payload"`
}

type messagePayload struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Encode serializes an outbound frame.
func Encode(out Outbound) ([]byte, error) {
	switch o := out.(type) {
	case UserCount:
		return json.Marshal(userCountFrame{Type: TypeUserCount, Count: o.Count})
	case ChatDelivered:
		return json.Marshal(messageFrame{
			Type: TypeMessage,
			Payload: messagePayload{
				ID:        o.ID,
				User:      o.User,
				Message:   o.Message,
				Timestamp: o.Timestamp.UTC().Format(TimestampLayout),
			},
		})
	default:
		return nil, fmt.Errorf("unsupported outbound frame %T", out)
	}
}
