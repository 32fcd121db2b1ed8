// Package protocol encodes and decodes the JSON frames exchanged with room
// chat clients.
//
// Inbound frames form a closed set (Join, Chat) and so do outbound frames
// (UserCount, ChatDelivered). Callers switch on the concrete type.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Frame types used on the wire.
const (
	TypeJoin      = "join"
	TypeChat      = "chat"
	TypeUserCount = "userCount"
	TypeMessage   = "message"
)

var (
	// ErrMalformed is returned when a frame is not a JSON envelope.
	ErrMalformed = errors.New("malformed frame")
	// ErrUnknownType is returned for envelopes with an unrecognized type.
	ErrUnknownType = errors.New("unknown frame type")
	// ErrInvalidPayload is returned when a known frame carries a bad payload.
	ErrInvalidPayload = errors.New("invalid payload")
)

var validate = validator.New()

// Inbound is a decoded client frame: either Join or Chat.
type Inbound interface {
	inbound()
}

// Join asks to enter a room. An empty Username means the default name.
type Join struct {
	RoomID   string
	Username string
}

// Chat is a message for the sender's current room.
type Chat struct {
	Message string
}

func (Join) inbound() {}
func (Chat) inbound() {}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	Username string `json:"username"`
}

type chatPayload struct {
	Message *string `json:"message" validate:"required"`
}

// Decode parses one inbound text frame.
func Decode(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeJoin:
		var p joinPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return Join{RoomID: p.RoomID, Username: p.Username}, nil
	case TypeChat:
		var p chatPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return Chat{Message: *p.Message}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: missing payload", ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
