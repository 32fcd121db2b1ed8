// Package testhelpers provides shared utilities for testing the roomchat server.
//
// It wraps the WebSocket client side of the relay protocol so tests can join
// rooms, chat, and read typed frames without repeating JSON plumbing.
package testhelpers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultOrigin is the origin allowed by the default configuration.
const DefaultOrigin = "http://localhost:8080"

// readTimeout bounds every frame read so a missing broadcast fails the test
// instead of hanging it.
const readTimeout = 2 * time.Second

// Frame is an outbound frame as a client sees it.
type Frame struct {
	Type    string        `json:"type"`
	Count   int           `json:"count,omitempty"`
	Payload *FramePayload `json:"payload,omitempty"`
}

// FramePayload is the body of a "message" frame.
type FramePayload struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// WebSocketURL turns an httptest server URL into its /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// ConnectWebSocket dials url with the given Origin header. An empty origin
// sends no header at all.
func ConnectWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials url with DefaultOrigin and closes the connection when the
// test ends.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := ConnectWebSocket(url, DefaultOrigin)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendJoin asks to join roomID under username.
func SendJoin(conn *websocket.Conn, roomID, username string) error {
	return conn.WriteJSON(map[string]any{
		"type":    "join",
		"payload": map[string]string{"roomId": roomID, "username": username},
	})
}

// SendChat sends message to the sender's current room.
func SendChat(conn *websocket.Conn, message string) error {
	return conn.WriteJSON(map[string]any{
		"type":    "chat",
		"payload": map[string]string{"message": message},
	})
}

// ReadFrame reads and decodes the next frame.
func ReadFrame(conn *websocket.Conn) (Frame, error) {
	var frame Frame
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return frame, err
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return frame, err
	}
	err = json.Unmarshal(raw, &frame)
	return frame, err
}

// MustReadFrame reads the next frame and fails the test on error.
func MustReadFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	frame, err := ReadFrame(conn)
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	return frame
}

// ExpectUserCount reads the next frame and checks it is a userCount of want.
func ExpectUserCount(t *testing.T, conn *websocket.Conn, want int) {
	t.Helper()

	frame := MustReadFrame(t, conn)
	if frame.Type != "userCount" {
		t.Fatalf("Expected userCount frame, got %q", frame.Type)
	}
	if frame.Count != want {
		t.Fatalf("Expected user count %d, got %d", want, frame.Count)
	}
}

// ExpectNoMessage fails the test if a frame arrives within timeout. A timed-out
// read leaves a gorilla connection unusable, so this must be the last read on conn.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, but received %s", raw)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}

// CloseWebSocket sends a normal close frame and closes conn.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// MakeRequest executes an HTTP request with a 5-second timeout.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
