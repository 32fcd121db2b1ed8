// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, room statistics, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	nanoid "github.com/jaevor/go-nanoid"
)

// roomCodeAlphabet and roomCodeLength match the codes the web client generates.
const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// RoomsResponse is the body of GET /rooms.
type RoomsResponse struct {
	Connections int            `json:"connections"`
	Rooms       map[string]int `json:"rooms"`
}

// RoomCodeResponse is the body of GET /rooms/code.
type RoomCodeResponse struct {
	Code string `json:"code"`
}

// WebSocketHandler handles WebSocket upgrade requests and manages client connections.
// It validates that the request uses the GET method, upgrades the HTTP connection
// to WebSocket, creates a new Client instance, and hands it to the hub.
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}

	client := NewClient(conn, h, r.RemoteAddr)

	// The hub launches the pump goroutines.
	h.Register(client)
}

// RoomsHandler reports the occupancy of every non-empty room.
func (h *Hub) RoomsHandler(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, RoomsResponse{
		Connections: h.rooms.Len(),
		Rooms:       h.rooms.Rooms(),
	})
}

// NewRoomCodeHandler returns a handler that hands out fresh room codes. Codes
// are suggestions only: a room exists once somebody joins it.
func (h *Hub) NewRoomCodeHandler() (http.HandlerFunc, error) {
	generate, err := nanoid.CustomASCII(roomCodeAlphabet, roomCodeLength)
	if err != nil {
		return nil, fmt.Errorf("building room code generator: %w", err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed.", http.StatusMethodNotAllowed)
			return
		}
		h.writeJSON(w, http.StatusOK, RoomCodeResponse{Code: generate()})
	}, nil
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "roomchat server is running!")
}

func (h *Hub) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("writing json response", "err", err)
	}
}

// TestPageHandler serves an HTML test page for trying rooms by hand.
// It connects to the WebSocket endpoint, joins a room, sends chat messages,
// and shows the live occupancy of the room.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPageHTML)
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>roomchat test page</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>roomchat</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="nameInput" placeholder="Your name">
        <input type="text" id="roomInput" placeholder="Room code">
        <button onclick="newCode()">New code</button>
        <button id="joinButton" onclick="join()">Join</button>
        <span>Users: <strong id="userCount">0</strong></span>
    </div>

    <div id="messages"></div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <script>
        const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const statusDiv = document.getElementById('status');
        const userCount = document.getElementById('userCount');
        let ws = null;

        function addLine(text, color) {
            const line = document.createElement('div');
            line.style.margin = '5px 0';
            line.style.color = color || 'gray';
            line.textContent = text;
            messagesDiv.appendChild(line);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function setConnected(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
        }

        function connect(onOpen) {
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = function() { setConnected(true); onOpen(); };
            ws.onclose = function() { setConnected(false); addLine('Connection closed'); ws = null; };
            ws.onmessage = function(event) {
                const frame = JSON.parse(event.data);
                if (frame.type === 'userCount') {
                    userCount.textContent = frame.count;
                } else if (frame.type === 'message') {
                    const p = frame.payload;
                    const at = new Date(p.timestamp).toLocaleTimeString();
                    addLine('[' + at + '] ' + p.user + ': ' + p.message, 'green');
                }
            };
        }

        function join() {
            const frame = JSON.stringify({
                type: 'join',
                payload: {
                    roomId: document.getElementById('roomInput').value.trim(),
                    username: document.getElementById('nameInput').value.trim()
                }
            });
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(frame);
            } else {
                connect(function() { ws.send(frame); });
            }
        }

        function newCode() {
            fetch('/rooms/code').then(function(r) { return r.json(); }).then(function(body) {
                document.getElementById('roomInput').value = body.code;
            });
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (message && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ type: 'chat', payload: { message: message } }));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
