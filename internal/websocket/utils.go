package websocket

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 5 * time.Minute
)

// WriteJSON sends a JSON payload over the WebSocket with a write deadline.
// Callers that write from more than one goroutine must serialize access.
func WriteJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// WriteText sends a raw text frame with a write deadline.
func WriteText(conn *websocket.Conn, s string) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, []byte(s))
}

// WriteStatus sends a StatusResponse.
func WriteStatus(conn *websocket.Conn, status string) error {
	return WriteJSON(conn, StatusResponse{Status: status})
}

// WriteError sends the terminal error payload described by the wire protocol:
// {"status": "error : <description>"}.
func WriteError(conn *websocket.Conn, description string) error {
	return WriteJSON(conn, StatusResponse{Status: fmt.Sprintf("error : %s", description)})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline so an idle connection eventually times out.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	return conn.ReadJSON(v)
}
