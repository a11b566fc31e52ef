package transport

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// gorillaConn wraps gorilla/websocket.Conn to implement Conn.
type gorillaConn struct {
	conn *websocket.Conn
}

func (c *gorillaConn) ReadJSON(v interface{}) error  { return c.conn.ReadJSON(v) }
func (c *gorillaConn) WriteJSON(v interface{}) error { return c.conn.WriteJSON(v) }
func (c *gorillaConn) Close() error                  { return c.conn.Close() }

// Dial opens a client WebSocket connection to the collaboration server.
func Dial(url string, writeTimeout time.Duration) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: writeTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &gorillaConn{conn: conn}, nil
}

// Upgrade upgrades an inbound HTTP request to a WebSocket connection,
// for a server-side harness exercising the same protocol in tests.
func Upgrade(w http.ResponseWriter, r *http.Request) (Conn, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &gorillaConn{conn: conn}, nil
}
