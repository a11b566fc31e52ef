package transport

import "encoding/json"

// MemConn is an in-memory Conn backed by a channel pair, for tests that need
// a Conn without a live socket.
type MemConn struct {
	out    chan []byte
	in     chan []byte
	closed chan struct{}
}

// NewMemConnPair returns two ends of an in-memory connection; writes on one
// end become reads on the other.
func NewMemConnPair() (*MemConn, *MemConn) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a := &MemConn{out: ab, in: ba, closed: make(chan struct{})}
	b := &MemConn{out: ba, in: ab, closed: make(chan struct{})}
	return a, b
}

func (c *MemConn) ReadJSON(v interface{}) error {
	select {
	case data, ok := <-c.in:
		if !ok {
			return errClosed
		}
		return json.Unmarshal(data, v)
	case <-c.closed:
		return errClosed
	}
}

func (c *MemConn) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case c.out <- data:
		return nil
	case <-c.closed:
		return errClosed
	}
}

func (c *MemConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

var errClosed = &connClosedError{}

type connClosedError struct{}

func (*connClosedError) Error() string { return "transport: connection closed" }
