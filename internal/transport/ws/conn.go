package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	errConnClosed = errors.New("connection closed")
	errBufferFull = errors.New("send buffer full")
)

// wsConn wraps one live connection. Outbound frames go through a buffered
// channel drained by the server's write loop, so a slow or dead peer drops
// frames instead of stalling fan-out to everyone else.
type wsConn struct {
	id   string
	conn *websocket.Conn

	send      chan Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, id string) *wsConn {
	return &wsConn{
		id:     id,
		conn:   c,
		send:   make(chan Message, 256),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

// SendEvent enqueues an event envelope, never blocking the caller.
func (c *wsConn) SendEvent(event string, payload any) error {
	return c.enqueue(Message{Type: event, Payload: payload})
}

func (c *wsConn) ack(event, text, errText string) {
	_ = c.enqueue(Message{Type: EventAck, Payload: AckPayload{
		Event: event,
		Error: errText,
		Text:  text,
	}})
}

func (c *wsConn) enqueue(msg Message) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return errBufferFull
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}
