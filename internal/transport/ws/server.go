package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chatline/relay-service/internal/domain"
	"github.com/chatline/relay-service/internal/service"
)

// Relay is the engine behind every connection: sessions attach on upgrade,
// client events are validated and fanned out, disconnect tears identity down.
type Relay interface {
	Attach(sess service.Session)
	Join(id, username, room string) error
	Message(id, text string) (string, error)
	ShareLocation(id string, lat, long float64) (string, error)
	Disconnect(id string)
}

type Server struct {
	upgrader websocket.Upgrader
	relay    Relay

	pingEvery      time.Duration
	maxMessageSize int64
}

func NewServer(relay Relay, pingEvery time.Duration, maxMessageSize int64) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	if maxMessageSize <= 0 {
		maxMessageSize = 1 << 16
	}
	return &Server{
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery:      pingEvery,
		maxMessageSize: maxMessageSize,
	}
}

// WS endpoint: GET /ws. Identity is assigned here, not chosen by the client:
// every upgraded connection gets a fresh uuid that the registry keys on.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, uuid.NewString())
	s.relay.Attach(c)
	slog.Debug("connection open", "id", c.id, "remote", conn.RemoteAddr().String())

	go s.writeLoop(c)
	s.readLoop(c)

	s.relay.Disconnect(c.id)
	_ = c.Close()
	slog.Debug("connection closed", "id", c.id)
}

// readLoop runs the per-connection state machine: Connected until a join
// succeeds, Joined after, Closed when the loop returns. Every client event is
// answered with exactly one ack on the same connection; errors never cross to
// other connections.
func (s *Server) readLoop(c *wsConn) {
	c.conn.SetReadLimit(s.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	joined := false
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("ws read", "id", c.id, "err", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case EventJoin:
			var p JoinPayload
			if decode(msg.Payload, &p) != nil {
				c.ack(EventJoin, "", "invalid join payload")
				continue
			}
			if joined {
				// a live connection keeps its original identity
				c.ack(EventJoin, "", "already joined")
				continue
			}
			if err := s.relay.Join(c.id, p.Username, p.Room); err != nil {
				c.ack(EventJoin, "", ackError(err))
				continue
			}
			joined = true
			c.ack(EventJoin, "", "")

		case EventMessage:
			var text string
			if decode(msg.Payload, &text) != nil {
				c.ack(EventMessage, "", "invalid message payload")
				continue
			}
			ackText, err := s.relay.Message(c.id, text)
			c.ack(EventMessage, ackText, ackError(err))

		case EventSendLocation:
			var p LocationPayload
			if decode(msg.Payload, &p) != nil {
				c.ack(EventSendLocation, "", "invalid location payload")
				continue
			}
			ackText, err := s.relay.ShareLocation(c.id, p.Lat, p.Long)
			c.ack(EventSendLocation, ackText, ackError(err))

		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

// ackError maps relay errors onto the acknowledgment strings of the wire
// contract. Everything is recovered here; nothing is fatal.
func ackError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrProfanity):
		return "Profanity is not allowed!"
	case errors.Is(err, domain.ErrUserNotFound):
		return "User could not be found!"
	default:
		return err.Error()
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
