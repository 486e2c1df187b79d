package service

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/chatline/relay-service/internal/domain"
	"github.com/chatline/relay-service/internal/registry"
)

// Event names of the wire contract, server to client.
const (
	EventMessage         = "message"
	EventLocationMessage = "locationMessage"
	EventRoomData        = "roomData"
)

// AdminSender is the attributed author of relay-generated notices.
const AdminSender = "admin"

// Session is one live client connection the relay can push events to.
// SendEvent is fire-and-forget: implementations must not block on a slow peer.
type Session interface {
	ID() string
	SendEvent(event string, payload any) error
}

// Filter is the profanity predicate consulted before a message is relayed.
type Filter interface {
	IsProfane(text string) bool
}

type RosterItem struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// RoomData is the roster snapshot broadcast on every membership change.
type RoomData struct {
	Room  string       `json:"room"`
	Users []RosterItem `json:"users"`
}

// RelayService orchestrates join/leave/message/location events: it validates
// them against the registry and fans the resulting payloads out to the right
// set of sessions. All errors are returned to the caller for delivery as an
// acknowledgment to the originating connection only.
type RelayService struct {
	registry *registry.Registry
	filter   Filter
	welcome  string

	mu       sync.RWMutex
	sessions map[string]Session // connection id -> session
}

func NewRelayService(reg *registry.Registry, filter Filter, welcome string) *RelayService {
	if welcome == "" {
		welcome = "Welcome!"
	}
	return &RelayService{
		registry: reg,
		filter:   filter,
		welcome:  welcome,
		sessions: make(map[string]Session),
	}
}

// Attach registers a freshly upgraded connection, before any join happened.
func (s *RelayService) Attach(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
}

// Join binds (username, room) to the connection and notifies the room: welcome
// to the joiner only, a joined notice to everyone else, and a roster snapshot
// to the whole room. On error nothing is sent; the connection stays open and
// unbound, closing is the client's call.
func (s *RelayService) Join(id, username, room string) error {
	u, err := s.registry.AddUser(id, username, room)
	if err != nil {
		return err
	}

	s.sendTo(u.ID, EventMessage, domain.NewMessage(s.welcome, AdminSender))
	s.broadcast(u.Room, EventMessage,
		domain.NewMessage(fmt.Sprintf("%s has joined!", u.Username), u.Username), u.ID)
	s.broadcastRoster(u.Room)

	slog.Info("user joined", "room", u.Room, "username", u.Username)
	return nil
}

// Message relays text to every occupant of the sender's room, sender included.
// Profane text is rejected locally and never relayed. A disconnect racing the
// message surfaces as ErrUserNotFound.
func (s *RelayService) Message(id, text string) (string, error) {
	if s.filter != nil && s.filter.IsProfane(text) {
		return "", domain.ErrProfanity
	}

	u, err := s.registry.GetUser(id)
	if err != nil {
		return "", err
	}

	s.broadcast(u.Room, EventMessage, domain.NewMessage(text, u.Username), "")
	return "Delivered!", nil
}

// ShareLocation pushes a map link to every other occupant of the sender's room.
// The acknowledgment goes back regardless of peer count.
func (s *RelayService) ShareLocation(id string, lat, long float64) (string, error) {
	u, err := s.registry.GetUser(id)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://google.com/maps?q=%v,%v", lat, long)
	s.broadcast(u.Room, EventLocationMessage, domain.NewLocationMessage(url, u.Username), u.ID)
	return "Received your location!", nil
}

// Disconnect drops the session and, if the connection had joined, tells the
// remaining occupants who left and sends them a refreshed roster.
func (s *RelayService) Disconnect(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	u, err := s.registry.RemoveUser(id)
	if err != nil {
		// connection never joined, nothing to announce
		return
	}

	s.broadcast(u.Room, EventMessage,
		domain.NewMessage(fmt.Sprintf("%s has left!", u.Username), AdminSender), "")
	s.broadcastRoster(u.Room)

	slog.Info("user left", "room", u.Room, "username", u.Username)
}

func (s *RelayService) sendTo(id, event string, payload any) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	if err := sess.SendEvent(event, payload); err != nil {
		slog.Debug("relay send failed", "id", id, "event", event, "err", err)
	}
}

// broadcast delivers one event to every session in the room except excludeID.
// Targets come from a fresh registry snapshot taken outside any send, so a
// leaving user may still catch one in-flight broadcast. Best-effort.
func (s *RelayService) broadcast(room, event string, payload any, excludeID string) {
	users, err := s.registry.UsersInRoom(room)
	if err != nil {
		return
	}
	for _, u := range users {
		if u.ID == excludeID {
			continue
		}
		s.sendTo(u.ID, event, payload)
	}
}

func (s *RelayService) broadcastRoster(room string) {
	users, err := s.registry.UsersInRoom(room)
	if err != nil {
		return
	}
	s.broadcast(room, EventRoomData, RoomData{
		Room: room,
		Users: lo.Map(users, func(u domain.User, _ int) RosterItem {
			return RosterItem{Username: u.Username, Room: u.Room}
		}),
	}, "")
}

// Roster returns the current roomData snapshot for the HTTP surface.
func (s *RelayService) Roster(room string) (RoomData, error) {
	users, err := s.registry.UsersInRoom(room)
	if err != nil {
		return RoomData{}, err
	}
	return RoomData{
		Room: strings.ToLower(strings.TrimSpace(room)),
		Users: lo.Map(users, func(u domain.User, _ int) RosterItem {
			return RosterItem{Username: u.Username, Room: u.Room}
		}),
	}, nil
}
