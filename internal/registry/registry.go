package registry

import (
	"strings"
	"sync"

	"github.com/chatline/relay-service/internal/domain"
)

// Registry is the single source of truth for live users. In-memory only: the
// relay is a single-process service, a room exists exactly while at least one
// user references it.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*domain.User // connection id -> user
	order []string                // ids in join order, keeps roster rendering stable
}

func New() *Registry {
	return &Registry{users: make(map[string]*domain.User)}
}

// AddUser validates, normalizes and inserts a user under the transport-assigned
// connection id. Uniqueness of (room, username) is checked here, under the same
// lock as the insert, so of two concurrent identical joins exactly one wins.
func (r *Registry) AddUser(id, username, room string) (domain.User, error) {
	username = normalize(username)
	room = normalize(room)
	if username == "" || room == "" {
		return domain.User{}, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, uid := range r.order {
		u := r.users[uid]
		if u.Room == room && u.Username == username {
			return domain.User{}, domain.ErrUsernameTaken
		}
	}

	u := &domain.User{ID: id, Username: username, Room: room}
	r.users[id] = u
	r.order = append(r.order, id)
	return *u, nil
}

// RemoveUser removes and returns the user with that id. Safe to call twice:
// the second call just gets ErrUserNotFound.
func (r *Registry) RemoveUser(id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	delete(r.users, id)
	for i, uid := range r.order {
		if uid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *u, nil
}

func (r *Registry) GetUser(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *u, nil
}

// UsersInRoom returns the room occupants in join order.
func (r *Registry) UsersInRoom(room string) ([]domain.User, error) {
	room = normalize(room)
	if room == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0)
	for _, uid := range r.order {
		if u := r.users[uid]; u.Room == room {
			users = append(users, *u)
		}
	}
	return users, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
