package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatline/relay-service/internal/domain"
	"github.com/chatline/relay-service/internal/registry"
)

type recordedEvent struct {
	Event   string
	Payload any
}

type fakeSession struct {
	id string

	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) SendEvent(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Event: event, Payload: payload})
	return nil
}

func (f *fakeSession) recorded() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEvent(nil), f.events...)
}

func (f *fakeSession) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

type bannedWordFilter struct{ word string }

func (b bannedWordFilter) IsProfane(text string) bool {
	return b.word != "" && text == b.word
}

func newRelay() *RelayService {
	return NewRelayService(registry.New(), bannedWordFilter{word: "badger"}, "Welcome!")
}

func attach(r *RelayService, id string) *fakeSession {
	s := &fakeSession{id: id}
	r.Attach(s)
	return s
}

func messagesOf(events []recordedEvent) []domain.Message {
	var out []domain.Message
	for _, e := range events {
		if e.Event == EventMessage {
			out = append(out, e.Payload.(domain.Message))
		}
	}
	return out
}

func rostersOf(events []recordedEvent) []RoomData {
	var out []RoomData
	for _, e := range events {
		if e.Event == EventRoomData {
			out = append(out, e.Payload.(RoomData))
		}
	}
	return out
}

func TestRelay_Join_WelcomeAndRoster(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	alice := attach(relay, "conn-a")

	req.NoError(relay.Join("conn-a", " Alice ", " Lobby "))

	msgs := messagesOf(alice.recorded())
	req.Len(msgs, 1)
	req.Equal("Welcome!", msgs[0].Text)
	req.Equal(AdminSender, msgs[0].Username)
	req.NotZero(msgs[0].CreatedAt)

	rosters := rostersOf(alice.recorded())
	req.Len(rosters, 1)
	req.Equal("lobby", rosters[0].Room)
	req.Equal([]RosterItem{{Username: "alice", Room: "lobby"}}, rosters[0].Users)
}

func TestRelay_Join_NotifiesPeers(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	alice := attach(relay, "conn-a")
	bob := attach(relay, "conn-b")

	req.NoError(relay.Join("conn-a", "alice", "lobby"))
	alice.clear()

	req.NoError(relay.Join("conn-b", "bob", "lobby"))

	// alice sees the join notice and the refreshed roster
	msgs := messagesOf(alice.recorded())
	req.Len(msgs, 1)
	req.Equal("bob has joined!", msgs[0].Text)
	req.Equal("bob", msgs[0].Username)

	wantUsers := []RosterItem{
		{Username: "alice", Room: "lobby"},
		{Username: "bob", Room: "lobby"},
	}
	req.Equal(wantUsers, rostersOf(alice.recorded())[0].Users)

	// bob gets the welcome, not his own join notice, plus the same roster
	bobMsgs := messagesOf(bob.recorded())
	req.Len(bobMsgs, 1)
	req.Equal("Welcome!", bobMsgs[0].Text)
	req.Equal(wantUsers, rostersOf(bob.recorded())[0].Users)
}

func TestRelay_Join_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	attach(relay, "conn-a")
	intruder := attach(relay, "conn-b")

	req.NoError(relay.Join("conn-a", "bob", "lobby"))

	err := relay.Join("conn-b", "BOB", "Lobby")
	req.ErrorIs(err, domain.ErrUsernameTaken)

	// the loser never appears in any roster
	req.Empty(intruder.recorded())
	roster, err := relay.Roster("lobby")
	req.NoError(err)
	req.Equal([]RosterItem{{Username: "bob", Room: "lobby"}}, roster.Users)
}

func TestRelay_Join_InvalidInput(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	alice := attach(relay, "conn-a")

	req.ErrorIs(relay.Join("conn-a", "  ", "lobby"), domain.ErrInvalidInput)
	req.Empty(alice.recorded())
}

func TestRelay_Message_FanOutIncludesSender(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	alice := attach(relay, "conn-a")
	bob := attach(relay, "conn-b")
	req.NoError(relay.Join("conn-a", "alice", "lobby"))
	req.NoError(relay.Join("conn-b", "bob", "lobby"))
	alice.clear()
	bob.clear()

	ack, err := relay.Message("conn-a", "hello")
	req.NoError(err)
	req.Equal("Delivered!", ack)

	for _, sess := range []*fakeSession{alice, bob} {
		msgs := messagesOf(sess.recorded())
		req.Len(msgs, 1)
		req.Equal("alice", msgs[0].Username)
		req.Equal("hello", msgs[0].Text)
	}
}

func TestRelay_Message_ProfanityNeverRelayed(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	alice := attach(relay, "conn-a")
	bob := attach(relay, "conn-b")
	req.NoError(relay.Join("conn-a", "alice", "lobby"))
	req.NoError(relay.Join("conn-b", "bob", "lobby"))
	alice.clear()
	bob.clear()

	_, err := relay.Message("conn-a", "badger")
	req.ErrorIs(err, domain.ErrProfanity)
	req.Empty(alice.recorded())
	req.Empty(bob.recorded())
}

func TestRelay_Message_UnknownSender(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	attach(relay, "conn-a")

	// disconnect race: session attached but identity already gone
	_, err := relay.Message("conn-a", "hello")
	req.ErrorIs(err, domain.ErrUserNotFound)
}

func TestRelay_ShareLocation_ExcludesSender(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	alice := attach(relay, "conn-a")
	bob := attach(relay, "conn-b")
	req.NoError(relay.Join("conn-a", "alice", "lobby"))
	req.NoError(relay.Join("conn-b", "bob", "lobby"))
	alice.clear()
	bob.clear()

	ack, err := relay.ShareLocation("conn-a", 40.7128, -74.006)
	req.NoError(err)
	req.Equal("Received your location!", ack)

	req.Empty(alice.recorded())
	events := bob.recorded()
	req.Len(events, 1)
	req.Equal(EventLocationMessage, events[0].Event)
	loc := events[0].Payload.(domain.LocationMessage)
	req.Equal("alice", loc.Username)
	req.Equal("https://google.com/maps?q=40.7128,-74.006", loc.LocationURL)
}

func TestRelay_ShareLocation_NoPeersStillAcked(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	attach(relay, "conn-a")
	req.NoError(relay.Join("conn-a", "alice", "lobby"))

	ack, err := relay.ShareLocation("conn-a", 1, 2)
	req.NoError(err)
	req.Equal("Received your location!", ack)
}

func TestRelay_Disconnect_NotifiesRoom(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	alice := attach(relay, "conn-a")
	req.NoError(relay.Join("conn-a", "alice", "lobby"))
	bob := attach(relay, "conn-b")
	req.NoError(relay.Join("conn-b", "bob", "lobby"))
	alice.clear()
	bob.clear()

	relay.Disconnect("conn-b")

	msgs := messagesOf(alice.recorded())
	req.Len(msgs, 1)
	req.Equal("bob has left!", msgs[0].Text)
	req.Equal(AdminSender, msgs[0].Username)

	rosters := rostersOf(alice.recorded())
	req.Len(rosters, 1)
	req.Equal([]RosterItem{{Username: "alice", Room: "lobby"}}, rosters[0].Users)

	// bob is detached, nothing reaches him anymore
	req.Empty(bob.recorded())
}

func TestRelay_Disconnect_NeverJoinedIsSilent(t *testing.T) {
	req := require.New(t)
	relay := newRelay()
	alice := attach(relay, "conn-a")
	req.NoError(relay.Join("conn-a", "alice", "lobby"))
	attach(relay, "conn-b")
	alice.clear()

	relay.Disconnect("conn-b")
	req.Empty(alice.recorded())
}
