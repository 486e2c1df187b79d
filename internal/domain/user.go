package domain

// User is one live participant: the transport-assigned connection id plus the
// normalized (username, room) pair bound at join time. Immutable after creation;
// owned by the registry, everyone else works with copies.
type User struct {
	ID       string `json:"-"`
	Username string `json:"username"`
	Room     string `json:"room"`
}
