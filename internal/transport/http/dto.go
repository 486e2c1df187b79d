package http

type ErrorResponse struct {
	Error string `json:"error"`
}

type RosterUser struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

type RosterResponse struct {
	Room  string       `json:"room"`
	Users []RosterUser `json:"users"`
}
