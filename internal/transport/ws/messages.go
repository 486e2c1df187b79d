package ws

// Client-originated event types. Server-originated event names live in the
// service package; both directions share the same envelope.
const (
	EventJoin         = "join"         // {username, room}
	EventMessage      = "message"      // raw text
	EventSendLocation = "sendLocation" // {lat, long}
	EventAck          = "ack"          // answers exactly one client event
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

type LocationPayload struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// AckPayload carries the single acknowledgment for one client event back to
// the connection that sent it. Error and Text are mutually exclusive.
type AckPayload struct {
	Event string `json:"event"`
	Error string `json:"error,omitempty"`
	Text  string `json:"text,omitempty"`
}
