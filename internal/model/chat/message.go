package chat

// DefaultSessionID is used when a request does not name a session.
const DefaultSessionID = "default"

// Request is one inbound chat turn.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Reply is the structured answer to a turn.
type Reply struct {
	Response         string   `json:"response"`
	AvailableSlots   []string `json:"available_slots"`
	BookingConfirmed bool     `json:"booking_confirmed"`
}

// TextReply builds a reply carrying only text.
func TextReply(text string) Reply {
	return Reply{Response: text, AvailableSlots: []string{}}
}
