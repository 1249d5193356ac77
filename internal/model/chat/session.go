package chat

import "time"

// State is the position of a session in the booking conversation.
type State string

const (
	StateGreeting      State = "greeting"
	StateSlotSelection State = "slot_selection"
	StateConfirmation  State = "confirmation"
	StateDone          State = "done"
)

// States lists every conversation state in flow order.
func States() []State {
	return []State{StateGreeting, StateSlotSelection, StateConfirmation, StateDone}
}

// Session captures one conversational thread keyed by an opaque identifier.
type Session struct {
	ID            string    `json:"id"`
	State         State     `json:"state"`
	ProposedSlots []string  `json:"proposedSlots"`
	SelectedSlot  string    `json:"selectedSlot,omitempty"` // empty until a valid index is picked
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewSession returns a fresh session in the greeting state.
func NewSession(id string) Session {
	return Session{
		ID:            id,
		State:         StateGreeting,
		ProposedSlots: []string{},
	}
}

// Clone returns a deep copy so callers never share slot slices with a store.
func (s Session) Clone() Session {
	out := s
	out.ProposedSlots = append([]string(nil), s.ProposedSlots...)
	if out.ProposedSlots == nil {
		out.ProposedSlots = []string{}
	}
	return out
}
