package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSlotConflict means the slot was taken between offering and confirming it.
	ErrSlotConflict = errors.New("slot already booked")
	// ErrCalendarUnavailable means the booking backend could not be reached.
	ErrCalendarUnavailable = errors.New("calendar unavailable")
)

// Request names the slot a session wants to book.
type Request struct {
	SessionID string
	Slot      string
}

// Record is a successful booking.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Slot      string    `json:"slot"`
	BookedAt  time.Time `json:"bookedAt"`
}

// Booker performs the booking side effect. Implementations return errors wrapping
// ErrSlotConflict or ErrCalendarUnavailable so callers can re-prompt.
type Booker interface {
	Book(ctx context.Context, req Request) (Record, error)
}

// NewRecord stamps a request with a fresh id and time.
func NewRecord(req Request, now time.Time) Record {
	return Record{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		Slot:      req.Slot,
		BookedAt:  now.UTC(),
	}
}

// LogBooker acknowledges every booking and only logs it.
type LogBooker struct {
	now func() time.Time
}

// NewLogBooker returns the default booker used without a ledger.
func NewLogBooker() *LogBooker {
	return &LogBooker{now: time.Now}
}

// Book always succeeds.
func (b *LogBooker) Book(_ context.Context, req Request) (Record, error) {
	record := NewRecord(req, b.now())
	log.Printf("[booking] confirmed slot=%q session=%s id=%s", record.Slot, record.SessionID, record.ID)
	return record, nil
}
