package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zhouzirui/z-scheduler/backend/internal/analysis/dateparse"
	"github.com/zhouzirui/z-scheduler/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-scheduler/backend/internal/model/chat"
	"github.com/zhouzirui/z-scheduler/backend/internal/service/booking"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	greetingText    = "👋 Hello! I'm your scheduling assistant. Just tell me when you'd like to book a meeting!"
	confirmedText   = "🎉 **Appointment Confirmed!** I’ve scheduled your meeting. Let me know if you want to book another!"
	pickAnotherText = "👌 No worries. Please pick another slot number."
)

// DateResolver turns an utterance into a target date.
type DateResolver interface {
	Resolve(ctx context.Context, utterance string, now time.Time) dateparse.Result
}

// SlotFinder lists the bookable slots of a day.
type SlotFinder interface {
	ForDate(ctx context.Context, date time.Time) ([]string, error)
}

type transition func(ctx context.Context, session *chat.Session, message string) (chat.Reply, error)

// Service drives the scheduling conversation for every session.
type Service struct {
	store       SessionStore
	dates       DateResolver
	slots       SlotFinder
	booker      booking.Booker
	now         func() time.Time
	locks       *sessionLocks
	transitions map[chat.State]transition
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for date resolution and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the conversation engine. A nil store falls back to memory and a nil
// booker to the logging booker.
func NewService(store SessionStore, dates DateResolver, slots SlotFinder, booker booking.Booker, opts ...Option) (*Service, error) {
	if dates == nil {
		return nil, fmt.Errorf("date resolver is required")
	}
	if slots == nil {
		return nil, fmt.Errorf("slot finder is required")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if booker == nil {
		booker = booking.NewLogBooker()
	}

	s := &Service{
		store:  store,
		dates:  dates,
		slots:  slots,
		booker: booker,
		now:    time.Now,
		locks:  newSessionLocks(),
	}
	s.transitions = map[chat.State]transition{
		chat.StateGreeting:      s.onGreeting,
		chat.StateSlotSelection: s.onSlotSelection,
		chat.StateConfirmation:  s.onConfirmation,
		chat.StateDone:          s.onGreeting,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HandleMessage runs one conversation turn. The session is only updated when the turn
// succeeds; turns of the same session are serialized.
func (s *Service) HandleMessage(ctx context.Context, sessionID, message string) (chat.Reply, error) {
	if sessionID == "" {
		sessionID = chat.DefaultSessionID
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if !ok {
		session = chat.NewSession(sessionID)
		log.Printf("[chat] new session=%s", sessionID)
	}

	step, ok := s.transitions[session.State]
	if !ok {
		return chat.Reply{}, fmt.Errorf("session %s has unknown state %q", sessionID, session.State)
	}

	working := session.Clone()
	reply, err := step(ctx, &working, message)
	if err != nil {
		return chat.Reply{}, err
	}

	working.UpdatedAt = s.now().UTC()
	if err := s.store.Put(ctx, working); err != nil {
		return chat.Reply{}, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	if session.State != working.State {
		log.Printf("[chat] session=%s %s -> %s", sessionID, session.State, working.State)
	}
	return reply, nil
}

// GetSession returns the current snapshot of a session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	session, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return chat.Session{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) onGreeting(ctx context.Context, session *chat.Session, message string) (chat.Reply, error) {
	if !intent.Matches(message, intent.Booking) {
		session.State = chat.StateGreeting
		return chat.TextReply(greetingText), nil
	}

	result := s.dates.Resolve(ctx, message, s.now())
	offered, err := s.slots.ForDate(ctx, result.Date)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("find slots: %w", err)
	}
	log.Printf("[chat] session=%s date=%s source=%s slots=%d", session.ID, result.Date.Format("2006-01-02"), result.Source, len(offered))

	session.SelectedSlot = ""
	if len(offered) == 0 {
		session.State = chat.StateGreeting
		session.ProposedSlots = []string{}
		return chat.TextReply(noSlotsText(result.Date)), nil
	}

	session.State = chat.StateSlotSelection
	session.ProposedSlots = offered
	return chat.Reply{
		Response:       slotListText(offered),
		AvailableSlots: append([]string(nil), offered...),
	}, nil
}

func (s *Service) onSlotSelection(_ context.Context, session *chat.Session, message string) (chat.Reply, error) {
	digit, ok := intent.SlotIndex(message)
	if !ok || digit < 1 || digit > len(session.ProposedSlots) {
		return chat.TextReply(invalidSlotText(len(session.ProposedSlots))), nil
	}

	slot := session.ProposedSlots[digit-1]
	session.SelectedSlot = slot
	session.State = chat.StateConfirmation
	return chat.TextReply(fmt.Sprintf("✅ Great! I will book your appointment for: **%s**\n\nPlease confirm by replying 'yes'.", slot)), nil
}

func (s *Service) onConfirmation(ctx context.Context, session *chat.Session, message string) (chat.Reply, error) {
	if !intent.Matches(message, intent.Confirm) {
		session.SelectedSlot = ""
		session.State = chat.StateSlotSelection
		return chat.TextReply(pickAnotherText), nil
	}

	record, err := s.booker.Book(ctx, booking.Request{SessionID: session.ID, Slot: session.SelectedSlot})
	if err != nil {
		log.Printf("[chat] session=%s booking failed: %v", session.ID, err)
		return chat.TextReply(bookingFailedText(session.SelectedSlot, err)), nil
	}

	log.Printf("[chat] session=%s booked id=%s", session.ID, record.ID)
	session.State = chat.StateDone
	reply := chat.TextReply(confirmedText)
	reply.BookingConfirmed = true
	return reply, nil
}

func slotListText(slots []string) string {
	var b strings.Builder
	b.WriteString("📅 **Here are your available time slots:**\n\n")
	for i, slot := range slots {
		fmt.Fprintf(&b, "**%d.** %s\n", i+1, slot)
	}
	b.WriteString("\n👉 _Please reply with a slot number (e.g., 1, 2, 3)..._")
	return b.String()
}

func noSlotsText(date time.Time) string {
	return fmt.Sprintf("😕 There are no open slots on %s. Try another day?", date.Format("January 02, 2006"))
}

func invalidSlotText(count int) string {
	if count < 1 {
		count = 1
	}
	return fmt.Sprintf("⚠️ Please reply with a valid slot number (1–%d).", count)
}

func bookingFailedText(slot string, err error) string {
	if errors.Is(err, booking.ErrSlotConflict) {
		return fmt.Sprintf("⚠️ Sorry, **%s** was just booked by someone else. Reply 'no' to pick another slot.", slot)
	}
	return fmt.Sprintf("⚠️ I couldn't reach the calendar to book **%s**. Reply 'yes' to try again or 'no' to pick another slot.", slot)
}
