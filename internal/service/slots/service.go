package slots

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	calendarmodel "github.com/zhouzirui/z-scheduler/backend/internal/model/calendar"
)

const (
	// FirstHour and LastHour bound the bookable start times, inclusive.
	FirstHour = 9
	LastHour  = 17
	// MaxOffered caps how many slots a single turn proposes.
	MaxOffered = 5

	// DisplayLayout renders a slot for the user, e.g. "June 29, 2025 at 09:00 AM".
	DisplayLayout = "January 02, 2006 at 03:04 PM"

	dayKeyLayout     = "2006-01-02"
	defaultCacheSize = 128
)

// Available lists the open hourly slots of date's day, earliest first, capped at MaxOffered.
func Available(date time.Time, busy calendarmodel.BusySet) []string {
	out := make([]string, 0, MaxOffered)
	for hour := FirstHour; hour <= LastHour; hour++ {
		slot := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
		if busy.ContainsTime(slot) {
			continue
		}
		out = append(out, slot.Format(DisplayLayout))
		if len(out) == MaxOffered {
			break
		}
	}
	return out
}

// Service computes availability against a calendar source and caches it per day.
// Slots passed to MarkBooked are treated as busy on top of the source.
type Service struct {
	source calendarmodel.Source
	cache  *lru.Cache[string, []string]
	booked calendarmodel.BusySet
	mu     sync.Mutex
}

// NewService wires a calendar source; cacheSize <= 0 uses the default size.
func NewService(source calendarmodel.Source, cacheSize int) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("calendar source is required")
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot cache: %w", err)
	}

	return &Service{source: source, cache: cache, booked: calendarmodel.NewBusySet()}, nil
}

// ForDate returns the offered slots for date's day.
func (s *Service) ForDate(ctx context.Context, date time.Time) ([]string, error) {
	key := date.Format(dayKeyLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache.Get(key); ok {
		return append([]string(nil), cached...), nil
	}

	busy, err := s.source.Busy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load busy calendar: %w", err)
	}

	if len(s.booked) > 0 {
		merged := calendarmodel.NewBusySet(busy.Sorted()...)
		for ts := range s.booked {
			merged[ts] = struct{}{}
		}
		busy = merged
	}

	offered := Available(date, busy)
	s.cache.Add(key, offered)
	log.Printf("[slots] computed %d slots for %s", len(offered), key)

	return append([]string(nil), offered...), nil
}

// MarkBooked stops offering slot, given in DisplayLayout, and drops its cached day.
func (s *Service) MarkBooked(slot string) error {
	ts, err := time.ParseInLocation(DisplayLayout, slot, time.Local)
	if err != nil {
		return fmt.Errorf("parse slot %q: %w", slot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.booked.Add(ts)
	s.cache.Remove(ts.Format(dayKeyLayout))
	return nil
}
