package calendar

import (
	"context"
	"sort"
	"time"
)

// TimestampLayout is the ISO form, without zone, used for busy entries.
const TimestampLayout = "2006-01-02T15:04:05"

// BusySet holds already-occupied hourly slot starts.
type BusySet map[string]struct{}

// NewBusySet builds a set from ISO timestamps.
func NewBusySet(timestamps ...string) BusySet {
	set := make(BusySet, len(timestamps))
	for _, ts := range timestamps {
		set[ts] = struct{}{}
	}
	return set
}

// Contains reports whether the exact timestamp is busy.
func (b BusySet) Contains(timestamp string) bool {
	_, ok := b[timestamp]
	return ok
}

// ContainsTime formats t with TimestampLayout and checks membership.
func (b BusySet) ContainsTime(t time.Time) bool {
	return b.Contains(t.Format(TimestampLayout))
}

// Add marks t as busy.
func (b BusySet) Add(t time.Time) {
	b[t.Format(TimestampLayout)] = struct{}{}
}

// Sorted returns the entries in chronological order.
func (b BusySet) Sorted() []string {
	out := make([]string, 0, len(b))
	for ts := range b {
		out = append(out, ts)
	}
	sort.Strings(out)
	return out
}

// Source exposes the busy calendar to slot generation.
type Source interface {
	Busy(ctx context.Context) (BusySet, error)
}

// Static is a fixed, in-memory busy calendar.
type Static struct {
	set BusySet
}

// NewStatic returns a Static source over a copy of the supplied timestamps.
func NewStatic(timestamps ...string) *Static {
	return &Static{set: NewBusySet(timestamps...)}
}

// Busy returns a copy of the fixed set.
func (s *Static) Busy(_ context.Context) (BusySet, error) {
	return NewBusySet(s.set.Sorted()...), nil
}

// Seed provides the mocked busy calendar the assistant ships with.
func Seed() []string {
	return []string{
		"2025-06-28T10:00:00",
		"2025-06-28T14:00:00",
	}
}
