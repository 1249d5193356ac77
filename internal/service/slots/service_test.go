package slots

import (
	"context"
	"errors"
	"testing"
	"time"

	calendarmodel "github.com/zhouzirui/z-scheduler/backend/internal/model/calendar"
)

type countingSource struct {
	busy  calendarmodel.BusySet
	err   error
	calls int
}

func (c *countingSource) Busy(_ context.Context) (calendarmodel.BusySet, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.busy, nil
}

func TestAvailableSkipsBusyHours(t *testing.T) {
	day := time.Date(2025, 6, 28, 16, 45, 0, 0, time.Local)
	busy := calendarmodel.NewBusySet(calendarmodel.Seed()...)

	got := Available(day, busy)
	want := []string{
		"June 28, 2025 at 09:00 AM",
		"June 28, 2025 at 11:00 AM",
		"June 28, 2025 at 12:00 PM",
		"June 28, 2025 at 01:00 PM",
		"June 28, 2025 at 03:00 PM",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestAvailableIsCappedAndOrdered(t *testing.T) {
	day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local)
	got := Available(day, calendarmodel.NewBusySet())
	if len(got) != MaxOffered {
		t.Fatalf("expected %d slots, got %d", MaxOffered, len(got))
	}

	var prev time.Time
	for i, s := range got {
		ts, err := time.ParseInLocation(DisplayLayout, s, time.Local)
		if err != nil {
			t.Fatalf("slot %q does not round-trip: %v", s, err)
		}
		if i > 0 && !ts.After(prev) {
			t.Fatalf("slots not increasing: %v", got)
		}
		prev = ts
	}
	if got[0] != "July 01, 2025 at 09:00 AM" {
		t.Fatalf("unexpected first slot %q", got[0])
	}
}

func TestAvailableLateHoursWhenMorningBusy(t *testing.T) {
	day := time.Date(2025, 7, 2, 0, 0, 0, 0, time.Local)
	busy := calendarmodel.NewBusySet(
		"2025-07-02T09:00:00", "2025-07-02T10:00:00", "2025-07-02T11:00:00",
		"2025-07-02T12:00:00", "2025-07-02T13:00:00", "2025-07-02T14:00:00",
		"2025-07-02T15:00:00",
	)

	got := Available(day, busy)
	if len(got) != 2 || got[0] != "July 02, 2025 at 04:00 PM" || got[1] != "July 02, 2025 at 05:00 PM" {
		t.Fatalf("unexpected slots %v", got)
	}
}

func TestServiceCachesPerDay(t *testing.T) {
	src := &countingSource{busy: calendarmodel.NewBusySet(calendarmodel.Seed()...)}
	svc, err := NewService(src, 4)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	day := time.Date(2025, 6, 28, 8, 0, 0, 0, time.Local)
	first, err := svc.ForDate(context.Background(), day)
	if err != nil {
		t.Fatalf("ForDate err: %v", err)
	}
	first[0] = "mutated"

	second, err := svc.ForDate(context.Background(), day.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ForDate err: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected one source read, got %d", src.calls)
	}
	if second[0] != "June 28, 2025 at 09:00 AM" {
		t.Fatalf("cache leaked caller mutation: %v", second)
	}
}

func TestServicePropagatesSourceError(t *testing.T) {
	svc, err := NewService(&countingSource{err: errors.New("calendar down")}, 0)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	if _, err := svc.ForDate(context.Background(), time.Now()); err == nil {
		t.Fatal("expected source error")
	}
}

func TestNewServiceRequiresSource(t *testing.T) {
	if _, err := NewService(nil, 1); err == nil {
		t.Fatal("expected error without source")
	}
}
