package slots

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zhouzirui/z-scheduler/backend/internal/service/booking"
)

// BookedLister reports the slots a booking backend already holds.
type BookedLister interface {
	BookedSlots(ctx context.Context) ([]string, error)
}

// TrackingBooker forwards bookings and marks every taken slot on the slot service.
type TrackingBooker struct {
	next  booking.Booker
	slots *Service
}

// TrackBookings wraps next so booked and conflicting slots are no longer offered.
func TrackBookings(next booking.Booker, svc *Service) *TrackingBooker {
	return &TrackingBooker{next: next, slots: svc}
}

// Book forwards to the wrapped booker. A conflict also marks the slot, since the
// backend has it taken.
func (t *TrackingBooker) Book(ctx context.Context, req booking.Request) (booking.Record, error) {
	record, err := t.next.Book(ctx, req)
	if err == nil || errors.Is(err, booking.ErrSlotConflict) {
		if markErr := t.slots.MarkBooked(req.Slot); markErr != nil {
			log.Printf("[slots] could not mark slot %q booked: %v", req.Slot, markErr)
		}
	}
	return record, err
}

// Preload marks every slot the lister already holds.
func (s *Service) Preload(ctx context.Context, lister BookedLister) error {
	booked, err := lister.BookedSlots(ctx)
	if err != nil {
		return fmt.Errorf("list booked slots: %w", err)
	}

	for _, slot := range booked {
		if err := s.MarkBooked(slot); err != nil {
			log.Printf("[slots] skipping stored slot: %v", err)
		}
	}
	log.Printf("[slots] preloaded %d booked slots", len(booked))
	return nil
}
