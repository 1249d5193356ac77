package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/zhouzirui/z-scheduler/backend/internal/service/booking"
)

const testSlot = "June 29, 2025 at 09:00 AM"

func newLedger(t *testing.T) (*BookingLedger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New err: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewBookingLedger(db), mock
}

func TestBookingLedgerEnsureSchema(t *testing.T) {
	ledger, mock := newLedger(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS bookings")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := ledger.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema err: %v", err)
	}
}

func TestBookingLedgerBook(t *testing.T) {
	ledger, mock := newLedger(t)
	mock.ExpectExec(regexp.QuoteMeta(insertBooking)).
		WithArgs(sqlmock.AnyArg(), "s1", testSlot, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record, err := ledger.Book(context.Background(), booking.Request{SessionID: "s1", Slot: testSlot})
	if err != nil {
		t.Fatalf("Book err: %v", err)
	}
	if record.ID == "" || record.Slot != testSlot {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestBookingLedgerConflict(t *testing.T) {
	ledger, mock := newLedger(t)
	mock.ExpectExec(regexp.QuoteMeta(insertBooking)).
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value"})

	_, err := ledger.Book(context.Background(), booking.Request{SessionID: "s2", Slot: testSlot})
	if !errors.Is(err, booking.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestBookingLedgerUnavailable(t *testing.T) {
	ledger, mock := newLedger(t)
	mock.ExpectExec(regexp.QuoteMeta(insertBooking)).
		WillReturnError(errors.New("connection refused"))

	_, err := ledger.Book(context.Background(), booking.Request{SessionID: "s1", Slot: testSlot})
	if !errors.Is(err, booking.ErrCalendarUnavailable) {
		t.Fatalf("expected ErrCalendarUnavailable, got %v", err)
	}
	if errors.Is(err, booking.ErrSlotConflict) {
		t.Fatal("connection failure must not look like a conflict")
	}
}

func TestBookingLedgerBookedSlots(t *testing.T) {
	ledger, mock := newLedger(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectBookedSlots)).
		WillReturnRows(sqlmock.NewRows([]string{"slot"}).
			AddRow(testSlot).
			AddRow("June 29, 2025 at 11:00 AM"))

	slots, err := ledger.BookedSlots(context.Background())
	if err != nil {
		t.Fatalf("BookedSlots err: %v", err)
	}
	if len(slots) != 2 || slots[0] != testSlot {
		t.Fatalf("unexpected slots %v", slots)
	}
}

func TestBookingLedgerBookedSlotsQueryError(t *testing.T) {
	ledger, mock := newLedger(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectBookedSlots)).
		WillReturnError(errors.New("connection refused"))

	if _, err := ledger.BookedSlots(context.Background()); err == nil {
		t.Fatal("expected query error")
	}
}
