package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/zhouzirui/z-scheduler/backend/internal/service/booking"
)

const uniqueViolation = pq.ErrorCode("23505")

const bookingsSchema = `CREATE TABLE IF NOT EXISTS bookings (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	slot       TEXT NOT NULL UNIQUE,
	booked_at  TIMESTAMPTZ NOT NULL
)`

const insertBooking = `INSERT INTO bookings (id, session_id, slot, booked_at) VALUES ($1, $2, $3, $4)`

// ConnectPostgres opens a pooled connection and verifies it.
func ConnectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}

	log.Printf("[storage] connected to postgres")
	return db, nil
}

// BookingLedger records bookings in the bookings table; a slot can be booked once.
type BookingLedger struct {
	db  *sql.DB
	now func() time.Time
}

// NewBookingLedger wraps an open database handle.
func NewBookingLedger(db *sql.DB) *BookingLedger {
	return &BookingLedger{db: db, now: time.Now}
}

// EnsureSchema creates the bookings table when missing.
func (l *BookingLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, bookingsSchema); err != nil {
		return fmt.Errorf("create bookings table: %w", err)
	}
	return nil
}

// Book inserts the booking. A slot that is already taken yields booking.ErrSlotConflict;
// every other database failure wraps booking.ErrCalendarUnavailable.
func (l *BookingLedger) Book(ctx context.Context, req booking.Request) (booking.Record, error) {
	record := booking.NewRecord(req, l.now())

	_, err := l.db.ExecContext(ctx, insertBooking, record.ID, record.SessionID, record.Slot, record.BookedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return booking.Record{}, fmt.Errorf("slot %q: %w", req.Slot, booking.ErrSlotConflict)
		}
		return booking.Record{}, fmt.Errorf("insert booking: %v: %w", err, booking.ErrCalendarUnavailable)
	}

	log.Printf("[booking] stored slot=%q session=%s id=%s", record.Slot, record.SessionID, record.ID)
	return record, nil
}

const selectBookedSlots = `SELECT slot FROM bookings ORDER BY booked_at`

// BookedSlots lists every slot already in the ledger.
func (l *BookingLedger) BookedSlots(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, selectBookedSlots)
	if err != nil {
		return nil, fmt.Errorf("query booked slots: %w", err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("scan booked slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read booked slots: %w", err)
	}
	return slots, nil
}
