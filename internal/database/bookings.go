package database

import (
	"context"
	"fmt"
	"time"

	"revir/internal/models"
)

const bookingSelect = `
	SELECT b.id, b.cabin_id, b.member_id, m.display_name, b.start_at, b.end_at, b.title, b.note,
		b.status, b.created_at, b.updated_at
	FROM cabin_bookings b
	JOIN members m ON m.id = b.member_id`

func scanBooking(row rowScanner) (*models.CabinBooking, error) {
	var b models.CabinBooking
	err := row.Scan(&b.ID, &b.CabinID, &b.MemberID, &b.MemberName, &b.StartAt, &b.EndAt,
		&b.Title, &b.Note, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.StartAt = utc(b.StartAt)
	b.EndAt = utc(b.EndAt)
	b.CreatedAt = utc(b.CreatedAt)
	b.UpdatedAt = utc(b.UpdatedAt)
	return &b, nil
}

func (t *tx) GetBooking(ctx context.Context, id int64) (*models.CabinBooking, error) {
	b, err := scanBooking(t.queryRow(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return b, nil
}

// ListConfirmedBookings uses inclusive bounds so that zero-length bookings
// at the edges are returned too; the caller applies the strict rule.
func (t *tx) ListConfirmedBookings(ctx context.Context, cabinID int64, from, to time.Time) ([]models.CabinBooking, error) {
	rows, err := t.query(ctx, bookingSelect+`
		WHERE b.cabin_id = ? AND b.status = ? AND b.start_at <= ? AND b.end_at >= ?
		ORDER BY b.start_at, b.id`,
		cabinID, string(models.BookingConfirmed), to.UTC(), from.UTC())
	if err != nil {
		return nil, fmt.Errorf("list bookings of cabin %d: %w", cabinID, err)
	}
	defer rows.Close()

	var bookings []models.CabinBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (t *tx) CreateBooking(ctx context.Context, b *models.CabinBooking) error {
	now := time.Now().UTC()
	b.StartAt = utc(b.StartAt)
	b.EndAt = utc(b.EndAt)
	if b.Status == "" {
		b.Status = models.BookingConfirmed
	}
	err := t.queryRow(ctx, `
		INSERT INTO cabin_bookings (cabin_id, member_id, start_at, end_at, title, note, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		b.CabinID, b.MemberID, b.StartAt, b.EndAt, b.Title, b.Note, string(b.Status), now, now,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func (t *tx) UpdateBooking(ctx context.Context, b *models.CabinBooking) error {
	b.UpdatedAt = time.Now().UTC()
	b.StartAt = utc(b.StartAt)
	b.EndAt = utc(b.EndAt)
	res, err := t.exec(ctx, `
		UPDATE cabin_bookings SET start_at = ?, end_at = ?, title = ?, note = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		b.StartAt, b.EndAt, b.Title, b.Note, string(b.Status), b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update booking %d: %w", b.ID, err)
	}
	return expectOne(res, "booking", b.ID)
}

func (t *tx) DeleteBooking(ctx context.Context, id int64) error {
	res, err := t.exec(ctx, `DELETE FROM cabin_bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	return expectOne(res, "booking", id)
}
