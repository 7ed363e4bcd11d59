package models

import (
	"time"

	"revir/internal/interval"
)

// Cabin is a bookable shared cabin.
type Cabin struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	IsActive bool   `json:"is_active" yaml:"-"`
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// CabinBooking represents a cabin reservation.
type CabinBooking struct {
	ID         int64         `json:"id"`
	CabinID    int64         `json:"cabin_id"`
	MemberID   int64         `json:"member_id"`
	MemberName string        `json:"member_name,omitempty"`
	StartAt    time.Time     `json:"start_at"`
	EndAt      time.Time     `json:"end_at"`
	Title      string        `json:"title,omitempty"`
	Note       string        `json:"note,omitempty"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// IsConfirmed returns true for bookings that still hold the cabin.
func (b *CabinBooking) IsConfirmed() bool {
	return b.Status == BookingConfirmed
}

// Range returns the booked period.
func (b *CabinBooking) Range() interval.Range {
	return interval.Closed(b.StartAt, b.EndAt)
}

// OverlapsWith checks if this booking overlaps with another booking.
// Bookings that only touch at a boundary do not overlap.
func (b *CabinBooking) OverlapsWith(other *CabinBooking) bool {
	return interval.Overlaps(b.Range(), other.Range())
}

// DayAvailability is one day of a cabin's availability calendar.
type DayAvailability struct {
	Date      time.Time `json:"date"`
	Available bool      `json:"available"`
	BookedBy  []string  `json:"booked_by,omitempty"`
}
