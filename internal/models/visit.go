package models

import (
	"time"

	"revir/internal/interval"
)

// Locality is a hunting area that can be occupied by one open visit at a time.
type Locality struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	IsActive bool   `json:"is_active" yaml:"-"`
}

// Visit is a member's presence in a locality.
type Visit struct {
	ID         int64      `json:"id"`
	MemberID   int64      `json:"member_id"`
	LocalityID int64      `json:"locality_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"` // nil while the visit is open
	HasGuest   bool       `json:"has_guest"`
	GuestName  string     `json:"guest_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsOpen returns true while the visit has no end date.
func (v *Visit) IsOpen() bool {
	return v.EndDate == nil
}

// Range returns the visit window. Open visits extend to +∞.
func (v *Visit) Range() interval.Range {
	return interval.Range{Start: v.StartDate, End: v.EndDate}
}
