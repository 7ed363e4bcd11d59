package models

import "time"

// HuntingSeason is a date range with a harvest plan. At most one is active.
type HuntingSeason struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DateFrom  time.Time `json:"date_from"`
	DateTo    time.Time `json:"date_to"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Window returns [dateFrom 00:00, dateTo+1day 00:00) in UTC, so the whole
// last day counts towards the season.
func (s *HuntingSeason) Window() (from, to time.Time) {
	from = CalendarDay(s.DateFrom)
	to = CalendarDay(s.DateTo).AddDate(0, 0, 1)
	return from, to
}

// Covers reports whether t falls inside the season window.
func (s *HuntingSeason) Covers(t time.Time) bool {
	from, to := s.Window()
	t = t.UTC()
	return !t.Before(from) && t.Before(to)
}

// HarvestPlanItem is the planned count for one species in a season.
// Taken and remaining counts are derived, never stored.
type HarvestPlanItem struct {
	ID           int64     `json:"id"`
	SeasonID     int64     `json:"season_id"`
	SpeciesID    int64     `json:"species_id"`
	PlannedCount int       `json:"planned_count"`
	Note         string    `json:"note,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TruncateDay returns midnight UTC of t's day.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CalendarDay returns midnight UTC of the date t shows in its own location.
// Season bounds are calendar dates, so 2026-01-15T00:00+02:00 stays the 15th.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
