package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"revir/internal/apperr"
	"revir/internal/events"
	"revir/internal/interval"
	"revir/internal/metrics"
	"revir/internal/models"
	"revir/internal/repository"
)

// MaxAvailabilityDays bounds the availability calendar.
const MaxAvailabilityDays = 90

type CreateBookingRequest struct {
	CabinID  int64     `json:"cabin_id"`
	MemberID int64     `json:"member_id"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	Title    string    `json:"title,omitempty"`
	Note     string    `json:"note,omitempty"`
}

// UpdateBookingRequest carries only the fields to change; nil keeps the stored value.
type UpdateBookingRequest struct {
	BookingID int64      `json:"booking_id"`
	StartAt   *time.Time `json:"start_at,omitempty"`
	EndAt     *time.Time `json:"end_at,omitempty"`
	Title     *string    `json:"title,omitempty"`
	Note      *string    `json:"note,omitempty"`
}

// CabinService schedules cabin bookings. Confirmed bookings of one cabin
// never overlap.
type CabinService struct {
	store     repository.Store
	publisher Publisher
	logger    *zerolog.Logger
}

func NewCabinService(store repository.Store, publisher Publisher, logger *zerolog.Logger) *CabinService {
	return &CabinService{
		store:     store,
		publisher: publisherOrNop(publisher),
		logger:    componentLogger(logger, "cabins"),
	}
}

func validRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Invalid(apperr.CodeInvalidRange, "start and end are required")
	}
	if end.Before(start) {
		return apperr.Invalid(apperr.CodeInvalidRange, "end is before start")
	}
	return nil
}

// checkOverlap fails with BookingConflict if a confirmed booking of the
// cabin, other than exclude, overlaps candidate.
func checkOverlap(ctx context.Context, tx repository.Tx, candidate *models.CabinBooking, exclude int64) error {
	existing, err := tx.ListConfirmedBookings(ctx, candidate.CabinID, candidate.StartAt, candidate.EndAt)
	if err != nil {
		return err
	}
	for i := range existing {
		if existing[i].ID == exclude {
			continue
		}
		if existing[i].OverlapsWith(candidate) {
			return apperr.BookingConflict(existing[i].MemberName).With("booking_id", itoa(existing[i].ID))
		}
	}
	return nil
}

func (s *CabinService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.CabinBooking, error) {
	booking := &models.CabinBooking{
		CabinID:  req.CabinID,
		MemberID: req.MemberID,
		StartAt:  req.StartAt.UTC(),
		EndAt:    req.EndAt.UTC(),
		Title:    strings.TrimSpace(req.Title),
		Note:     strings.TrimSpace(req.Note),
		Status:   models.BookingConfirmed,
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if err := validRange(req.StartAt, req.EndAt); err != nil {
			return err
		}

		cabin, err := tx.GetCabin(ctx, req.CabinID)
		if err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeCabinInactiveOrMissing, "cabin does not exist"))
		}
		if !cabin.IsActive {
			return apperr.NotFound(apperr.CodeCabinInactiveOrMissing, "cabin is not active")
		}

		member, err := activeMember(ctx, tx, req.MemberID)
		if err != nil {
			return err
		}
		booking.MemberName = member.DisplayName

		if err := checkOverlap(ctx, tx, booking, 0); err != nil {
			return err
		}
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, finish(s.logger, "create_booking", err)
	}

	metrics.IncBookingCreated()
	s.logger.Info().Int64("booking_id", booking.ID).Int64("cabin_id", booking.CabinID).
		Int64("member_id", booking.MemberID).Msg("Booking created")
	s.publisher.Publish(ctx, events.TypeBookingCreated, booking)
	return booking, nil
}

func (s *CabinService) UpdateBooking(ctx context.Context, req UpdateBookingRequest, actor models.Actor) (*models.CabinBooking, error) {
	var booking *models.CabinBooking
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		booking, err = s.mutable(ctx, tx, req.BookingID, actor)
		if err != nil {
			return err
		}
		if !booking.IsConfirmed() {
			return apperr.Immutable(apperr.CodeCancelledImmutable, "cancelled bookings cannot be changed")
		}

		rangeChanged := false
		if req.StartAt != nil && !req.StartAt.Equal(booking.StartAt) {
			booking.StartAt = req.StartAt.UTC()
			rangeChanged = true
		}
		if req.EndAt != nil && !req.EndAt.Equal(booking.EndAt) {
			booking.EndAt = req.EndAt.UTC()
			rangeChanged = true
		}
		if req.Title != nil {
			booking.Title = strings.TrimSpace(*req.Title)
		}
		if req.Note != nil {
			booking.Note = strings.TrimSpace(*req.Note)
		}

		if err := validRange(booking.StartAt, booking.EndAt); err != nil {
			return err
		}
		if rangeChanged {
			if err := checkOverlap(ctx, tx, booking, booking.ID); err != nil {
				return err
			}
		}
		return tx.UpdateBooking(ctx, booking)
	})
	if err != nil {
		return nil, finish(s.logger, "update_booking", err)
	}

	s.logger.Info().Int64("booking_id", booking.ID).Int64("actor_id", actor.MemberID).Msg("Booking updated")
	s.publisher.Publish(ctx, events.TypeBookingUpdated, booking)
	return booking, nil
}

// CancelBooking moves a confirmed booking to CANCELLED. The row is kept.
func (s *CabinService) CancelBooking(ctx context.Context, bookingID int64, actor models.Actor) (*models.CabinBooking, error) {
	var booking *models.CabinBooking
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		booking, err = s.mutable(ctx, tx, bookingID, actor)
		if err != nil {
			return err
		}
		if !booking.IsConfirmed() {
			return apperr.Immutable(apperr.CodeAlreadyCancelled, "booking is already cancelled")
		}
		booking.Status = models.BookingCancelled
		return tx.UpdateBooking(ctx, booking)
	})
	if err != nil {
		return nil, finish(s.logger, "cancel_booking", err)
	}

	metrics.IncBookingCancelled()
	s.logger.Info().Int64("booking_id", booking.ID).Int64("actor_id", actor.MemberID).Msg("Booking cancelled")
	s.publisher.Publish(ctx, events.TypeBookingCancelled, booking)
	return booking, nil
}

// DeleteBooking removes a booking of any status.
func (s *CabinService) DeleteBooking(ctx context.Context, bookingID int64, actor models.Actor) error {
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := s.mutable(ctx, tx, bookingID, actor); err != nil {
			return err
		}
		return tx.DeleteBooking(ctx, bookingID)
	})
	if err != nil {
		return finish(s.logger, "delete_booking", err)
	}

	s.logger.Info().Int64("booking_id", bookingID).Int64("actor_id", actor.MemberID).Msg("Booking deleted")
	s.publisher.Publish(ctx, events.TypeBookingDeleted, map[string]int64{"booking_id": bookingID})
	return nil
}

// CabinAvailability returns one entry per day in [from, to], both days
// inclusive. A day is unavailable when a confirmed booking overlaps it.
func (s *CabinService) CabinAvailability(ctx context.Context, cabinID int64, from, to time.Time) ([]models.DayAvailability, error) {
	first := models.TruncateDay(from)
	last := models.TruncateDay(to)

	var days []models.DayAvailability
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if from.IsZero() || to.IsZero() || last.Before(first) {
			return apperr.Invalid(apperr.CodeInvalidRange, "invalid availability range")
		}
		if last.Sub(first) >= MaxAvailabilityDays*24*time.Hour {
			return apperr.Invalid(apperr.CodeInvalidRange, "availability range is limited to 90 days")
		}

		if _, err := tx.GetCabin(ctx, cabinID); err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeCabinInactiveOrMissing, "cabin does not exist"))
		}

		end := last.AddDate(0, 0, 1)
		bookings, err := tx.ListConfirmedBookings(ctx, cabinID, first, end)
		if err != nil {
			return err
		}

		for d := first; d.Before(end); d = d.AddDate(0, 0, 1) {
			day := interval.Closed(d, d.AddDate(0, 0, 1))
			entry := models.DayAvailability{Date: d, Available: true}
			for i := range bookings {
				if interval.Overlaps(bookings[i].Range(), day) {
					entry.Available = false
					entry.BookedBy = append(entry.BookedBy, bookings[i].MemberName)
				}
			}
			days = append(days, entry)
		}
		return nil
	})
	if err != nil {
		return nil, finish(s.logger, "cabin_availability", err)
	}
	return days, nil
}

// mutable loads a booking and checks the actor may change it.
func (s *CabinService) mutable(ctx context.Context, tx repository.Tx, bookingID int64, actor models.Actor) (*models.CabinBooking, error) {
	booking, err := tx.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, notFoundAs(err, apperr.NotFound(apperr.CodeBookingNotFound, "booking not found"))
	}
	if !actor.CanModify(booking.MemberID) {
		return nil, apperr.Forbidden("only the owner or an admin may change this booking")
	}
	return booking, nil
}
