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

type OpenVisitRequest struct {
	MemberID   int64     `json:"member_id"`
	LocalityID int64     `json:"locality_id"`
	StartDate  time.Time `json:"start_date"`
	HasGuest   bool      `json:"has_guest"`
	GuestName  string    `json:"guest_name,omitempty"`
}

type CloseVisitRequest struct {
	VisitID int64     `json:"visit_id"`
	EndDate time.Time `json:"end_date"`
}

type AddGuestRequest struct {
	VisitID   int64  `json:"visit_id"`
	GuestName string `json:"guest_name"`
}

// VisitService manages locality occupancy through the visit lifecycle.
type VisitService struct {
	store     repository.Store
	publisher Publisher
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewVisitService(store repository.Store, publisher Publisher, logger *zerolog.Logger) *VisitService {
	return &VisitService{
		store:     store,
		publisher: publisherOrNop(publisher),
		logger:    componentLogger(logger, "visits"),
		now:       time.Now,
	}
}

// OpenVisit occupies a locality for a member.
func (s *VisitService) OpenVisit(ctx context.Context, req OpenVisitRequest) (*models.Visit, error) {
	visit := &models.Visit{
		MemberID:   req.MemberID,
		LocalityID: req.LocalityID,
		StartDate:  req.StartDate,
		HasGuest:   req.HasGuest,
		GuestName:  strings.TrimSpace(req.GuestName),
	}
	now := s.now()
	if visit.StartDate.IsZero() {
		visit.StartDate = now
	}
	if visit.GuestName != "" {
		visit.HasGuest = true
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if visit.StartDate.After(now) {
			return apperr.Invalid(apperr.CodeInvalidArgument, "start date is in the future").With("field", "start_date")
		}
		if visit.HasGuest && visit.GuestName == "" {
			return apperr.Invalid(apperr.CodeInvalidArgument, "guest name is required when the visit has a guest").
				With("field", "guest_name")
		}
		if _, err := activeMember(ctx, tx, req.MemberID); err != nil {
			return err
		}

		locality, err := tx.GetLocality(ctx, req.LocalityID)
		if err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeLocalityInactive, "locality does not exist"))
		}
		if !locality.IsActive {
			return apperr.NotFound(apperr.CodeLocalityInactive, "locality is not active")
		}

		current, err := tx.GetOpenVisitByMember(ctx, req.MemberID)
		if err != nil {
			return err
		}
		if current != nil {
			return apperr.Conflict(apperr.CodeMemberHasActiveVisit, "member already has an open visit").
				With("visit_id", itoa(current.ID))
		}

		occupying, err := tx.ListOpenVisitsByLocality(ctx, req.LocalityID)
		if err != nil {
			return err
		}
		candidate := interval.Open(visit.StartDate)
		for i := range occupying {
			if interval.Overlaps(occupying[i].Range(), candidate) {
				return apperr.Conflict(apperr.CodeLocalityOccupied, "locality is occupied by another visit")
			}
		}

		return tx.CreateVisit(ctx, visit)
	})
	if err != nil {
		return nil, finish(s.logger, "open_visit", err)
	}

	metrics.IncVisitOpened()
	s.logger.Info().Int64("visit_id", visit.ID).Int64("member_id", visit.MemberID).
		Int64("locality_id", visit.LocalityID).Msg("Visit opened")
	s.publisher.Publish(ctx, events.TypeVisitOpened, visit)
	return visit, nil
}

// CloseVisit ends an open visit and frees its locality.
func (s *VisitService) CloseVisit(ctx context.Context, req CloseVisitRequest, actor models.Actor) (*models.Visit, error) {
	now := s.now()
	endDate := req.EndDate
	if endDate.IsZero() {
		endDate = now
	}

	var visit *models.Visit
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		visit, err = tx.GetVisit(ctx, req.VisitID)
		if err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeVisitNotFound, "visit not found"))
		}
		if !actor.CanModify(visit.MemberID) {
			return apperr.Forbidden("only the owner or an admin may close this visit")
		}
		if !visit.IsOpen() {
			return apperr.Immutable(apperr.CodeAlreadyClosed, "visit is already closed")
		}
		if endDate.Before(visit.StartDate) {
			return apperr.Invalid(apperr.CodeInvalidEndDate, "end date is before the start date")
		}
		if endDate.After(now) {
			return apperr.Invalid(apperr.CodeInvalidEndDate, "end date is in the future")
		}

		outside, err := tx.CountCatchesAfter(ctx, visit.ID, endDate)
		if err != nil {
			return err
		}
		if outside > 0 {
			return apperr.Invalid(apperr.CodeCatchesOutsideRange, "catches were recorded after the end date").
				With("count", itoa(int64(outside)))
		}

		if err := tx.CloseVisit(ctx, visit.ID, endDate); err != nil {
			return err
		}
		end := endDate.UTC()
		visit.EndDate = &end
		return nil
	})
	if err != nil {
		return nil, finish(s.logger, "close_visit", err)
	}

	metrics.IncVisitClosed()
	s.logger.Info().Int64("visit_id", visit.ID).Int64("actor_id", actor.MemberID).Msg("Visit closed")
	s.publisher.Publish(ctx, events.TypeVisitClosed, visit)
	return visit, nil
}

// AddGuest marks the visit as accompanied by a named guest. Repeating the
// call with the same name leaves the visit unchanged.
func (s *VisitService) AddGuest(ctx context.Context, req AddGuestRequest, actor models.Actor) (*models.Visit, error) {
	name := strings.TrimSpace(req.GuestName)

	var visit *models.Visit
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		visit, err = tx.GetVisit(ctx, req.VisitID)
		if err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeVisitNotFound, "visit not found"))
		}
		if !actor.CanModify(visit.MemberID) {
			return apperr.Forbidden("only the owner or an admin may add a guest")
		}
		if name == "" {
			return apperr.Invalid(apperr.CodeInvalidArgument, "guest name is required").With("field", "guest_name")
		}
		if visit.HasGuest && visit.GuestName == name {
			return nil
		}
		if err := tx.SetVisitGuest(ctx, visit.ID, name); err != nil {
			return err
		}
		visit.HasGuest = true
		visit.GuestName = name
		return nil
	})
	if err != nil {
		return nil, finish(s.logger, "add_guest", err)
	}

	s.publisher.Publish(ctx, events.TypeVisitGuestAdded, visit)
	return visit, nil
}

func (s *VisitService) GetVisit(ctx context.Context, id int64) (*models.Visit, error) {
	var visit *models.Visit
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		visit, err = tx.GetVisit(ctx, id)
		return notFoundAs(err, apperr.NotFound(apperr.CodeVisitNotFound, "visit not found"))
	})
	if err != nil {
		return nil, finish(s.logger, "get_visit", err)
	}
	return visit, nil
}

// ListOpenVisits returns the current locality occupancy.
func (s *VisitService) ListOpenVisits(ctx context.Context) ([]models.Visit, error) {
	var visits []models.Visit
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		visits, err = tx.ListOpenVisits(ctx)
		return err
	})
	if err != nil {
		return nil, finish(s.logger, "list_open_visits", err)
	}
	return visits, nil
}

func (s *VisitService) ListMemberVisits(ctx context.Context, memberID int64, limit int) ([]models.Visit, error) {
	var visits []models.Visit
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		visits, err = tx.ListMemberVisits(ctx, memberID, limit)
		return err
	})
	if err != nil {
		return nil, finish(s.logger, "list_member_visits", err)
	}
	return visits, nil
}
