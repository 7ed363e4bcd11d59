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

type RecordCatchRequest struct {
	VisitID   int64 `json:"visit_id"`
	SpeciesID int64 `json:"species_id"`
	// HuntingLocalityID defaults to the visit's locality when zero.
	HuntingLocalityID int64              `json:"hunting_locality_id,omitempty"`
	HuntedAt          time.Time          `json:"hunted_at"`
	Sex               models.Sex         `json:"sex,omitempty"`
	Age               string             `json:"age,omitempty"`
	Weight            *float64           `json:"weight,omitempty"`
	TagNumber         string             `json:"tag_number,omitempty"`
	ShooterType       models.ShooterType `json:"shooter_type,omitempty"`
	GuestShooterName  string             `json:"guest_shooter_name,omitempty"`
}

// UpdateCatchRequest carries only the fields to change; nil keeps the stored value.
type UpdateCatchRequest struct {
	CatchID           int64               `json:"catch_id"`
	SpeciesID         *int64              `json:"species_id,omitempty"`
	HuntingLocalityID *int64              `json:"hunting_locality_id,omitempty"`
	HuntedAt          *time.Time          `json:"hunted_at,omitempty"`
	Sex               *models.Sex         `json:"sex,omitempty"`
	Age               *string             `json:"age,omitempty"`
	Weight            *float64            `json:"weight,omitempty"`
	TagNumber         *string             `json:"tag_number,omitempty"`
	ShooterType       *models.ShooterType `json:"shooter_type,omitempty"`
	GuestShooterName  *string             `json:"guest_shooter_name,omitempty"`
}

// apply merges the request into c.
func (r UpdateCatchRequest) apply(c *models.Catch) {
	if r.SpeciesID != nil {
		c.SpeciesID = *r.SpeciesID
	}
	if r.HuntingLocalityID != nil {
		c.HuntingLocalityID = *r.HuntingLocalityID
	}
	if r.HuntedAt != nil {
		c.HuntedAt = *r.HuntedAt
	}
	if r.Sex != nil {
		c.Sex = *r.Sex
	}
	if r.Age != nil {
		c.Age = *r.Age
	}
	if r.Weight != nil {
		w := *r.Weight
		c.Weight = &w
	}
	if r.TagNumber != nil {
		c.TagNumber = *r.TagNumber
	}
	if r.ShooterType != nil {
		c.ShooterType = *r.ShooterType
	}
	if r.GuestShooterName != nil {
		c.GuestShooterName = *r.GuestShooterName
	}
}

// CatchService records catches against visits.
type CatchService struct {
	store     repository.Store
	publisher Publisher
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewCatchService(store repository.Store, publisher Publisher, logger *zerolog.Logger) *CatchService {
	return &CatchService{
		store:     store,
		publisher: publisherOrNop(publisher),
		logger:    componentLogger(logger, "catches"),
		now:       time.Now,
	}
}

// RecordCatch appends a catch to a visit. Closed visits accept catches that
// fall within their window.
func (s *CatchService) RecordCatch(ctx context.Context, req RecordCatchRequest, actor models.Actor) (*models.Catch, error) {
	catch := &models.Catch{
		VisitID:           req.VisitID,
		SpeciesID:         req.SpeciesID,
		HuntingLocalityID: req.HuntingLocalityID,
		HuntedAt:          req.HuntedAt,
		Sex:               req.Sex,
		Age:               req.Age,
		Weight:            req.Weight,
		TagNumber:         req.TagNumber,
		ShooterType:       req.ShooterType,
		GuestShooterName:  req.GuestShooterName,
	}
	if catch.HuntedAt.IsZero() {
		catch.HuntedAt = s.now()
	}

	var species *models.Species
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		visit, err := tx.GetVisit(ctx, req.VisitID)
		if err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeVisitNotFound, "visit not found"))
		}
		if !actor.CanModify(visit.MemberID) {
			return apperr.Forbidden("only the owner or an admin may record catches on this visit")
		}

		species, err = validateCatch(ctx, tx, visit, catch)
		if err != nil {
			return err
		}
		return tx.CreateCatch(ctx, catch)
	})
	if err != nil {
		return nil, finish(s.logger, "record_catch", err)
	}

	metrics.IncCatchRecorded(species.Name)
	s.logger.Info().Int64("catch_id", catch.ID).Int64("visit_id", catch.VisitID).
		Int64("species_id", catch.SpeciesID).Msg("Catch recorded")
	s.publisher.Publish(ctx, events.TypeCatchRecorded, catch)
	return catch, nil
}

// UpdateCatch re-validates the merged catch against its current species and visit.
func (s *CatchService) UpdateCatch(ctx context.Context, req UpdateCatchRequest, actor models.Actor) (*models.Catch, error) {
	var catch *models.Catch
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var (
			visit *models.Visit
			err   error
		)
		catch, visit, err = s.editable(ctx, tx, req.CatchID, actor)
		if err != nil {
			return err
		}

		req.apply(catch)
		if _, err := validateCatch(ctx, tx, visit, catch); err != nil {
			return err
		}
		return tx.UpdateCatch(ctx, catch)
	})
	if err != nil {
		return nil, finish(s.logger, "update_catch", err)
	}

	s.logger.Info().Int64("catch_id", catch.ID).Int64("actor_id", actor.MemberID).Msg("Catch updated")
	s.publisher.Publish(ctx, events.TypeCatchUpdated, catch)
	return catch, nil
}

func (s *CatchService) DeleteCatch(ctx context.Context, catchID int64, actor models.Actor) error {
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, _, err := s.editable(ctx, tx, catchID, actor); err != nil {
			return err
		}
		return tx.DeleteCatch(ctx, catchID)
	})
	if err != nil {
		return finish(s.logger, "delete_catch", err)
	}

	s.logger.Info().Int64("catch_id", catchID).Int64("actor_id", actor.MemberID).Msg("Catch deleted")
	s.publisher.Publish(ctx, events.TypeCatchDeleted, map[string]int64{"catch_id": catchID})
	return nil
}

func (s *CatchService) ListVisitCatches(ctx context.Context, visitID int64) ([]models.Catch, error) {
	var catches []models.Catch
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetVisit(ctx, visitID); err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeVisitNotFound, "visit not found"))
		}
		var err error
		catches, err = tx.ListVisitCatches(ctx, visitID)
		return err
	})
	if err != nil {
		return nil, finish(s.logger, "list_catches", err)
	}
	return catches, nil
}

// editable loads a catch and its visit and checks the actor may change it.
// Non-admins cannot touch catches of closed visits.
func (s *CatchService) editable(ctx context.Context, tx repository.Tx, catchID int64, actor models.Actor) (*models.Catch, *models.Visit, error) {
	catch, err := tx.GetCatch(ctx, catchID)
	if err != nil {
		return nil, nil, notFoundAs(err, apperr.NotFound(apperr.CodeCatchNotFound, "catch not found"))
	}
	visit, err := tx.GetVisit(ctx, catch.VisitID)
	if err != nil {
		return nil, nil, notFoundAs(err, apperr.NotFound(apperr.CodeVisitNotFound, "visit not found"))
	}
	if !actor.CanModify(visit.MemberID) {
		return nil, nil, apperr.Forbidden("only the owner or an admin may change this catch")
	}
	if !visit.IsOpen() && !actor.IsAdmin() {
		return nil, nil, apperr.Immutable(apperr.CodeClosedVisitImmutable, "catches of a closed visit can only be changed by an admin")
	}
	return catch, visit, nil
}

// validateCatch normalizes c and checks it against its species and visit.
// Checks run in order: species, locality, field formats, required fields,
// guest shooter, hunted-at window.
func validateCatch(ctx context.Context, tx repository.Tx, visit *models.Visit, c *models.Catch) (*models.Species, error) {
	species, err := tx.GetSpecies(ctx, c.SpeciesID)
	if err != nil {
		return nil, notFoundAs(err, apperr.NotFound(apperr.CodeSpeciesInactiveOrMissing, "species does not exist"))
	}
	if !species.IsActive {
		return nil, apperr.NotFound(apperr.CodeSpeciesInactiveOrMissing, "species is not active")
	}

	if c.HuntingLocalityID == 0 {
		c.HuntingLocalityID = visit.LocalityID
	}
	if c.HuntingLocalityID != visit.LocalityID {
		locality, err := tx.GetLocality(ctx, c.HuntingLocalityID)
		if err != nil {
			return nil, notFoundAs(err, apperr.NotFound(apperr.CodeLocalityInactive, "hunting locality does not exist"))
		}
		if !locality.IsActive {
			return nil, apperr.NotFound(apperr.CodeLocalityInactive, "hunting locality is not active")
		}
	}

	if c.Sex == "" {
		c.Sex = models.SexUnknown
	}
	if !c.Sex.Valid() {
		return nil, apperr.Invalid(apperr.CodeInvalidArgument, "sex must be MALE, FEMALE or UNKNOWN").With("field", "sex")
	}
	if c.Weight != nil && *c.Weight < 0 {
		return nil, apperr.Invalid(apperr.CodeInvalidArgument, "weight must not be negative").With("field", "weight")
	}
	c.Age = strings.TrimSpace(c.Age)
	c.TagNumber = strings.TrimSpace(c.TagNumber)

	if field := c.MissingField(species); field != "" {
		return nil, apperr.MissingRequiredField(field)
	}

	switch c.ShooterType {
	case "", models.ShooterMember:
		c.ShooterType = models.ShooterMember
		c.GuestShooterName = ""
	case models.ShooterGuest:
		if !visit.HasGuest {
			return nil, apperr.Invalid(apperr.CodeGuestShooterInvalid, "visit has no guest")
		}
		name := strings.TrimSpace(c.GuestShooterName)
		if name == "" {
			name = visit.GuestName
		}
		if name == "" {
			return nil, apperr.Invalid(apperr.CodeGuestShooterInvalid, "guest shooter name cannot be resolved")
		}
		c.GuestShooterName = name
	default:
		return nil, apperr.Invalid(apperr.CodeInvalidArgument, "shooter type must be MEMBER or GUEST").With("field", "shooter_type")
	}

	if !interval.Contains(visit.Range(), c.HuntedAt) {
		return nil, apperr.Invalid(apperr.CodeHuntedAtOutOfRange, "hunted at is outside the visit window")
	}
	return species, nil
}
