package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"revir/internal/apperr"
	"revir/internal/events"
	"revir/internal/models"
	"revir/internal/repository"
)

type CreateSeasonRequest struct {
	Name     string    `json:"name"`
	DateFrom time.Time `json:"date_from"`
	DateTo   time.Time `json:"date_to"`
}

// SeasonService manages hunting seasons. At most one season is active.
type SeasonService struct {
	store     repository.Store
	publisher Publisher
	logger    *zerolog.Logger
}

func NewSeasonService(store repository.Store, publisher Publisher, logger *zerolog.Logger) *SeasonService {
	return &SeasonService{
		store:     store,
		publisher: publisherOrNop(publisher),
		logger:    componentLogger(logger, "seasons"),
	}
}

func (s *SeasonService) CreateSeason(ctx context.Context, req CreateSeasonRequest) (*models.HuntingSeason, error) {
	season := &models.HuntingSeason{Name: strings.TrimSpace(req.Name)}
	if !req.DateFrom.IsZero() {
		season.DateFrom = models.CalendarDay(req.DateFrom)
	}
	if !req.DateTo.IsZero() {
		season.DateTo = models.CalendarDay(req.DateTo)
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if season.Name == "" {
			return apperr.Invalid(apperr.CodeInvalidArgument, "season name is required").With("field", "name")
		}
		if season.DateFrom.IsZero() || season.DateTo.IsZero() {
			return apperr.Invalid(apperr.CodeInvalidRange, "season dates are required")
		}
		if season.DateTo.Before(season.DateFrom) {
			return apperr.Invalid(apperr.CodeInvalidRange, "season ends before it starts")
		}
		return tx.CreateSeason(ctx, season)
	})
	if err != nil {
		return nil, finish(s.logger, "create_season", err)
	}

	s.logger.Info().Int64("season_id", season.ID).Str("name", season.Name).Msg("Season created")
	s.publisher.Publish(ctx, events.TypeSeasonCreated, season)
	return season, nil
}

// ActivateSeason makes the season active and deactivates every other one
// in the same transaction.
func (s *SeasonService) ActivateSeason(ctx context.Context, seasonID int64) (*models.HuntingSeason, error) {
	var season *models.HuntingSeason
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		season, err = tx.GetSeason(ctx, seasonID)
		if err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeSeasonNotFound, "season not found"))
		}
		if season.IsActive {
			return nil
		}
		if err := tx.ActivateSeason(ctx, seasonID); err != nil {
			return err
		}
		season.IsActive = true
		return nil
	})
	if err != nil {
		return nil, finish(s.logger, "activate_season", err)
	}

	s.logger.Info().Int64("season_id", season.ID).Msg("Season activated")
	s.publisher.Publish(ctx, events.TypeSeasonActivated, season)
	return season, nil
}

func (s *SeasonService) GetActiveSeason(ctx context.Context) (*models.HuntingSeason, error) {
	var season *models.HuntingSeason
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		season, err = tx.GetActiveSeason(ctx)
		if err != nil {
			return err
		}
		if season == nil {
			return apperr.NotFound(apperr.CodeSeasonNotFound, "no active season")
		}
		return nil
	})
	if err != nil {
		return nil, finish(s.logger, "get_active_season", err)
	}
	return season, nil
}
