package service

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"revir/internal/apperr"
	"revir/internal/events"
	"revir/internal/models"
	"revir/internal/repository"
)

// HarvestReportItem is the quota state of one species. Everything except
// PlannedCount and Note is derived from catches on every call.
type HarvestReportItem struct {
	SpeciesID      int64  `json:"species_id"`
	SpeciesName    string `json:"species_name,omitempty"`
	PlannedCount   int    `json:"planned_count"`
	TakenCount     int    `json:"taken_count"`
	RemainingCount int    `json:"remaining_count"`
	Percentage     int    `json:"percentage"`
	Exceeded       bool   `json:"exceeded"`
	Note           string `json:"note,omitempty"`
}

type HarvestReport struct {
	SeasonID   int64               `json:"season_id"`
	SeasonName string              `json:"season_name"`
	Items      []HarvestReportItem `json:"items"`
}

// BuildHarvestReport projects plan items and catches into a report. Catches
// outside the season window are ignored.
func BuildHarvestReport(season *models.HuntingSeason, items []models.HarvestPlanItem, catches []models.Catch, speciesNames map[int64]string) HarvestReport {
	taken := make(map[int64]int)
	for i := range catches {
		if season.Covers(catches[i].HuntedAt) {
			taken[catches[i].SpeciesID]++
		}
	}

	report := HarvestReport{
		SeasonID:   season.ID,
		SeasonName: season.Name,
		Items:      make([]HarvestReportItem, 0, len(items)),
	}
	for _, it := range items {
		count := taken[it.SpeciesID]
		percentage := 0
		if it.PlannedCount > 0 {
			percentage = int(math.Round(float64(count) / float64(it.PlannedCount) * 100))
		}
		report.Items = append(report.Items, HarvestReportItem{
			SpeciesID:      it.SpeciesID,
			SpeciesName:    speciesNames[it.SpeciesID],
			PlannedCount:   it.PlannedCount,
			TakenCount:     count,
			RemainingCount: it.PlannedCount - count,
			Percentage:     percentage,
			Exceeded:       count >= it.PlannedCount,
			Note:           it.Note,
		})
	}
	sort.Slice(report.Items, func(i, j int) bool {
		return report.Items[i].SpeciesID < report.Items[j].SpeciesID
	})
	return report
}

type UpsertPlanItemRequest struct {
	SeasonID     int64  `json:"season_id"`
	SpeciesID    int64  `json:"species_id"`
	PlannedCount int    `json:"planned_count"`
	Note         string `json:"note,omitempty"`
}

// HarvestService computes quota reports and maintains harvest plans.
type HarvestService struct {
	store     repository.Store
	publisher Publisher
	logger    *zerolog.Logger
}

func NewHarvestService(store repository.Store, publisher Publisher, logger *zerolog.Logger) *HarvestService {
	return &HarvestService{
		store:     store,
		publisher: publisherOrNop(publisher),
		logger:    componentLogger(logger, "harvest"),
	}
}

// ComputeHarvestReport recomputes the report of a season from current catches.
func (s *HarvestService) ComputeHarvestReport(ctx context.Context, seasonID int64) (*HarvestReport, error) {
	var report HarvestReport
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		season, err := tx.GetSeason(ctx, seasonID)
		if err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeSeasonNotFound, "season not found"))
		}
		report, err = s.build(ctx, tx, season)
		return err
	})
	if err != nil {
		return nil, finish(s.logger, "harvest_report", err)
	}
	return &report, nil
}

// ActiveHarvestReport is ComputeHarvestReport for the active season.
func (s *HarvestService) ActiveHarvestReport(ctx context.Context) (*HarvestReport, error) {
	var report HarvestReport
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		season, err := tx.GetActiveSeason(ctx)
		if err != nil {
			return err
		}
		if season == nil {
			return apperr.NotFound(apperr.CodeSeasonNotFound, "no active season")
		}
		report, err = s.build(ctx, tx, season)
		return err
	})
	if err != nil {
		return nil, finish(s.logger, "active_harvest_report", err)
	}
	return &report, nil
}

func (s *HarvestService) build(ctx context.Context, tx repository.Tx, season *models.HuntingSeason) (HarvestReport, error) {
	items, err := tx.ListPlanItems(ctx, season.ID)
	if err != nil {
		return HarvestReport{}, err
	}
	from, to := season.Window()
	catches, err := tx.ListCatchesBetween(ctx, from, to)
	if err != nil {
		return HarvestReport{}, err
	}

	names := make(map[int64]string, len(items))
	for _, it := range items {
		sp, err := tx.GetSpecies(ctx, it.SpeciesID)
		if err != nil {
			return HarvestReport{}, err
		}
		names[sp.ID] = sp.Name
	}
	return BuildHarvestReport(season, items, catches, names), nil
}

// UpsertPlanItem creates or overwrites the planned count of a species in a season.
func (s *HarvestService) UpsertPlanItem(ctx context.Context, req UpsertPlanItemRequest) (*models.HarvestPlanItem, error) {
	item := &models.HarvestPlanItem{
		SeasonID:     req.SeasonID,
		SpeciesID:    req.SpeciesID,
		PlannedCount: req.PlannedCount,
		Note:         req.Note,
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if req.PlannedCount < 0 {
			return apperr.Invalid(apperr.CodeInvalidArgument, "planned count must not be negative").
				With("field", "planned_count")
		}
		if _, err := tx.GetSeason(ctx, req.SeasonID); err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeSeasonNotFound, "season not found"))
		}
		if _, err := tx.GetSpecies(ctx, req.SpeciesID); err != nil {
			return notFoundAs(err, apperr.NotFound(apperr.CodeSpeciesNotFound, "species not found"))
		}
		return tx.UpsertPlanItem(ctx, item)
	})
	if err != nil {
		return nil, finish(s.logger, "upsert_plan_item", err)
	}

	s.logger.Info().Int64("season_id", item.SeasonID).Int64("species_id", item.SpeciesID).
		Int("planned", item.PlannedCount).Msg("Plan item saved")
	s.publisher.Publish(ctx, events.TypePlanItemUpserted, item)
	return item, nil
}
