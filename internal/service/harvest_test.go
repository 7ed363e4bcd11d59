package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revir/internal/apperr"
	"revir/internal/models"
)

func day(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

func TestBuildHarvestReport(t *testing.T) {
	season := &models.HuntingSeason{
		ID:       7,
		Name:     "2025/2026",
		DateFrom: day(2025, 9, 1, 0),
		DateTo:   day(2026, 2, 28, 0),
	}
	catches := func(speciesID int64, n int) []models.Catch {
		out := make([]models.Catch, n)
		for i := range out {
			out[i] = models.Catch{SpeciesID: speciesID, HuntedAt: day(2025, 10, 1, 8)}
		}
		return out
	}

	tests := []struct {
		name    string
		planned int
		taken   int
		want    HarvestReportItem
	}{
		{"nothing planned", 0, 0, HarvestReportItem{Percentage: 0, Exceeded: true}},
		{"nothing planned but taken", 0, 2, HarvestReportItem{RemainingCount: -2, Percentage: 0, Exceeded: true}},
		{"one third rounds down", 3, 1, HarvestReportItem{RemainingCount: 2, Percentage: 33}},
		{"two thirds rounds up", 3, 2, HarvestReportItem{RemainingCount: 1, Percentage: 67}},
		{"fulfilled", 4, 4, HarvestReportItem{RemainingCount: 0, Percentage: 100, Exceeded: true}},
		{"overshot", 2, 3, HarvestReportItem{RemainingCount: -1, Percentage: 150, Exceeded: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []models.HarvestPlanItem{{SeasonID: season.ID, SpeciesID: 1, PlannedCount: tt.planned, Note: "n"}}
			report := BuildHarvestReport(season, items, catches(1, tt.taken), map[int64]string{1: "Diviak"})

			require.Len(t, report.Items, 1)
			got := report.Items[0]
			assert.Equal(t, tt.planned, got.PlannedCount)
			assert.Equal(t, tt.taken, got.TakenCount)
			assert.Equal(t, tt.want.RemainingCount, got.RemainingCount)
			assert.Equal(t, tt.want.Percentage, got.Percentage)
			assert.Equal(t, tt.want.Exceeded, got.Exceeded)
			assert.Equal(t, "Diviak", got.SpeciesName)
			assert.Equal(t, "n", got.Note)
		})
	}
}

func TestBuildHarvestReport_WindowAndOrdering(t *testing.T) {
	season := &models.HuntingSeason{DateFrom: day(2025, 9, 1, 0), DateTo: day(2026, 2, 28, 0)}
	items := []models.HarvestPlanItem{
		{SpeciesID: 3, PlannedCount: 10},
		{SpeciesID: 1, PlannedCount: 10},
	}
	catches := []models.Catch{
		{SpeciesID: 1, HuntedAt: day(2025, 8, 31, 23)},
		{SpeciesID: 1, HuntedAt: day(2025, 9, 1, 0)},
		{SpeciesID: 1, HuntedAt: day(2026, 2, 28, 23)},
		{SpeciesID: 1, HuntedAt: day(2026, 3, 1, 0)},
		{SpeciesID: 2, HuntedAt: day(2025, 10, 1, 0)},
		{SpeciesID: 3, HuntedAt: day(2025, 10, 1, 0)},
	}

	report := BuildHarvestReport(season, items, catches, nil)
	require.Len(t, report.Items, 2)
	assert.Equal(t, int64(1), report.Items[0].SpeciesID)
	assert.Equal(t, 2, report.Items[0].TakenCount)
	assert.Equal(t, int64(3), report.Items[1].SpeciesID)
	assert.Equal(t, 1, report.Items[1].TakenCount)
}

func TestComputeHarvestReport_SeasonBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	season, err := f.seasons.CreateSeason(ctx, CreateSeasonRequest{
		Name:     "2024/2025",
		DateFrom: day(2024, 9, 1, 0),
		DateTo:   day(2025, 2, 28, 0),
	})
	require.NoError(t, err)
	_, err = f.harvest.UpsertPlanItem(ctx, UpsertPlanItemRequest{SeasonID: season.ID, SpeciesID: diviakID, PlannedCount: 5})
	require.NoError(t, err)

	v := f.openVisit(t, janID, majerID, day(2025, 2, 27, 18))
	for hour := 7; hour < 12; hour++ {
		_, err := f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID, HuntedAt: day(2025, 2, 28, hour)}, jan)
		require.NoError(t, err)
	}
	_, err = f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID, HuntedAt: day(2025, 3, 1, 0)}, jan)
	require.NoError(t, err)

	report, err := f.harvest.ComputeHarvestReport(ctx, season.ID)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)

	item := report.Items[0]
	assert.Equal(t, "Diviak", item.SpeciesName)
	assert.Equal(t, 5, item.PlannedCount)
	assert.Equal(t, 5, item.TakenCount)
	assert.Equal(t, 0, item.RemainingCount)
	assert.Equal(t, 100, item.Percentage)
	assert.True(t, item.Exceeded)
}

func TestComputeHarvestReport_NonUTCSeasonDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	zone := time.FixedZone("UTC+2", 2*3600)

	season, err := f.seasons.CreateSeason(ctx, CreateSeasonRequest{
		Name:     "Winter",
		DateFrom: time.Date(2026, 1, 15, 0, 0, 0, 0, zone),
		DateTo:   time.Date(2026, 1, 31, 0, 0, 0, 0, zone),
	})
	require.NoError(t, err)
	assert.Equal(t, day(2026, 1, 15, 0), season.DateFrom)
	assert.Equal(t, day(2026, 1, 31, 0), season.DateTo)

	_, err = f.harvest.UpsertPlanItem(ctx, UpsertPlanItemRequest{SeasonID: season.ID, SpeciesID: diviakID, PlannedCount: 2})
	require.NoError(t, err)

	v := f.openVisit(t, janID, majerID, day(2026, 1, 14, 6))
	_, err = f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID, HuntedAt: day(2026, 1, 14, 10)}, jan)
	require.NoError(t, err)
	_, err = f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID, HuntedAt: day(2026, 1, 15, 7)}, jan)
	require.NoError(t, err)

	report, err := f.harvest.ComputeHarvestReport(ctx, season.ID)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, 1, report.Items[0].TakenCount)
}

func TestComputeHarvestReport_SpeciesDeactivatedMidSeason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	season, err := f.seasons.CreateSeason(ctx, CreateSeasonRequest{Name: "S", DateFrom: day(2025, 9, 1, 0), DateTo: day(2026, 2, 28, 0)})
	require.NoError(t, err)
	_, err = f.harvest.UpsertPlanItem(ctx, UpsertPlanItemRequest{SeasonID: season.ID, SpeciesID: srnecID, PlannedCount: 4})
	require.NoError(t, err)

	v := f.openVisit(t, janID, majerID, at(1, 15, 9))
	c, err := f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: srnecID, Sex: models.SexMale}, jan)
	require.NoError(t, err)

	_, err = f.db.ExecContext(ctx, `UPDATE species SET is_active = FALSE WHERE id = 2`)
	require.NoError(t, err)

	report, err := f.harvest.ComputeHarvestReport(ctx, season.ID)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, 1, report.Items[0].TakenCount)
	assert.Equal(t, 3, report.Items[0].RemainingCount)

	age := "2"
	_, err = f.catches.UpdateCatch(ctx, UpdateCatchRequest{CatchID: c.ID, Age: &age}, jan)
	requireCode(t, err, apperr.CodeSpeciesInactiveOrMissing)

	_, err = f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: srnecID, Sex: models.SexMale}, jan)
	requireCode(t, err, apperr.CodeSpeciesInactiveOrMissing)
}

func TestUpsertPlanItem_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	season, err := f.seasons.CreateSeason(ctx, CreateSeasonRequest{Name: "S", DateFrom: day(2025, 9, 1, 0), DateTo: day(2026, 2, 28, 0)})
	require.NoError(t, err)

	first, err := f.harvest.UpsertPlanItem(ctx, UpsertPlanItemRequest{SeasonID: season.ID, SpeciesID: jelenID, PlannedCount: 3})
	require.NoError(t, err)
	second, err := f.harvest.UpsertPlanItem(ctx, UpsertPlanItemRequest{SeasonID: season.ID, SpeciesID: jelenID, PlannedCount: 8, Note: "raised"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	report, err := f.harvest.ComputeHarvestReport(ctx, season.ID)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, 8, report.Items[0].PlannedCount)
	assert.Equal(t, 8, report.Items[0].RemainingCount)
	assert.Equal(t, "raised", report.Items[0].Note)
	assert.False(t, report.Items[0].Exceeded)

	_, err = f.harvest.UpsertPlanItem(ctx, UpsertPlanItemRequest{SeasonID: season.ID, SpeciesID: jelenID, PlannedCount: -1})
	requireCode(t, err, apperr.CodeInvalidArgument)
	_, err = f.harvest.UpsertPlanItem(ctx, UpsertPlanItemRequest{SeasonID: 999, SpeciesID: jelenID})
	requireCode(t, err, apperr.CodeSeasonNotFound)
	_, err = f.harvest.UpsertPlanItem(ctx, UpsertPlanItemRequest{SeasonID: season.ID, SpeciesID: 999})
	requireCode(t, err, apperr.CodeSpeciesNotFound)
}

func TestSeasons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.harvest.ActiveHarvestReport(ctx)
	requireCode(t, err, apperr.CodeSeasonNotFound)
	_, err = f.seasons.GetActiveSeason(ctx)
	requireCode(t, err, apperr.CodeSeasonNotFound)

	_, err = f.seasons.CreateSeason(ctx, CreateSeasonRequest{Name: " ", DateFrom: day(2025, 9, 1, 0), DateTo: day(2026, 2, 28, 0)})
	requireCode(t, err, apperr.CodeInvalidArgument)
	_, err = f.seasons.CreateSeason(ctx, CreateSeasonRequest{Name: "Bad", DateFrom: day(2025, 9, 2, 0), DateTo: day(2025, 9, 1, 0)})
	requireCode(t, err, apperr.CodeInvalidRange)

	single, err := f.seasons.CreateSeason(ctx, CreateSeasonRequest{Name: "One day", DateFrom: day(2025, 9, 1, 0), DateTo: day(2025, 9, 1, 0)})
	require.NoError(t, err)
	other, err := f.seasons.CreateSeason(ctx, CreateSeasonRequest{Name: "Other", DateFrom: day(2025, 9, 1, 0), DateTo: day(2026, 2, 28, 0)})
	require.NoError(t, err)

	_, err = f.seasons.ActivateSeason(ctx, single.ID)
	require.NoError(t, err)
	_, err = f.seasons.ActivateSeason(ctx, other.ID)
	require.NoError(t, err)

	active, err := f.seasons.GetActiveSeason(ctx)
	require.NoError(t, err)
	assert.Equal(t, other.ID, active.ID)

	report, err := f.harvest.ActiveHarvestReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Other", report.SeasonName)
	assert.Empty(t, report.Items)

	_, err = f.seasons.ActivateSeason(ctx, 999)
	requireCode(t, err, apperr.CodeSeasonNotFound)
}
