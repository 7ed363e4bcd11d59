package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"revir/internal/models"
)

const seasonColumns = `id, name, date_from, date_to, is_active, created_at`

func scanSeason(row rowScanner) (*models.HuntingSeason, error) {
	var s models.HuntingSeason
	if err := row.Scan(&s.ID, &s.Name, &s.DateFrom, &s.DateTo, &s.IsActive, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.DateFrom = utc(s.DateFrom)
	s.DateTo = utc(s.DateTo)
	s.CreatedAt = utc(s.CreatedAt)
	return &s, nil
}

func (t *tx) GetSeason(ctx context.Context, id int64) (*models.HuntingSeason, error) {
	s, err := scanSeason(t.queryRow(ctx, `SELECT `+seasonColumns+` FROM hunting_seasons WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "season", id)
	}
	return s, nil
}

// GetActiveSeason returns the active season, or nil if none is active.
func (t *tx) GetActiveSeason(ctx context.Context) (*models.HuntingSeason, error) {
	s, err := scanSeason(t.queryRow(ctx,
		`SELECT `+seasonColumns+` FROM hunting_seasons WHERE is_active = TRUE`))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active season: %w", err)
	}
	return s, nil
}

func (t *tx) CreateSeason(ctx context.Context, s *models.HuntingSeason) error {
	s.CreatedAt = time.Now().UTC()
	s.DateFrom = models.CalendarDay(s.DateFrom)
	s.DateTo = models.CalendarDay(s.DateTo)
	err := t.queryRow(ctx, `
		INSERT INTO hunting_seasons (name, date_from, date_to, is_active, created_at)
		VALUES (?, ?, ?, FALSE, ?)
		RETURNING id`,
		s.Name, s.DateFrom, s.DateTo, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create season: %w", err)
	}
	s.IsActive = false
	return nil
}

func (t *tx) ActivateSeason(ctx context.Context, id int64) error {
	// Deactivate first so the single-active index never sees two rows.
	if _, err := t.exec(ctx,
		`UPDATE hunting_seasons SET is_active = FALSE WHERE is_active = TRUE AND id <> ?`, id); err != nil {
		return fmt.Errorf("deactivate seasons: %w", err)
	}
	res, err := t.exec(ctx, `UPDATE hunting_seasons SET is_active = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("activate season %d: %w", id, err)
	}
	return expectOne(res, "season", id)
}

func (t *tx) ListPlanItems(ctx context.Context, seasonID int64) ([]models.HarvestPlanItem, error) {
	rows, err := t.query(ctx, `
		SELECT id, season_id, species_id, planned_count, note, updated_at
		FROM harvest_plan_items WHERE season_id = ? ORDER BY species_id`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list plan items of season %d: %w", seasonID, err)
	}
	defer rows.Close()

	var items []models.HarvestPlanItem
	for rows.Next() {
		var it models.HarvestPlanItem
		if err := rows.Scan(&it.ID, &it.SeasonID, &it.SpeciesID, &it.PlannedCount, &it.Note, &it.UpdatedAt); err != nil {
			return nil, err
		}
		it.UpdatedAt = utc(it.UpdatedAt)
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpsertPlanItem creates or overwrites the item for (season, species) in one statement.
func (t *tx) UpsertPlanItem(ctx context.Context, it *models.HarvestPlanItem) error {
	it.UpdatedAt = time.Now().UTC()
	err := t.queryRow(ctx, `
		INSERT INTO harvest_plan_items (season_id, species_id, planned_count, note, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(season_id, species_id) DO UPDATE SET
			planned_count = excluded.planned_count,
			note = excluded.note,
			updated_at = excluded.updated_at
		RETURNING id`,
		it.SeasonID, it.SpeciesID, it.PlannedCount, it.Note, it.UpdatedAt,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("upsert plan item season %d species %d: %w", it.SeasonID, it.SpeciesID, err)
	}
	return nil
}
