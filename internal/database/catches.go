package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"revir/internal/models"
)

const catchColumns = `id, visit_id, species_id, hunting_locality_id, hunted_at, sex, age, weight,
	tag_number, shooter_type, guest_shooter_name, created_at, updated_at`

func scanCatch(row rowScanner) (*models.Catch, error) {
	var (
		c      models.Catch
		weight sql.NullFloat64
	)
	err := row.Scan(&c.ID, &c.VisitID, &c.SpeciesID, &c.HuntingLocalityID, &c.HuntedAt,
		&c.Sex, &c.Age, &weight, &c.TagNumber, &c.ShooterType, &c.GuestShooterName,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if weight.Valid {
		w := weight.Float64
		c.Weight = &w
	}
	c.HuntedAt = utc(c.HuntedAt)
	c.CreatedAt = utc(c.CreatedAt)
	c.UpdatedAt = utc(c.UpdatedAt)
	return &c, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func (t *tx) listCatches(ctx context.Context, query string, args ...any) ([]models.Catch, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catches []models.Catch
	for rows.Next() {
		c, err := scanCatch(rows)
		if err != nil {
			return nil, err
		}
		catches = append(catches, *c)
	}
	return catches, rows.Err()
}

func (t *tx) GetCatch(ctx context.Context, id int64) (*models.Catch, error) {
	c, err := scanCatch(t.queryRow(ctx, `SELECT `+catchColumns+` FROM catches WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "catch", id)
	}
	return c, nil
}

func (t *tx) ListVisitCatches(ctx context.Context, visitID int64) ([]models.Catch, error) {
	catches, err := t.listCatches(ctx,
		`SELECT `+catchColumns+` FROM catches WHERE visit_id = ? ORDER BY hunted_at, id`, visitID)
	if err != nil {
		return nil, fmt.Errorf("list catches of visit %d: %w", visitID, err)
	}
	return catches, nil
}

func (t *tx) CountCatchesAfter(ctx context.Context, visitID int64, after time.Time) (int, error) {
	var count int
	err := t.queryRow(ctx,
		`SELECT COUNT(*) FROM catches WHERE visit_id = ? AND hunted_at > ?`,
		visitID, after.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count catches of visit %d: %w", visitID, err)
	}
	return count, nil
}

func (t *tx) ListCatchesBetween(ctx context.Context, from, to time.Time) ([]models.Catch, error) {
	catches, err := t.listCatches(ctx,
		`SELECT `+catchColumns+` FROM catches WHERE hunted_at >= ? AND hunted_at < ? ORDER BY hunted_at, id`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list catches between %s and %s: %w", from, to, err)
	}
	return catches, nil
}

func (t *tx) CreateCatch(ctx context.Context, c *models.Catch) error {
	now := time.Now().UTC()
	c.HuntedAt = utc(c.HuntedAt)
	err := t.queryRow(ctx, `
		INSERT INTO catches (visit_id, species_id, hunting_locality_id, hunted_at, sex, age, weight,
			tag_number, shooter_type, guest_shooter_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.VisitID, c.SpeciesID, c.HuntingLocalityID, c.HuntedAt, string(c.Sex), c.Age, nullFloat(c.Weight),
		c.TagNumber, string(c.ShooterType), c.GuestShooterName, now, now,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("create catch: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (t *tx) UpdateCatch(ctx context.Context, c *models.Catch) error {
	c.UpdatedAt = time.Now().UTC()
	c.HuntedAt = utc(c.HuntedAt)
	res, err := t.exec(ctx, `
		UPDATE catches SET species_id = ?, hunting_locality_id = ?, hunted_at = ?, sex = ?, age = ?,
			weight = ?, tag_number = ?, shooter_type = ?, guest_shooter_name = ?, updated_at = ?
		WHERE id = ?`,
		c.SpeciesID, c.HuntingLocalityID, c.HuntedAt, string(c.Sex), c.Age, nullFloat(c.Weight),
		c.TagNumber, string(c.ShooterType), c.GuestShooterName, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update catch %d: %w", c.ID, err)
	}
	return expectOne(res, "catch", c.ID)
}

func (t *tx) DeleteCatch(ctx context.Context, id int64) error {
	res, err := t.exec(ctx, `DELETE FROM catches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete catch %d: %w", id, err)
	}
	return expectOne(res, "catch", id)
}
