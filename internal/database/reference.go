package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"revir/internal/config"
	"revir/internal/models"
	"revir/internal/repository"
)

func (t *tx) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	var m models.Member
	err := t.queryRow(ctx,
		`SELECT id, display_name, role, is_active FROM members WHERE id = ?`, id,
	).Scan(&m.ID, &m.DisplayName, &m.Role, &m.IsActive)
	if err != nil {
		return nil, notFound(err, "member", id)
	}
	return &m, nil
}

func (t *tx) GetLocality(ctx context.Context, id int64) (*models.Locality, error) {
	var l models.Locality
	err := t.queryRow(ctx,
		`SELECT id, name, is_active FROM localities WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.IsActive)
	if err != nil {
		return nil, notFound(err, "locality", id)
	}
	return &l, nil
}

func (t *tx) GetSpecies(ctx context.Context, id int64) (*models.Species, error) {
	var s models.Species
	err := t.queryRow(ctx, `
		SELECT id, name, requires_age, requires_sex, requires_tag, requires_weight, is_active
		FROM species WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.RequiresAge, &s.RequiresSex, &s.RequiresTag, &s.RequiresWeight, &s.IsActive)
	if err != nil {
		return nil, notFound(err, "species", id)
	}
	return &s, nil
}

func (t *tx) GetCabin(ctx context.Context, id int64) (*models.Cabin, error) {
	var c models.Cabin
	err := t.queryRow(ctx,
		`SELECT id, name, is_active FROM cabins WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.IsActive)
	if err != nil {
		return nil, notFound(err, "cabin", id)
	}
	return &c, nil
}

// SyncReference applies reference.yaml to the database.
// It upserts every listed row as active and marks rows missing from the file inactive.
func (db *DB) SyncReference(ctx context.Context, ref *config.ReferenceData) error {
	if ref == nil {
		return fmt.Errorf("reference data is nil")
	}

	err := db.InTx(ctx, func(rtx repository.Tx) error {
		t := rtx.(*tx)
		now := time.Now().UTC()

		memberIDs := make([]int64, 0, len(ref.Members))
		for _, m := range ref.Members {
			_, err := t.exec(ctx, `
				INSERT INTO members (id, display_name, role, is_active, updated_at)
				VALUES (?, ?, ?, TRUE, ?)
				ON CONFLICT(id) DO UPDATE SET
					display_name = excluded.display_name,
					role = excluded.role,
					is_active = TRUE,
					updated_at = excluded.updated_at`,
				m.ID, m.DisplayName, string(m.Role), now,
			)
			if err != nil {
				return fmt.Errorf("sync member %d: %w", m.ID, err)
			}
			memberIDs = append(memberIDs, m.ID)
		}

		localityIDs := make([]int64, 0, len(ref.Localities))
		for _, l := range ref.Localities {
			_, err := t.exec(ctx, `
				INSERT INTO localities (id, name, is_active, updated_at)
				VALUES (?, ?, TRUE, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					is_active = TRUE,
					updated_at = excluded.updated_at`,
				l.ID, l.Name, now,
			)
			if err != nil {
				return fmt.Errorf("sync locality %d: %w", l.ID, err)
			}
			localityIDs = append(localityIDs, l.ID)
		}

		speciesIDs := make([]int64, 0, len(ref.Species))
		for _, s := range ref.Species {
			_, err := t.exec(ctx, `
				INSERT INTO species (id, name, requires_age, requires_sex, requires_tag, requires_weight, is_active, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, TRUE, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					requires_age = excluded.requires_age,
					requires_sex = excluded.requires_sex,
					requires_tag = excluded.requires_tag,
					requires_weight = excluded.requires_weight,
					is_active = TRUE,
					updated_at = excluded.updated_at`,
				s.ID, s.Name, s.RequiresAge, s.RequiresSex, s.RequiresTag, s.RequiresWeight, now,
			)
			if err != nil {
				return fmt.Errorf("sync species %d: %w", s.ID, err)
			}
			speciesIDs = append(speciesIDs, s.ID)
		}

		cabinIDs := make([]int64, 0, len(ref.Cabins))
		for _, c := range ref.Cabins {
			_, err := t.exec(ctx, `
				INSERT INTO cabins (id, name, is_active, updated_at)
				VALUES (?, ?, TRUE, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					is_active = TRUE,
					updated_at = excluded.updated_at`,
				c.ID, c.Name, now,
			)
			if err != nil {
				return fmt.Errorf("sync cabin %d: %w", c.ID, err)
			}
			cabinIDs = append(cabinIDs, c.ID)
		}

		// Deactivate rows that disappeared from the file.
		for table, ids := range map[string][]int64{
			"members":    memberIDs,
			"localities": localityIDs,
			"species":    speciesIDs,
			"cabins":     cabinIDs,
		} {
			if err := t.deactivateMissing(ctx, table, ids, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.Info().
		Int("members", len(ref.Members)).
		Int("localities", len(ref.Localities)).
		Int("species", len(ref.Species)).
		Int("cabins", len(ref.Cabins)).
		Msg("Reference data synced")
	return nil
}

func (t *tx) deactivateMissing(ctx context.Context, table string, keep []int64, now time.Time) error {
	query := `UPDATE ` + table + ` SET is_active = FALSE, updated_at = ? WHERE is_active = TRUE`
	args := []any{now}
	if len(keep) > 0 {
		query += ` AND id NOT IN (?` + strings.Repeat(", ?", len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}
	if _, err := t.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("deactivate missing %s: %w", table, err)
	}
	return nil
}
