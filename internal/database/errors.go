package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"revir/internal/apperr"
)

var (
	// ErrConcurrentModification is returned when the database aborted a
	// transaction because of a concurrent writer. Callers may retry.
	ErrConcurrentModification = errors.New("concurrent modification")
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// uniqueIndexes maps backstop unique indexes to the conflict they signal.
// sqlite reports the indexed columns, postgres the index name.
var uniqueIndexes = []struct {
	name    string
	columns string
	err     *apperr.Error
}{
	{
		name:    "idx_visits_open_locality",
		columns: "visits.locality_id",
		err:     apperr.Conflict(apperr.CodeLocalityOccupied, "locality already has an open visit"),
	},
	{
		name:    "idx_visits_open_member",
		columns: "visits.member_id",
		err:     apperr.Conflict(apperr.CodeMemberHasActiveVisit, "member already has an open visit"),
	},
	{
		name:    "idx_seasons_single_active",
		columns: "hunting_seasons.is_active",
		err:     apperr.Conflict(apperr.CodeSeasonAlreadyActive, "another season is already active"),
	},
	{
		name:    "idx_plan_items_season_species",
		columns: "harvest_plan_items.season_id, harvest_plan_items.species_id",
		err:     apperr.Conflict(apperr.CodeDuplicatePlanItem, "plan item already exists for this species"),
	},
}

// mapError translates driver errors into domain conflicts or
// ErrConcurrentModification. Other errors are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
			if mapped := matchUnique(func(_, cols string) bool {
				return strings.Contains(sqliteErr.Error(), cols)
			}); mapped != nil {
				return mapped
			}
		case sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked:
			return ErrConcurrentModification
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if mapped := matchUnique(func(idx, _ string) bool {
				return pgErr.ConstraintName == idx
			}); mapped != nil {
				return mapped
			}
		case pgSerializationFailure, pgDeadlockDetected:
			return ErrConcurrentModification
		}
	}
	return err
}

func matchUnique(match func(index, columns string) bool) error {
	for _, u := range uniqueIndexes {
		if match(u.name, u.columns) {
			return u.err
		}
	}
	return nil
}
