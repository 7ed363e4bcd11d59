package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"revir/internal/config"
)

// dialect captures the few differences between sqlite3 and postgres that
// the queries in this package care about.
type dialect struct {
	driver    string
	serial    string // auto-increment primary key column type
	timestamp string
	txOptions *sql.TxOptions
}

var (
	sqliteDialect = dialect{
		driver:    config.DriverSQLite,
		serial:    "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestamp: "DATETIME",
		// Write locking is requested through _txlock=immediate in the DSN.
		txOptions: nil,
	}
	postgresDialect = dialect{
		driver:    config.DriverPostgres,
		serial:    "BIGSERIAL PRIMARY KEY",
		timestamp: "TIMESTAMPTZ",
		txOptions: &sql.TxOptions{Isolation: sql.LevelSerializable},
	}
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return sqliteDialect, nil
	case config.DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebind rewrites ? placeholders to $n for postgres.
func (d dialect) rebind(query string) string {
	if d.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS members (
			id BIGINT PRIMARY KEY,
			display_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'MEMBER',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS localities (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS species (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			requires_age BOOLEAN NOT NULL DEFAULT FALSE,
			requires_sex BOOLEAN NOT NULL DEFAULT FALSE,
			requires_tag BOOLEAN NOT NULL DEFAULT FALSE,
			requires_weight BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cabins (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS visits (
			id ` + d.serial + `,
			member_id BIGINT NOT NULL REFERENCES members(id),
			locality_id BIGINT NOT NULL REFERENCES localities(id),
			start_date ` + d.timestamp + ` NOT NULL,
			end_date ` + d.timestamp + `,
			has_guest BOOLEAN NOT NULL DEFAULT FALSE,
			guest_name TEXT NOT NULL DEFAULT '',
			created_at ` + d.timestamp + ` NOT NULL,
			updated_at ` + d.timestamp + ` NOT NULL
		)`,
		// At most one open visit per locality and per member.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_visits_open_locality ON visits(locality_id) WHERE end_date IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_visits_open_member ON visits(member_id) WHERE end_date IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_visits_member_start ON visits(member_id, start_date)`,

		`CREATE TABLE IF NOT EXISTS catches (
			id ` + d.serial + `,
			visit_id BIGINT NOT NULL REFERENCES visits(id),
			species_id BIGINT NOT NULL REFERENCES species(id),
			hunting_locality_id BIGINT NOT NULL REFERENCES localities(id),
			hunted_at ` + d.timestamp + ` NOT NULL,
			sex TEXT NOT NULL DEFAULT '',
			age TEXT NOT NULL DEFAULT '',
			weight DOUBLE PRECISION,
			tag_number TEXT NOT NULL DEFAULT '',
			shooter_type TEXT NOT NULL DEFAULT 'MEMBER',
			guest_shooter_name TEXT NOT NULL DEFAULT '',
			created_at ` + d.timestamp + ` NOT NULL,
			updated_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_catches_visit ON catches(visit_id)`,
		`CREATE INDEX IF NOT EXISTS idx_catches_hunted_at ON catches(hunted_at)`,

		`CREATE TABLE IF NOT EXISTS hunting_seasons (
			id ` + d.serial + `,
			name TEXT NOT NULL,
			date_from ` + d.timestamp + ` NOT NULL,
			date_to ` + d.timestamp + ` NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_seasons_single_active ON hunting_seasons(is_active) WHERE is_active = TRUE`,

		`CREATE TABLE IF NOT EXISTS harvest_plan_items (
			id ` + d.serial + `,
			season_id BIGINT NOT NULL REFERENCES hunting_seasons(id),
			species_id BIGINT NOT NULL REFERENCES species(id),
			planned_count INTEGER NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			updated_at ` + d.timestamp + ` NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_plan_items_season_species ON harvest_plan_items(season_id, species_id)`,

		`CREATE TABLE IF NOT EXISTS cabin_bookings (
			id ` + d.serial + `,
			cabin_id BIGINT NOT NULL REFERENCES cabins(id),
			member_id BIGINT NOT NULL REFERENCES members(id),
			start_at ` + d.timestamp + ` NOT NULL,
			end_at ` + d.timestamp + ` NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'CONFIRMED',
			created_at ` + d.timestamp + ` NOT NULL,
			updated_at ` + d.timestamp + ` NOT NULL,
			CHECK (end_at >= start_at)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cabin_bookings_cabin_status ON cabin_bookings(cabin_id, status, start_at)`,
	}
}
