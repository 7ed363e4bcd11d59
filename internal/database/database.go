package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/mattn/go-sqlite3"    // sqlite3 driver
	"github.com/rs/zerolog"

	"revir/internal/config"
	"revir/internal/repository"
)

// DB represents the database connection.
type DB struct {
	*sql.DB
	dialect dialect
	logger  *zerolog.Logger
}

var _ repository.Store = (*DB)(nil)

// NewDB opens the configured database and creates tables if they don't exist.
func NewDB(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if d.driver == config.DriverSQLite {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL mode, busy timeout, and BEGIN IMMEDIATE so that every
		// transaction holds the write lock from its first statement.
		dsn = cfg.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	}

	sqlDB, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := newDB(sqlDB, d, logger)

	if err := instance.createTables(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", d.driver).Msg("Database initialized")
	return instance, nil
}

func newDB(sqlDB *sql.DB, d dialect, logger *zerolog.Logger) *DB {
	l := logger.With().Str("component", "database").Logger()
	return &DB{DB: sqlDB, dialect: d, logger: &l}
}

func (db *DB) createTables(ctx context.Context) error {
	for _, query := range db.dialect.schema() {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Driver returns the name of the database driver in use.
func (db *DB) Driver() string {
	return db.dialect.driver
}

// InTx runs fn inside one transaction and commits when fn returns nil.
// Driver conflicts are translated by mapError.
func (db *DB) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	sqlTx, err := db.BeginTx(ctx, db.dialect.txOptions)
	if err != nil {
		return fmt.Errorf("begin tx: %w", mapError(err))
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{tx: sqlTx, dialect: db.dialect}); err != nil {
		return mapError(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", mapError(err))
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// tx implements repository.Tx on top of *sql.Tx.
type tx struct {
	tx      *sql.Tx
	dialect dialect
}

var _ repository.Tx = (*tx)(nil)

func (t *tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.rebind(query), args...)
}

func (t *tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.rebind(query), args...)
}

func (t *tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.rebind(query), args...)
}

// notFound converts sql.ErrNoRows into repository.ErrNotFound.
func notFound(err error, what string, id int64) error {
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %d: %w", what, id, repository.ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", what, id, err)
}

// expectOne fails when an UPDATE or DELETE touched no rows.
func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, repository.ErrNotFound)
	}
	return nil
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
