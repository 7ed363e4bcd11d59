package database

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revir/internal/apperr"
	"revir/internal/config"
	"revir/internal/models"
	"revir/internal/repository"
)

// Runs against a disposable database; all revir tables are truncated first.
func setupPostgresDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("REVIR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("REVIR_TEST_POSTGRES_DSN not set")
	}

	logger := zerolog.New(io.Discard)
	db, err := NewDB(config.DatabaseConfig{Driver: config.DriverPostgres, DSN: dsn}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(context.Background(), `TRUNCATE cabin_bookings, harvest_plan_items, hunting_seasons,
		catches, visits, cabins, species, localities, members RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	require.NoError(t, db.SyncReference(context.Background(), &config.ReferenceData{
		Members: []models.Member{
			{ID: 1, DisplayName: "Admin", Role: models.RoleAdmin},
			{ID: 2, DisplayName: "Hunter", Role: models.RoleMember},
		},
		Localities: []models.Locality{{ID: 1, Name: "North"}},
		Cabins:     []models.Cabin{{ID: 1, Name: "Lodge"}},
	}))
	return db
}

func TestPostgres_OpenVisitUniqueness(t *testing.T) {
	db := setupPostgresDB(t)
	ctx := context.Background()

	err := db.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateVisit(ctx, &models.Visit{MemberID: 1, LocalityID: 1, StartDate: datetime(15, 8)})
	})
	require.NoError(t, err)

	err = db.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateVisit(ctx, &models.Visit{MemberID: 2, LocalityID: 1, StartDate: datetime(15, 9)})
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeLocalityOccupied), "got %v", err)
}

func TestPostgres_Bookings(t *testing.T) {
	db := setupPostgresDB(t)
	ctx := context.Background()

	err := db.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateBooking(ctx, &models.CabinBooking{
			CabinID: 1, MemberID: 2, StartAt: datetime(10, 0), EndAt: datetime(12, 0),
		})
	})
	require.NoError(t, err)

	err = db.InTx(ctx, func(tx repository.Tx) error {
		list, err := tx.ListConfirmedBookings(ctx, 1, datetime(11, 0), datetime(13, 0))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Hunter", list[0].MemberName)

		list, err = tx.ListConfirmedBookings(ctx, 1, datetime(13, 0), datetime(14, 0))
		require.NoError(t, err)
		assert.Empty(t, list)
		return nil
	})
	require.NoError(t, err)
}
