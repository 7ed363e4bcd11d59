package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"revir/internal/apperr"
	"revir/internal/config"
	"revir/internal/database"
	"revir/internal/models"
)

const (
	adminID   int64 = 1
	janID     int64 = 2
	peterID   int64 = 3
	formerID  int64 = 4 // deactivated member
	majerID   int64 = 1
	dolinaID  int64 = 2
	closedLoc int64 = 3 // deactivated locality

	jelenID    int64 = 1 // requires age, tag, weight
	srnecID    int64 = 2 // requires sex
	diviakID   int64 = 3 // requires nothing
	retiredSp  int64 = 4 // deactivated species
	chataID    int64 = 1
	oldCabinID int64 = 2 // deactivated cabin
)

var (
	admin = models.Actor{MemberID: adminID, Role: models.RoleAdmin}
	jan   = models.Actor{MemberID: janID, Role: models.RoleMember}
	peter = models.Actor{MemberID: peterID, Role: models.RoleMember}
)

// at returns a UTC time in 2026.
func at(month time.Month, day, hour int) time.Time {
	return time.Date(2026, month, day, hour, 0, 0, 0, time.UTC)
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

type fixture struct {
	db        *database.DB
	publisher *recordingPublisher
	now       time.Time

	visits  *VisitService
	catches *CatchService
	harvest *HarvestService
	seasons *SeasonService
	cabins  *CabinService
	members *MemberService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	db, err := database.NewDB(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "revir.db"),
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.SyncReference(ctx, &config.ReferenceData{
		Members: []models.Member{
			{ID: adminID, DisplayName: "Admin", Role: models.RoleAdmin},
			{ID: janID, DisplayName: "Ján Novák", Role: models.RoleMember},
			{ID: peterID, DisplayName: "Peter Horváth", Role: models.RoleMember},
			{ID: formerID, DisplayName: "Former", Role: models.RoleMember},
		},
		Localities: []models.Locality{
			{ID: majerID, Name: "Majer"},
			{ID: dolinaID, Name: "Dolina"},
			{ID: closedLoc, Name: "Closed"},
		},
		Species: []models.Species{
			{ID: jelenID, Name: "Jeleň I.VT", RequiresAge: true, RequiresTag: true, RequiresWeight: true},
			{ID: srnecID, Name: "Srnec", RequiresSex: true},
			{ID: diviakID, Name: "Diviak"},
			{ID: retiredSp, Name: "Retired"},
		},
		Cabins: []models.Cabin{
			{ID: chataID, Name: "Chata"},
			{ID: oldCabinID, Name: "Old cabin"},
		},
	}))

	for _, q := range []string{
		`UPDATE members SET is_active = FALSE WHERE id = 4`,
		`UPDATE localities SET is_active = FALSE WHERE id = 3`,
		`UPDATE species SET is_active = FALSE WHERE id = 4`,
		`UPDATE cabins SET is_active = FALSE WHERE id = 2`,
	} {
		_, err := db.ExecContext(ctx, q)
		require.NoError(t, err)
	}

	f := &fixture{
		db:        db,
		publisher: &recordingPublisher{},
		now:       at(1, 15, 18),
	}
	clock := func() time.Time { return f.now }

	f.visits = NewVisitService(db, f.publisher, &logger)
	f.visits.now = clock
	f.catches = NewCatchService(db, f.publisher, &logger)
	f.catches.now = clock
	f.harvest = NewHarvestService(db, f.publisher, &logger)
	f.seasons = NewSeasonService(db, f.publisher, &logger)
	f.cabins = NewCabinService(db, f.publisher, &logger)
	f.members = NewMemberService(db, &logger)
	return f
}

// openVisit opens a visit or fails the test.
func (f *fixture) openVisit(t *testing.T, memberID, localityID int64, start time.Time) *models.Visit {
	t.Helper()
	v, err := f.visits.OpenVisit(context.Background(), OpenVisitRequest{
		MemberID: memberID, LocalityID: localityID, StartDate: start,
	})
	require.NoError(t, err)
	return v
}

func requireCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperr.CodeOf(err), "unexpected error: %v", err)
}
