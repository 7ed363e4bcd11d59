// Package repository defines the storage contract used by the services.
package repository

import (
	"context"
	"errors"
	"time"

	"revir/internal/models"
)

// ErrNotFound is returned by getters when no row matches.
var ErrNotFound = errors.New("not found")

// Store runs units of work atomically.
type Store interface {
	// InTx runs fn inside one transaction. The transaction is committed when
	// fn returns nil and rolled back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	MemberRepository
	LocalityRepository
	VisitRepository
	CatchRepository
	SpeciesRepository
	SeasonRepository
	CabinRepository
	BookingRepository
}

type MemberRepository interface {
	GetMember(ctx context.Context, id int64) (*models.Member, error)
}

type LocalityRepository interface {
	GetLocality(ctx context.Context, id int64) (*models.Locality, error)
}

// VisitRepository provides visit operations.
type VisitRepository interface {
	GetVisit(ctx context.Context, id int64) (*models.Visit, error)
	GetOpenVisitByMember(ctx context.Context, memberID int64) (*models.Visit, error)
	ListOpenVisitsByLocality(ctx context.Context, localityID int64) ([]models.Visit, error)
	ListOpenVisits(ctx context.Context) ([]models.Visit, error)
	ListMemberVisits(ctx context.Context, memberID int64, limit int) ([]models.Visit, error)
	CreateVisit(ctx context.Context, visit *models.Visit) error
	CloseVisit(ctx context.Context, id int64, endDate time.Time) error
	SetVisitGuest(ctx context.Context, id int64, guestName string) error
}

// CatchRepository provides catch operations.
type CatchRepository interface {
	GetCatch(ctx context.Context, id int64) (*models.Catch, error)
	ListVisitCatches(ctx context.Context, visitID int64) ([]models.Catch, error)
	CountCatchesAfter(ctx context.Context, visitID int64, after time.Time) (int, error)
	// ListCatchesBetween returns catches with from <= hunted_at < to.
	ListCatchesBetween(ctx context.Context, from, to time.Time) ([]models.Catch, error)
	CreateCatch(ctx context.Context, catch *models.Catch) error
	UpdateCatch(ctx context.Context, catch *models.Catch) error
	DeleteCatch(ctx context.Context, id int64) error
}

type SpeciesRepository interface {
	GetSpecies(ctx context.Context, id int64) (*models.Species, error)
}

// SeasonRepository provides hunting season and harvest plan operations.
type SeasonRepository interface {
	GetSeason(ctx context.Context, id int64) (*models.HuntingSeason, error)
	GetActiveSeason(ctx context.Context) (*models.HuntingSeason, error)
	CreateSeason(ctx context.Context, season *models.HuntingSeason) error
	// ActivateSeason marks id active and every other season inactive.
	ActivateSeason(ctx context.Context, id int64) error
	ListPlanItems(ctx context.Context, seasonID int64) ([]models.HarvestPlanItem, error)
	UpsertPlanItem(ctx context.Context, item *models.HarvestPlanItem) error
}

type CabinRepository interface {
	GetCabin(ctx context.Context, id int64) (*models.Cabin, error)
}

// BookingRepository provides cabin booking operations.
type BookingRepository interface {
	GetBooking(ctx context.Context, id int64) (*models.CabinBooking, error)
	// ListConfirmedBookings returns confirmed bookings of a cabin that may
	// intersect [from, to]. Callers apply the exact overlap rule.
	ListConfirmedBookings(ctx context.Context, cabinID int64, from, to time.Time) ([]models.CabinBooking, error)
	CreateBooking(ctx context.Context, booking *models.CabinBooking) error
	UpdateBooking(ctx context.Context, booking *models.CabinBooking) error
	DeleteBooking(ctx context.Context, id int64) error
}
