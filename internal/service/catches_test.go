package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revir/internal/apperr"
	"revir/internal/events"
	"revir/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestRecordCatch_MissingWeight(t *testing.T) {
	f := newFixture(t)
	v := f.openVisit(t, janID, majerID, at(1, 15, 9))

	_, err := f.catches.RecordCatch(context.Background(), RecordCatchRequest{
		VisitID:   v.ID,
		SpeciesID: jelenID,
		HuntedAt:  at(1, 15, 10),
		Age:       "5",
		TagNumber: "SK-001",
	}, jan)
	requireCode(t, err, apperr.CodeMissingRequiredField)
	assert.Equal(t, "weight", apperr.MetadataOf(err)["field"])

	catches, err := f.catches.ListVisitCatches(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Empty(t, catches)
}

func TestRecordCatch_Validation(t *testing.T) {
	f := newFixture(t)
	v := f.openVisit(t, janID, majerID, at(1, 15, 9))

	tests := []struct {
		name  string
		req   RecordCatchRequest
		code  apperr.Code
		field string
	}{
		{
			name: "unknown species",
			req:  RecordCatchRequest{SpeciesID: 99},
			code: apperr.CodeSpeciesInactiveOrMissing,
		},
		{
			name: "inactive species",
			req:  RecordCatchRequest{SpeciesID: retiredSp},
			code: apperr.CodeSpeciesInactiveOrMissing,
		},
		{
			name: "inactive hunting locality",
			req:  RecordCatchRequest{SpeciesID: diviakID, HuntingLocalityID: closedLoc},
			code: apperr.CodeLocalityInactive,
		},
		{
			name:  "age checked before weight",
			req:   RecordCatchRequest{SpeciesID: jelenID, TagNumber: "T"},
			code:  apperr.CodeMissingRequiredField,
			field: "age",
		},
		{
			name:  "unknown sex counts as missing",
			req:   RecordCatchRequest{SpeciesID: srnecID, Sex: models.SexUnknown},
			code:  apperr.CodeMissingRequiredField,
			field: "sex",
		},
		{
			name:  "tag required",
			req:   RecordCatchRequest{SpeciesID: jelenID, Age: "3", Weight: ptr(120.0)},
			code:  apperr.CodeMissingRequiredField,
			field: "tagNumber",
		},
		{
			name:  "bad sex",
			req:   RecordCatchRequest{SpeciesID: diviakID, Sex: "BOAR"},
			code:  apperr.CodeInvalidArgument,
			field: "sex",
		},
		{
			name:  "negative weight",
			req:   RecordCatchRequest{SpeciesID: diviakID, Weight: ptr(-1.0)},
			code:  apperr.CodeInvalidArgument,
			field: "weight",
		},
		{
			name: "guest shooter without guest",
			req:  RecordCatchRequest{SpeciesID: diviakID, ShooterType: models.ShooterGuest, GuestShooterName: "X"},
			code: apperr.CodeGuestShooterInvalid,
		},
		{
			name: "before the visit",
			req:  RecordCatchRequest{SpeciesID: diviakID, HuntedAt: at(1, 15, 8)},
			code: apperr.CodeHuntedAtOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.VisitID = v.ID
			if req.HuntedAt.IsZero() {
				req.HuntedAt = at(1, 15, 10)
			}
			_, err := f.catches.RecordCatch(context.Background(), req, jan)
			requireCode(t, err, tt.code)
			if tt.field != "" {
				assert.Equal(t, tt.field, apperr.MetadataOf(err)["field"])
			}
		})
	}
	assert.Equal(t, []string{events.TypeVisitOpened}, f.publisher.published())
}

func TestRecordCatch_Normalization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.visits.OpenVisit(ctx, OpenVisitRequest{MemberID: janID, LocalityID: majerID, StartDate: at(1, 15, 9), GuestName: "Guest"})
	require.NoError(t, err)

	c, err := f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID}, jan)
	require.NoError(t, err)
	assert.Equal(t, f.now, c.HuntedAt)
	assert.Equal(t, majerID, c.HuntingLocalityID)
	assert.Equal(t, models.SexUnknown, c.Sex)
	assert.Equal(t, models.ShooterMember, c.ShooterType)

	guest, err := f.catches.RecordCatch(ctx, RecordCatchRequest{
		VisitID: v.ID, SpeciesID: diviakID, HuntedAt: at(1, 15, 11),
		HuntingLocalityID: dolinaID, ShooterType: models.ShooterGuest,
	}, jan)
	require.NoError(t, err)
	assert.Equal(t, "Guest", guest.GuestShooterName)
	assert.Equal(t, dolinaID, guest.HuntingLocalityID)

	member, err := f.catches.RecordCatch(ctx, RecordCatchRequest{
		VisitID: v.ID, SpeciesID: diviakID, HuntedAt: at(1, 15, 12), GuestShooterName: "ignored",
	}, jan)
	require.NoError(t, err)
	assert.Empty(t, member.GuestShooterName)

	catches, err := f.catches.ListVisitCatches(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, catches, 3)
}

func TestRecordCatch_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.openVisit(t, janID, majerID, at(1, 15, 9))
	req := RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID, HuntedAt: at(1, 15, 10)}

	_, err := f.catches.RecordCatch(ctx, req, peter)
	requireCode(t, err, apperr.CodeForbidden)

	_, err = f.catches.RecordCatch(ctx, req, admin)
	assert.NoError(t, err)

	req.VisitID = 999
	_, err = f.catches.RecordCatch(ctx, req, jan)
	requireCode(t, err, apperr.CodeVisitNotFound)
}

func TestRecordCatch_ClosedVisitWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.openVisit(t, janID, majerID, at(1, 15, 9))
	_, err := f.visits.CloseVisit(ctx, CloseVisitRequest{VisitID: v.ID, EndDate: at(1, 15, 12)}, jan)
	require.NoError(t, err)

	_, err = f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID, HuntedAt: at(1, 15, 12)}, jan)
	assert.NoError(t, err)

	_, err = f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID, HuntedAt: at(1, 15, 13)}, jan)
	requireCode(t, err, apperr.CodeHuntedAtOutOfRange)
}

func TestUpdateCatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.openVisit(t, janID, majerID, at(1, 15, 9))
	c, err := f.catches.RecordCatch(ctx, RecordCatchRequest{
		VisitID: v.ID, SpeciesID: jelenID, HuntedAt: at(1, 15, 10),
		Age: "5", TagNumber: "SK-1", Weight: ptr(140.5),
	}, jan)
	require.NoError(t, err)

	updated, err := f.catches.UpdateCatch(ctx, UpdateCatchRequest{CatchID: c.ID, Weight: ptr(150.0)}, jan)
	require.NoError(t, err)
	require.NotNil(t, updated.Weight)
	assert.Equal(t, 150.0, *updated.Weight)
	assert.Equal(t, "SK-1", updated.TagNumber)

	// Switching to a species with other requirements re-validates the whole catch.
	_, err = f.catches.UpdateCatch(ctx, UpdateCatchRequest{CatchID: c.ID, SpeciesID: ptr(srnecID)}, jan)
	requireCode(t, err, apperr.CodeMissingRequiredField)

	_, err = f.catches.UpdateCatch(ctx, UpdateCatchRequest{CatchID: c.ID, TagNumber: ptr("")}, peter)
	requireCode(t, err, apperr.CodeForbidden)

	_, err = f.catches.UpdateCatch(ctx, UpdateCatchRequest{CatchID: 999}, jan)
	requireCode(t, err, apperr.CodeCatchNotFound)

	stored, err := f.catches.ListVisitCatches(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, jelenID, stored[0].SpeciesID)
	assert.Equal(t, 150.0, *stored[0].Weight)
}

func TestCatch_ClosedVisitImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.openVisit(t, janID, majerID, at(1, 15, 9))
	c, err := f.catches.RecordCatch(ctx, RecordCatchRequest{VisitID: v.ID, SpeciesID: diviakID, HuntedAt: at(1, 15, 10)}, jan)
	require.NoError(t, err)
	_, err = f.visits.CloseVisit(ctx, CloseVisitRequest{VisitID: v.ID, EndDate: at(1, 15, 12)}, jan)
	require.NoError(t, err)

	_, err = f.catches.UpdateCatch(ctx, UpdateCatchRequest{CatchID: c.ID, Age: ptr("2")}, jan)
	requireCode(t, err, apperr.CodeClosedVisitImmutable)

	err = f.catches.DeleteCatch(ctx, c.ID, jan)
	requireCode(t, err, apperr.CodeClosedVisitImmutable)

	updated, err := f.catches.UpdateCatch(ctx, UpdateCatchRequest{CatchID: c.ID, Age: ptr("2")}, admin)
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Age)

	require.NoError(t, f.catches.DeleteCatch(ctx, c.ID, admin))
	catches, err := f.catches.ListVisitCatches(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, catches)

	assert.Equal(t, []string{
		events.TypeVisitOpened,
		events.TypeCatchRecorded,
		events.TypeVisitClosed,
		events.TypeCatchUpdated,
		events.TypeCatchDeleted,
	}, f.publisher.published())
}
