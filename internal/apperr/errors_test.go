package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestErrorHelpers(t *testing.T) {
	err := fmt.Errorf("open visit: %w", Conflict(CodeLocalityOccupied, "locality is occupied"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, CodeLocalityOccupied, CodeOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.True(t, IsCode(err, CodeLocalityOccupied))
	assert.False(t, IsCode(err, CodeMemberHasActiveVisit))
	assert.True(t, errors.Is(err, Conflict(CodeLocalityOccupied, "other message")))

	plain := errors.New("boom")
	assert.Equal(t, KindUnknown, KindOf(plain))
	assert.Equal(t, CodeUnknown, CodeOf(plain))
	assert.Nil(t, MetadataOf(plain))
}

func TestMissingRequiredField(t *testing.T) {
	err := MissingRequiredField("weight")

	assert.Equal(t, KindInvalid, err.Kind)
	assert.Equal(t, CodeMissingRequiredField, err.Code)
	assert.Equal(t, map[string]string{"field": "weight"}, MetadataOf(err))
	assert.Equal(t, "MISSING_REQUIRED_FIELD: missing required field weight (field=weight)", err.Error())
}

func TestWithDoesNotMutateOriginal(t *testing.T) {
	base := Invalid(CodeInvalidArgument, "bad")
	withMeta := base.With("field", "name")

	assert.Nil(t, base.Metadata)
	assert.Equal(t, "name", withMeta.Metadata["field"])
}

func TestKindMappings(t *testing.T) {
	tests := []struct {
		kind Kind
		http int
		grpc codes.Code
	}{
		{KindNotFound, http.StatusNotFound, codes.NotFound},
		{KindForbidden, http.StatusForbidden, codes.PermissionDenied},
		{KindConflict, http.StatusConflict, codes.AlreadyExists},
		{KindInvalid, http.StatusUnprocessableEntity, codes.InvalidArgument},
		{KindImmutable, http.StatusConflict, codes.FailedPrecondition},
		{KindUnknown, http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.http, tt.kind.HTTPStatus())
			assert.Equal(t, tt.grpc, tt.kind.GRPCCode())
		})
	}
}
