// Package apperr provides the typed error taxonomy returned by the core services.
package apperr

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind groups codes by the kind of rule that was violated.
type Kind string

const (
	KindNotFound  Kind = "NOT_FOUND"
	KindForbidden Kind = "FORBIDDEN"
	KindConflict  Kind = "CONFLICT"
	KindInvalid   Kind = "INVALID"
	KindImmutable Kind = "IMMUTABLE"
	KindUnknown   Kind = "UNKNOWN"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Not found
	CodeMemberNotFound           Code = "MEMBER_NOT_FOUND"
	CodeVisitNotFound            Code = "VISIT_NOT_FOUND"
	CodeCatchNotFound            Code = "CATCH_NOT_FOUND"
	CodeBookingNotFound          Code = "BOOKING_NOT_FOUND"
	CodeSeasonNotFound           Code = "SEASON_NOT_FOUND"
	CodeSpeciesNotFound          Code = "SPECIES_NOT_FOUND"
	CodeSpeciesInactiveOrMissing Code = "SPECIES_INACTIVE_OR_MISSING"
	CodeLocalityInactive         Code = "LOCALITY_INACTIVE"
	CodeCabinInactiveOrMissing   Code = "CABIN_INACTIVE_OR_MISSING"

	// Forbidden
	CodeForbidden      Code = "FORBIDDEN"
	CodeMemberInactive Code = "MEMBER_INACTIVE"

	// Conflict
	CodeMemberHasActiveVisit Code = "MEMBER_HAS_ACTIVE_VISIT"
	CodeLocalityOccupied     Code = "LOCALITY_OCCUPIED"
	CodeBookingConflict      Code = "BOOKING_CONFLICT"
	CodeDuplicatePlanItem    Code = "DUPLICATE_PLAN_ITEM"
	CodeSeasonAlreadyActive  Code = "SEASON_ALREADY_ACTIVE"

	// Invalid
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"
	CodeInvalidEndDate       Code = "INVALID_END_DATE"
	CodeCatchesOutsideRange  Code = "CATCHES_OUTSIDE_RANGE"
	CodeMissingRequiredField Code = "MISSING_REQUIRED_FIELD"
	CodeGuestShooterInvalid  Code = "GUEST_SHOOTER_INVALID"
	CodeHuntedAtOutOfRange   Code = "HUNTED_AT_OUT_OF_RANGE"
	CodeInvalidRange         Code = "INVALID_RANGE"

	// Immutable
	CodeAlreadyClosed        Code = "ALREADY_CLOSED"
	CodeClosedVisitImmutable Code = "CLOSED_VISIT_IMMUTABLE"
	CodeCancelledImmutable   Code = "CANCELLED_IMMUTABLE"
	CodeAlreadyCancelled     Code = "ALREADY_CANCELLED"
)

// HTTPStatus maps a kind to the status code used by the HTTP transport.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindImmutable:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps a kind to the closest gRPC status code.
func (k Kind) GRPCCode() codes.Code {
	switch k {
	case KindNotFound:
		return codes.NotFound
	case KindForbidden:
		return codes.PermissionDenied
	case KindConflict:
		return codes.AlreadyExists
	case KindInvalid:
		return codes.InvalidArgument
	case KindImmutable:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
