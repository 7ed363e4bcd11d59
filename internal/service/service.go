// Package service implements the visit, catch, harvest and cabin booking
// managers on top of a transactional repository.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"revir/internal/apperr"
	"revir/internal/metrics"
	"revir/internal/models"
	"revir/internal/repository"
)

// Publisher receives domain events after a successful commit.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func componentLogger(logger *zerolog.Logger, component string) *zerolog.Logger {
	l := logger.With().Str("component", component).Logger()
	return &l
}

// finish records the outcome of an operation. Domain rejections are logged
// at debug level and counted; anything else is a storage failure.
func finish(logger *zerolog.Logger, operation string, err error) error {
	if err == nil {
		return nil
	}
	code := apperr.CodeOf(err)
	if code == apperr.CodeUnknown {
		logger.Error().Err(err).Str("operation", operation).Msg("Operation failed")
		return fmt.Errorf("%s: %w", operation, err)
	}
	metrics.IncRejection(operation, string(code))
	logger.Debug().Str("operation", operation).Str("code", string(code)).Msg("Operation rejected")
	return err
}

// notFoundAs turns repository.ErrNotFound into the given domain error.
func notFoundAs(err error, notFound *apperr.Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}

func activeMember(ctx context.Context, tx repository.Tx, id int64) (*models.Member, error) {
	m, err := tx.GetMember(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, apperr.NotFound(apperr.CodeMemberNotFound, "member not found"))
	}
	if !m.IsActive {
		return nil, apperr.New(apperr.KindForbidden, apperr.CodeMemberInactive, "member is not active")
	}
	return m, nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
