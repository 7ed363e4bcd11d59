package service

import (
	"context"

	"github.com/rs/zerolog"

	"revir/internal/models"
	"revir/internal/repository"
)

// MemberService resolves the acting member of a request.
type MemberService struct {
	store  repository.Store
	logger *zerolog.Logger
}

func NewMemberService(store repository.Store, logger *zerolog.Logger) *MemberService {
	return &MemberService{store: store, logger: componentLogger(logger, "members")}
}

// Actor loads an active member and returns it as an actor with its stored role.
func (s *MemberService) Actor(ctx context.Context, memberID int64) (models.Actor, error) {
	var actor models.Actor
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		m, err := activeMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		actor = models.ActorOf(m)
		return nil
	})
	if err != nil {
		return models.Actor{}, finish(s.logger, "resolve_actor", err)
	}
	return actor, nil
}
