package usecase

import (
	"context"

	"github.com/heliumapi/helium/internal/core/domain"
	"github.com/heliumapi/helium/internal/core/ports"
)

type ActorService struct {
	coll      Collection
	validator *PayloadValidator
	telem     ports.Telemetry
}

func NewActorService(coll Collection, validator *PayloadValidator, telem ports.Telemetry) *ActorService {
	return &ActorService{coll: coll, validator: validator, telem: telem}
}

// List returns all actors, or those whose name contains filter.
func (s *ActorService) List(ctx context.Context, filter string) ([]domain.Actor, error) {
	s.telem.TrackEvent("get all actors")
	return queryAs[domain.Actor](ctx, s.coll, BuildListQuery(domain.TypeActor, domain.ActorFields, filter))
}

func (s *ActorService) Get(ctx context.Context, actorID string) (domain.Actor, error) {
	s.telem.TrackEvent("get actor by id")
	return firstAs[domain.Actor](ctx, s.coll, BuildByIDQuery(domain.TypeActor, domain.ActorFields, "actorId", actorID))
}

// Create validates raw and upserts it keyed by its id.
func (s *ActorService) Create(ctx context.Context, raw []byte) (domain.Actor, error) {
	s.telem.TrackEvent("create actor")
	var a domain.Actor
	if err := s.validator.Decode(domain.TypeActor, raw, &a); err != nil {
		return domain.Actor{}, err
	}
	return upsertAs(ctx, s.coll, domain.TypeActor, a.ID, a)
}
