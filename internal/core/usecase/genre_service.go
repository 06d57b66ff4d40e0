package usecase

import (
	"context"

	"github.com/heliumapi/helium/internal/core/domain"
	"github.com/heliumapi/helium/internal/core/ports"
)

type GenreService struct {
	coll      Collection
	validator *PayloadValidator
	telem     ports.Telemetry
}

func NewGenreService(coll Collection, validator *PayloadValidator, telem ports.Telemetry) *GenreService {
	return &GenreService{coll: coll, validator: validator, telem: telem}
}

func (s *GenreService) List(ctx context.Context) ([]domain.Genre, error) {
	s.telem.TrackEvent("get all genres")
	return queryAs[domain.Genre](ctx, s.coll, BuildListQuery(domain.TypeGenre, nil, ""))
}

func (s *GenreService) Create(ctx context.Context, raw []byte) (domain.Genre, error) {
	s.telem.TrackEvent("create genre")
	var g domain.Genre
	if err := s.validator.Decode(domain.TypeGenre, raw, &g); err != nil {
		return domain.Genre{}, err
	}
	return upsertAs(ctx, s.coll, domain.TypeGenre, g.ID, g)
}
