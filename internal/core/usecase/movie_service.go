package usecase

import (
	"context"
	"fmt"

	"github.com/heliumapi/helium/internal/core/domain"
	"github.com/heliumapi/helium/internal/core/ports"
)

type MovieService struct {
	coll      Collection
	validator *PayloadValidator
	telem     ports.Telemetry
}

func NewMovieService(coll Collection, validator *PayloadValidator, telem ports.Telemetry) *MovieService {
	return &MovieService{coll: coll, validator: validator, telem: telem}
}

// List returns all movies, or those whose title contains filter.
func (s *MovieService) List(ctx context.Context, filter string) ([]domain.Movie, error) {
	s.telem.TrackEvent("get all movies")
	return queryAs[domain.Movie](ctx, s.coll, BuildListQuery(domain.TypeMovie, domain.MovieFields, filter))
}

func (s *MovieService) Get(ctx context.Context, movieID string) (domain.Movie, error) {
	s.telem.TrackEvent("get movie by id")
	return firstAs[domain.Movie](ctx, s.coll, BuildByIDQuery(domain.TypeMovie, domain.MovieFields, "movieId", movieID))
}

func (s *MovieService) Create(ctx context.Context, raw []byte) (domain.Movie, error) {
	s.telem.TrackEvent("create movie")
	var m domain.Movie
	if err := s.validator.Decode(domain.TypeMovie, raw, &m); err != nil {
		return domain.Movie{}, err
	}
	return upsertAs(ctx, s.coll, domain.TypeMovie, m.ID, m)
}

// Replace overwrites the stored movie addressed by movieID with raw. The
// body must keep the stored movieId and id; the document stays in its
// partition.
func (s *MovieService) Replace(ctx context.Context, movieID string, raw []byte) (domain.Movie, error) {
	s.telem.TrackEvent("update movie")
	var m domain.Movie
	if err := s.validator.Decode(domain.TypeMovie, raw, &m); err != nil {
		return domain.Movie{}, err
	}
	if m.MovieID != movieID {
		return domain.Movie{}, &domain.ValidationError{Messages: []string{
			fmt.Sprintf("%q must match the movie id in the path (%q)", "movieId", movieID),
		}}
	}
	existing, err := locate(ctx, s.coll, domain.TypeMovie, "movieId", movieID)
	if err != nil {
		return domain.Movie{}, err
	}
	if m.ID != existing.ID {
		return domain.Movie{}, &domain.ValidationError{Messages: []string{
			fmt.Sprintf("%q must match the stored id of movie %q (%q)", "id", movieID, existing.ID),
		}}
	}
	return upsertInto(ctx, s.coll, domain.TypeMovie, existing.PartitionKey, existing.ID, m)
}

// Delete removes the movie addressed by movieID. A missing movie yields
// domain.ErrNotFound.
func (s *MovieService) Delete(ctx context.Context, movieID string) error {
	s.telem.TrackEvent("delete movie")
	existing, err := locate(ctx, s.coll, domain.TypeMovie, "movieId", movieID)
	if err != nil {
		return err
	}
	return s.coll.Store.DeleteDocument(ctx, s.coll.Database, s.coll.Name, existing.PartitionKey, existing.ID)
}
