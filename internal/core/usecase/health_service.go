package usecase

import (
	"context"

	"github.com/heliumapi/helium/internal/core/ports"
)

// HealthService probes store connectivity with a metadata query.
type HealthService struct {
	store    ports.DocumentStore
	database string
	telem    ports.Telemetry
}

func NewHealthService(store ports.DocumentStore, database string, telem ports.Telemetry) *HealthService {
	return &HealthService{store: store, database: database, telem: telem}
}

func (s *HealthService) Check(ctx context.Context) error {
	s.telem.TrackEvent("healthcheck")
	_, err := s.store.QueryCollections(ctx, s.database)
	return err
}
