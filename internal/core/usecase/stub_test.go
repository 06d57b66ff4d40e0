package usecase

import (
	"context"
	"testing"

	"github.com/heliumapi/helium/internal/core/domain"
)

type stubStore struct {
	queryFn       func(ctx context.Context, database, collection string, q domain.Query) ([]domain.Document, error)
	getFn         func(ctx context.Context, database, collection, partitionKey, id string) (domain.Document, error)
	upsertFn      func(ctx context.Context, database, collection string, doc domain.Document) (domain.Document, error)
	deleteFn      func(ctx context.Context, database, collection, partitionKey, id string) error
	collectionsFn func(ctx context.Context, database string) ([]string, error)
}

func (s *stubStore) QueryDocuments(ctx context.Context, database, collection string, q domain.Query) ([]domain.Document, error) {
	if s.queryFn != nil {
		return s.queryFn(ctx, database, collection, q)
	}
	return nil, nil
}

func (s *stubStore) GetDocument(ctx context.Context, database, collection, partitionKey, id string) (domain.Document, error) {
	if s.getFn != nil {
		return s.getFn(ctx, database, collection, partitionKey, id)
	}
	return domain.Document{}, domain.ErrNotFound
}

func (s *stubStore) UpsertDocument(ctx context.Context, database, collection string, doc domain.Document) (domain.Document, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, database, collection, doc)
	}
	return doc, nil
}

func (s *stubStore) DeleteDocument(ctx context.Context, database, collection, partitionKey, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, database, collection, partitionKey, id)
	}
	return nil
}

func (s *stubStore) QueryCollections(ctx context.Context, database string) ([]string, error) {
	if s.collectionsFn != nil {
		return s.collectionsFn(ctx, database)
	}
	return []string{"movies"}, nil
}

type countingTelemetry struct {
	events []string
}

func (t *countingTelemetry) TrackEvent(name string) { t.events = append(t.events, name) }

func (t *countingTelemetry) TrackDependency(domain.Dependency) {}

func newTestValidator(t *testing.T) *PayloadValidator {
	t.Helper()
	v, err := NewPayloadValidator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	return v
}

func testCollection(store *stubStore) Collection {
	return Collection{Store: store, Database: "imdb", Name: "movies", PartitionKey: "0"}
}
