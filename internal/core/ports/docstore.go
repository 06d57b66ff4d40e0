package ports

import (
	"context"

	"github.com/heliumapi/helium/internal/core/domain"
)

// DocumentStore is the document database client. Lookups of missing
// documents return an error wrapping domain.ErrNotFound; other failures
// are *domain.StoreError.
type DocumentStore interface {
	QueryDocuments(ctx context.Context, database, collection string, query domain.Query) ([]domain.Document, error)
	GetDocument(ctx context.Context, database, collection, partitionKey, id string) (domain.Document, error)
	UpsertDocument(ctx context.Context, database, collection string, doc domain.Document) (domain.Document, error)
	DeleteDocument(ctx context.Context, database, collection, partitionKey, id string) error
	QueryCollections(ctx context.Context, database string) ([]string, error)
}
