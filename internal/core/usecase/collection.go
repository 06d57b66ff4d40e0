package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heliumapi/helium/internal/core/domain"
	"github.com/heliumapi/helium/internal/core/ports"
)

// Collection addresses the store collection every resource lives in. New
// documents are written under PartitionKey.
type Collection struct {
	Store        ports.DocumentStore
	Database     string
	Name         string
	PartitionKey string
}

func queryAs[T any](ctx context.Context, c Collection, q domain.Query) ([]T, error) {
	docs, err := c.Store.QueryDocuments(ctx, c.Database, c.Name, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", q.Type, doc.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// firstAs runs q and returns the first match, or domain.ErrNotFound.
func firstAs[T any](ctx context.Context, c Collection, q domain.Query) (T, error) {
	var zero T
	found, err := queryAs[T](ctx, c, q)
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, domain.ErrNotFound
	}
	return found[0], nil
}

func upsertAs[T any](ctx context.Context, c Collection, resourceType, id string, v T) (T, error) {
	return upsertInto(ctx, c, resourceType, c.PartitionKey, id, v)
}

// upsertInto writes v as document id under partitionKey.
func upsertInto[T any](ctx context.Context, c Collection, resourceType, partitionKey, id string, v T) (T, error) {
	var zero T
	body, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("encode %s %s: %w", resourceType, id, err)
	}
	doc, err := c.Store.UpsertDocument(ctx, c.Database, c.Name, domain.Document{
		ID:           id,
		PartitionKey: partitionKey,
		Type:         resourceType,
		Body:         body,
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := doc.Decode(&out); err != nil {
		return zero, fmt.Errorf("decode %s %s: %w", resourceType, id, err)
	}
	return out, nil
}

// locate finds the stored document whose idField equals id, returning its
// addressing metadata only.
func locate(ctx context.Context, c Collection, resourceType, idField, id string) (domain.Document, error) {
	docs, err := c.Store.QueryDocuments(ctx, c.Database, c.Name, BuildByIDQuery(resourceType, []string{"id"}, idField, id))
	if err != nil {
		return domain.Document{}, err
	}
	if len(docs) == 0 {
		return domain.Document{}, domain.ErrNotFound
	}
	return docs[0], nil
}
