package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/heliumapi/helium/internal/adapters/docstore/gormdb"
	"github.com/heliumapi/helium/internal/core/domain"
	"github.com/heliumapi/helium/internal/core/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dependencyType = "DocumentStore"

// Client executes document operations against a gorm-backed store and
// reports duration and request charge of each one to telemetry.
type Client struct {
	db      *gormdb.DB
	telem   ports.Telemetry
	logger  *slog.Logger
	now     func() time.Time
	newETag func() string
}

var _ ports.DocumentStore = (*Client)(nil)

func NewClient(db *gormdb.DB, telem ports.Telemetry, logger *slog.Logger) *Client {
	return &Client{
		db:      db,
		telem:   telem,
		logger:  logger,
		now:     time.Now,
		newETag: func() string { return uuid.NewString() },
	}
}

// EnsureCollection creates the collection if it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context, database, collection string) error {
	model := collectionModel{Database: database, Collection: collection, CreatedAt: c.now().UTC()}
	err := c.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
	})
	if err != nil {
		return &domain.StoreError{Op: "createCollection", Link: CollectionLink(database, collection), Err: err}
	}
	return nil
}

func (c *Client) QueryDocuments(ctx context.Context, database, collection string, query domain.Query) ([]domain.Document, error) {
	link := CollectionLink(database, collection)
	start := time.Now()

	var (
		docs   []domain.Document
		charge float64
	)
	err := query.Validate()
	if err == nil {
		err = c.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
			if err := requireCollection(tx, database, collection); err != nil {
				return err
			}
			var models []documentModel
			if err := applyQuery(tx.DB, c.db.Dialect, database, collection, query).Find(&models).Error; err != nil {
				return err
			}

			docs = make([]domain.Document, 0, len(models))
			bodies := make([][]byte, 0, len(models))
			for _, m := range models {
				doc := toDomain(m)
				body, err := project(doc.Body, query.Fields)
				if err != nil {
					return err
				}
				doc.Body = body
				docs = append(docs, doc)
				bodies = append(bodies, body)
			}
			charge = readCharge(bodies...)
			return nil
		})
	}
	err = wrapErr("queryDocuments", link, err)
	c.track("queryDocuments", link, query.String(), start, charge, err)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, database, collection, partitionKey, id string) (domain.Document, error) {
	link := DocumentLink(database, collection, id)
	start := time.Now()

	var model documentModel
	err := c.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		if err := requireCollection(tx, database, collection); err != nil {
			return err
		}
		return tx.Where("database_name = ? AND collection_name = ? AND partition_key = ? AND id = ?",
			database, collection, partitionKey, id).First(&model).Error
	})
	err = wrapErr("getDocument", link, err)

	var charge float64
	if err == nil {
		charge = readCharge([]byte(model.Body))
	}
	c.track("getDocument", link, "", start, charge, err)
	if err != nil {
		return domain.Document{}, err
	}
	return toDomain(model), nil
}

// UpsertDocument inserts doc or replaces the document with the same id.
// The stored body gains fresh _etag and _ts system properties.
func (c *Client) UpsertDocument(ctx context.Context, database, collection string, doc domain.Document) (domain.Document, error) {
	link := DocumentLink(database, collection, doc.ID)
	start := time.Now()

	var (
		model  documentModel
		charge float64
	)
	err := validateDocument(doc)
	if err == nil {
		etag := c.newETag()
		ts := c.now().UTC().Truncate(time.Second)
		var body []byte
		body, err = withSystemProperties(doc.Body, etag, ts)
		if err == nil {
			model = documentModel{
				Database:     database,
				Collection:   collection,
				ID:           doc.ID,
				PartitionKey: doc.PartitionKey,
				Type:         doc.Type,
				Body:         string(body),
				ETag:         etag,
				TS:           ts,
			}
			err = c.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
				if err := requireCollection(tx, database, collection); err != nil {
					return err
				}
				return tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "database_name"}, {Name: "collection_name"}, {Name: "id"}},
					DoUpdates: clause.AssignmentColumns([]string{"partition_key", "doc_type", "body", "etag", "ts"}),
				}).Create(&model).Error
			})
			charge = writeCharge(body)
		}
	}
	err = wrapErr("upsertDocument", link, err)
	c.track("upsertDocument", link, "", start, charge, err)
	if err != nil {
		return domain.Document{}, err
	}
	return toDomain(model), nil
}

func (c *Client) DeleteDocument(ctx context.Context, database, collection, partitionKey, id string) error {
	link := DocumentLink(database, collection, id)
	start := time.Now()

	err := c.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		if err := requireCollection(tx, database, collection); err != nil {
			return err
		}
		res := tx.Where("database_name = ? AND collection_name = ? AND partition_key = ? AND id = ?",
			database, collection, partitionKey, id).Delete(&documentModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	err = wrapErr("deleteDocument", link, err)
	c.track("deleteDocument", link, "", start, deleteUnits, err)
	return err
}

// QueryCollections lists the collection names of a database.
func (c *Client) QueryCollections(ctx context.Context, database string) ([]string, error) {
	link := DatabaseLink(database)
	start := time.Now()

	var names []string
	err := c.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Model(&collectionModel{}).
			Where("database_name = ?", database).
			Order("collection_name ASC").
			Pluck("collection_name", &names).Error
	})
	err = wrapErr("queryCollections", link, err)
	c.track("queryCollections", link, "SELECT * FROM root", start, metadataUnits, err)
	if err != nil {
		return nil, err
	}
	return names, nil
}

func requireCollection(tx *gormdb.Tx, database, collection string) error {
	var count int64
	if err := tx.Model(&collectionModel{}).
		Where("database_name = ? AND collection_name = ?", database, collection).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errCollectionMissing
	}
	return nil
}

var errCollectionMissing = errors.New("collection does not exist")

func validateDocument(doc domain.Document) error {
	switch {
	case doc.ID == "":
		return errors.New("document id is required")
	case doc.PartitionKey == "":
		return errors.New("document partition key is required")
	case doc.Type == "":
		return errors.New("document type is required")
	}
	return nil
}

// wrapErr maps missing rows and collections to domain.ErrNotFound and
// everything else to *domain.StoreError.
func wrapErr(op, link string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, link)
	case errors.Is(err, errCollectionMissing):
		return fmt.Errorf("%w: %s: %v", domain.ErrNotFound, link, err)
	default:
		return &domain.StoreError{Op: op, Link: link, Err: err}
	}
}

func resultCode(err error) string {
	switch {
	case err == nil:
		return "200"
	case errors.Is(err, domain.ErrNotFound):
		return "404"
	case errors.Is(err, domain.ErrInvalidQuery):
		return "400"
	default:
		return "500"
	}
}

func (c *Client) track(op, link, data string, start time.Time, charge float64, err error) {
	duration := time.Since(start)
	c.telem.TrackDependency(domain.Dependency{
		Type:          dependencyType,
		Target:        link,
		Operation:     op,
		Data:          data,
		ResultCode:    resultCode(err),
		Success:       err == nil,
		Duration:      duration,
		RequestCharge: charge,
	})

	attrs := []any{"op", op, "link", link, "request_charge", charge, "duration", duration.String()}
	if data != "" {
		attrs = append(attrs, "query", data)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		c.logger.Error("document store operation failed", append(attrs, "err", err)...)
		return
	}
	c.logger.Debug("document store operation", attrs...)
}
