package docstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/heliumapi/helium/internal/core/domain"
)

type documentModel struct {
	Database     string    `gorm:"column:database_name;primaryKey"`
	Collection   string    `gorm:"column:collection_name;primaryKey"`
	ID           string    `gorm:"column:id;primaryKey"`
	PartitionKey string    `gorm:"column:partition_key;not null"`
	Type         string    `gorm:"column:doc_type;not null"`
	Body         string    `gorm:"column:body;not null"`
	ETag         string    `gorm:"column:etag;not null"`
	TS           time.Time `gorm:"column:ts;not null"`
}

func (documentModel) TableName() string {
	return "documents"
}

type collectionModel struct {
	Database   string    `gorm:"column:database_name;primaryKey"`
	Collection string    `gorm:"column:collection_name;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (collectionModel) TableName() string {
	return "collections"
}

func toDomain(model documentModel) domain.Document {
	return domain.Document{
		ID:           model.ID,
		PartitionKey: model.PartitionKey,
		Type:         model.Type,
		Body:         json.RawMessage(model.Body),
		ETag:         model.ETag,
		Timestamp:    model.TS,
	}
}

// withSystemProperties returns body with _etag and _ts set.
func withSystemProperties(body json.RawMessage, etag string, ts time.Time) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("document body must be a json object: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("document body must be a json object")
	}
	etagJSON, err := json.Marshal(etag)
	if err != nil {
		return nil, err
	}
	fields["_etag"] = etagJSON
	fields["_ts"] = json.RawMessage(fmt.Sprintf("%d", ts.Unix()))
	return json.Marshal(fields)
}

// project keeps only the named top-level fields of body. An empty
// projection keeps the whole document.
func project(body json.RawMessage, fields []string) (json.RawMessage, error) {
	if len(fields) == 0 {
		return body, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	out := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return json.Marshal(out)
}
