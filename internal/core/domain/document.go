package domain

import (
	"encoding/json"
	"time"
)

// Document is one stored JSON document with its addressing metadata.
// Body holds the full JSON object, including the _etag and _ts system
// properties after a write.
type Document struct {
	ID           string
	PartitionKey string
	Type         string
	Body         json.RawMessage
	ETag         string
	Timestamp    time.Time
}

// Decode unmarshals the document body into out.
func (d Document) Decode(out any) error {
	return json.Unmarshal(d.Body, out)
}
