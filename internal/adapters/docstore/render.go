package docstore

import (
	"fmt"

	"github.com/heliumapi/helium/internal/adapters/docstore/gormdb"
	"github.com/heliumapi/helium/internal/core/domain"
	"gorm.io/gorm"
)

// jsonField returns the SQL expression reading a top-level string field of
// the document body. Field names are validated by domain.Query.Validate.
func jsonField(dialect, field string) string {
	if dialect == gormdb.DialectPostgres {
		return fmt.Sprintf("(body::jsonb ->> '%s')", field)
	}
	return fmt.Sprintf("json_extract(body, '$.%s')", field)
}

func containsExpr(dialect, field string) string {
	if dialect == gormdb.DialectPostgres {
		return fmt.Sprintf("strpos(%s, ?) > 0", jsonField(dialect, field))
	}
	return fmt.Sprintf("instr(%s, ?) > 0", jsonField(dialect, field))
}

// applyQuery narrows tx to the documents matched by q. Every value is bound.
func applyQuery(tx *gorm.DB, dialect, database, collection string, q domain.Query) *gorm.DB {
	tx = tx.Where("database_name = ? AND collection_name = ? AND doc_type = ?", database, collection, q.Type)
	if !q.CrossPartition {
		tx = tx.Where("partition_key = ?", q.PartitionKey)
	}
	for _, c := range q.Conditions {
		switch c.Op {
		case domain.OpContains:
			tx = tx.Where(containsExpr(dialect, c.Field), c.Param.Value)
		default:
			tx = tx.Where(jsonField(dialect, c.Field)+" = ?", c.Param.Value)
		}
	}
	return tx.Order("id ASC")
}
