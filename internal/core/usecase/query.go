package usecase

import (
	"strings"

	"github.com/heliumapi/helium/internal/core/domain"
)

const (
	textSearchField = "textSearch"
	filterParam     = "q"
	idParam         = "id"
)

// BuildListQuery selects documents of one resource type. A non-blank filter
// adds a case-insensitive substring match on textSearch.
func BuildListQuery(resourceType string, fields []string, filter string) domain.Query {
	q := domain.Query{
		Fields:         fields,
		Type:           resourceType,
		CrossPartition: true,
	}
	if filter = strings.TrimSpace(filter); filter != "" {
		q.Conditions = append(q.Conditions, domain.Condition{
			Field: textSearchField,
			Op:    domain.OpContains,
			Param: domain.Parameter{Name: filterParam, Value: strings.ToLower(filter)},
		})
	}
	return q
}

// BuildByIDQuery looks a document up by its secondary id field. The secondary
// id is not the partition key, so the query fans out across partitions.
func BuildByIDQuery(resourceType string, fields []string, idField, id string) domain.Query {
	return domain.Query{
		Fields: fields,
		Type:   resourceType,
		Conditions: []domain.Condition{{
			Field: idField,
			Op:    domain.OpEq,
			Param: domain.Parameter{Name: idParam, Value: id},
		}},
		CrossPartition: true,
	}
}
