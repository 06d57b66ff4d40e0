package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var fieldPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type Operator string

const (
	OpEq       Operator = "eq"
	OpContains Operator = "contains"
)

// Parameter is a named value bound into a query; values never become part
// of the query text.
type Parameter struct {
	Name  string
	Value string
}

type Condition struct {
	Field string
	Op    Operator
	Param Parameter
}

// Query selects documents of a single resource type. An empty Fields
// projection selects whole documents. Queries that are not cross-partition
// must name the PartitionKey they run against.
type Query struct {
	Fields         []string
	Type           string
	Conditions     []Condition
	CrossPartition bool
	PartitionKey   string
}

func (q Query) Validate() error {
	if q.Type == "" {
		return fmt.Errorf("%w: resource type is required", ErrInvalidQuery)
	}
	if !q.CrossPartition && q.PartitionKey == "" {
		return fmt.Errorf("%w: cross partition query is required but disabled", ErrInvalidQuery)
	}
	for _, f := range q.Fields {
		if !fieldPattern.MatchString(f) {
			return fmt.Errorf("%w: field %q", ErrInvalidQuery, f)
		}
	}
	seen := make(map[string]struct{}, len(q.Conditions))
	for _, c := range q.Conditions {
		if !fieldPattern.MatchString(c.Field) {
			return fmt.Errorf("%w: field %q", ErrInvalidQuery, c.Field)
		}
		if !fieldPattern.MatchString(c.Param.Name) {
			return fmt.Errorf("%w: parameter %q", ErrInvalidQuery, c.Param.Name)
		}
		if _, dup := seen[c.Param.Name]; dup || c.Param.Name == "type" {
			return fmt.Errorf("%w: duplicate parameter %q", ErrInvalidQuery, c.Param.Name)
		}
		seen[c.Param.Name] = struct{}{}
		switch c.Op {
		case OpEq, OpContains:
		default:
			return fmt.Errorf("%w: operator %q", ErrInvalidQuery, c.Op)
		}
	}
	return nil
}

// Parameters returns every bound parameter, the type discriminator first.
func (q Query) Parameters() []Parameter {
	params := make([]Parameter, 0, len(q.Conditions)+1)
	params = append(params, Parameter{Name: "type", Value: q.Type})
	for _, c := range q.Conditions {
		params = append(params, c.Param)
	}
	return params
}

// String renders the query in the document store's SQL dialect.
func (q Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(q.Fields) == 0 {
		b.WriteString("*")
	} else {
		for i, f := range q.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("root.")
			b.WriteString(f)
		}
	}
	b.WriteString(" FROM root WHERE root.type = @type")
	for _, c := range q.Conditions {
		switch c.Op {
		case OpContains:
			fmt.Fprintf(&b, " AND CONTAINS(root.%s, @%s)", c.Field, c.Param.Name)
		default:
			fmt.Fprintf(&b, " AND root.%s = @%s", c.Field, c.Param.Name)
		}
	}
	return b.String()
}
