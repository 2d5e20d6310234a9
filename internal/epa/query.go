// Package epa queries the EPA Envirofacts REST API and parses its tabular
// responses into domain records. One adapter per data system: FRS, TRI,
// SDWIS, RCRA.
package epa

import (
	"fmt"
	"net/url"
	"strings"
)

// Operator is an Envirofacts query comparison operator.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
)

// Condition is one column filter in an Envirofacts query.
type Condition struct {
	Column string
	Op     Operator
	Value  string
}

// Query describes one Envirofacts table query. The API is path-encoded:
// /{table}/{column}/{operator}/{value}/.../{first}:{last}/JSON
type Query struct {
	Table      string
	Conditions []Condition

	// First and Last bound the result window (zero-based, inclusive).
	First int
	Last  int
}

// Where appends a condition and returns the query for chaining.
func (q Query) Where(column string, op Operator, value string) Query {
	q.Conditions = append(q.Conditions, Condition{Column: column, Op: op, Value: value})
	return q
}

// Path renders the query as an Envirofacts URL path.
func (q Query) Path() string {
	segs := make([]string, 0, 2+3*len(q.Conditions))
	segs = append(segs, q.Table)
	for _, c := range q.Conditions {
		segs = append(segs, c.Column, string(c.Op), url.PathEscape(c.Value))
	}
	segs = append(segs, fmt.Sprintf("%d:%d", q.First, q.Last), "JSON")
	return strings.Join(segs, "/")
}
