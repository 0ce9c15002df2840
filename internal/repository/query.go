package repository

import (
	"fmt"
	"strings"
)

const defaultListLimit = 100

// selectQuery accumulates equality filters for list queries.
type selectQuery struct {
	base    string
	args    []any
	clauses []string
}

func newSelect(base string) *selectQuery {
	return &selectQuery{base: base}
}

func (q *selectQuery) where(column string, value any) {
	q.args = append(q.args, value)
	q.clauses = append(q.clauses, fmt.Sprintf("%s=$%d", column, len(q.args)))
}

func (q *selectQuery) build(orderBy string, limit, offset int) (string, []any) {
	query := q.base
	if len(q.clauses) > 0 {
		query += " WHERE " + strings.Join(q.clauses, " AND ")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %d OFFSET %d", orderBy, limit, offset)
	return query, q.args
}
