package database

import (
	"strings"
)

// QueryBuilder converts SQL queries with ? placeholders to dialect-specific format.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build converts a query with ? placeholders to dialect-specific placeholders.
// For SQLite, returns the query unchanged.
// For PostgreSQL, converts ? to $1, $2, etc.
//
// Example:
//
//	input:  "SELECT * FROM rooms WHERE generation_id = ? AND x = ?"
//	SQLite: "SELECT * FROM rooms WHERE generation_id = ? AND x = ?"
//	Postgres: "SELECT * FROM rooms WHERE generation_id = $1 AND x = $2"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var result strings.Builder
	position := 1

	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		} else {
			result.WriteByte(query[i])
		}
	}

	return result.String()
}

// BuildWithReturning appends a RETURNING clause if the dialect requires it.
// Used for INSERT statements that need the inserted ID.
//
// Example:
//
//	input:  "INSERT INTO floors (generation_id) VALUES (?)", "id"
//	SQLite: "INSERT INTO floors (generation_id) VALUES (?)"
//	Postgres: "INSERT INTO floors (generation_id) VALUES ($1) RETURNING id"
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}

// BuildMultiInsert returns a single INSERT statement with rows value tuples
// of len(columns) placeholders each.
//
// Example:
//
//	input:  "rooms", []string{"id", "x"}, 2
//	SQLite: "INSERT INTO rooms (id, x) VALUES (?, ?), (?, ?)"
//	Postgres: "INSERT INTO rooms (id, x) VALUES ($1, $2), ($3, $4)"
func (qb *QueryBuilder) BuildMultiInsert(table string, columns []string, rows int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
	}
	return qb.Build(sb.String())
}
