package dbx

import (
	"strconv"
	"strings"
)

// Dialect selects the placeholder style of the underlying driver.
type Dialect string

const (
	// SQLite accepts "?" placeholders as written.
	SQLite Dialect = "sqlite"
	// Postgres needs positional "$n" placeholders.
	Postgres Dialect = "postgres"
)

// Rebind rewrites "?" placeholders into the dialect's form. Queries are
// written once with "?" and rebound at construction time. Question marks
// inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// GooseDialect is the name goose uses for the same database.
func (d Dialect) GooseDialect() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// DialectFromDSN picks Postgres for postgres:// and postgresql:// URLs and
// SQLite for everything else (a file path or a file: URI).
func DialectFromDSN(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}
