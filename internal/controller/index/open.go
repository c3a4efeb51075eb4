// Package index records stored artifacts and sync runs in SQL.
//
// SQLite (modernc.org/sqlite) is the default; a postgres:// DSN switches to
// PostgreSQL through pgx. The schema is managed by goose with embedded
// migrations. Queries are written once with "?" placeholders and rebound per
// dialect.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/sourcesync/internal/controller/index/migrations"
	"github.com/dmitrijs2005/sourcesync/internal/dbx"
	"github.com/dmitrijs2005/sourcesync/internal/models"
)

// sqlitePragmas keeps concurrent controllers from failing on a locked file.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Index is an open artifact index.
type Index struct {
	*Repository
	db *sql.DB
}

// Open connects to dsn, migrates the schema and returns the index.
func Open(ctx context.Context, dsn string) (*Index, error) {
	dialect := dbx.DialectFromDSN(dsn)
	if dialect == dbx.SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping index: %w", err)
	}
	if err := RunMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate index: %w", err)
	}

	return &Index{Repository: NewRepository(db, dialect), db: db}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// DB exposes the handle for transactions spanning several repository calls.
func (i *Index) DB() *sql.DB { return i.db }

func (i *Index) Close() error { return i.db.Close() }

// RecordArtifacts records artifacts in a single transaction.
func (i *Index) RecordArtifacts(ctx context.Context, artifacts []models.Artifact) (int, error) {
	return RecordArtifacts(ctx, i.db, i.Repository, artifacts)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect.GooseDialect()); err != nil {
		return err
	}
	goose.SetLogger(goose.NopLogger())
	return gooseUpContext(ctx, db, ".")
}
