package index

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sourcesync/internal/common"
	"github.com/dmitrijs2005/sourcesync/internal/dbx"
	"github.com/dmitrijs2005/sourcesync/internal/models"
	"github.com/dmitrijs2005/sourcesync/internal/storagekey"
)

func openIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestOpen_MigratesAndIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	idx, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = idx.RecordArtifact(ctx, NewArtifact(storagekey.Of("a.c"), "a.c", []byte("p"), time.Now()))
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	idx, err = Open(ctx, path)
	require.NoError(t, err)
	defer idx.Close()

	name, err := idx.LogicalName(ctx, storagekey.Of("a.c"))
	require.NoError(t, err)
	assert.Equal(t, "a.c", name)
}

func TestRecordArtifact_InsertOnce(t *testing.T) {
	idx := openIndex(t)
	ctx := context.Background()
	key := storagekey.Of("src/a.c")
	at := time.UnixMilli(1_700_000_000_000).UTC()

	inserted, err := idx.RecordArtifact(ctx, NewArtifact(key, "src/a.c", []byte("payload"), at))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = idx.RecordArtifact(ctx, NewArtifact(key, "other", []byte("x"), at))
	require.NoError(t, err)
	assert.False(t, inserted)

	all, err := idx.Artifacts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.Artifact{
		StorageKey:  key,
		LogicalName: "src/a.c",
		Size:        7,
		Digest:      Digest([]byte("payload")),
		StoredAt:    at,
	}, all[0])
}

func TestLogicalName_NotFound(t *testing.T) {
	idx := openIndex(t)
	_, err := idx.LogicalName(context.Background(), storagekey.Of("missing"))
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRecordArtifacts_InOneTransaction(t *testing.T) {
	idx := openIndex(t)
	ctx := context.Background()
	now := time.Now()

	batch := []models.Artifact{
		NewArtifact(storagekey.Of("a"), "a", []byte("1"), now),
		NewArtifact(storagekey.Of("b"), "b", []byte("2"), now),
	}
	n, err := RecordArtifacts(ctx, idx.DB(), idx.Repository, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = idx.RecordArtifacts(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRuns_RecordAndList(t *testing.T) {
	idx := openIndex(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000).UTC()

	for i, mode := range []models.SyncMode{models.ModeBatch, models.ModeFallback, models.ModeNone} {
		run := models.SyncRun{
			ID:         string(mode),
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second),
			Mode:       mode,
			Candidates: 3,
			Outcome:    models.Outcome{Copied: 1, NotFound: 1, NotInWorkspace: 1, Skipped: i},
		}
		require.NoError(t, idx.RecordRun(ctx, run))
	}

	runs, err := idx.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "none", runs[0].ID)
	assert.Equal(t, models.ModeFallback, runs[1].Mode)
	assert.Equal(t, 1, runs[1].Outcome.Skipped)
	assert.Equal(t, base.Add(2*time.Minute), runs[0].StartedAt)
	assert.Equal(t, time.Second, runs[0].FinishedAt.Sub(runs[0].StartedAt))
}

func TestRepository_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db, dbx.Postgres)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_000)
	a := NewArtifact(storagekey.Of("a"), "a", []byte("p"), at)

	mock.ExpectExec(dbx.Postgres.Rebind(insertArtifact)).
		WithArgs(a.StorageKey, "a", int64(1), a.Digest, at.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`SELECT logical_name FROM artifacts WHERE storage_key = $1`).
		WithArgs(a.StorageKey).
		WillReturnRows(sqlmock.NewRows([]string{"logical_name"}).AddRow("a"))

	mock.ExpectExec(dbx.Postgres.Rebind(insertRun)).
		WithArgs("r1", at.UnixMilli(), at.UnixMilli(), "batch", 1, 0, 1, 0, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.RecordArtifact(ctx, a)
	require.NoError(t, err)
	assert.True(t, inserted)

	name, err := repo.LogicalName(ctx, a.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "a", name)

	require.NoError(t, repo.RecordRun(ctx, models.SyncRun{
		ID: "r1", StartedAt: at, FinishedAt: at, Mode: models.ModeBatch, Candidates: 1,
		Outcome: models.Outcome{Copied: 1},
	}))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db, dbx.Postgres)
	boom := errors.New("connection reset")

	mock.ExpectExec(`INSERT INTO artifacts`).WillReturnError(boom)
	mock.ExpectQuery(`SELECT logical_name`).WillReturnError(boom)
	mock.ExpectQuery(`SELECT storage_key`).WillReturnError(boom)

	_, err = repo.RecordArtifact(context.Background(), models.Artifact{})
	require.ErrorIs(t, err, boom)
	_, err = repo.LogicalName(context.Background(), "k")
	require.ErrorIs(t, err, boom)
	_, err = repo.Artifacts(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestRunMigrations_PropagatesGooseError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("migration failed")
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error { return boom }

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.ErrorIs(t, RunMigrations(context.Background(), db, dbx.Postgres), boom)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:/var/idx.db?"+sqlitePragmas, sqliteDSN("/var/idx.db"))
	assert.Equal(t, "file:idx.db?mode=rwc&"+sqlitePragmas, sqliteDSN("file:idx.db?mode=rwc"))
	assert.Equal(t, "file:x.db?_pragma=foreign_keys(1)", sqliteDSN("file:x.db?_pragma=foreign_keys(1)"))
}

func TestDigest(t *testing.T) {
	d := Digest([]byte("abc"))
	assert.Len(t, d, 64)
	assert.Equal(t, d, Digest([]byte("abc")))
	assert.NotEqual(t, d, Digest([]byte("abd")))
}

func TestRecordArtifacts_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db, dbx.Postgres)
	boom := errors.New("disk full")
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO artifacts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO artifacts`).WillReturnError(boom)
	mock.ExpectRollback()

	n, err := RecordArtifacts(context.Background(), db, repo, []models.Artifact{
		NewArtifact(storagekey.Of("a"), "a", []byte("1"), at),
		NewArtifact(storagekey.Of("b"), "b", []byte("2"), at),
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
