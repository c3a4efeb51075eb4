package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE artifacts (storage_key TEXT PRIMARY KEY, logical_name TEXT)`)
	require.NoError(t, err)
	return db
}

func artifactCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM artifacts`).Scan(&n))
	return n
}

func insert(ctx context.Context, tx DBTX, key, name string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO artifacts VALUES (?, ?)`, key, name)
	return err
}

func TestInTx_ReturnsValueAndCommits(t *testing.T) {
	db := openDB(t)

	n, err := InTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) (int, error) {
		for i, name := range []string{"a.c", "b.c"} {
			if err := insert(ctx, tx, name+"-key", name); err != nil {
				return i, err
			}
		}
		return 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, artifactCount(t, db))
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")

	n, err := InTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) (int, error) {
		require.NoError(t, insert(ctx, tx, "k", "a.c"))
		return 1, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, n, "value is dropped on error")
	assert.Zero(t, artifactCount(t, db))
}

func TestWithTx_CommitsAndRollsBack(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		return insert(ctx, tx, "k1", "a.c")
	}))
	assert.Equal(t, 1, artifactCount(t, db))

	err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insert(ctx, tx, "k2", "b.c"))
		return insert(ctx, tx, "k1", "duplicate")
	})
	require.Error(t, err)
	assert.Equal(t, 1, artifactCount(t, db), "second insert must be rolled back too")
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := openDB(t)

	require.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insert(ctx, tx, "k3", "c.c"))
			panic("kaput")
		})
	})
	assert.Zero(t, artifactCount(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		t.Fatal("fn must not run")
		return nil
	})
	require.ErrorContains(t, err, "begin tx")
}
