package macaron_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/logger"
	"github.com/macaronorm/macaron/schema"
	"github.com/macaronorm/macaron/sqlite"
)

func openFile(t *testing.T, path string, autoCommit bool) *macaron.DB {
	t.Helper()
	db, err := macaron.Open(sqlite.Open(path), &macaron.Config{
		Logger:     logger.Discard,
		AutoCommit: autoCommit,
	})
	require.NoError(t, err)
	require.NoError(t, db.Register(bandDefinitions(schema.Hooks{})...))
	require.NoError(t, db.CreateTables())
	return db
}

func TestBakeAndRollback(t *testing.T) {
	db := openDB(t, nil, bandDefinitions(schema.Hooks{})...)
	teams := db.Model("Team")

	_, err := teams.Create(macaron.Values{"name": "Sakura"})
	require.NoError(t, err)
	require.NoError(t, db.Bake())

	_, err = teams.Create(macaron.Values{"name": "Wakaba"})
	require.NoError(t, err)
	assertCount(t, teams.All(), 2)
	require.NoError(t, db.Rollback())

	assert.Equal(t, []string{"Sakura"}, names(t, teams.All(), "name"))
	// nothing is running, both are no-ops
	require.NoError(t, db.Rollback())
	require.NoError(t, db.Bake())
}

func TestTransaction(t *testing.T) {
	db := openDB(t, nil, bandDefinitions(schema.Hooks{})...)
	teams := db.Model("Team")
	failure := errors.New("stop")

	err := db.Transaction(func(tx *macaron.DB) error {
		_, err := tx.Model("Team").Create(macaron.Values{"name": "Sakura"})
		return err
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *macaron.DB) error {
		if _, err := tx.Model("Team").Create(macaron.Values{"name": "Wakaba"}); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, []string{"Sakura"}, names(t, teams.All(), "name"))

	assert.Panics(t, func() {
		_ = db.Transaction(func(tx *macaron.DB) error {
			_, _ = tx.Model("Team").Create(macaron.Values{"name": "Wakaba"})
			panic("boom")
		})
	})
	assertCount(t, teams.All(), 1)
}

func TestClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "band.db")

	db := openFile(t, path, false)
	_, err := db.Model("Team").Create(macaron.Values{"name": "Sakura"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Model("Team").All().Count()
	assert.ErrorIs(t, err, macaron.ErrInvalidDB)

	// pending changes were rolled back, tables included
	db = openFile(t, path, true)
	assertCount(t, db.Model("Team").All(), 0)
	_, err = db.Model("Team").Create(macaron.Values{"name": "Sakura"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db = openFile(t, path, false)
	t.Cleanup(func() { db.Close() })
	assert.Equal(t, []string{"Sakura"}, names(t, db.Model("Team").All(), "name"))
}

func TestWithContext(t *testing.T) {
	db := openDB(t, nil, bandDefinitions(schema.Hooks{})...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scoped := db.WithContext(ctx)
	assert.Equal(t, ctx, scoped.Context())
	assert.Equal(t, context.Background(), db.Context())

	_, err := scoped.Model("Team").All().Count()
	assert.ErrorIs(t, err, context.Canceled)
	assertCount(t, db.Model("Team").All(), 0)
}

func TestPrepareStmt(t *testing.T) {
	db := openDB(t, &macaron.Config{PrepareStmt: true, PrepareStmtMaxSize: 2}, bandDefinitions(schema.Hooks{})...)
	teams := db.Model("Team")

	for _, name := range []string{"Sakura", "Wakaba", "Houkago Tea Time"} {
		_, err := teams.Create(macaron.Values{"name": name})
		require.NoError(t, err)
	}
	assertCount(t, teams.All(), 3)
	require.NoError(t, db.Bake())

	team, err := teams.Get(macaron.Q{"name": "Wakaba"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), team.PK())
}

func TestHistory(t *testing.T) {
	db := openDB(t, nil, bandDefinitions(schema.Hooks{})...)
	history := db.History()
	require.NotNil(t, history)

	_, err := db.Model("Team").Create(macaron.Values{"name": "Sakura"})
	require.NoError(t, err)

	// INSERT then the read back
	insert, err := history.At(1)
	require.NoError(t, err)
	assert.Contains(t, insert.SQL, `INSERT INTO "team"`)
	assert.Equal(t, "Sakura", insert.Vars[0])
	assert.Contains(t, history.LastSQL(), `SELECT "team".* FROM "team"`)
	assert.Equal(t, []interface{}{int64(1)}, history.LastVars())

	plain, err := macaron.Open(sqlite.Open(":memory:"), &macaron.Config{Logger: logger.Discard})
	require.NoError(t, err)
	defer plain.Close()
	assert.Nil(t, plain.History())
}
