package macaron_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/logger"
	"github.com/macaronorm/macaron/schema"
	"github.com/macaronorm/macaron/sqlite"
)

// openEmpty registers defs without creating any table
func openEmpty(t *testing.T, defs ...schema.Definition) *macaron.DB {
	t.Helper()
	db, err := macaron.Open(sqlite.Open(":memory:"), &macaron.Config{Logger: logger.NewHistory(nil, 0)})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Register(defs...))
	return db
}

func TestCreateTable(t *testing.T) {
	db := openEmpty(t, bandDefinitions(schema.Hooks{})...)
	teams, members := db.Model("Team"), db.Model("Member")

	err := members.CreateTable(macaron.TableOptions{})
	assert.ErrorIs(t, err, macaron.ErrTableNotExist)
	assert.ErrorIs(t, err, macaron.ErrSchemaConflict)

	require.NoError(t, members.CreateTable(macaron.TableOptions{Cascade: true}))
	assert.Equal(t, lines(
		`CREATE TABLE "member" (`,
		`  "id" INTEGER PRIMARY KEY,`,
		`  "name" TEXT NOT NULL,`,
		`  "part" TEXT,`,
		`  "team_id" INTEGER REFERENCES "team"("id")`,
		`)`,
	), db.History().LastSQL())
	for _, m := range []*macaron.Model{teams, members} {
		exists, err := m.HasTable()
		require.NoError(t, err)
		assert.True(t, exists, m.Name())
	}

	assert.ErrorIs(t, teams.CreateTable(macaron.TableOptions{}), macaron.ErrTableExists)
}

func TestTableInfo(t *testing.T) {
	db := openEmpty(t, bandDefinitions(schema.Hooks{})...)
	teams := db.Model("Team")

	_, err := teams.TableInfo()
	assert.ErrorIs(t, err, macaron.ErrTableNotExist)

	require.NoError(t, teams.CreateTable(macaron.TableOptions{}))
	columns, err := teams.TableInfo()
	require.NoError(t, err)
	require.Len(t, columns, 5)
	assert.Equal(t, macaron.ColumnInfo{CID: 0, Name: "id", Type: "INTEGER", PrimaryKey: true}, columns[0])
	assert.Equal(t, macaron.ColumnInfo{CID: 1, Name: "name", Type: "VARCHAR(20)", NotNull: true}, columns[1])
	assert.Equal(t, macaron.ColumnInfo{CID: 2, Name: "score", Type: "FLOAT", NotNull: true, Default: "50"}, columns[2])
	assert.Equal(t, "TIMESTAMP", columns[3].Type)

	// served from the cache
	count := db.History().Count()
	_, err = teams.TableInfo()
	require.NoError(t, err)
	assert.Equal(t, count, db.History().Count())

	require.NoError(t, teams.DropTable())
	_, err = teams.TableInfo()
	assert.ErrorIs(t, err, macaron.ErrTableNotExist)
}

func TestDropTable(t *testing.T) {
	db := openEmpty(t, bandDefinitions(schema.Hooks{})...)
	teams := db.Model("Team")

	assert.ErrorIs(t, teams.DropTable(), macaron.ErrTableNotExist)
	require.NoError(t, teams.CreateTable(macaron.TableOptions{}))
	require.NoError(t, teams.DropTable())
	assert.Equal(t, `DROP TABLE "team"`, db.History().LastSQL())

	exists, err := teams.HasTable()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateTableWithLinks(t *testing.T) {
	db := openEmpty(t, precureDefinitions()...)

	require.NoError(t, db.Model("Member").CreateTable(macaron.TableOptions{Cascade: true}))
	for _, table := range []string{"series", "group", "movie", "member", "membermovielink"} {
		exists, err := db.HasTable(table)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}
	exists, err := db.HasTable("subtitle")
	require.NoError(t, err)
	assert.False(t, exists)

	// CreateTables fills in what is missing
	require.NoError(t, db.CreateTables())
	exists, err = db.Model("SubTitle").HasTable()
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateTableSkipLinks(t *testing.T) {
	db := openEmpty(t, precureDefinitions()...)

	require.NoError(t, db.Model("Movie").CreateTable(macaron.TableOptions{}))
	require.NoError(t, db.Model("Series").CreateTable(macaron.TableOptions{}))
	require.NoError(t, db.Model("Group").CreateTable(macaron.TableOptions{}))
	require.NoError(t, db.Model("Member").CreateTable(macaron.TableOptions{SkipLinkTables: true}))

	exists, err := db.Model("MemberMovieLink").HasTable()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUnknownModel(t *testing.T) {
	db := openEmpty(t, bandDefinitions(schema.Hooks{})...)
	missing := db.Model("Band")

	assert.ErrorIs(t, missing.Error, macaron.ErrUnknownModel)
	assert.ErrorIs(t, missing.CreateTable(macaron.TableOptions{}), macaron.ErrUnknownModel)
	assert.ErrorIs(t, missing.DropTable(), macaron.ErrUnknownModel)
	_, err := missing.Create(macaron.Values{"name": "x"})
	assert.ErrorIs(t, err, macaron.ErrUnknownModel)
}
