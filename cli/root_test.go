package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/config"
)

// run executes the root command with args and returns what it printed
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedBand creates the band tables in a fresh database file and fills them
func seedBand(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "band.db")
	out, err := run(t, "--models", "testdata/band.toml", "--dsn", path, "create")
	require.NoError(t, err)
	assert.Equal(t, "created missing tables\n", out)

	defs, err := config.LoadModelsFile("testdata/band.toml")
	require.NoError(t, err)
	f := config.Default()
	f.DSN = path
	f.AutoCommit = true
	db, err := f.Open(io.Discard, defs...)
	require.NoError(t, err)

	team, err := db.Model("Team").Create(macaron.Values{"name": "Sakura"})
	require.NoError(t, err)
	members := team.Children("members")
	_, err = members.Append(macaron.Values{"name": "Yui", "part": "guitar"})
	require.NoError(t, err)
	_, err = members.Append(macaron.Values{"name": "Mio"})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "macaron", cmd.Use)

	for _, name := range []string{"ddl", "create", "query", "scaffold"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	modelsFlag := cmd.PersistentFlags().Lookup("models")
	require.NotNil(t, modelsFlag)
	assert.Equal(t, "models.toml", modelsFlag.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("dsn"))
}

func TestDDL(t *testing.T) {
	out, err := run(t, "--models", "testdata/band.toml", "ddl")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "ddl", []byte(out))
}

func TestSettingsFile(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "macaron.toml")
	path := filepath.Join(dir, "band.db")
	require.NoError(t, os.WriteFile(settings, []byte("dsn = \""+path+"\"\nlog_level = \"silent\"\n"), 0o644))

	_, err := run(t, "--config", settings, "--models", "testdata/band.toml", "create")
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	_, err = run(t, "--config", filepath.Join(dir, "missing.toml"), "--models", "testdata/band.toml", "ddl")
	assert.ErrorContains(t, err, "open file")
}

func TestCreateNamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "band.db")
	out, err := run(t, "--models", "testdata/band.toml", "--dsn", path, "create", "--skip-links", "Member")
	require.NoError(t, err)
	assert.Equal(t, "created Member\n", out)

	// team was created through the reference, the link table was skipped
	_, err = run(t, "--models", "testdata/band.toml", "--dsn", path, "create", "Team")
	assert.ErrorIs(t, err, macaron.ErrTableExists)
	out, err = run(t, "--models", "testdata/band.toml", "--dsn", path, "create", "Song", "MemberSongLink")
	require.NoError(t, err)
	assert.Equal(t, "created Song\ncreated MemberSongLink\n", out)
}

func TestMissingModels(t *testing.T) {
	_, err := run(t, "--models", filepath.Join(t.TempDir(), "none.toml"), "ddl")
	assert.ErrorContains(t, err, "open file")

	empty := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = run(t, "--models", empty, "ddl")
	assert.ErrorContains(t, err, "declares no models")

	_, err = run(t, "--models", "", "ddl")
	assert.ErrorContains(t, err, "--models")
}

func TestQuery(t *testing.T) {
	path := seedBand(t)
	query := func(args ...string) (string, error) {
		return run(t, append([]string{"--models", "testdata/band.toml", "--dsn", path, "query"}, args...)...)
	}

	out, err := query("Member", "--where", "team__name=Sakura", "--order", "-name")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"id  name  part    team_id",
		"1   Yui   guitar  1",
		"2   Mio   NULL    1",
		"",
	}, "\n"), out)

	out, err = query("Member", "-w", "part__is_null=true", "--count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = query("Member", "--order", "name", "--limit", "1", "--offset", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Yui")
	assert.NotContains(t, out, "Mio")

	out, err = query("Team", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Sakura")
	assert.Contains(t, out, "score: 50")

	_, err = query("Band")
	assert.ErrorIs(t, err, macaron.ErrUnknownModel)
	_, err = query("Member", "--where", "name")
	assert.ErrorContains(t, err, "want key=value")
	_, err = query("Member", "--where", "instrument=guitar")
	assert.ErrorIs(t, err, macaron.ErrUnknownAttribute)
	_, err = query("Member", "--format", "json")
	assert.ErrorContains(t, err, "invalid format")
}

func TestParseWhere(t *testing.T) {
	q, err := ParseWhere([]string{
		"name=Yui",
		"part=NULL",
		"team__name__in=Sakura, Wakaba",
		"score__between=10,60",
		"part__is_null=false",
	})
	require.NoError(t, err)
	assert.Equal(t, macaron.Q{
		"name":           "Yui",
		"part":           nil,
		"team__name__in": []interface{}{"Sakura", "Wakaba"},
		"score__between": []interface{}{"10", "60"},
		"part__is_null":  false,
	}, q)

	_, err = ParseWhere([]string{"name=Yui", "name=Mio"})
	assert.ErrorContains(t, err, "given twice")
	_, err = ParseWhere([]string{"part__is_null=maybe"})
	assert.Error(t, err)
	_, err = ParseWhere([]string{"=Yui"})
	assert.ErrorContains(t, err, "want key=value")
}
