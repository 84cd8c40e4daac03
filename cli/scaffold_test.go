package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaronorm/macaron/config"
	"github.com/macaronorm/macaron/schema"
)

func TestScaffold(t *testing.T) {
	model, err := Scaffold("Member", "name:char, joined:date", "team:Team:many2one,songs:Song:many2many")
	require.NoError(t, err)
	assert.Equal(t, config.Model{
		Name: "Member",
		Fields: []config.ModelField{
			{Name: "name", Kind: "char"},
			{Name: "joined", Kind: "date"},
		},
		ManyToOne:  []config.ModelManyToOne{{Name: "team", Ref: "Team"}},
		ManyToMany: []config.ModelManyToMany{{Name: "songs", Ref: "Song"}},
	}, model)

	tests := []struct {
		name, attributes, relations, want string
	}{
		{"", "name:char", "", "model name must be provided"},
		{"Member", "name", "", "attribute format is invalid"},
		{"Member", "name:blob", "", "attribute name"},
		{"Member", "", "team:Team", "relation format is invalid"},
		{"Member", "", "team:Team:one2many", "relation type is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			_, err := Scaffold(tt.name, tt.attributes, tt.relations)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestScaffoldCommand(t *testing.T) {
	out, err := run(t, "scaffold", "--name", "Song", "--table", "songs", "--attributes", "title:char,length:time")
	require.NoError(t, err)

	defs, err := config.LoadModels(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Song", defs[0].Name)
	assert.Equal(t, "songs", defs[0].Table)
	require.Len(t, defs[0].Attributes, 2)
	assert.Equal(t, schema.Time, defs[0].Attributes[1].(*schema.Field).Kind)

	_, err = run(t, "scaffold", "--attributes", "title:char")
	assert.ErrorContains(t, err, `"name" not set`)
}

func TestScaffoldWrite(t *testing.T) {
	models := filepath.Join(t.TempDir(), "models.toml")
	src, err := os.ReadFile("testdata/band.toml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(models, src, 0o644))

	out, err := run(t, "--models", models, "scaffold", "--write",
		"--name", "Live", "--attributes", "venue:char,held:date", "--relations", "team:Team:many2one")
	require.NoError(t, err)
	assert.Equal(t, "Live added to "+models+"\n", out)

	out, err = run(t, "--models", models, "ddl")
	require.NoError(t, err)
	assert.Contains(t, out, `CREATE TABLE "live" (
  "id" INTEGER PRIMARY KEY,
  "venue" TEXT NOT NULL,
  "held" DATE NOT NULL,
  "team_id" INTEGER NOT NULL REFERENCES "team"("id")
);`)
}
