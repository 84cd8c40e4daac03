package macaron_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/logger"
	"github.com/macaronorm/macaron/schema"
	"github.com/macaronorm/macaron/sqlite"
)

var fixedNow = time.Date(2014, 2, 9, 10, 30, 15, 0, time.Local)

func precureDefinitions() []schema.Definition {
	return []schema.Definition{
		{Name: "Series", Attributes: []schema.Attribute{
			&schema.Field{Name: "name", Kind: schema.Char, MaxLength: 30},
			&schema.Field{Name: "no", Kind: schema.Integer},
		}},
		{Name: "Movie", Attributes: []schema.Attribute{
			&schema.Field{Name: "title", Kind: schema.Char, MaxLength: 20},
		}},
		{Name: "Group", Attributes: []schema.Attribute{
			&schema.Field{Name: "name", Kind: schema.Char, MaxLength: 20},
			&schema.ManyToOne{Name: "series", Ref: "Series", RelatedName: "groups"},
		}},
		{Name: "Member", Attributes: []schema.Attribute{
			&schema.Field{Name: "curename", Kind: schema.Char, MaxLength: 30},
			&schema.ManyToOne{Name: "mygroup", Ref: "Group", RelatedName: "mymembers"},
			&schema.ManyToOne{Name: "subgroup", Ref: "Group", RelatedName: "submembers"},
			&schema.ManyToMany{Name: "movies", Ref: "Movie", RelatedName: "members"},
			&schema.Field{Name: "joined", Kind: schema.Date},
		}},
		{Name: "SubTitle", Attributes: []schema.Attribute{
			&schema.Field{Name: "title", Kind: schema.Char, MaxLength: 30},
			&schema.ManyToOne{Name: "movie", Ref: "Movie", RelatedName: "subtitles", OnDelete: "cascade"},
		}},
	}
}

// openDB opens an in-memory database recording every statement, registers
// defs and creates their tables
func openDB(t *testing.T, config *macaron.Config, defs ...schema.Definition) *macaron.DB {
	t.Helper()
	if config == nil {
		config = &macaron.Config{}
	}
	if config.Logger == nil {
		config.Logger = logger.NewHistory(logger.Discard, 0)
	}
	if config.NowFunc == nil {
		config.NowFunc = func() time.Time { return fixedNow }
	}

	db, err := macaron.Open(sqlite.Open(":memory:"), config)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Register(defs...))
	require.NoError(t, db.CreateTables())
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func create(t *testing.T, db *macaron.DB, model string, values macaron.Values) *macaron.Object {
	t.Helper()
	obj, err := db.Model(model).Create(values)
	require.NoError(t, err)
	return obj
}

// seedPrecure two series, four groups, two members with a movie each
func seedPrecure(t *testing.T) *macaron.DB {
	t.Helper()
	db := openDB(t, nil, precureDefinitions()...)

	series1 := create(t, db, "Series", macaron.Values{"name": "Smile Precure", "no": 9})
	group1 := create(t, db, "Group", macaron.Values{"name": "Smile", "series": series1})
	group2 := create(t, db, "Group", macaron.Values{"name": "Pink", "series": series1})
	member1 := create(t, db, "Member", macaron.Values{"curename": "Happy", "mygroup": group1, "subgroup": group2, "joined": date(2012, 2, 6)})
	movie1 := create(t, db, "Movie", macaron.Values{"title": "NewStage"})
	create(t, db, "SubTitle", macaron.Values{"title": "Mirai no tomodachi", "movie": movie1})
	_, err := member1.Links("movies").Append(movie1)
	require.NoError(t, err)

	series2 := create(t, db, "Series", macaron.Values{"name": "Happiness Charge Precure", "no": 10})
	group3 := create(t, db, "Group", macaron.Values{"name": "Happiness Charge", "series": series2})
	group4 := create(t, db, "Group", macaron.Values{"name": "Purple", "series": series2})
	member2 := create(t, db, "Member", macaron.Values{"curename": "Fortune", "mygroup": group3, "subgroup": group4, "joined": date(2014, 2, 9)})
	movie2 := create(t, db, "Movie", macaron.Values{"title": "NewStage2"})
	create(t, db, "SubTitle", macaron.Values{"title": "Eien no tomodachi", "movie": movie2})
	_, err = member2.Links("movies").Append(movie2)
	require.NoError(t, err)

	return db
}

func curenames(t *testing.T, qs *macaron.QuerySet) []string {
	t.Helper()
	objects, err := qs.Objects()
	require.NoError(t, err)
	names := make([]string, len(objects))
	for idx, obj := range objects {
		names[idx] = obj.Get("curename").(string)
	}
	return names
}

func pk(t *testing.T, v interface{}) interface{} {
	t.Helper()
	obj, ok := v.(*macaron.Object)
	require.True(t, ok, "%v is not an object", v)
	return obj.PK()
}
