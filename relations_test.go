package macaron_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/schema"
)

func names(t *testing.T, qs *macaron.QuerySet, attr string) []string {
	t.Helper()
	objects, err := qs.Objects()
	require.NoError(t, err)
	out := make([]string, len(objects))
	for idx, obj := range objects {
		out[idx] = obj.Get(attr).(string)
	}
	return out
}

func TestChildrenAppend(t *testing.T) {
	db := openDB(t, nil, bandDefinitions(schema.Hooks{})...)

	team, err := db.Model("Team").Create(macaron.Values{"name": "Houkago Tea Time"})
	require.NoError(t, err)
	members := team.Children("members")
	require.NoError(t, members.Error)

	ritsu, err := members.Append(macaron.Values{"name": "Ritsu", "part": "Dr"})
	require.NoError(t, err)
	assert.Equal(t, team.PK(), ritsu.Get("team_id"))
	_, err = members.Append(macaron.Values{"name": "Mio", "part": "Ba"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Ritsu", "Mio"}, names(t, members.QuerySet, "name"))
	assert.Equal(t, []string{"Mio"}, names(t, members.Select(macaron.Q{"part": "Ba"}), "name"))

	other, err := db.Model("Team").Create(macaron.Values{"name": "Wakaba Girls"})
	require.NoError(t, err)
	_, err = db.Model("Member").Create(macaron.Values{"name": "Nodoka", "team": other})
	require.NoError(t, err)
	assertCount(t, members.QuerySet, 2)
	assertCount(t, other.Children("members").QuerySet, 1)

	// reverse traversal from the team side
	qs := db.Model("Team").Select(macaron.Q{"members__part": "Dr"})
	assert.Equal(t, []string{"Houkago Tea Time"}, names(t, qs, "name"))
}

func TestChildrenErrors(t *testing.T) {
	db := openDB(t, nil, bandDefinitions(schema.Hooks{})...)

	team, err := db.Model("Team").New(macaron.Values{"name": "Sakura"})
	require.NoError(t, err)
	members := team.Children("members")
	assert.ErrorIs(t, members.Error, macaron.ErrUsage)
	_, err = members.Append(macaron.Values{"name": "Yui"})
	assert.ErrorIs(t, err, macaron.ErrUsage)

	assert.ErrorIs(t, team.Children("players").Error, macaron.ErrUnknownAttribute)
	assert.ErrorIs(t, team.Links("members").Error, macaron.ErrUnknownAttribute)
}

func TestLinksAppendPopClear(t *testing.T) {
	db := seedPrecure(t)
	members := db.Model("Member")
	movies := db.Model("Movie")

	happy, err := members.Get(macaron.Q{"curename": "Happy"})
	require.NoError(t, err)
	fortune, err := members.Get(macaron.Q{"curename": "Fortune"})
	require.NoError(t, err)
	newStage2, err := movies.Get(macaron.Q{"title": "NewStage2"})
	require.NoError(t, err)

	links := happy.Links("movies")
	assertSQL(t, links.QuerySet, lines(
		`SELECT "movie".* FROM "movie"`,
		`INNER JOIN "membermovielink" ON "movie"."id" = "membermovielink"."movie_id"`,
		`WHERE (("membermovielink"."member_id" = ?))`,
	), int64(1))
	assert.Equal(t, []string{"NewStage"}, names(t, links.QuerySet, "title"))

	_, err = links.Append(newStage2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"NewStage", "NewStage2"}, names(t, links.QuerySet, "title"))
	assert.ElementsMatch(t, []string{"Happy", "Fortune"}, names(t, newStage2.Links("members").QuerySet, "curename"))

	deluxe, err := links.AppendNew(macaron.Values{"title": "Deluxe"})
	require.NoError(t, err)
	assert.True(t, deluxe.Created())
	assertCount(t, links.QuerySet, 3)

	_, err = links.Pop(newStage2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"NewStage", "Deluxe"}, names(t, links.QuerySet, "title"))
	assert.Equal(t, []string{"Fortune"}, names(t, newStage2.Links("members").QuerySet, "curename"))

	require.NoError(t, links.Clear())
	assertCount(t, links.QuerySet, 0)
	// movies stay, only the links go
	assertCount(t, movies.All(), 3)
	assertCount(t, fortune.Links("movies").QuerySet, 1)
}

func TestLinksAppendTwice(t *testing.T) {
	db := seedPrecure(t)

	happy, err := db.Model("Member").Get(1)
	require.NoError(t, err)
	newStage, err := db.Model("Movie").Get(1)
	require.NoError(t, err)

	links := happy.Links("movies")
	_, err = links.Append(newStage)
	require.NoError(t, err)
	assertCount(t, links.QuerySet, 2)
	assertCount(t, db.Model("MemberMovieLink").All(), 3)

	_, err = links.Pop(newStage)
	require.NoError(t, err)
	assertCount(t, links.QuerySet, 0)
}

func TestLinksFilterThroughReverse(t *testing.T) {
	db := seedPrecure(t)

	happy, err := db.Model("Member").Get(1)
	require.NoError(t, err)

	qs := happy.Links("movies").Select(macaron.Q{"members__curename": "Happy"})
	assertSQL(t, qs, lines(
		`SELECT "movie".* FROM "movie"`,
		`INNER JOIN "membermovielink" ON "movie"."id" = "membermovielink"."movie_id"`,
		`INNER JOIN "membermovielink" AS "movie.members.lnk" ON "movie"."id" = "movie.members.lnk"."movie_id"`,
		`INNER JOIN "member" AS "movie.members" ON "movie.members.lnk"."member_id" = "movie.members"."id"`,
		`WHERE (("membermovielink"."member_id" = ?)) AND ((("movie.members"."curename" = ?)))`,
	), int64(1), "Happy")
	assert.Equal(t, []string{"NewStage"}, names(t, qs, "title"))

	assertCount(t, happy.Links("movies").Select(macaron.Q{"members__curename": "Fortune"}), 0)
}

func TestLinksErrors(t *testing.T) {
	db := seedPrecure(t)

	happy, err := db.Model("Member").Get(1)
	require.NoError(t, err)
	fortune, err := db.Model("Member").Get(2)
	require.NoError(t, err)
	links := happy.Links("movies")

	_, err = links.Append(fortune)
	assert.ErrorIs(t, err, macaron.ErrInvalidType)
	_, err = links.Append(nil)
	assert.ErrorIs(t, err, macaron.ErrInvalidType)

	unsaved, err := db.Model("Movie").New(macaron.Values{"title": "Deluxe"})
	require.NoError(t, err)
	_, err = links.Append(unsaved)
	assert.ErrorIs(t, err, macaron.ErrUsage)
	_, err = links.Pop(unsaved)
	assert.ErrorIs(t, err, macaron.ErrUsage)

	_, err = unsaved.Links("members").Append(happy)
	assert.ErrorIs(t, err, macaron.ErrUsage)
}

func TestDeleteObjectWithLinks(t *testing.T) {
	db := seedPrecure(t)

	happy, err := db.Model("Member").Get(1)
	require.NoError(t, err)
	require.NoError(t, happy.Delete())

	assertCount(t, db.Model("MemberMovieLink").All(), 1)
	newStage, err := db.Model("Movie").Get(1)
	require.NoError(t, err)
	assertCount(t, newStage.Links("members").QuerySet, 0)
	assertCount(t, db.Model("Member").Select(macaron.Q{"movies__title__in": []string{"NewStage", "NewStage2"}}), 1)
}

func TestDeleteReferencedObject(t *testing.T) {
	db := seedPrecure(t)

	smile, err := db.Model("Group").Get(macaron.Q{"name": "Smile"})
	require.NoError(t, err)
	// member.mygroup_id still points at the group
	assert.ErrorIs(t, smile.Delete(), macaron.ErrIntegrityViolation)
	assert.True(t, smile.Created())

	movie, err := db.Model("Movie").Get(macaron.Q{"title": "NewStage2"})
	require.NoError(t, err)
	subtitles := movie.Children("subtitles")
	assertCount(t, subtitles.QuerySet, 1)
	require.NoError(t, movie.Delete())
	assertCount(t, subtitles.QuerySet, 0)
}
