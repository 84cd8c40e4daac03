package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finalized(t *testing.T, field Field) *Field {
	t.Helper()
	require.NoError(t, field.finalize())
	return &field
}

func TestKind(t *testing.T) {
	assert.Equal(t, "timestamp", Timestamp.String())
	assert.Equal(t, "FLOAT", Float.SQLType())
	assert.Equal(t, NumValue, Integer.ValueType())
	assert.Equal(t, CharValue, Date.ValueType())

	kind, err := ParseKind(" Text ")
	require.NoError(t, err)
	assert.Equal(t, Char, kind)

	_, err = ParseKind("blob")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestFieldDataType(t *testing.T) {
	assert.Equal(t, "TEXT", finalized(t, Field{Name: "a", Kind: Char}).DataType)
	assert.Equal(t, "VARCHAR(20)", finalized(t, Field{Name: "a", Kind: Char, MaxLength: 20}).DataType)

	fixed := finalized(t, Field{Name: "a", Kind: Char, Length: 4})
	assert.Equal(t, "CHAR(4)", fixed.DataType)
	assert.Equal(t, 4, fixed.MaxLength)

	tightened := finalized(t, Field{Name: "a", Kind: Char, MaxLength: 40, DataType: "varchar(10)"})
	assert.Equal(t, 10, tightened.MaxLength)

	assert.True(t, finalized(t, Field{Name: "at", Kind: Timestamp, AutoCreate: true}).Null)

	bad := Field{Name: "a", Kind: Char, Pattern: "("}
	assert.ErrorIs(t, bad.finalize(), ErrUsage)
}

func TestFieldCast(t *testing.T) {
	integer := finalized(t, Field{Name: "no", Kind: Integer})
	for _, in := range []interface{}{9, int64(9), "9", []byte("9"), 9.7, uint8(9)} {
		v, err := integer.Cast(in)
		require.NoError(t, err, "%#v", in)
		assert.Equal(t, int64(9), v)
	}
	_, err := integer.Cast("nine")
	assert.ErrorIs(t, err, ErrInvalidType)
	assert.ErrorIs(t, err, ErrUsage)

	float := finalized(t, Field{Name: "rate", Kind: Float})
	v, err := float.Cast("1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	text := finalized(t, Field{Name: "name", Kind: Char})
	_, err = text.Cast(12)
	assert.ErrorIs(t, err, ErrInvalidType)

	v, err = text.Cast(nil)
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestFieldValidate(t *testing.T) {
	name := finalized(t, Field{Name: "name", Kind: Char, MaxLength: 5, MinLength: 2})
	assert.NoError(t, name.Validate("ラブリー"))
	err := name.Validate("Lovely")
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "max_length")
	assert.ErrorIs(t, name.Validate("L"), ErrValidationFailed)
	assert.ErrorIs(t, name.Validate(nil), ErrValidationFailed)

	nullable := finalized(t, Field{Name: "name", Kind: Char, Null: true})
	assert.NoError(t, nullable.Validate(nil))

	age := finalized(t, Field{Name: "age", Kind: Integer, Max: Bound(18), Min: Bound(10)})
	assert.NoError(t, age.Validate(14))
	assert.ErrorIs(t, age.Validate(19), ErrValidationFailed)
	assert.ErrorIs(t, age.Validate(9), ErrValidationFailed)

	err = age.Validate("fourteen")
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, ErrInvalidType)

	mail := finalized(t, Field{Name: "mail", Kind: Char, Pattern: `[a-z]+@`})
	assert.NoError(t, mail.Validate("cure@precure"))
	assert.ErrorIs(t, mail.Validate("x cure@precure"), ErrValidationFailed)
}

func TestFieldStorage(t *testing.T) {
	joined := finalized(t, Field{Name: "joined", Kind: Date})
	day := time.Date(2012, 2, 6, 15, 4, 5, 0, time.Local)

	stored, err := joined.ToStorage(day)
	require.NoError(t, err)
	assert.Equal(t, "2012-02-06", stored)

	// the driver hands DATE columns back as UTC time.Time
	v, err := joined.FromStorage(time.Date(2012, 2, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, time.Date(2012, 2, 6, 0, 0, 0, 0, time.Local).Equal(v.(time.Time)))

	v, err = joined.FromStorage([]byte("2012-02-06"))
	require.NoError(t, err)
	assert.Equal(t, "2012-02-06", v.(time.Time).Format(DateLayout))

	at := finalized(t, Field{Name: "at", Kind: Timestamp})
	stored, err = at.ToStorage(day)
	require.NoError(t, err)
	assert.Equal(t, "2012-02-06 15:04:05", stored)

	v, err = at.FromStorage("2012-02-06 15:04")
	require.NoError(t, err)
	assert.Equal(t, "2012-02-06 15:04:00", v.(time.Time).Format(TimestampLayout))

	clock := finalized(t, Field{Name: "clock", Kind: Time})
	stored, err = clock.ToStorage(day)
	require.NoError(t, err)
	assert.Equal(t, "15:04:05", stored)

	v, err = clock.FromStorage("15:04:05")
	require.NoError(t, err)
	assert.Equal(t, 0, v.(time.Time).Year())

	_, err = at.FromStorage("not a time")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestFieldAutoValue(t *testing.T) {
	at := time.Date(2014, 2, 9, 10, 30, 15, 500, time.Local)

	created := finalized(t, Field{Name: "created", Kind: Timestamp, AutoCreate: true})
	v, ok := created.AutoValue(StageCreate, at)
	assert.True(t, ok)
	assert.Equal(t, at.Truncate(time.Second), v)
	_, ok = created.AutoValue(StageSave, at)
	assert.False(t, ok)

	updated := finalized(t, Field{Name: "updated", Kind: Date, AutoUpdate: true})
	v, ok = updated.AutoValue(StageSave, at)
	assert.True(t, ok)
	assert.Equal(t, "2014-02-09 00:00:00", v.(time.Time).Format(TimestampLayout))

	plain := finalized(t, Field{Name: "name", Kind: Char})
	_, ok = plain.AutoValue(StageCreate, at)
	assert.False(t, ok)
}

func TestFieldClause(t *testing.T) {
	cases := []struct {
		field Field
		want  string
	}{
		{Field{Name: "id", Kind: Integer, PrimaryKey: true, AutoIncrement: true}, `"id" INTEGER PRIMARY KEY`},
		{Field{Name: "name", Kind: Char, MaxLength: 20, Unique: true}, `"name" VARCHAR(20) NOT NULL UNIQUE`},
		{Field{Name: "motto", Kind: Char, Null: true, Default: "it's"}, `"motto" TEXT DEFAULT 'it''s'`},
		{Field{Name: "no", Kind: Integer, Default: 3}, `"no" INTEGER NOT NULL DEFAULT 3`},
		{Field{Name: "rate", Kind: Float, Default: 1.5, ExtraSQL: "CHECK (rate > 0)"}, `"rate" FLOAT NOT NULL DEFAULT 1.5 CHECK (rate > 0)`},
	}
	for _, c := range cases {
		got, err := finalized(t, c.field).Clause()
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	bad := finalized(t, Field{Name: "name", Kind: Char, MaxLength: 2, Default: "Happy"})
	_, err := bad.Clause()
	assert.ErrorIs(t, err, ErrInvalidDefault)
	assert.ErrorIs(t, err, ErrValidationFailed)
}
