package clause

import "fmt"

// Wrapper turns a compiled statement into the inner query of another one
type Wrapper interface {
	Wrap(inner string) string
}

// Aggregate runs Func over Column of the inner query, aliased as Alias
type Aggregate struct {
	Func   string
	Column string
	Alias  string
}

func (agg Aggregate) Wrap(inner string) string {
	arg := "*"
	if agg.Column != "*" {
		arg = Quoted(agg.Column)
	}
	return fmt.Sprintf("SELECT %s(%s) FROM (\n%s\n) AS %s", agg.Func, arg, inner, agg.Alias)
}

// DeleteIn deletes the rows of Table whose primary key the inner query selects
type DeleteIn struct {
	Table      string
	PrimaryKey string
}

func (d DeleteIn) Wrap(inner string) string {
	pk := Quoted(d.PrimaryKey)
	return fmt.Sprintf("DELETE FROM %s WHERE %s IN (SELECT %s FROM (\n%s\n))", Quoted(d.Table), pk, pk, inner)
}
