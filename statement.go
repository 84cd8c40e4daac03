package macaron

import (
	"fmt"
	"strings"

	"github.com/macaronorm/macaron/clause"
)

// Statement SQL builder, parts are written with WriteString and bound values with AddVar
type Statement struct {
	SQL  strings.Builder
	Vars []interface{}
}

// WriteString write string
func (stmt *Statement) WriteString(str string) (int, error) {
	return stmt.SQL.WriteString(str)
}

// WriteByte write byte
func (stmt *Statement) WriteByte(c byte) error {
	return stmt.SQL.WriteByte(c)
}

// WriteQuoted write quoted field
func (stmt *Statement) WriteQuoted(field interface{}) {
	switch v := field.(type) {
	case clause.Table:
		clause.Quote(stmt, v.Name)
		if v.Alias != "" && v.Alias != v.Name {
			stmt.WriteString(" AS ")
			clause.Quote(stmt, v.Alias)
		}
	case clause.Column:
		if v.Raw {
			stmt.WriteString(v.Name)
			return
		}
		if v.Table != "" {
			clause.Quote(stmt, v.Table)
			stmt.WriteByte('.')
		}
		if v.Name == "*" {
			stmt.WriteByte('*')
		} else {
			clause.Quote(stmt, v.Name)
		}
	case string:
		clause.Quote(stmt, v)
	case clause.Expression:
		v.Build(stmt)
	default:
		clause.Quote(stmt, fmt.Sprint(field))
	}
}

// AddVar add var
func (stmt *Statement) AddVar(writer clause.Writer, vars ...interface{}) {
	for idx, v := range vars {
		if idx > 0 {
			writer.WriteByte(',')
		}

		switch v := v.(type) {
		case clause.Column, clause.Table:
			stmt.WriteQuoted(v)
		case clause.Expression:
			v.Build(stmt)
		case []interface{}:
			writer.WriteByte('(')
			for i, elem := range v {
				if i > 0 {
					writer.WriteByte(',')
				}
				writer.WriteByte('?')
				stmt.Vars = append(stmt.Vars, elem)
			}
			writer.WriteByte(')')
		default:
			writer.WriteByte('?')
			stmt.Vars = append(stmt.Vars, v)
		}
	}
}

// Build writes exprs one per line
func (stmt *Statement) Build(exprs ...clause.Expression) {
	for idx, expr := range exprs {
		if idx > 0 {
			stmt.WriteByte('\n')
		}
		expr.Build(stmt)
	}
}

func (stmt *Statement) String() string {
	return stmt.SQL.String()
}
