package clause

// Column quote with name, Name "*" selects every column of Table
type Column struct {
	Table string
	Name  string
	Raw   bool
}

// Table quote with name
type Table struct {
	Name  string
	Alias string
}

// Expr raw expression, each ? is replaced by the next var
type Expr struct {
	SQL  string
	Vars []interface{}
}

// Build build raw expression
func (expr Expr) Build(builder Builder) {
	var idx int
	for _, v := range []byte(expr.SQL) {
		if v == '?' && len(expr.Vars) > idx {
			builder.AddVar(builder, expr.Vars[idx])
			idx++
		} else {
			builder.WriteByte(v)
		}
	}
}

// Func aggregate function over a column, COUNT(*) when Column is nil
type Func struct {
	Name   string
	Column *Column
}

func (f Func) Build(builder Builder) {
	builder.WriteString(f.Name)
	builder.WriteByte('(')
	if f.Column == nil {
		builder.WriteByte('*')
	} else {
		builder.WriteQuoted(*f.Column)
	}
	builder.WriteByte(')')
}

// Eq equal to for where, a nil Value means IS NULL
type Eq struct {
	Column interface{}
	Value  interface{}
}

func (eq Eq) Build(builder Builder) {
	builder.WriteQuoted(eq.Column)
	if eq.Value == nil {
		builder.WriteString(" IS NULL")
		return
	}
	builder.WriteString(" = ")
	builder.AddVar(builder, eq.Value)
}

// Neq not equal to for where
type Neq Eq

func (neq Neq) Build(builder Builder) {
	builder.WriteQuoted(neq.Column)
	if neq.Value == nil {
		builder.WriteString(" IS NOT NULL")
		return
	}
	builder.WriteString(" <> ")
	builder.AddVar(builder, neq.Value)
}

// binary writes column, operator and a single bound value
func binary(builder Builder, column interface{}, op string, value interface{}) {
	builder.WriteQuoted(column)
	builder.WriteByte(' ')
	builder.WriteString(op)
	builder.WriteByte(' ')
	builder.AddVar(builder, value)
}

// Gt greater than for where
type Gt Eq

func (gt Gt) Build(builder Builder) { binary(builder, gt.Column, ">", gt.Value) }

// Gte greater than or equal to for where
type Gte Eq

func (gte Gte) Build(builder Builder) { binary(builder, gte.Column, ">=", gte.Value) }

// Lt less than for where
type Lt Eq

func (lt Lt) Build(builder Builder) { binary(builder, lt.Column, "<", lt.Value) }

// Lte less than or equal to for where
type Lte Eq

func (lte Lte) Build(builder Builder) { binary(builder, lte.Column, "<=", lte.Value) }

// Like whether string matches a LIKE pattern
type Like Eq

func (like Like) Build(builder Builder) { binary(builder, like.Column, "LIKE", like.Value) }

// Glob whether string matches a GLOB pattern
type Glob Eq

func (glob Glob) Build(builder Builder) { binary(builder, glob.Column, "GLOB", glob.Value) }

// Regexp whether string matches a regular expression, needs the REGEXP function on the connection
type Regexp Eq

func (re Regexp) Build(builder Builder) { binary(builder, re.Column, "REGEXP", re.Value) }

// IN whether a value is within values, the list is written as (?,?,?)
type IN struct {
	Column interface{}
	Values []interface{}
	Not    bool
}

func (in IN) Build(builder Builder) {
	builder.WriteQuoted(in.Column)
	if in.Not {
		builder.WriteString(" NOT IN ")
	} else {
		builder.WriteString(" IN ")
	}
	builder.AddVar(builder, in.Values)
}

// Between whether a value is within the inclusive range
type Between struct {
	Column       interface{}
	Lower, Upper interface{}
	Not          bool
}

func (b Between) Build(builder Builder) {
	builder.WriteQuoted(b.Column)
	if b.Not {
		builder.WriteString(" NOT BETWEEN ")
	} else {
		builder.WriteString(" BETWEEN ")
	}
	builder.AddVar(builder, b.Lower)
	builder.WriteString(" AND ")
	builder.AddVar(builder, b.Upper)
}

// IsNull tests a column against NULL
type IsNull struct {
	Column interface{}
	Not    bool
}

func (n IsNull) Build(builder Builder) {
	builder.WriteQuoted(n.Column)
	if n.Not {
		builder.WriteString(" IS NOT NULL")
	} else {
		builder.WriteString(" IS NULL")
	}
}
