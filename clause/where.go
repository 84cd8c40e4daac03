package clause

const (
	AndWithSpace = " AND "
	OrWithSpace  = " OR "
)

// Where where clause, every group is parenthesized and the groups are AND-ed
type Where struct {
	Exprs []Expression
}

// Name where clause name
func (where Where) Name() string {
	return "WHERE"
}

// Build build where clause
func (where Where) Build(builder Builder) {
	builder.WriteString("WHERE ")
	for idx, expr := range where.Exprs {
		if idx > 0 {
			builder.WriteString(AndWithSpace)
		}
		builder.WriteByte('(')
		expr.Build(builder)
		builder.WriteByte(')')
	}
}

// And joins exprs with AND inside one pair of parentheses
func And(exprs ...Expression) Expression {
	return AndConditions{Exprs: exprs}
}

type AndConditions struct {
	Exprs []Expression
}

func (and AndConditions) Build(builder Builder) {
	group(builder, AndWithSpace, and.Exprs)
}

// Or joins exprs with OR inside one pair of parentheses
func Or(exprs ...Expression) Expression {
	return OrConditions{Exprs: exprs}
}

type OrConditions struct {
	Exprs []Expression
}

func (or OrConditions) Build(builder Builder) {
	group(builder, OrWithSpace, or.Exprs)
}

func group(builder Builder, sep string, exprs []Expression) {
	builder.WriteByte('(')
	for idx, expr := range exprs {
		if idx > 0 {
			builder.WriteString(sep)
		}
		expr.Build(builder)
	}
	builder.WriteByte(')')
}
