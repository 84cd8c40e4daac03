package clause

// Select select attrs when querying
type Select struct {
	Distinct bool
	Columns  []Expression
}

func (s Select) Name() string {
	return "SELECT"
}

func (s Select) Build(builder Builder) {
	builder.WriteString("SELECT ")
	if s.Distinct {
		builder.WriteString("DISTINCT ")
	}
	for idx, column := range s.Columns {
		if idx > 0 {
			builder.WriteString(", ")
		}
		column.Build(builder)
	}
}

// Projection an entry of the select list written as a quoted column
type Projection Column

func (p Projection) Build(builder Builder) {
	builder.WriteQuoted(Column(p))
}

// From from clause
type From struct {
	Table string
}

// Name from clause name
func (from From) Name() string {
	return "FROM"
}

// Build build from clause
func (from From) Build(builder Builder) {
	builder.WriteString("FROM ")
	builder.WriteQuoted(Table{Name: from.Table})
}

// Delete delete clause
type Delete struct {
	Table string
}

func (d Delete) Name() string {
	return "DELETE"
}

func (d Delete) Build(builder Builder) {
	builder.WriteString("DELETE FROM ")
	builder.WriteQuoted(Table{Name: d.Table})
}
