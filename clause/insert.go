package clause

// Insert insert clause, DEFAULT VALUES when there are no columns
type Insert struct {
	Table   string
	Columns []string
	Values  []interface{}
}

// Name insert clause name
func (insert Insert) Name() string {
	return "INSERT"
}

// Build build insert clause
func (insert Insert) Build(builder Builder) {
	builder.WriteString("INSERT INTO ")
	builder.WriteQuoted(Table{Name: insert.Table})

	if len(insert.Columns) == 0 {
		builder.WriteString(" DEFAULT VALUES")
		return
	}

	builder.WriteString(" (")
	for idx, column := range insert.Columns {
		if idx > 0 {
			builder.WriteString(", ")
		}
		builder.WriteQuoted(column)
	}
	builder.WriteString(") VALUES (")
	for idx, value := range insert.Values {
		if idx > 0 {
			builder.WriteString(", ")
		}
		builder.AddVar(builder, value)
	}
	builder.WriteByte(')')
}

// Assignment a column = value pair of an UPDATE
type Assignment struct {
	Column string
	Value  interface{}
}

// Update update clause with its SET list
type Update struct {
	Table string
	Set   []Assignment
}

// Name update clause name
func (update Update) Name() string {
	return "UPDATE"
}

// Build build update clause
func (update Update) Build(builder Builder) {
	builder.WriteString("UPDATE ")
	builder.WriteQuoted(Table{Name: update.Table})
	builder.WriteString(" SET ")
	for idx, assignment := range update.Set {
		if idx > 0 {
			builder.WriteString(", ")
		}
		builder.WriteQuoted(assignment.Column)
		builder.WriteString(" = ")
		builder.AddVar(builder, assignment.Value)
	}
}
