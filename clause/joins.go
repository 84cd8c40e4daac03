package clause

type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
)

// Join joins Table on Left = Right
type Join struct {
	Type  JoinType
	Table Table
	Left  Column
	Right Column
}

func (join Join) Build(builder Builder) {
	if join.Type == "" {
		join.Type = InnerJoin
	}
	builder.WriteString(string(join.Type))
	builder.WriteString(" JOIN ")
	builder.WriteQuoted(join.Table)
	builder.WriteString(" ON ")
	builder.WriteQuoted(join.Left)
	builder.WriteString(" = ")
	builder.WriteQuoted(join.Right)
}
