package clause

import "strconv"

// Limit limit clause. LIMIT and OFFSET are written on separate lines; an
// offset without a limit writes LIMIT -1 since SQLite needs LIMIT first.
type Limit struct {
	Limit  *int
	Offset *int
}

// Name where clause name
func (limit Limit) Name() string {
	return "LIMIT"
}

// Empty reports whether neither a limit nor an offset is set
func (limit Limit) Empty() bool {
	return limit.Limit == nil && limit.Offset == nil
}

// Build build limit clause
func (limit Limit) Build(builder Builder) {
	n := -1
	if limit.Limit != nil {
		n = *limit.Limit
	}
	if limit.Limit != nil || limit.Offset != nil {
		builder.WriteString("LIMIT ")
		builder.WriteString(strconv.Itoa(n))
	}
	if limit.Offset != nil {
		builder.WriteString("\nOFFSET ")
		builder.WriteString(strconv.Itoa(*limit.Offset))
	}
}
