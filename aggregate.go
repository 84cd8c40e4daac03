package macaron

import (
	"fmt"

	"github.com/macaronorm/macaron/clause"
	"github.com/macaronorm/macaron/schema"
)

// AggregateFunc SQL aggregate over an attribute path, "*" for every row
type AggregateFunc struct {
	Name string
	Path string
}

// Avg average of the values at path
func Avg(path string) AggregateFunc   { return AggregateFunc{Name: "AVG", Path: path} }
// Max largest value at path
func Max(path string) AggregateFunc   { return AggregateFunc{Name: "MAX", Path: path} }
// Min smallest value at path
func Min(path string) AggregateFunc   { return AggregateFunc{Name: "MIN", Path: path} }
// Sum sum of the values at path, NULL over no rows
func Sum(path string) AggregateFunc   { return AggregateFunc{Name: "SUM", Path: path} }
// Total sum of the values at path as a float, 0.0 over no rows
func Total(path string) AggregateFunc { return AggregateFunc{Name: "TOTAL", Path: path} }
// Count number of non NULL values at path, or of rows for "*"
func Count(path string) AggregateFunc { return AggregateFunc{Name: "COUNT", Path: path} }

// keepsType MAX and MIN return a value of the aggregated field
func (agg AggregateFunc) keepsType() bool {
	return agg.Name == "MAX" || agg.Name == "MIN"
}

// column field aggregated by a wrapping subquery, which only sees the
// columns of the set's own model
func (agg AggregateFunc) column(s *schema.Schema) (*schema.Field, string, error) {
	if agg.Path == "*" {
		return nil, "*", nil
	}
	field := s.LookUpField(agg.Path)
	if field == nil {
		return nil, "", fmt.Errorf("%w: %s has no field %q to aggregate", ErrUnknownAttribute, s.Name, agg.Path)
	}
	return field, field.Name, nil
}

func (agg AggregateFunc) projection(qs *QuerySet) (item, error) {
	if agg.Path == "*" {
		return item{expr: clause.Func{Name: agg.Name}}, nil
	}

	t, err := qs.resolve(agg.Path)
	if err != nil {
		return item{}, err
	}
	if t.op != "" {
		return item{}, fmt.Errorf("%w: invalid aggregate field name %q", ErrUsage, agg.Path)
	}

	col := t.column()
	it := item{expr: clause.Func{Name: agg.Name, Column: &col}}
	if agg.keepsType() {
		it.field = t.field
	}
	return it, nil
}

func (agg AggregateFunc) convert(field *schema.Field, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch agg.Name {
	case "COUNT":
		return (&schema.Field{Kind: schema.Integer}).Cast(raw)
	case "AVG", "TOTAL":
		return (&schema.Field{Kind: schema.Float}).Cast(raw)
	}
	if field != nil && agg.keepsType() {
		return field.FromStorage(raw)
	}
	return raw, nil
}
