package macaron

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/macaronorm/macaron/clause"
)

// Condition a node of a where tree: Q, Raw, And, Or or PK
type Condition interface {
	compile(qs *QuerySet) (clause.Expression, error)
}

// Q attribute path tests, keys are compiled in sorted order and AND-ed.
// A key is a path optionally ended by an operator: curename, no__ge,
// mygroup__series__name__in.
type Q map[string]interface{}

// Values field values keyed by column or relationship name
type Values map[string]interface{}

type notNull struct{}

// NotNull matches a non NULL value: Q{"subgroup": NotNull}
var NotNull = notNull{}

type likePattern struct{ pattern string }

// Like matches a LIKE pattern: Q{"curename": Like("Cure%")}
func Like(pattern string) interface{} { return likePattern{pattern: pattern} }

type rawCondition struct {
	sql  string
	vars []interface{}
}

// Raw SQL condition, vars are bound to its ? placeholders
func Raw(sql string, vars ...interface{}) Condition {
	return rawCondition{sql: sql, vars: vars}
}

type andCondition []Condition

// And every condition holds
func And(conds ...Condition) Condition { return andCondition(conds) }

type orCondition []Condition

// Or any condition holds
func Or(conds ...Condition) Condition { return orCondition(conds) }

type pkCondition struct{ value interface{} }

// PK primary key equals value
func PK(value interface{}) Condition { return pkCondition{value: value} }

func (raw rawCondition) compile(*QuerySet) (clause.Expression, error) {
	return clause.And(clause.Expr{SQL: raw.sql, Vars: raw.vars}), nil
}

func compileAll(qs *QuerySet, conds []Condition) ([]clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(conds))
	for _, cond := range conds {
		if cond == nil {
			return nil, fmt.Errorf("%w: nil condition", ErrUsage)
		}
		expr, err := cond.compile(qs)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func (and andCondition) compile(qs *QuerySet) (clause.Expression, error) {
	exprs, err := compileAll(qs, and)
	if err != nil {
		return nil, err
	}
	return clause.And(exprs...), nil
}

func (or orCondition) compile(qs *QuerySet) (clause.Expression, error) {
	exprs, err := compileAll(qs, or)
	if err != nil {
		return nil, err
	}
	return clause.Or(exprs...), nil
}

func (pk pkCondition) compile(qs *QuerySet) (clause.Expression, error) {
	return Q{qs.schema.PrimaryField.Name: pk.value}.compile(qs)
}

func (q Q) compile(qs *QuerySet) (clause.Expression, error) {
	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	exprs := make([]clause.Expression, 0, len(keys))
	for _, key := range keys {
		if expr, ok := qs.nullReference(key, q[key]); ok {
			exprs = append(exprs, expr)
			continue
		}
		t, err := qs.resolve(key)
		if err != nil {
			return nil, err
		}
		expr, err := t.test(q[key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		exprs = append(exprs, expr)
	}
	return clause.And(exprs...), nil
}

// test builds the leaf expression comparing the target column with value
func (t target) test(value interface{}) (clause.Expression, error) {
	col := t.column()

	switch t.op {
	case "", "eq", "exact":
		switch v := value.(type) {
		case nil:
			return clause.IsNull{Column: col}, nil
		case notNull:
			return clause.IsNull{Column: col, Not: true}, nil
		case likePattern:
			return clause.Like{Column: col, Value: v.pattern}, nil
		}
		v, err := t.storage(value)
		if err != nil {
			return nil, err
		}
		return clause.Eq{Column: col, Value: v}, nil
	case "ne":
		v, err := t.storage(value)
		if err != nil {
			return nil, err
		}
		return clause.Neq{Column: col, Value: v}, nil
	case "lt", "less_than", "le", "gt", "great_than", "greater_than", "ge":
		v, err := t.storage(value)
		if err != nil {
			return nil, err
		}
		switch t.op {
		case "lt", "less_than":
			return clause.Lt{Column: col, Value: v}, nil
		case "le":
			return clause.Lte{Column: col, Value: v}, nil
		case "ge":
			return clause.Gte{Column: col, Value: v}, nil
		default:
			return clause.Gt{Column: col, Value: v}, nil
		}
	case "like":
		return clause.Like{Column: col, Value: value}, nil
	case "glob":
		return clause.Glob{Column: col, Value: value}, nil
	case "regexp":
		return clause.Regexp{Column: col, Value: value}, nil
	case "in", "not_in":
		values, err := t.operands(value)
		if err != nil {
			return nil, err
		}
		return clause.IN{Column: col, Values: values, Not: t.op == "not_in"}, nil
	case "between", "not_between":
		values, err := t.operands(value)
		if err != nil {
			return nil, err
		}
		if len(values) != 2 {
			return nil, fmt.Errorf("%w: %s needs exactly two values, got %d", ErrInvalidValue, t.op, len(values))
		}
		return clause.Between{Column: col, Lower: values[0], Upper: values[1], Not: t.op == "not_between"}, nil
	case "is_null":
		isNull, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: is_null needs a bool, got %T", ErrInvalidType, value)
		}
		return clause.IsNull{Column: col, Not: !isNull}, nil
	}
	return nil, fmt.Errorf("%w: operator %q is not supported", ErrUsage, t.op)
}

// storage converts a compared value with the field, related objects become their key
func (t target) storage(value interface{}) (interface{}, error) {
	if obj, ok := value.(*Object); ok {
		switch {
		case obj == nil:
			return nil, nil
		case obj.schema == t.field.Schema:
			value = obj.Get(t.field.Name)
		case t.field.Relation != nil && obj.schema == t.field.Relation.RefSchema:
			value = obj.Get(t.field.Relation.RefField.Name)
		default:
			return nil, fmt.Errorf("%w: %s object compared with %s.%s", ErrInvalidType, obj.schema.Name, t.field.Schema.Name, t.field.Name)
		}
	}
	return t.field.ToStorage(value)
}

func (t target) operands(value interface{}) ([]interface{}, error) {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: %s needs a list of values, got %T", ErrInvalidType, t.op, value)
	}
	if _, ok := value.([]byte); ok {
		return nil, fmt.Errorf("%w: %s needs a list of values, got %T", ErrInvalidType, t.op, value)
	}

	values := make([]interface{}, rv.Len())
	for i := range values {
		v, err := t.storage(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// conditions turns Select arguments into conditions: a leading string is
// raw SQL with the remaining arguments as its vars, maps are Q.
func conditions(args []interface{}) ([]Condition, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if sql, ok := args[0].(string); ok {
		return []Condition{Raw(sql, args[1:]...)}, nil
	}

	conds := make([]Condition, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case Condition:
			conds = append(conds, v)
		case Values:
			conds = append(conds, Q(v))
		case map[string]interface{}:
			conds = append(conds, Q(v))
		default:
			return nil, fmt.Errorf("%w: %T is not a condition", ErrInvalidType, arg)
		}
	}
	return conds, nil
}
