package macaron

import (
	"fmt"
	"strings"

	"github.com/macaronorm/macaron/clause"
	"github.com/macaronorm/macaron/schema"
)

// target where an attribute path lands
type target struct {
	// alias of the table owning the column
	alias string
	field *schema.Field
	// schema reached by a path that ends at a relationship
	entity *schema.Schema
	op     string
}

func (t target) column() clause.Column {
	return clause.Column{Table: t.alias, Name: t.field.Name}
}

// resolve walks an attribute path such as mygroup__series__name or
// mygroup.series.name. Every relationship crossed adds its joins to the set.
func (qs *QuerySet) resolve(path string) (target, error) {
	segments := strings.Split(strings.ReplaceAll(path, ".", "__"), "__")
	var (
		current  = qs.schema
		alias    = qs.schema.Table
		field    *schema.Field
		traveled bool
		idx      int
	)

	for ; idx < len(segments); idx++ {
		name := segments[idx]
		if rel := current.LookUpRelationship(name); rel != nil {
			next := alias + "." + name
			if _, ok := qs.joins[next]; !ok {
				qs.joins[next] = rel.Joins(next, alias)
			}
			current, alias, traveled = rel.Target(), next, true
			continue
		}
		if field = current.LookUpField(name); field != nil {
			idx++
			break
		}
		if traveled && idx == len(segments)-1 {
			// operator applied to the primary key of the reached model
			break
		}
		return target{}, fmt.Errorf("%w: %s has no attribute %q (path %q)", ErrUnknownAttribute, current.Name, name, path)
	}

	rest := segments[idx:]
	if len(rest) >= 2 {
		return target{}, fmt.Errorf("%w: invalid operand name %q in %q", ErrUsage, strings.Join(rest, "__"), path)
	}

	t := target{alias: alias, field: field}
	if field == nil {
		t.field, t.entity = current.PrimaryField, current
	}
	if len(rest) == 1 {
		t.op = rest[0]
	}
	return t, nil
}

// nullReference compiles a NULL test on a path ending at a many-to-one, as in
// Q{"subgroup": nil} or Q{"mygroup__series__is_null": true}, against the
// foreign key column of the owning table. The referenced table is not joined.
func (qs *QuerySet) nullReference(path string, value interface{}) (clause.Expression, bool) {
	segments := strings.Split(strings.ReplaceAll(path, ".", "__"), "__")
	isNull := true
	switch last := segments[len(segments)-1]; last {
	case "is_null":
		b, ok := value.(bool)
		if !ok {
			return nil, false
		}
		isNull, segments = b, segments[:len(segments)-1]
	case "eq", "exact":
		segments = segments[:len(segments)-1]
		fallthrough
	default:
		if !isNilReference(value) {
			return nil, false
		}
	}
	if len(segments) == 0 {
		return nil, false
	}

	var (
		current = qs.schema
		alias   = qs.schema.Table
		joins   = map[string][]clause.Join{}
	)
	for idx, name := range segments {
		rel := current.LookUpRelationship(name)
		if rel == nil {
			return nil, false
		}
		if idx == len(segments)-1 {
			fk, ok := rel.(*schema.ManyToOne)
			if !ok {
				return nil, false
			}
			for key, join := range joins {
				qs.joins[key] = join
			}
			col := clause.Column{Table: alias, Name: fk.Field.Name}
			return clause.IsNull{Column: col, Not: !isNull}, true
		}
		next := alias + "." + name
		if _, ok := qs.joins[next]; !ok {
			joins[next] = rel.Joins(next, alias)
		}
		current, alias = rel.Target(), next
	}
	return nil, false
}

func isNilReference(value interface{}) bool {
	obj, ok := value.(*Object)
	return value == nil || ok && obj == nil
}
