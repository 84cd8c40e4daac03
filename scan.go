package macaron

import (
	"fmt"

	"github.com/macaronorm/macaron/schema"
)

func scanRow(r rows, n int) ([]interface{}, error) {
	values := make([]interface{}, n)
	dest := make([]interface{}, n)
	for i := range values {
		dest[i] = &values[i]
	}
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	return values, nil
}

// objectFromRow builds a stored object, columns are matched to fields by
// name and by position when the names are unknown
func objectFromRow(db *DB, s *schema.Schema, columns []string, values []interface{}) (*Object, error) {
	obj := &Object{db: db, schema: s, values: make(map[string]interface{}, len(s.Fields)), state: stateStored}
	positional := len(values) == len(s.Fields)

	for idx, raw := range values {
		var field *schema.Field
		if idx < len(columns) {
			field = s.LookUpField(columns[idx])
		}
		if field == nil && positional {
			field = s.Fields[idx]
		}
		if field == nil {
			continue
		}

		v, err := field.FromStorage(raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, field.Name, err)
		}
		obj.values[field.Name] = v
	}

	for _, field := range s.Fields {
		if _, ok := obj.values[field.Name]; !ok {
			obj.values[field.Name] = nil
		}
	}
	obj.origPK = obj.PK()
	return obj, nil
}

// factory converts the rows of a query set into objects, tuples or scalars
type factory struct {
	db      *DB
	items   []item
	mode    convMode
	columns []string
}

func (f *factory) convert(values []interface{}) (interface{}, error) {
	out := make([]interface{}, 0, len(f.items))
	idx := 0
	for _, it := range f.items {
		if it.entity != nil {
			n := len(it.entity.Fields)
			if idx+n > len(values) {
				return nil, fmt.Errorf("%w: row has %d columns, %s needs %d more", ErrUsage, len(values), it.entity.Name, idx+n-len(values))
			}
			var columns []string
			if len(f.columns) >= idx+n {
				columns = f.columns[idx : idx+n]
			}
			obj, err := objectFromRow(f.db, it.entity, columns, values[idx:idx+n])
			if err != nil {
				return nil, err
			}
			out = append(out, obj)
			idx += n
			continue
		}

		if idx >= len(values) {
			return nil, fmt.Errorf("%w: row has %d columns, fewer than projected", ErrUsage, len(values))
		}
		v := values[idx]
		if it.field != nil {
			var err error
			if v, err = it.field.FromStorage(v); err != nil {
				return nil, err
			}
		}
		out = append(out, v)
		idx++
	}

	if f.mode == modeTuples {
		return out, nil
	}
	return out[0], nil
}
