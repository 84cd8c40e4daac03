package macaron

import (
	"fmt"

	"github.com/macaronorm/macaron/schema"
)

// Model handle of a registered model. Error holds the lookup failure, if any,
// and is returned by every operation.
type Model struct {
	Error  error
	Schema *schema.Schema
	db     *DB
}

func (db *DB) modelOf(s *schema.Schema) *Model {
	return &Model{Schema: s, db: db}
}

// Name model name
func (m *Model) Name() string {
	if m.Schema == nil {
		return ""
	}
	return m.Schema.Name
}

// New unsaved object holding the field defaults overridden by values
func (m *Model) New(values Values) (*Object, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	obj, err := newObject(m.db, m.Schema)
	if err != nil {
		return nil, err
	}
	if err := obj.Update(values); err != nil {
		return nil, err
	}
	return obj, nil
}

// Create inserts a new row and returns it as read back from the database
func (m *Model) Create(values Values) (*Object, error) {
	obj, err := m.New(values)
	if err != nil {
		return nil, err
	}
	if err := obj.Save(); err != nil {
		return nil, err
	}
	return obj, nil
}

// All query set over every row
func (m *Model) All() *QuerySet {
	if m.Error != nil {
		return &QuerySet{Error: m.Error}
	}
	return newQuerySet(m.db, m.Schema)
}

// Select query set filtered by conditions, see QuerySet.Select
func (m *Model) Select(args ...interface{}) *QuerySet {
	return m.All().Select(args...)
}

// Where alias of Select
func (m *Model) Where(args ...interface{}) *QuerySet {
	return m.Select(args...)
}

// Get the single object matching the arguments. A lone argument that is not
// a condition is a primary key value.
func (m *Model) Get(args ...interface{}) (*Object, error) {
	return m.All().Get(args...)
}

// SelectFrom runs a SELECT and maps its columns to objects by name
func (m *Model) SelectFrom(sql string, vars ...interface{}) ([]*Object, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	cur, err := m.db.query(sql, vars...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	columns, err := cur.Columns()
	if err != nil {
		return nil, err
	}

	var objects []*Object
	for cur.Next() {
		row, err := scanRow(cur, len(columns))
		if err != nil {
			return nil, err
		}
		obj, err := objectFromRow(m.db, m.Schema, columns, row)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, cur.Err()
}

func (m *Model) String() string {
	return fmt.Sprintf("Model(%s)", m.Name())
}
