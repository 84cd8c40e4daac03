package macaron

import (
	"fmt"
	"sort"
	"strings"

	"github.com/macaronorm/macaron/clause"
	"github.com/macaronorm/macaron/schema"
)

type objectState int

const (
	stateUnsaved objectState = iota
	stateStored
	stateDeleted
)

// Object a row of a model. Values are held in their in-memory types:
// int64, float64, string and time.Time.
type Object struct {
	db     *DB
	schema *schema.Schema
	values map[string]interface{}
	// origPK primary key the row was last read with, the WHERE of the next UPDATE
	origPK interface{}
	state  objectState
}

func newObject(db *DB, s *schema.Schema) (*Object, error) {
	obj := &Object{db: db, schema: s, values: make(map[string]interface{}, len(s.Fields))}
	for _, field := range s.Fields {
		v, err := field.InitialValue()
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalidDefault, s.Name, field.Name, err)
		}
		obj.values[field.Name] = v
	}
	return obj, nil
}

// Schema table meta information of the object model
func (obj *Object) Schema() *schema.Schema { return obj.schema }

// ModelName name of the object model
func (obj *Object) ModelName() string { return obj.schema.Name }

// PK primary key value
func (obj *Object) PK() interface{} {
	return obj.values[obj.schema.PrimaryField.Name]
}

// Get value of a field, nil for unknown names
func (obj *Object) Get(name string) interface{} {
	return obj.values[name]
}

// Values copy of every field value
func (obj *Object) Values() Values {
	values := make(Values, len(obj.values))
	for k, v := range obj.values {
		values[k] = v
	}
	return values
}

// Set validates and stores a field value. For a many-to-one name value must
// be an *Object of the referenced model, or nil to clear the reference.
func (obj *Object) Set(name string, value interface{}) error {
	if field := obj.schema.LookUpField(name); field != nil {
		if err := field.Validate(value); err != nil {
			return fmt.Errorf("%s.%s: %w", obj.schema.Name, name, err)
		}
		v, err := field.Cast(value)
		if err != nil {
			return err
		}
		obj.values[name] = v
		return nil
	}

	rel, ok := obj.schema.LookUpRelationship(name).(*schema.ManyToOne)
	if !ok {
		return fmt.Errorf("%w: %s has no settable attribute %q", ErrUnknownAttribute, obj.schema.Name, name)
	}

	var key interface{}
	switch ref := value.(type) {
	case nil:
	case *Object:
		if ref != nil {
			if ref.schema != rel.RefSchema {
				return fmt.Errorf("%w: %s.%s needs a %s object, got %s", ErrInvalidType, obj.schema.Name, name, rel.RefSchema.Name, ref.schema.Name)
			}
			key = ref.Get(rel.RefField.Name)
		}
	default:
		return fmt.Errorf("%w: %s.%s needs a %s object, got %T", ErrInvalidType, obj.schema.Name, name, rel.RefSchema.Name, value)
	}
	return obj.Set(rel.Field.Name, key)
}

// Update sets several values, stopping at the first failure
func (obj *Object) Update(values Values) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := obj.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every field value
func (obj *Object) Validate() error {
	for _, field := range obj.schema.Fields {
		if err := field.Validate(obj.values[field.Name]); err != nil {
			return fmt.Errorf("%s.%s: %w", obj.schema.Name, field.Name, err)
		}
	}
	return nil
}

// Created reports whether the object has a row in the database
func (obj *Object) Created() bool { return obj.state == stateStored }

// Deleted reports whether Delete removed the object row
func (obj *Object) Deleted() bool { return obj.state == stateDeleted }

// Save inserts an unsaved object or updates the row of a stored one. The
// UPDATE targets the primary key the object was read with, so changing the
// primary key value moves the row to the new key.
func (obj *Object) Save() error {
	switch obj.state {
	case stateDeleted:
		return fmt.Errorf("%w: %s", ErrObjectDeleted, obj)
	case stateUnsaved:
		return obj.create()
	}
	return obj.update()
}

func (obj *Object) auto(stage schema.Stage) {
	now := obj.db.NowFunc()
	for _, field := range obj.schema.Fields {
		if v, ok := field.AutoValue(stage, now); ok {
			obj.values[field.Name] = v
		}
	}
}

func (obj *Object) hook(fn func(schema.Record) error) error {
	if fn == nil {
		return nil
	}
	return fn(obj)
}

func (obj *Object) create() error {
	obj.auto(schema.StageCreate)
	if err := obj.hook(obj.schema.Hooks.BeforeCreate); err != nil {
		return err
	}
	if err := obj.Validate(); err != nil {
		return err
	}

	pk := obj.schema.PrimaryField
	insert := clause.Insert{Table: obj.schema.Table}
	for _, field := range obj.schema.Fields {
		value := obj.values[field.Name]
		if field == pk && value == nil {
			continue
		}
		stored, err := field.ToStorage(value)
		if err != nil {
			return err
		}
		insert.Columns = append(insert.Columns, field.Name)
		insert.Values = append(insert.Values, stored)
	}

	stmt := &Statement{}
	insert.Build(stmt)
	result, err := obj.db.Exec(stmt.String(), stmt.Vars...)
	if err != nil {
		return err
	}

	key := obj.values[pk.Name]
	if key == nil {
		id, err := result.LastInsertId()
		if err != nil && !obj.db.DryRun {
			return err
		}
		key = id
	}

	if err := obj.reload(key); err != nil {
		return err
	}
	obj.state = stateStored
	return obj.hook(obj.schema.Hooks.AfterCreate)
}

func (obj *Object) update() error {
	obj.auto(schema.StageSave)
	if err := obj.Validate(); err != nil {
		return err
	}
	if err := obj.hook(obj.schema.Hooks.BeforeSave); err != nil {
		return err
	}

	pk := obj.schema.PrimaryField
	update := clause.Update{Table: obj.schema.Table}
	for _, field := range obj.schema.Fields {
		stored, err := field.ToStorage(obj.values[field.Name])
		if err != nil {
			return err
		}
		update.Set = append(update.Set, clause.Assignment{Column: field.Name, Value: stored})
	}
	origPK, err := pk.ToStorage(obj.origPK)
	if err != nil {
		return err
	}

	stmt := &Statement{}
	stmt.Build(update, clause.Where{Exprs: []clause.Expression{clause.Eq{Column: pk.Name, Value: origPK}}})
	if _, err := obj.db.Exec(stmt.String(), stmt.Vars...); err != nil {
		return err
	}

	if err := obj.reload(obj.values[pk.Name]); err != nil {
		return err
	}
	return obj.hook(obj.schema.Hooks.AfterSave)
}

// reload replaces the values with the row stored under key
func (obj *Object) reload(key interface{}) error {
	if obj.db.DryRun {
		obj.values[obj.schema.PrimaryField.Name] = key
		obj.origPK = key
		return nil
	}

	fresh, err := obj.db.modelOf(obj.schema).Get(PK(key))
	if err != nil {
		return fmt.Errorf("reading back %s: %w", obj.schema.Name, err)
	}
	obj.values, obj.origPK = fresh.values, fresh.origPK
	return nil
}

// Delete removes the row under the current primary key, the object cannot be
// saved or deleted afterwards
func (obj *Object) Delete() error {
	switch obj.state {
	case stateDeleted:
		return fmt.Errorf("%w: %s", ErrObjectDeleted, obj)
	case stateUnsaved:
		return fmt.Errorf("%w: %s has never been saved", ErrUsage, obj)
	}

	pk := obj.schema.PrimaryField
	key, err := pk.ToStorage(obj.values[pk.Name])
	if err != nil {
		return err
	}
	stmt := &Statement{}
	stmt.Build(clause.Delete{Table: obj.schema.Table}, clause.Where{Exprs: []clause.Expression{clause.Eq{Column: pk.Name, Value: key}}})
	if _, err := obj.db.Exec(stmt.String(), stmt.Vars...); err != nil {
		return err
	}
	obj.state = stateDeleted
	return nil
}

// Ref object referenced by a many-to-one attribute, nil when the foreign key is NULL
func (obj *Object) Ref(name string) (*Object, error) {
	rel, ok := obj.schema.LookUpRelationship(name).(*schema.ManyToOne)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no many-to-one %q", ErrUnknownAttribute, obj.schema.Name, name)
	}

	key := obj.values[rel.Field.Name]
	if key == nil {
		return nil, nil
	}

	refs, err := obj.db.modelOf(rel.RefSchema).Select(Q{rel.RefField.Name: key}).Limit(2).Objects()
	switch {
	case err != nil:
		return nil, err
	case len(refs) == 0:
		return nil, fmt.Errorf("%w: %s.%s = %v", ErrObjectNotFound, rel.RefSchema.Name, rel.RefField.Name, key)
	case len(refs) > 1:
		return nil, fmt.Errorf("%w: %s.%s = %v", ErrNotUniqueForeignKey, rel.RefSchema.Name, rel.RefField.Name, key)
	}
	return refs[0], nil
}

// Children objects pointing at this one through a many-to-one, by its reverse accessor name
func (obj *Object) Children(name string) *ReverseSet {
	rel, ok := obj.schema.LookUpRelationship(name).(*schema.OneToMany)
	if !ok {
		err := fmt.Errorf("%w: %s has no reverse accessor %q", ErrUnknownAttribute, obj.schema.Name, name)
		return &ReverseSet{QuerySet: &QuerySet{Error: err}}
	}
	return newReverseSet(obj, rel)
}

// Links objects associated with this one through a many-to-many attribute
func (obj *Object) Links(name string) *LinkSet {
	rel, ok := obj.schema.LookUpRelationship(name).(*schema.ManyToMany)
	if !ok {
		err := fmt.Errorf("%w: %s has no many-to-many %q", ErrUnknownAttribute, obj.schema.Name, name)
		return &LinkSet{QuerySet: &QuerySet{Error: err}}
	}
	return newLinkSet(obj, rel)
}

func (obj *Object) String() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(obj.schema.Name)
	b.WriteString(" object")
	if pk := obj.PK(); pk != nil {
		fmt.Fprintf(&b, " %v", pk)
	}
	b.WriteString(">")
	return b.String()
}
