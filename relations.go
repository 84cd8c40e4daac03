package macaron

import (
	"fmt"
	"maps"

	"github.com/macaronorm/macaron/clause"
	"github.com/macaronorm/macaron/schema"
)

// ReverseSet children of an object through the reverse side of a many-to-one
type ReverseSet struct {
	*QuerySet
	parent *Object
	rel    *schema.OneToMany
}

func newReverseSet(parent *Object, rel *schema.OneToMany) *ReverseSet {
	fk := rel.Forward
	qs := parent.db.modelOf(rel.Child).All()
	if !parent.Created() {
		qs.addError(fmt.Errorf("%w: %s has no row to hold children", ErrUsage, parent))
	} else {
		qs = qs.Select(Q{fk.Field.Name: parent.Get(fk.RefField.Name)})
	}
	return &ReverseSet{QuerySet: qs, parent: parent, rel: rel}
}

// Append creates a child pointing at the parent object
func (rs *ReverseSet) Append(values Values) (*Object, error) {
	if rs.Error != nil {
		return nil, rs.Error
	}
	fk := rs.rel.Forward
	values = maps.Clone(values)
	if values == nil {
		values = Values{}
	}
	delete(values, fk.Name)
	values[fk.Field.Name] = rs.parent.Get(fk.RefField.Name)

	child, err := rs.parent.db.modelOf(rs.rel.Child).Create(values)
	if err != nil {
		return nil, err
	}
	rs.results.clear()
	return child, nil
}

// LinkSet objects associated with a parent through a link model. The set
// joins the link table under its own name and filters it on the parent key.
type LinkSet struct {
	*QuerySet
	parent *Object
	rel    *schema.ManyToMany
}

func newLinkSet(parent *Object, rel *schema.ManyToMany) *LinkSet {
	qs := parent.db.modelOf(rel.RefSchema).All()
	ls := &LinkSet{QuerySet: qs, parent: parent, rel: rel}
	if !parent.Created() {
		qs.addError(fmt.Errorf("%w: %s has no row to link", ErrUsage, parent))
		return ls
	}

	ownerKey, err := rel.OwnerLink.RefField.ToStorage(ls.parentKey())
	if err != nil {
		qs.addError(err)
		return ls
	}

	// the bare link table, path aliases always start with the ref table
	ref, lnk := rel.RefSchema, rel.LinkSchema.Table
	qs.joins[lnk] = []clause.Join{{
		Table: clause.Table{Name: lnk},
		Left:  clause.Column{Table: ref.Table, Name: rel.RefLink.RefField.Name},
		Right: clause.Column{Table: lnk, Name: rel.RefLink.Field.Name},
	}}
	qs.wheres = append(qs.wheres, clause.And(clause.Eq{
		Column: clause.Column{Table: lnk, Name: rel.OwnerLink.Field.Name},
		Value:  ownerKey,
	}))
	return ls
}

func (ls *LinkSet) parentKey() interface{} {
	return ls.parent.Get(ls.rel.OwnerLink.RefField.Name)
}

func (ls *LinkSet) link() *Model {
	return ls.parent.db.modelOf(ls.rel.LinkSchema)
}

func (ls *LinkSet) refKey(obj *Object) (interface{}, error) {
	if obj == nil || obj.schema != ls.rel.RefSchema {
		return nil, fmt.Errorf("%w: object must be %s, not %v", ErrInvalidType, ls.rel.RefSchema.Name, obj)
	}
	if !obj.Created() {
		return nil, fmt.Errorf("%w: %s has no row to link", ErrUsage, obj)
	}
	return obj.Get(ls.rel.RefLink.RefField.Name), nil
}

// Append links obj to the parent. Linking the same object twice adds two link rows.
func (ls *LinkSet) Append(obj *Object) (*Object, error) {
	if ls.Error != nil {
		return nil, ls.Error
	}
	key, err := ls.refKey(obj)
	if err != nil {
		return nil, err
	}

	if _, err := ls.link().Create(Values{
		ls.rel.OwnerLink.Field.Name: ls.parentKey(),
		ls.rel.RefLink.Field.Name:   key,
	}); err != nil {
		return nil, err
	}
	ls.results.clear()
	return obj, nil
}

// AppendNew creates an object of the referenced model and links it
func (ls *LinkSet) AppendNew(values Values) (*Object, error) {
	if ls.Error != nil {
		return nil, ls.Error
	}
	obj, err := ls.parent.db.modelOf(ls.rel.RefSchema).Create(values)
	if err != nil {
		return nil, err
	}
	return ls.Append(obj)
}

// Pop deletes the link rows between the parent and obj
func (ls *LinkSet) Pop(obj *Object) (*Object, error) {
	if ls.Error != nil {
		return nil, ls.Error
	}
	key, err := ls.refKey(obj)
	if err != nil {
		return nil, err
	}

	if _, err := ls.link().Select(Q{
		ls.rel.OwnerLink.Field.Name: ls.parentKey(),
		ls.rel.RefLink.Field.Name:   key,
	}).Delete(); err != nil {
		return nil, err
	}
	ls.results.clear()
	return obj, nil
}

// Clear deletes every link row of the parent
func (ls *LinkSet) Clear() error {
	if ls.Error != nil {
		return ls.Error
	}
	if _, err := ls.link().Select(Q{ls.rel.OwnerLink.Field.Name: ls.parentKey()}).Delete(); err != nil {
		return err
	}
	ls.results.clear()
	return nil
}
