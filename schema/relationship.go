package schema

import (
	"fmt"
	"strings"

	"github.com/macaronorm/macaron/clause"
)

// Relationship an attribute that traverses to another model
type Relationship interface {
	Attribute
	// Target model reached by the traversal
	Target() *Schema
	// Joins needed to reach Target under alias, starting from the owner alias
	Joins(alias, owner string) []clause.Join
}

// ManyToOne reference from the owner to one Ref row, stored in a foreign key column
type ManyToOne struct {
	Name        string
	Ref         string
	ForeignKey  string
	RefKey      string
	OnDelete    string
	OnUpdate    string
	Null        bool
	RelatedName string

	Owner     *Schema
	RefSchema *Schema
	// Field the foreign key column on the owner
	Field *Field
	// RefField the referenced column on RefSchema
	RefField *Field
}

func (*ManyToOne) attribute() {}

// AttributeName name of the attribute on the owner
func (rel *ManyToOne) AttributeName() string { return rel.Name }

// Target referenced schema
func (rel *ManyToOne) Target() *Schema { return rel.RefSchema }

// Joins joins Ref as alias on owner's foreign key
func (rel *ManyToOne) Joins(alias, owner string) []clause.Join {
	return []clause.Join{{
		Table: clause.Table{Name: rel.RefSchema.Table, Alias: alias},
		Left:  clause.Column{Table: owner, Name: rel.Field.Name},
		Right: clause.Column{Table: alias, Name: rel.RefField.Name},
	}}
}

// References the REFERENCES clause of the foreign key column
func (rel *ManyToOne) References() string {
	sql := fmt.Sprintf("REFERENCES %s(%s)", clause.Quoted(rel.RefSchema.Table), clause.Quoted(rel.RefField.Name))
	if rel.OnDelete != "" {
		sql += " ON DELETE " + strings.ToUpper(rel.OnDelete)
	}
	if rel.OnUpdate != "" {
		sql += " ON UPDATE " + strings.ToUpper(rel.OnUpdate)
	}
	return sql
}

// OneToMany reverse side of a ManyToOne, registered on the referenced model
type OneToMany struct {
	Name    string
	Owner   *Schema
	Child   *Schema
	Forward *ManyToOne
}

func (*OneToMany) attribute() {}

// AttributeName related name of the forward ManyToOne
func (rel *OneToMany) AttributeName() string { return rel.Name }

// Target child schema holding the foreign key
func (rel *OneToMany) Target() *Schema { return rel.Child }

// Joins joins the children as alias on their foreign key
func (rel *OneToMany) Joins(alias, owner string) []clause.Join {
	return []clause.Join{{
		Table: clause.Table{Name: rel.Child.Table, Alias: alias},
		Left:  clause.Column{Table: owner, Name: rel.Forward.RefField.Name},
		Right: clause.Column{Table: alias, Name: rel.Forward.Field.Name},
	}}
}

// ManyToMany association through a link model holding two ManyToOne columns
type ManyToMany struct {
	Name        string
	Ref         string
	RelatedName string
	// Link names an explicit link model, one is generated when empty
	Link string

	Owner      *Schema
	RefSchema  *Schema
	LinkSchema *Schema
	// OwnerLink the link column pointing at Owner
	OwnerLink *ManyToOne
	// RefLink the link column pointing at RefSchema
	RefLink *ManyToOne
	Reverse bool
}

func (*ManyToMany) attribute() {}

// AttributeName name of the attribute on the owner
func (rel *ManyToMany) AttributeName() string { return rel.Name }

// Target schema at the far end of the link model
func (rel *ManyToMany) Target() *Schema { return rel.RefSchema }

// LinkAlias alias of the link table joined for alias
func LinkAlias(alias string) string { return alias + ".lnk" }

// Joins joins the link table as LinkAlias(alias), then Ref as alias
func (rel *ManyToMany) Joins(alias, owner string) []clause.Join {
	lnk := LinkAlias(alias)
	return []clause.Join{{
		Table: clause.Table{Name: rel.LinkSchema.Table, Alias: lnk},
		Left:  clause.Column{Table: owner, Name: rel.OwnerLink.RefField.Name},
		Right: clause.Column{Table: lnk, Name: rel.OwnerLink.Field.Name},
	}, {
		Table: clause.Table{Name: rel.RefSchema.Table, Alias: alias},
		Left:  clause.Column{Table: lnk, Name: rel.RefLink.Field.Name},
		Right: clause.Column{Table: alias, Name: rel.RefLink.RefField.Name},
	}}
}
