package schema

import (
	"fmt"
	"sync"
)

// Registry collects model definitions and resolves them into schemas once,
// on first lookup. Definitions may reference models registered later.
type Registry struct {
	namer Namer

	mu       sync.Mutex
	defs     []Definition
	names    map[string]bool
	resolved bool

	once    sync.Once
	err     error
	schemas map[string]*Schema
	ordered []*Schema
}

// NewRegistry creates a registry, a nil namer means NamingStrategy{}
func NewRegistry(namer Namer) *Registry {
	if namer == nil {
		namer = NamingStrategy{}
	}
	return &Registry{namer: namer, names: map[string]bool{}}
}

// Namer naming strategy of the registry
func (r *Registry) Namer() Namer { return r.namer }

// Register adds definitions, failing once the registry has been resolved
func (r *Registry) Register(defs ...Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, def := range defs {
		if r.resolved {
			return fmt.Errorf("%w: cannot register %q, models are already resolved", ErrUsage, def.Name)
		}
		if def.Name == "" {
			return fmt.Errorf("%w: model definition without a name", ErrUsage)
		}
		if r.names[def.Name] {
			return fmt.Errorf("%w: model %q is registered twice", ErrUsage, def.Name)
		}
		r.names[def.Name] = true
		r.defs = append(r.defs, def)
	}
	return nil
}

// Resolve builds every schema, only the first call does any work
func (r *Registry) Resolve() error {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.resolved = true

		b := &builder{namer: r.namer, schemas: map[string]*Schema{}, pending: map[*Schema][]Attribute{}}
		if r.err = b.build(r.defs); r.err == nil {
			r.schemas, r.ordered = b.schemas, b.ordered
		}
	})
	return r.err
}

// Lookup schema of a registered or generated model
func (r *Registry) Lookup(name string) (*Schema, error) {
	if err := r.Resolve(); err != nil {
		return nil, err
	}
	if s, ok := r.schemas[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Schemas every schema in registration order, generated link models last
func (r *Registry) Schemas() ([]*Schema, error) {
	if err := r.Resolve(); err != nil {
		return nil, err
	}
	return append([]*Schema(nil), r.ordered...), nil
}

type builder struct {
	namer   Namer
	schemas map[string]*Schema
	ordered []*Schema
	pending map[*Schema][]Attribute
}

func (b *builder) build(defs []Definition) error {
	declared := make([]*Schema, 0, len(defs))
	for _, def := range defs {
		s, err := b.declare(def)
		if err != nil {
			return err
		}
		declared = append(declared, s)
	}

	for _, s := range declared {
		if err := b.fields(s); err != nil {
			return err
		}
	}

	for _, s := range declared {
		for _, rel := range s.ManyToManys {
			if err := b.manyToMany(s, rel); err != nil {
				return err
			}
		}
	}

	for _, s := range b.ordered {
		for _, rel := range s.ManyToOnes {
			if rel.RelatedName == "" {
				rel.RelatedName = b.namer.RelatedName(s.Table)
			}
			reverse := &OneToMany{Name: rel.RelatedName, Owner: rel.RefSchema, Child: s, Forward: rel}
			if err := addAttribute(rel.RefSchema, reverse); err != nil {
				return fmt.Errorf("reverse accessor of %s.%s: %w", s.Name, rel.Name, err)
			}
		}
	}
	return nil
}

// declare copies the definition attributes and settles the primary key
func (b *builder) declare(def Definition) (*Schema, error) {
	if _, ok := b.schemas[def.Name]; ok {
		return nil, fmt.Errorf("%w: model %q is defined twice", ErrUsage, def.Name)
	}

	s := &Schema{
		Name:           def.Name,
		Table:          def.Table,
		FieldsByName:   map[string]*Field{},
		Relationships:  map[string]Relationship{},
		UniqueTogether: append([]string(nil), def.UniqueTogether...),
		Hooks:          def.Hooks,
	}
	if s.Table == "" {
		s.Table = b.namer.TableName(def.Name)
	}

	attrs := make([]Attribute, 0, len(def.Attributes)+1)
	for _, attr := range def.Attributes {
		switch a := attr.(type) {
		case *Field:
			f := *a
			f.Schema, f.Relation = s, nil
			if err := f.finalize(); err != nil {
				return nil, fmt.Errorf("model %q: %w", def.Name, err)
			}
			if f.PrimaryKey {
				if s.PrimaryField != nil {
					return nil, fmt.Errorf("%w: model %q declares more than one primary key", ErrUsage, def.Name)
				}
				s.PrimaryField = &f
			}
			attrs = append(attrs, &f)
		case *ManyToOne:
			rel := *a
			rel.Owner = s
			attrs = append(attrs, &rel)
		case *ManyToMany:
			rel := *a
			rel.Owner = s
			attrs = append(attrs, &rel)
		default:
			return nil, fmt.Errorf("%w: model %q: unsupported attribute %T", ErrUsage, def.Name, attr)
		}
	}

	if s.PrimaryField == nil {
		pk := &Field{Name: "id", Kind: Integer, PrimaryKey: true, AutoIncrement: true, Schema: s}
		if err := pk.finalize(); err != nil {
			return nil, err
		}
		s.PrimaryField = pk
		attrs = append([]Attribute{pk}, attrs...)
	}

	b.schemas[s.Name] = s
	b.ordered = append(b.ordered, s)
	b.pending[s] = attrs
	return s, nil
}

func (b *builder) declaredField(s *Schema, name string) *Field {
	for _, attr := range b.pending[s] {
		if f, ok := attr.(*Field); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func (b *builder) ref(owner *Schema, attr, name string) (*Schema, error) {
	if ref, ok := b.schemas[name]; ok {
		return ref, nil
	}
	return nil, fmt.Errorf("%w: %s.%s references %q", ErrUnknownModel, owner.Name, attr, name)
}

// fields materializes columns and forward relationships in declared order
func (b *builder) fields(s *Schema) error {
	for _, attr := range b.pending[s] {
		switch a := attr.(type) {
		case *Field:
			if err := addAttribute(s, a); err != nil {
				return err
			}
		case *ManyToOne:
			if err := b.manyToOne(s, a); err != nil {
				return err
			}
		case *ManyToMany:
			if err := addAttribute(s, a); err != nil {
				return err
			}
			s.ManyToManys = append(s.ManyToManys, a)
		}
	}

	for _, name := range s.UniqueTogether {
		if s.LookUpField(name) == nil {
			return fmt.Errorf("%w: %s unique together names %q", ErrUnknownAttribute, s.Name, name)
		}
	}
	return nil
}

func (b *builder) manyToOne(s *Schema, rel *ManyToOne) error {
	ref, err := b.ref(s, rel.Name, rel.Ref)
	if err != nil {
		return err
	}
	rel.RefSchema = ref

	refField := ref.PrimaryField
	if rel.RefKey != "" {
		if refField = b.declaredField(ref, rel.RefKey); refField == nil {
			return fmt.Errorf("%w: %s.%s ref key %q", ErrUnknownAttribute, s.Name, rel.Name, rel.RefKey)
		}
	}
	rel.RefKey, rel.RefField = refField.Name, refField

	if rel.ForeignKey == "" {
		rel.ForeignKey = b.namer.ForeignKeyName(rel.Name)
	}

	if field := b.declaredField(s, rel.ForeignKey); field != nil {
		// the column was declared explicitly and is added in its own slot
		if field.ExtraSQL == "" {
			field.ExtraSQL = rel.References()
		}
		field.Relation, rel.Field = rel, field
	} else {
		field := &Field{
			Name:     rel.ForeignKey,
			Kind:     refField.Kind,
			DataType: refField.dataType(),
			Null:     rel.Null,
			ExtraSQL: rel.References(),
			Schema:   s,
			Relation: rel,
		}
		if err := field.finalize(); err != nil {
			return err
		}
		rel.Field = field
		if err := addAttribute(s, field); err != nil {
			return err
		}
	}

	if err := addAttribute(s, rel); err != nil {
		return err
	}
	s.ManyToOnes = append(s.ManyToOnes, rel)
	return nil
}

func (b *builder) manyToMany(s *Schema, rel *ManyToMany) error {
	ref, err := b.ref(s, rel.Name, rel.Ref)
	if err != nil {
		return err
	}
	if ref == s {
		return fmt.Errorf("%w: %s.%s is a self-referential many-to-many", ErrUsage, s.Name, rel.Name)
	}
	rel.RefSchema = ref

	if rel.Link != "" {
		link, err := b.ref(s, rel.Name, rel.Link)
		if err != nil {
			return err
		}
		rel.LinkSchema = link
		for _, fk := range link.ManyToOnes {
			switch {
			case fk.RefSchema == s && rel.OwnerLink == nil:
				rel.OwnerLink = fk
			case fk.RefSchema == ref && rel.RefLink == nil:
				rel.RefLink = fk
			}
		}
		if rel.OwnerLink == nil || rel.RefLink == nil {
			return fmt.Errorf("%w: link model %q must reference both %q and %q", ErrUsage, link.Name, s.Name, ref.Name)
		}
	} else {
		link, err := b.declare(Definition{
			Name: b.namer.LinkName(s.Name, ref.Name),
			Attributes: []Attribute{
				&ManyToOne{Name: s.Table, Ref: s.Name, OnDelete: "CASCADE", OnUpdate: "CASCADE"},
				&ManyToOne{Name: ref.Table, Ref: ref.Name, OnDelete: "CASCADE", OnUpdate: "CASCADE"},
			},
		})
		if err != nil {
			return fmt.Errorf("link of %s.%s: %w", s.Name, rel.Name, err)
		}
		link.Generated = true
		if err := b.fields(link); err != nil {
			return err
		}
		rel.LinkSchema, rel.OwnerLink, rel.RefLink = link, link.ManyToOnes[0], link.ManyToOnes[1]
	}

	if rel.RelatedName == "" {
		rel.RelatedName = b.namer.RelatedName(s.Table)
	}
	reverse := &ManyToMany{
		Name:        rel.RelatedName,
		Ref:         s.Name,
		RelatedName: rel.Name,
		Link:        rel.Link,
		Owner:       ref,
		RefSchema:   s,
		LinkSchema:  rel.LinkSchema,
		OwnerLink:   rel.RefLink,
		RefLink:     rel.OwnerLink,
		Reverse:     true,
	}
	if err := addAttribute(ref, reverse); err != nil {
		return fmt.Errorf("reverse accessor of %s.%s: %w", s.Name, rel.Name, err)
	}
	return nil
}

func addAttribute(s *Schema, attr Attribute) error {
	name := attr.AttributeName()
	if _, ok := s.FieldsByName[name]; ok {
		return fmt.Errorf("%w: %s already has an attribute named %q", ErrUsage, s.Name, name)
	}
	if _, ok := s.Relationships[name]; ok {
		return fmt.Errorf("%w: %s already has an attribute named %q", ErrUsage, s.Name, name)
	}

	switch a := attr.(type) {
	case *Field:
		s.Fields = append(s.Fields, a)
		s.FieldsByName[name] = a
	case Relationship:
		s.Relationships[name] = a
	}
	return nil
}
