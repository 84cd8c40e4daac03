package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/macaronorm/macaron/schema"
)

type modelDoc struct {
	Models []Model `toml:"models"`
}

// Model one [[models]] table of a model file
type Model struct {
	Name           string            `toml:"name"`
	Table          string            `toml:"table,omitempty"`
	UniqueTogether []string          `toml:"unique_together,omitempty"`
	Fields         []ModelField      `toml:"fields,omitempty"`
	ManyToOne      []ModelManyToOne  `toml:"many_to_one,omitempty"`
	ManyToMany     []ModelManyToMany `toml:"many_to_many,omitempty"`
}

// ModelField one [[models.fields]] entry
type ModelField struct {
	Name          string      `toml:"name"`
	Kind          string      `toml:"kind"`
	DataType      string      `toml:"data_type,omitempty"`
	ExtraSQL      string      `toml:"extra_sql,omitempty"`
	Null          bool        `toml:"null,omitempty"`
	Default       interface{} `toml:"default,omitempty"`
	PrimaryKey    bool        `toml:"primary_key,omitempty"`
	Unique        bool        `toml:"unique,omitempty"`
	MaxLength     int         `toml:"max_length,omitempty"`
	MinLength     int         `toml:"min_length,omitempty"`
	Length        int         `toml:"length,omitempty"`
	Max           *float64    `toml:"max,omitempty"`
	Min           *float64    `toml:"min,omitempty"`
	Pattern       string      `toml:"pattern,omitempty"`
	AutoCreate    bool        `toml:"auto_create,omitempty"`
	AutoUpdate    bool        `toml:"auto_update,omitempty"`
	AutoIncrement bool        `toml:"auto_increment,omitempty"`
}

type ModelManyToOne struct {
	Name        string `toml:"name"`
	Ref         string `toml:"ref"`
	RelatedName string `toml:"related_name,omitempty"`
	ForeignKey  string `toml:"foreign_key,omitempty"`
	RefKey      string `toml:"ref_key,omitempty"`
	OnDelete    string `toml:"on_delete,omitempty"`
	OnUpdate    string `toml:"on_update,omitempty"`
	Null        bool   `toml:"null,omitempty"`
}

type ModelManyToMany struct {
	Name        string `toml:"name"`
	Ref         string `toml:"ref"`
	RelatedName string `toml:"related_name,omitempty"`
	Link        string `toml:"link,omitempty"`
}

// LoadModels reads model definitions from a TOML model file:
//
//	[[models]]
//	name = "Member"
//
//	[[models.fields]]
//	name = "name"
//	kind = "char"
//	max_length = 20
//
//	[[models.many_to_one]]
//	name = "team"
//	ref = "Team"
//	related_name = "members"
func LoadModels(r io.Reader) ([]schema.Definition, error) {
	var mf modelDoc
	meta, err := toml.NewDecoder(r).Decode(&mf)
	if err != nil {
		return nil, fmt.Errorf("models: decode error: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("models: unknown key %q", undecoded[0].String())
	}

	defs := make([]schema.Definition, 0, len(mf.Models))
	for _, m := range mf.Models {
		def, err := m.Definition()
		if err != nil {
			return nil, fmt.Errorf("models: %s: %w", m.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// WriteModels encodes models as a model file
func WriteModels(w io.Writer, models ...Model) error {
	return toml.NewEncoder(w).Encode(modelDoc{Models: models})
}

// LoadModelsFile reads the model file at path
func LoadModelsFile(path string) ([]schema.Definition, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("models: open file %q: %w", path, err)
	}
	defer r.Close()
	return LoadModels(r)
}

// Definition converts m to the schema declaration the registry resolves
func (m Model) Definition() (schema.Definition, error) {
	def := schema.Definition{Name: m.Name, Table: m.Table, UniqueTogether: m.UniqueTogether}

	// fields first, relationships keep their file order after them
	for _, f := range m.Fields {
		kind, err := schema.ParseKind(f.Kind)
		if err != nil {
			return def, fmt.Errorf("field %q: %w", f.Name, err)
		}
		def.Attributes = append(def.Attributes, &schema.Field{
			Name:          f.Name,
			Kind:          kind,
			DataType:      f.DataType,
			ExtraSQL:      f.ExtraSQL,
			Null:          f.Null,
			Default:       f.Default,
			PrimaryKey:    f.PrimaryKey,
			Unique:        f.Unique,
			MaxLength:     f.MaxLength,
			MinLength:     f.MinLength,
			Length:        f.Length,
			Max:           f.Max,
			Min:           f.Min,
			Pattern:       f.Pattern,
			AutoCreate:    f.AutoCreate,
			AutoUpdate:    f.AutoUpdate,
			AutoIncrement: f.AutoIncrement,
		})
	}
	for _, rel := range m.ManyToOne {
		def.Attributes = append(def.Attributes, &schema.ManyToOne{
			Name:        rel.Name,
			Ref:         rel.Ref,
			RelatedName: rel.RelatedName,
			ForeignKey:  rel.ForeignKey,
			RefKey:      rel.RefKey,
			OnDelete:    rel.OnDelete,
			OnUpdate:    rel.OnUpdate,
			Null:        rel.Null,
		})
	}
	for _, rel := range m.ManyToMany {
		def.Attributes = append(def.Attributes, &schema.ManyToMany{
			Name:        rel.Name,
			Ref:         rel.Ref,
			RelatedName: rel.RelatedName,
			Link:        rel.Link,
		})
	}
	return def, nil
}
