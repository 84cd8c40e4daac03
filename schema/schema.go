package schema

import (
	"fmt"
	"strings"

	"github.com/macaronorm/macaron/clause"
)

// Schema resolved table meta information of a model
type Schema struct {
	Name           string
	Table          string
	Fields         []*Field
	FieldsByName   map[string]*Field
	PrimaryField   *Field
	Relationships  map[string]Relationship
	ManyToOnes     []*ManyToOne
	ManyToManys    []*ManyToMany
	UniqueTogether []string
	Hooks          Hooks
	// Generated link model of a ManyToMany
	Generated bool
}

func (schema *Schema) String() string {
	return fmt.Sprintf("%s(%s)", schema.Name, schema.Table)
}

// LookUpField field by column name
func (schema *Schema) LookUpField(name string) *Field {
	return schema.FieldsByName[name]
}

// LookUpRelationship relationship by accessor name
func (schema *Schema) LookUpRelationship(name string) Relationship {
	return schema.Relationships[name]
}

// FieldNames column names in declared order
func (schema *Schema) FieldNames() []string {
	names := make([]string, len(schema.Fields))
	for i, field := range schema.Fields {
		names[i] = field.Name
	}
	return names
}

// References models this schema points at through foreign keys
func (schema *Schema) References() []*Schema {
	var refs []*Schema
	seen := map[*Schema]bool{schema: true}
	for _, rel := range schema.ManyToOnes {
		if !seen[rel.RefSchema] {
			seen[rel.RefSchema] = true
			refs = append(refs, rel.RefSchema)
		}
	}
	return refs
}

// LinkSchemas link models of the forward many-to-many relationships
func (schema *Schema) LinkSchemas() []*Schema {
	var links []*Schema
	for _, rel := range schema.ManyToManys {
		links = append(links, rel.LinkSchema)
	}
	return links
}

// CreateTableSQL renders the CREATE TABLE statement
func (schema *Schema) CreateTableSQL() (string, error) {
	columns := make([]string, 0, len(schema.Fields)+1)
	for _, field := range schema.Fields {
		column, err := field.Clause()
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", schema.Name, field.Name, err)
		}
		columns = append(columns, column)
	}

	if len(schema.UniqueTogether) > 0 {
		quoted := make([]string, len(schema.UniqueTogether))
		for i, name := range schema.UniqueTogether {
			quoted[i] = clause.Quoted(name)
		}
		columns = append(columns, "UNIQUE ("+strings.Join(quoted, ", ")+")")
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", clause.Quoted(schema.Table), strings.Join(columns, ",\n  ")), nil
}
