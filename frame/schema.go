package frame

import "fmt"

// Field is one column declaration: a name and a type name resolvable
// through the Kinds registry.
type Field struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Schema is the declared shape of a table or chunk. It is the "meta"
// of a lazy table: known before any partition is produced.
type Schema struct {
	Fields []Field `yaml:"fields" json:"fields"`
}

func (s *Schema) HasColumn(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (s *Schema) ColumnNames() []string {
	res := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		res[i] = f.Name
	}
	return res
}

func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// EmptyChunk materializes a zero-row chunk conforming to the schema.
func (s *Schema) EmptyChunk() (*Chunk, error) {
	cols := make([]*Column, len(s.Fields))
	for i, f := range s.Fields {
		k, ok := Kinds[f.Type]
		if !ok {
			return nil, fmt.Errorf("unknown type %s for column %s", f.Type, f.Name)
		}
		cols[i] = &Column{Name: f.Name, Kind: k, Data: k.New(0, 0)}
	}
	return NewChunk(cols...)
}

// Equal compares field names and resolved kinds, so type name aliases
// ("BIGINT" vs "INT8") compare equal.
func (s *Schema) Equal(other *Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		o := other.Fields[i]
		if o.Name != f.Name || Kinds[o.Type] != Kinds[f.Type] {
			return false
		}
	}
	return true
}
