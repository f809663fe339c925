package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ModelSpec is a declarative model description, loadable from YAML.
// This mirrors the shape of schema files used for code generation so
// that models can be declared once and shared between tooling and
// runtime.
type ModelSpec struct {
	Name    string       `yaml:"name"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec describes one column of a ModelSpec.
type ColumnSpec struct {
	Field string `yaml:"field"`
	// Name is the wire attribute name; defaults to Field.
	Name string `yaml:"name,omitempty"`
	// Kind is the backing type: "S", "N", "B", "BOOL", "SS", "NS",
	// "BS", "L" or "M".
	Kind string `yaml:"kind"`
	// Elem is the element kind for "L" columns.
	Elem string `yaml:"elem,omitempty"`
	// Fields are the declared field kinds for "M" columns.
	Fields   map[string]string `yaml:"fields,omitempty"`
	HashKey  bool              `yaml:"hashKey,omitempty"`
	RangeKey bool              `yaml:"rangeKey,omitempty"`
}

// Model is a built ModelSpec: shared column pointers plus the key
// subset, ready to back an Object implementation.
type Model struct {
	Name    string
	Columns []*Column
	Keys    []*Column

	byField map[string]*Column
}

// ColumnByField returns the column declared for a model field name.
func (m *Model) ColumnByField(field string) (*Column, bool) {
	c, ok := m.byField[field]
	return c, ok
}

// ParseModelSpec unmarshals a YAML model description.
func ParseModelSpec(data []byte) (*ModelSpec, error) {
	var spec ModelSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse model spec: %w", err)
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("model spec is missing a name")
	}
	return &spec, nil
}

// Build resolves the spec into shared Column pointers.
func (s *ModelSpec) Build() (*Model, error) {
	m := &Model{
		Name:    s.Name,
		byField: make(map[string]*Column, len(s.Columns)),
	}
	var hashKeys, rangeKeys int
	for _, cs := range s.Columns {
		if cs.Field == "" {
			return nil, fmt.Errorf("model %q has a column without a field name", s.Name)
		}
		td, err := cs.typeDef()
		if err != nil {
			return nil, fmt.Errorf("model %q column %q: %w", s.Name, cs.Field, err)
		}
		name := cs.Name
		if name == "" {
			name = cs.Field
		}
		col := &Column{Field: cs.Field, Name: name, Type: td}
		if _, exists := m.byField[cs.Field]; exists {
			return nil, fmt.Errorf("model %q declares column %q twice", s.Name, cs.Field)
		}
		m.byField[cs.Field] = col
		m.Columns = append(m.Columns, col)
		if cs.HashKey {
			hashKeys++
			m.Keys = append(m.Keys, col)
		}
		if cs.RangeKey {
			rangeKeys++
			m.Keys = append(m.Keys, col)
		}
	}
	if hashKeys != 1 {
		return nil, fmt.Errorf("model %q must declare exactly one hash key, has %d", s.Name, hashKeys)
	}
	if rangeKeys > 1 {
		return nil, fmt.Errorf("model %q has more than one range key", s.Name)
	}
	return m, nil
}

func (cs ColumnSpec) typeDef() (TypeDef, error) {
	switch BackingType(cs.Kind) {
	case BackingString:
		return String{}, nil
	case BackingNumber:
		return Number{}, nil
	case BackingBinary:
		return Binary{}, nil
	case BackingBool:
		return Boolean{}, nil
	case BackingStringSet:
		return StringSet{}, nil
	case BackingNumberSet:
		return NumberSet{}, nil
	case BackingBinarySet:
		return BinarySet{}, nil
	case BackingList:
		elem, err := ColumnSpec{Kind: cs.Elem}.typeDef()
		if err != nil {
			return nil, fmt.Errorf("list element: %w", err)
		}
		return List{Elem: elem}, nil
	case BackingMap:
		fields := make(map[string]TypeDef, len(cs.Fields))
		for name, kind := range cs.Fields {
			td, err := ColumnSpec{Kind: kind}.typeDef()
			if err != nil {
				return nil, fmt.Errorf("map field %q: %w", name, err)
			}
			fields[name] = td
		}
		return Map{Fields: fields}, nil
	case "":
		return nil, fmt.Errorf("missing kind")
	default:
		return nil, fmt.Errorf("unknown kind %q", cs.Kind)
	}
}
