package schema

import (
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// BackingType is the DynamoDB attribute type a typedef is stored as.
type BackingType string

const (
	BackingString    BackingType = "S"
	BackingNumber    BackingType = "N"
	BackingBinary    BackingType = "B"
	BackingBool      BackingType = "BOOL"
	BackingStringSet BackingType = "SS"
	BackingNumberSet BackingType = "NS"
	BackingBinarySet BackingType = "BS"
	BackingList      BackingType = "L"
	BackingMap       BackingType = "M"
)

// TypeDef describes the declared backing type of a column or of a
// nested attribute inside one.
type TypeDef interface {
	BackingType() BackingType
	// Supports reports whether a condition operator has a valid wire
	// encoding against this backing type.
	Supports(op Operation) bool
	// Dump converts an in-memory value to its wire representation.
	// Nil output with nil error means "no value".
	Dump(v any) (types.AttributeValue, error)
}

// NestedTypeDef is implemented by document typedefs (maps, lists) that
// can resolve the typedef of a nested attribute by path segment.
type NestedTypeDef interface {
	TypeDef
	TypeAt(seg PathSegment) (TypeDef, error)
}

// CollectionTypeDef is implemented by typedefs whose elements have
// their own typedef, used when dumping a contains() operand.
type CollectionTypeDef interface {
	TypeDef
	Inner() TypeDef
}

// TypeDefAt descends from a column's declared typedef through a path.
func TypeDefAt(td TypeDef, path []PathSegment) (TypeDef, error) {
	for _, seg := range path {
		nested, ok := td.(NestedTypeDef)
		if !ok {
			return nil, fmt.Errorf("backing type %q has no nested attributes", td.BackingType())
		}
		var err error
		td, err = nested.TypeAt(seg)
		if err != nil {
			return nil, err
		}
	}
	return td, nil
}

// String is the S backing type. Empty strings dump to no value.
type String struct{}

func (String) BackingType() BackingType { return BackingString }
func (String) Supports(Operation) bool { return true }

func (String) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, err
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as a string attribute", v)
	}
	if s.Value == "" {
		return nil, nil
	}
	return s, nil
}

// Number is the N backing type.
type Number struct{}

func (Number) BackingType() BackingType { return BackingNumber }

func (Number) Supports(op Operation) bool {
	switch op {
	case OpBeginsWith, OpContains:
		return false
	}
	return true
}

func (Number) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, err
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as a number attribute", v)
	}
	return n, nil
}

// Binary is the B backing type. Empty slices dump to no value.
type Binary struct{}

func (Binary) BackingType() BackingType { return BackingBinary }
func (Binary) Supports(Operation) bool { return true }

func (Binary) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as a binary attribute", v)
	}
	if len(b) == 0 {
		return nil, nil
	}
	return &types.AttributeValueMemberB{Value: b}, nil
}

// Boolean is the BOOL backing type.
type Boolean struct{}

func (Boolean) BackingType() BackingType { return BackingBool }

func (Boolean) Supports(op Operation) bool {
	switch op {
	case OpEqual, OpNotEqual, OpIn:
		return true
	}
	return false
}

func (Boolean) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as a bool attribute", v)
	}
	return &types.AttributeValueMemberBOOL{Value: b}, nil
}

func setSupports(op Operation) bool {
	switch op {
	case OpEqual, OpNotEqual, OpContains, OpIn:
		return true
	}
	return false
}

// StringSet is the SS backing type. Empty sets dump to no value; the
// table cannot store them.
type StringSet struct{}

func (StringSet) BackingType() BackingType { return BackingStringSet }
func (StringSet) Supports(op Operation) bool { return setSupports(op) }
func (StringSet) Inner() TypeDef { return String{} }

func (StringSet) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	ss, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as a string set attribute", v)
	}
	if len(ss) == 0 {
		return nil, nil
	}
	return &types.AttributeValueMemberSS{Value: ss}, nil
}

// NumberSet is the NS backing type. Accepts any numeric slice.
type NumberSet struct{}

func (NumberSet) BackingType() BackingType { return BackingNumberSet }
func (NumberSet) Supports(op Operation) bool { return setSupports(op) }
func (NumberSet) Inner() TypeDef { return Number{} }

func (NumberSet) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("cannot dump %T as a number set attribute", v)
	}
	if rv.Len() == 0 {
		return nil, nil
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		av, err := Number{}.Dump(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, av.(*types.AttributeValueMemberN).Value)
	}
	return &types.AttributeValueMemberNS{Value: out}, nil
}

// BinarySet is the BS backing type.
type BinarySet struct{}

func (BinarySet) BackingType() BackingType { return BackingBinarySet }
func (BinarySet) Supports(op Operation) bool { return setSupports(op) }
func (BinarySet) Inner() TypeDef { return Binary{} }

func (BinarySet) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	bs, ok := v.([][]byte)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as a binary set attribute", v)
	}
	if len(bs) == 0 {
		return nil, nil
	}
	return &types.AttributeValueMemberBS{Value: bs}, nil
}

// List is the L backing type with a single declared element typedef.
type List struct {
	Elem TypeDef
}

func (List) BackingType() BackingType { return BackingList }
func (List) Supports(op Operation) bool { return setSupports(op) }
func (l List) Inner() TypeDef { return l.Elem }

// TypeAt resolves the element typedef for an index segment.
func (l List) TypeAt(seg PathSegment) (TypeDef, error) {
	if !seg.IsIndex {
		return nil, fmt.Errorf("list attributes are indexed by position, not by key %q", seg.Key)
	}
	return l.Elem, nil
}

func (l List) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("cannot dump %T as a list attribute", v)
	}
	out := make([]types.AttributeValue, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		av, err := Dump(l.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		if av == nil {
			av = &types.AttributeValueMemberNULL{Value: true}
		}
		out = append(out, av)
	}
	return &types.AttributeValueMemberL{Value: out}, nil
}

// Map is the M backing type with declared field typedefs.
type Map struct {
	Fields map[string]TypeDef
}

func (Map) BackingType() BackingType { return BackingMap }

func (Map) Supports(op Operation) bool {
	switch op {
	case OpEqual, OpNotEqual, OpIn:
		return true
	}
	return false
}

// TypeAt resolves a declared field typedef for a key segment.
func (m Map) TypeAt(seg PathSegment) (TypeDef, error) {
	if seg.IsIndex {
		return nil, fmt.Errorf("map attributes are indexed by key, not by position %d", seg.Index)
	}
	td, ok := m.Fields[seg.Key]
	if !ok {
		return nil, fmt.Errorf("map attribute has no declared field %q", seg.Key)
	}
	return td, nil
}

func (m Map) Dump(v any) (types.AttributeValue, error) {
	if v == nil {
		return nil, nil
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as a map attribute", v)
	}
	out := make(map[string]types.AttributeValue, len(fields))
	for name, fv := range fields {
		td, ok := m.Fields[name]
		if !ok {
			return nil, fmt.Errorf("map attribute has no declared field %q", name)
		}
		av, err := Dump(td, fv)
		if err != nil {
			return nil, err
		}
		if av != nil {
			out[name] = av
		}
	}
	return &types.AttributeValueMemberM{Value: out}, nil
}
