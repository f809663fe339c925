package conditions

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dynamap/schema"
)

// Path is an immutable route from a column's root wire name to a
// nested attribute. Key and Index return extended copies; a Path can
// therefore be stored and branched without aliasing.
//
// Condition constructors hang off Path so that callers write
//
//	conditions.Attr(user.Email).BeginsWith("a")
//	conditions.Attr(user.Prefs).Key("theme").Equal("dark")
type Path struct {
	col  *schema.Column
	segs []schema.PathSegment
}

// Attr starts a path at a column's root.
func Attr(col *schema.Column) Path {
	return Path{col: col}
}

// Key descends into a document attribute.
func (p Path) Key(k string) Path {
	return Path{col: p.col, segs: append(slices.Clone(p.segs), schema.Key(k))}
}

// Index descends into a list attribute.
func (p Path) Index(i int) Path {
	return Path{col: p.col, segs: append(slices.Clone(p.segs), schema.Index(i))}
}

// Column returns the root column.
func (p Path) Column() *schema.Column { return p.col }

// Segments returns a copy of the path below the root.
func (p Path) Segments() []schema.PathSegment { return slices.Clone(p.segs) }

func (p Path) String() string {
	if p.col == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(p.col.Name)
	for _, seg := range p.segs {
		if seg.IsIndex {
			fmt.Fprintf(&b, "[%d]", seg.Index)
		} else {
			b.WriteString(".")
			b.WriteString(seg.Key)
		}
	}
	return b.String()
}

func (p Path) equal(other Path) bool {
	if p.col != other.col || len(p.segs) != len(other.segs) {
		return false
	}
	for i, seg := range p.segs {
		if seg != other.segs[i] {
			return false
		}
	}
	return true
}

// typeDef resolves the declared typedef at the end of the path.
func (p Path) typeDef() (schema.TypeDef, error) {
	if p.col == nil {
		return nil, fmt.Errorf("path has no column")
	}
	return schema.TypeDefAt(p.col.Type, p.segs)
}

// check validates that the backing type at the path supports op.
func (p Path) check(op schema.Operation) error {
	td, err := p.typeDef()
	if err != nil {
		return invalidCondition("cannot resolve type at %s: %v", p, err)
	}
	if !td.Supports(op) {
		return &UnsupportedOperationError{Path: p.String(), BackingType: td.BackingType(), Operation: op}
	}
	return nil
}

func (p Path) comparison(op schema.Operation, values ...any) (*Condition, error) {
	if err := p.check(op); err != nil {
		return nil, err
	}
	return newLeaf(op, p, values...), nil
}

// Equal builds `path == value`. A nil value renders as
// attribute_not_exists(path).
func (p Path) Equal(v any) (*Condition, error) { return p.comparison(schema.OpEqual, v) }

// NotEqual builds `path <> value`. A nil value renders as
// attribute_exists(path).
func (p Path) NotEqual(v any) (*Condition, error) { return p.comparison(schema.OpNotEqual, v) }

// LessThan builds `path < value`.
func (p Path) LessThan(v any) (*Condition, error) { return p.comparison(schema.OpLess, v) }

// GreaterThan builds `path > value`.
func (p Path) GreaterThan(v any) (*Condition, error) { return p.comparison(schema.OpGreater, v) }

// LessOrEqual builds `path <= value`.
func (p Path) LessOrEqual(v any) (*Condition, error) { return p.comparison(schema.OpLessOrEqual, v) }

// GreaterOrEqual builds `path >= value`.
func (p Path) GreaterOrEqual(v any) (*Condition, error) {
	return p.comparison(schema.OpGreaterOrEqual, v)
}

// BeginsWith builds `begins_with(path, value)`.
func (p Path) BeginsWith(v any) (*Condition, error) { return p.comparison(schema.OpBeginsWith, v) }

// Between builds `path BETWEEN lower AND upper`.
func (p Path) Between(lower, upper any) (*Condition, error) {
	return p.comparison(schema.OpBetween, lower, upper)
}

// Contains builds `contains(path, value)`. The value is dumped through
// the collection's element typedef when the path names a collection.
func (p Path) Contains(v any) (*Condition, error) { return p.comparison(schema.OpContains, v) }

// In builds `path IN (values...)`.
func (p Path) In(values ...any) (*Condition, error) {
	return p.comparison(schema.OpIn, values...)
}

// IsNull builds `path == nil`, rendering as attribute_not_exists.
// Equality is supported by every backing type, so this cannot fail.
func (p Path) IsNull() *Condition {
	return newLeaf(schema.OpEqual, p, nil)
}

// NotNull builds `path != nil`, rendering as attribute_exists.
func (p Path) NotNull() *Condition {
	return newLeaf(schema.OpNotEqual, p, nil)
}

// DumpedEqual builds an equality condition against an already-dumped
// wire value. The renderer will not dump the value again; snapshots of
// mutable values are captured this way at mark time rather than at
// render time.
func DumpedEqual(p Path, value types.AttributeValue) *Condition {
	c := newLeaf(schema.OpEqual, p, value)
	c.dumped = true
	return c
}

// asPath normalizes operands that reference another column.
func asPath(v any) (Path, bool) {
	switch pv := v.(type) {
	case Path:
		return pv, pv.col != nil
	case *schema.Column:
		if pv == nil {
			return Path{}, false
		}
		return Attr(pv), true
	}
	return Path{}, false
}
