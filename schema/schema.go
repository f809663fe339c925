// Package schema defines the contract between a model layer and the
// expression-compilation core: columns with wire names and attribute
// paths, backing-type descriptors with per-operation support checks,
// and the value-dump hook that converts in-memory values to their
// DynamoDB wire representation.
package schema

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Operation names a condition operator that a backing type may or may
// not support.
type Operation string

const (
	OpEqual          Operation = "=="
	OpNotEqual       Operation = "!="
	OpLess           Operation = "<"
	OpGreater        Operation = ">"
	OpLessOrEqual    Operation = "<="
	OpGreaterOrEqual Operation = ">="
	OpBeginsWith     Operation = "begins_with"
	OpBetween        Operation = "between"
	OpContains       Operation = "contains"
	OpIn             Operation = "in"
)

// Column describes a single declared attribute of a model.
//
// Columns are compared by pointer identity everywhere in this module;
// declare each column exactly once and share the pointer.
type Column struct {
	// Field is the name of the attribute on the model object.
	Field string
	// Name is the wire (DynamoDB) attribute name.
	Name string
	Type TypeDef
}

func (c *Column) String() string {
	return fmt.Sprintf("<Column[%s=%s]>", c.Field, c.Name)
}

// PathSegment is one step of an attribute path below a column's root
// name: either a string key into a document or an integer list index.
type PathSegment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a document-key path segment.
func Key(k string) PathSegment { return PathSegment{Key: k} }

// Index returns a list-index path segment.
func Index(i int) PathSegment { return PathSegment{Index: i, IsIndex: true} }

// Object is the model-instance collaborator the renderer consumes.
// Implementations must be pointer types so they can be tracked by
// identity.
type Object interface {
	// Columns returns every declared column of the model.
	Columns() []*Column
	// Keys returns the key columns, which never appear in updates.
	Keys() []*Column
	// Get returns the current in-memory value for a column, or nil if
	// the attribute has no value.
	Get(col *Column) any
}

// DumpFunc converts a typed in-memory value to its wire representation.
// A nil return value (with nil error) means the value has no wire
// encoding, e.g. nil itself or an empty set.
type DumpFunc func(td TypeDef, v any) (types.AttributeValue, error)

// Dump is the default DumpFunc, delegating to the typedef.
func Dump(td TypeDef, v any) (types.AttributeValue, error) {
	if td == nil {
		return nil, fmt.Errorf("cannot dump value %v: no type descriptor", v)
	}
	if v == nil {
		return nil, nil
	}
	return td.Dump(v)
}
