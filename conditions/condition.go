// Package conditions implements the condition algebra and expression
// renderer for DynamoDB: a composable tree of boolean conditions over
// attribute paths, a placeholder reference tracker, and a renderer
// producing the wire-level expression strings and placeholder tables.
//
// Reference: https://docs.aws.amazon.com/amazondynamodb/latest/developerguide/Expressions.SpecifyingConditions.html
package conditions

import (
	"fmt"
	"reflect"
	"strings"

	"dynamap/schema"
)

// Connective and empty tags extend the comparison vocabulary declared
// by the schema package.
const (
	opEmpty schema.Operation = ""
	opAnd   schema.Operation = "and"
	opOr    schema.Operation = "or"
	opNot   schema.Operation = "not"
)

// Condition is one node of an immutable condition tree: either the
// empty condition, a leaf operator over a path and operand values, or
// a boolean connective over child conditions. The zero kinds are
// closed; rendering pattern-matches on the operation tag.
type Condition struct {
	op       schema.Operation
	path     Path
	hasPath  bool
	values   []any
	children []*Condition
	dumped   bool
}

// Empty returns the empty condition. Combining with it is an identity,
// and it renders nothing. A nil *Condition behaves the same way, so
// callers can fold a possibly-empty list without a seed:
//
//	var combined *conditions.Condition
//	for _, c := range conds {
//		combined = combined.And(c)
//	}
func Empty() *Condition {
	return &Condition{op: opEmpty}
}

// NewAnd builds an AND connective over exactly the given children,
// with no absorption or flattening. A connective with no children
// fails at render time; prefer And for combining possibly-empty
// conditions.
func NewAnd(children ...*Condition) *Condition {
	return newConnective(opAnd, children...)
}

// NewOr is the OR counterpart of NewAnd.
func NewOr(children ...*Condition) *Condition {
	return newConnective(opOr, children...)
}

func newLeaf(op schema.Operation, p Path, values ...any) *Condition {
	return &Condition{op: op, path: p, hasPath: true, values: values}
}

func newConnective(op schema.Operation, children ...*Condition) *Condition {
	return &Condition{op: op, children: children}
}

// isEmptyTag reports whether c is the empty condition proper, as
// opposed to a connective that merely reaches no leaves.
func isEmptyTag(c *Condition) bool {
	return c == nil || c.op == opEmpty
}

// Operation returns the node's operation tag, or "" for empty.
func (c *Condition) Operation() schema.Operation {
	if c == nil {
		return opEmpty
	}
	return c.op
}

// Len is the number of leaf conditions reachable from c. The empty
// condition has length zero; combination treats any zero-length
// condition as an identity.
func (c *Condition) Len() int {
	return len(Leaves(c))
}

// And combines two conditions under AND. Zero-length operands are
// absorbed, and AND children on either side are flattened into a
// single node rather than nested.
func (c *Condition) And(other *Condition) *Condition {
	if other.Len() == 0 {
		if c == nil {
			return Empty()
		}
		return c
	}
	if c.Len() == 0 {
		return other
	}
	return combine(opAnd, c, other)
}

// Or combines two conditions under OR, with the same absorption and
// flattening rules as And.
func (c *Condition) Or(other *Condition) *Condition {
	if other.Len() == 0 {
		if c == nil {
			return Empty()
		}
		return c
	}
	if c.Len() == 0 {
		return other
	}
	return combine(opOr, c, other)
}

func combine(op schema.Operation, left, right *Condition) *Condition {
	switch {
	case left.op == op && right.op == op:
		children := make([]*Condition, 0, len(left.children)+len(right.children))
		children = append(children, left.children...)
		children = append(children, right.children...)
		return newConnective(op, children...)
	case left.op == op:
		children := make([]*Condition, 0, len(left.children)+1)
		children = append(children, left.children...)
		return newConnective(op, append(children, right)...)
	case right.op == op:
		children := make([]*Condition, 0, len(right.children)+1)
		children = append(children, left)
		return newConnective(op, append(children, right.children...)...)
	default:
		return newConnective(op, left, right)
	}
}

// AndInPlace combines like And but may extend c's own child list when
// c is already an AND node, avoiding a reallocation while folding many
// conditions together. The result must be used in place of c.
func (c *Condition) AndInPlace(other *Condition) *Condition {
	return c.combineInPlace(opAnd, other)
}

// OrInPlace is the OR counterpart of AndInPlace.
func (c *Condition) OrInPlace(other *Condition) *Condition {
	return c.combineInPlace(opOr, other)
}

func (c *Condition) combineInPlace(op schema.Operation, other *Condition) *Condition {
	if other.Len() == 0 {
		if c == nil {
			return Empty()
		}
		return c
	}
	if c.Len() == 0 {
		return other
	}
	// Every connective constructor builds a fresh child slice, so a
	// same-tag receiver owns its list and may grow it.
	if c.op == op && other.op == op {
		c.children = append(c.children, other.children...)
		return c
	}
	if c.op == op {
		c.children = append(c.children, other)
		return c
	}
	return combine(op, c, other)
}

// Not negates a condition. Double negation cancels, and negating the
// empty condition is the empty condition.
func (c *Condition) Not() *Condition {
	if isEmptyTag(c) {
		if c == nil {
			return Empty()
		}
		return c
	}
	if c.op == opNot {
		return c.children[0]
	}
	return newConnective(opNot, c)
}

// Equal reports structural equality: operation tags match, columns
// match by root pointer identity plus path equality, child conditions
// match recursively, and operand values match by path identity when
// they reference columns and by deep equality otherwise.
func (c *Condition) Equal(other *Condition) bool {
	if c == nil {
		c = Empty()
	}
	if other == nil {
		other = Empty()
	}
	if c == other {
		return true
	}
	if c.op != other.op || c.hasPath != other.hasPath {
		return false
	}
	if c.hasPath && !c.path.equal(other.path) {
		return false
	}
	if len(c.children) != len(other.children) {
		return false
	}
	for i := range c.children {
		if !c.children[i].Equal(other.children[i]) {
			return false
		}
	}
	if len(c.values) != len(other.values) {
		return false
	}
	for i := range c.values {
		if !operandEqual(c.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

func operandEqual(a, b any) bool {
	ap, aok := asPath(a)
	bp, bok := asPath(b)
	if aok != bok {
		return false
	}
	if aok {
		return ap.equal(bp)
	}
	return reflect.DeepEqual(a, b)
}

func (c *Condition) String() string {
	if c == nil || c.op == opEmpty {
		return "()"
	}
	switch c.op {
	case opAnd, opOr:
		joiner := " & "
		if c.op == opOr {
			joiner = " | "
		}
		if len(c.children) == 0 {
			return fmt.Sprintf("(%s)", joiner)
		}
		parts := make([]string, len(c.children))
		for i, child := range c.children {
			parts[i] = child.String()
		}
		if len(parts) == 1 {
			return fmt.Sprintf("(%s %s)", parts[0], strings.TrimSpace(joiner))
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, joiner))
	case opNot:
		return fmt.Sprintf("(~%s)", c.children[0])
	case schema.OpBeginsWith, schema.OpContains:
		return fmt.Sprintf("%s(%s, %v)", c.op, c.path, c.values[0])
	case schema.OpBetween:
		return fmt.Sprintf("(%s between [%v, %v])", c.path, c.values[0], c.values[1])
	case schema.OpIn:
		return fmt.Sprintf("(%s in %v)", c.path, c.values)
	default:
		return fmt.Sprintf("(%s %s %v)", c.path, c.op, c.values[0])
	}
}

// Leaves enumerates every leaf condition reachable from root in
// depth-first pre-order. A visited set keyed by node identity defends
// against cyclic condition graphs, so enumeration always terminates.
func Leaves(root *Condition) []*Condition {
	if root == nil {
		return nil
	}
	var stack []*Condition
	push := func(children []*Condition) {
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	switch root.op {
	case opEmpty:
		return nil
	case opAnd, opOr, opNot:
		push(root.children)
	default:
		stack = append(stack, root)
	}
	visited := make(map[*Condition]bool)
	var out []*Condition
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c == nil || visited[c] {
			continue
		}
		visited[c] = true
		switch c.op {
		case opEmpty:
		case opAnd, opOr, opNot:
			push(c.children)
		default:
			out = append(out, c)
		}
	}
	return out
}

// ReferencedColumns enumerates every attribute path referenced by any
// leaf condition under root, including paths appearing as the
// right-hand side of a comparison (column-to-column comparisons).
func ReferencedColumns(root *Condition) []Path {
	type pathKey struct {
		col  *schema.Column
		segs string
	}
	keyOf := func(p Path) pathKey {
		var b strings.Builder
		for _, seg := range p.segs {
			if seg.IsIndex {
				fmt.Fprintf(&b, "[%d]", seg.Index)
			} else {
				fmt.Fprintf(&b, ".%s", seg.Key)
			}
		}
		return pathKey{col: p.col, segs: b.String()}
	}
	seen := make(map[pathKey]bool)
	var out []Path
	add := func(p Path) {
		k := keyOf(p)
		if !seen[k] {
			seen[k] = true
			out = append(out, p)
		}
	}
	for _, leaf := range Leaves(root) {
		if leaf.hasPath {
			add(leaf.path)
		}
		for _, v := range leaf.values {
			if p, ok := asPath(v); ok {
				add(p)
			}
		}
	}
	return out
}
