package conditions

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dynamap/schema"
)

// comparisonAliases maps comparison operations to their wire spelling.
var comparisonAliases = map[schema.Operation]string{
	schema.OpEqual:          "=",
	schema.OpNotEqual:       "<>",
	schema.OpLess:           "<",
	schema.OpGreater:        ">",
	schema.OpLessOrEqual:    "<=",
	schema.OpGreaterOrEqual: ">=",
}

// Expressions is the rendered bundle: up to five wire expression
// strings plus the placeholder tables. Names and Values are nil when
// no placeholder of that kind survived rendering.
type Expressions struct {
	Condition    string
	Filter       string
	KeyCondition string
	Projection   string
	Update       string
	Names        map[string]string
	Values       map[string]types.AttributeValue
}

// Map returns the bundle keyed by wire field name. Only populated
// fields appear.
func (x *Expressions) Map() map[string]any {
	out := make(map[string]any)
	if x.Condition != "" {
		out["ConditionExpression"] = x.Condition
	}
	if x.Filter != "" {
		out["FilterExpression"] = x.Filter
	}
	if x.KeyCondition != "" {
		out["KeyConditionExpression"] = x.KeyCondition
	}
	if x.Projection != "" {
		out["ProjectionExpression"] = x.Projection
	}
	if x.Update != "" {
		out["UpdateExpression"] = x.Update
	}
	if len(x.Names) > 0 {
		out["ExpressionAttributeNames"] = x.Names
	}
	if len(x.Values) > 0 {
		out["ExpressionAttributeValues"] = x.Values
	}
	return out
}

// ObjectState supplies per-object tracking state to the renderer: the
// last-synced snapshot condition for atomic preconditions, and the set
// of columns marked for the next update. tracking.Store implements it.
type ObjectState interface {
	Snapshot(obj schema.Object) *Condition
	Marked(obj schema.Object) []*schema.Column
}

// RenderInput selects which wire fragments one render session emits.
// All fragments are optional and share one placeholder namespace, so a
// repeated attribute path across, say, the key condition and the
// filter allocates a single name placeholder.
type RenderInput struct {
	// Object supplies values for Update rendering and tracking state
	// for Atomic rendering. Required when either flag is set.
	Object schema.Object
	// Condition is the explicit precondition.
	Condition *Condition
	// Atomic ANDs the object's last-synced snapshot condition onto the
	// explicit precondition.
	Atomic bool
	// Update renders SET/REMOVE clauses for the object's marked
	// non-key columns.
	Update bool
	Filter *Condition
	Key    *Condition
	// Projection lists the paths to project; duplicates are dropped,
	// first occurrence wins.
	Projection []Path
}

// Render compiles the requested fragments into an expression bundle.
// Each call owns a fresh ReferenceTracker, so concurrent renders never
// interleave placeholder allocation. state may be nil when neither
// Atomic nor Update is requested.
func Render(dump schema.DumpFunc, state ObjectState, in RenderInput) (*Expressions, error) {
	if (in.Atomic || in.Update) && in.Object == nil {
		return nil, invalidCondition("an object is required to render atomic conditions or updates")
	}
	if (in.Atomic || in.Update) && state == nil {
		return nil, invalidCondition("object tracking state is required to render atomic conditions or updates")
	}

	r := &renderer{refs: NewReferenceTracker(dump)}
	out := &Expressions{}

	if !isEmptyTag(in.Filter) {
		s, err := r.condition(in.Filter)
		if err != nil {
			return nil, err
		}
		out.Filter = s
	}

	if len(in.Projection) > 0 {
		out.Projection = r.projection(in.Projection)
	}

	if !isEmptyTag(in.Key) {
		s, err := r.condition(in.Key)
		if err != nil {
			return nil, err
		}
		out.KeyCondition = s
	}

	// Either side can be empty; absorption during combination decides
	// whether anything is emitted at all.
	cond := in.Condition
	if in.Atomic {
		cond = cond.And(state.Snapshot(in.Object))
	}
	if !isEmptyTag(cond) {
		s, err := r.condition(cond)
		if err != nil {
			return nil, err
		}
		out.Condition = s
	}

	if in.Update {
		s, err := r.update(in.Object, state)
		if err != nil {
			return nil, err
		}
		out.Update = s
	}

	if names := r.refs.Names(); len(names) > 0 {
		out.Names = names
	}
	if values := r.refs.Values(); len(values) > 0 {
		out.Values = values
	}
	return out, nil
}

type renderer struct {
	refs *ReferenceTracker
}

// condition renders one condition tree, dispatching on the node tag.
func (r *renderer) condition(c *Condition) (string, error) {
	switch c.op {
	case opEmpty:
		return "", nil
	case opAnd:
		return r.connective(c, " AND ")
	case opOr:
		return r.connective(c, " OR ")
	case opNot:
		inner, err := r.condition(c.children[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(NOT %s)", inner), nil
	case schema.OpEqual, schema.OpNotEqual, schema.OpLess, schema.OpGreater,
		schema.OpLessOrEqual, schema.OpGreaterOrEqual:
		return r.comparison(c)
	case schema.OpBeginsWith:
		return r.function(c, "begins_with", false)
	case schema.OpContains:
		return r.function(c, "contains", true)
	case schema.OpBetween:
		return r.between(c)
	case schema.OpIn:
		return r.in(c)
	default:
		return "", invalidCondition("unknown condition operation %q", c.op)
	}
}

// connective renders AND/OR. A single child renders bare; zero
// children is a hard error rather than an identity, since identity
// elimination happens during combination, not at render time.
func (r *renderer) connective(c *Condition, joiner string) (string, error) {
	if len(c.children) == 0 {
		return "", invalidCondition("connective %s does not contain any conditions", c)
	}
	rendered := make([]string, len(c.children))
	for i, child := range c.children {
		s, err := r.condition(child)
		if err != nil {
			return "", err
		}
		rendered[i] = s
	}
	if len(rendered) == 1 {
		return rendered[0], nil
	}
	return fmt.Sprintf("(%s)", strings.Join(rendered, joiner)), nil
}

// comparison renders the six comparison operators, compiling equality
// against nil into attribute_(not_)exists.
func (r *renderer) comparison(c *Condition) (string, error) {
	columnRef := r.refs.PathRef(c.path)
	valueRef, err := r.refs.OperandRef(c.path, c.values[0], c.dumped, false)
	if err != nil {
		r.refs.Release(columnRef)
		return "", err
	}

	// #n0 >= :v1 — against another column, or against a non-nil value.
	if valueRef.Kind == RefName || valueRef.Value != nil {
		return fmt.Sprintf("(%s %s %s)", columnRef.Name, comparisonAliases[c.op], valueRef.Name), nil
	}

	// attribute_not_exists(#n0) / attribute_exists(#n0): equality
	// against nil is valid, but the minted value slot is unused.
	if c.op == schema.OpEqual || c.op == schema.OpNotEqual {
		r.refs.Release(valueRef)
		function := "attribute_not_exists"
		if c.op == schema.OpNotEqual {
			function = "attribute_exists"
		}
		return fmt.Sprintf("(%s(%s))", function, columnRef.Name), nil
	}

	// #n0 <= nil has no wire encoding. Revert the tracker before
	// failing so sibling fragments render against consistent tables.
	r.refs.Release(columnRef, valueRef)
	return "", invalidCondition("comparison %s is against the value nil", c)
}

// function renders begins_with and contains.
func (r *renderer) function(c *Condition, name string, inner bool) (string, error) {
	columnRef := r.refs.PathRef(c.path)
	valueRef, err := r.refs.OperandRef(c.path, c.values[0], c.dumped, inner)
	if err != nil {
		r.refs.Release(columnRef)
		return "", err
	}
	if valueRef.IsEmpty() {
		r.refs.Release(columnRef, valueRef)
		return "", invalidCondition("condition %s is against the value nil", c)
	}
	return fmt.Sprintf("(%s(%s, %s))", name, columnRef.Name, valueRef.Name), nil
}

func (r *renderer) between(c *Condition) (string, error) {
	columnRef := r.refs.PathRef(c.path)
	lowerRef, err := r.refs.OperandRef(c.path, c.values[0], c.dumped, false)
	if err != nil {
		r.refs.Release(columnRef)
		return "", err
	}
	upperRef, err := r.refs.OperandRef(c.path, c.values[1], c.dumped, false)
	if err != nil {
		r.refs.Release(columnRef, lowerRef)
		return "", err
	}
	if lowerRef.IsEmpty() || upperRef.IsEmpty() {
		r.refs.Release(columnRef, lowerRef, upperRef)
		return "", invalidCondition("condition %s includes the value nil", c)
	}
	return fmt.Sprintf("(%s BETWEEN %s AND %s)", columnRef.Name, lowerRef.Name, upperRef.Name), nil
}

func (r *renderer) in(c *Condition) (string, error) {
	if len(c.values) == 0 {
		return "", invalidCondition("condition %s is missing values", c)
	}
	valueRefs := make([]Reference, 0, len(c.values))
	for _, v := range c.values {
		ref, err := r.refs.OperandRef(c.path, v, c.dumped, false)
		if err != nil {
			r.refs.Release(valueRefs...)
			return "", err
		}
		valueRefs = append(valueRefs, ref)
		if ref.IsEmpty() {
			r.refs.Release(valueRefs...)
			return "", invalidCondition("condition %s includes the value nil", c)
		}
	}
	columnRef := r.refs.PathRef(c.path)
	names := make([]string, len(valueRefs))
	for i, ref := range valueRefs {
		names[i] = ref.Name
	}
	return fmt.Sprintf("(%s IN (%s))", columnRef.Name, strings.Join(names, ", ")), nil
}

// projection renders a comma-joined list of name refs, dropping
// duplicate paths (first occurrence wins).
func (r *renderer) projection(paths []Path) string {
	type pathKey struct {
		col  *schema.Column
		segs string
	}
	seen := make(map[pathKey]bool)
	var refNames []string
	for _, p := range paths {
		k := pathKey{col: p.col, segs: p.String()}
		if seen[k] {
			continue
		}
		seen[k] = true
		refNames = append(refNames, r.refs.pathRef(p))
	}
	return strings.Join(refNames, ", ")
}

// update renders the SET/REMOVE clauses for the object's marked
// non-key columns. Key columns are immutable once persisted and never
// appear; columns whose current value dumps to nothing are removed
// instead of set. Columns are visited in wire-name order so identical
// inputs always produce identical output.
func (r *renderer) update(obj schema.Object, state ObjectState) (string, error) {
	keys := make(map[*schema.Column]bool, len(obj.Keys()))
	for _, key := range obj.Keys() {
		keys[key] = true
	}
	var columns []*schema.Column
	for _, col := range state.Marked(obj) {
		if !keys[col] {
			columns = append(columns, col)
		}
	}
	slices.SortFunc(columns, func(a, b *schema.Column) int {
		return cmp.Compare(a.Name, b.Name)
	})

	var set, remove []string
	for _, col := range columns {
		nameRef := r.refs.PathRef(Attr(col))
		valueRef, err := r.refs.OperandRef(Attr(col), obj.Get(col), false, false)
		if err != nil {
			r.refs.Release(nameRef)
			return "", err
		}
		if valueRef.IsEmpty() {
			// Can't set to an empty value; remove the attribute.
			r.refs.Release(valueRef)
			remove = append(remove, nameRef.Name)
		} else {
			set = append(set, nameRef.Name+"="+valueRef.Name)
		}
	}

	var expr string
	if len(set) > 0 {
		expr = "SET " + strings.Join(set, ", ")
	}
	if len(remove) > 0 {
		if expr != "" {
			expr += " "
		}
		expr += "REMOVE " + strings.Join(remove, ", ")
	}
	return expr, nil
}
