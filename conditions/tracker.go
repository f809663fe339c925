package conditions

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dynamap/schema"
)

// RefKind distinguishes attribute-name placeholders from literal-value
// placeholders.
type RefKind string

const (
	RefName  RefKind = "name"
	RefValue RefKind = "value"
)

// Reference is one allocated placeholder: a name ref for an attribute
// path, or a value ref holding the dumped wire value.
type Reference struct {
	Name  string
	Kind  RefKind
	Value types.AttributeValue
}

// IsEmpty reports a value ref whose dumped value has no wire encoding.
func (r Reference) IsEmpty() bool {
	return r.Kind == RefValue && r.Value == nil
}

// ReferenceTracker de-duplicates name refs for identical path segments
// and mints unique placeholders for all names and values within one
// render session. It can also release references, so that a condition
// which fails mid-render leaves the placeholder tables exactly as if
// it had never been visited.
type ReferenceTracker struct {
	nextIndex  int
	counts     map[string]int
	attrNames  map[string]string
	attrValues map[string]types.AttributeValue
	// nameIndex maps attribute name -> placeholder for de-duplication.
	nameIndex map[string]string
	dump      schema.DumpFunc
}

// NewReferenceTracker returns a tracker for a single render session.
// Trackers are not safe for concurrent use; each render constructs its
// own.
func NewReferenceTracker(dump schema.DumpFunc) *ReferenceTracker {
	return &ReferenceTracker{
		counts:     make(map[string]int),
		attrNames:  make(map[string]string),
		attrValues: make(map[string]types.AttributeValue),
		nameIndex:  make(map[string]string),
		dump:       dump,
	}
}

// allocIndex advances the shared placeholder counter. The counter
// never decreases, even when references are released, so a placeholder
// can never collide with an earlier one within the session.
func (rt *ReferenceTracker) allocIndex() int {
	i := rt.nextIndex
	rt.nextIndex++
	return i
}

// nameRef returns the existing placeholder for a path segment, or
// mints a fresh #n<index> one.
func (rt *ReferenceTracker) nameRef(name string) string {
	if ref, ok := rt.nameIndex[name]; ok {
		rt.counts[ref]++
		return ref
	}
	ref := fmt.Sprintf("#n%d", rt.allocIndex())
	rt.attrNames[ref] = name
	rt.nameIndex[name] = ref
	rt.counts[ref]++
	return ref
}

// pathRef joins the column's wire name and path segments into a
// placeholder expression. Integer segments become bracket suffixes on
// the preceding placeholder and never get placeholders of their own.
func (rt *ReferenceTracker) pathRef(p Path) string {
	pieces := []string{rt.nameRef(p.col.Name)}
	for _, seg := range p.segs {
		if seg.IsIndex {
			pieces[len(pieces)-1] += fmt.Sprintf("[%d]", seg.Index)
		} else {
			pieces = append(pieces, rt.nameRef(seg.Key))
		}
	}
	return strings.Join(pieces, ".")
}

// valueRef mints a fresh :v<index> placeholder. Values are never
// de-duplicated: each use site gets its own slot, which keeps release
// semantics trivial at the cost of slightly larger payloads.
func (rt *ReferenceTracker) valueRef(p Path, v any, dumped, inner bool) (string, types.AttributeValue, error) {
	ref := fmt.Sprintf(":v%d", rt.allocIndex())

	var av types.AttributeValue
	if dumped {
		av, _ = v.(types.AttributeValue)
	} else {
		td, err := p.typeDef()
		if err != nil {
			return "", nil, invalidCondition("cannot resolve type at %s: %v", p, err)
		}
		if inner {
			coll, ok := td.(schema.CollectionTypeDef)
			if !ok {
				return "", nil, invalidCondition("backing type %q at %s has no element type", td.BackingType(), p)
			}
			td = coll.Inner()
		}
		av, err = rt.dump(td, v)
		if err != nil {
			return "", nil, fmt.Errorf("dump value for %s: %w", p, err)
		}
	}

	rt.attrValues[ref] = av
	rt.counts[ref]++
	return ref, av, nil
}

// PathRef allocates a name reference for an attribute path.
func (rt *ReferenceTracker) PathRef(p Path) Reference {
	return Reference{Name: rt.pathRef(p), Kind: RefName}
}

// OperandRef allocates a reference for a comparison operand: a name
// ref when the operand is itself a column or path (column-to-column
// comparison), otherwise a value ref holding the dumped value.
func (rt *ReferenceTracker) OperandRef(p Path, v any, dumped, inner bool) (Reference, error) {
	if vp, ok := asPath(v); ok {
		return Reference{Name: rt.pathRef(vp), Kind: RefName}, nil
	}
	name, av, err := rt.valueRef(p, v, dumped, inner)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Name: name, Kind: RefValue, Value: av}, nil
}

// Release decrements the usage of each ref by one, removing the last
// use of a ref from the output tables. Releasing an untracked or
// already-released ref is a no-op; counts never go negative.
func (rt *ReferenceTracker) Release(refs ...Reference) {
	for _, ref := range refs {
		count := rt.counts[ref.Name]
		switch {
		case count < 1:
			// Not tracking this ref.
		case count > 1:
			rt.counts[ref.Name]--
		default:
			rt.counts[ref.Name]--
			if ref.Kind == RefValue {
				delete(rt.attrValues, ref.Name)
			} else {
				segment := rt.attrNames[ref.Name]
				delete(rt.attrNames, ref.Name)
				delete(rt.nameIndex, segment)
			}
		}
	}
}

// Names returns the live placeholder -> attribute-name table.
func (rt *ReferenceTracker) Names() map[string]string { return rt.attrNames }

// Values returns the live placeholder -> wire-value table.
func (rt *ReferenceTracker) Values() map[string]types.AttributeValue { return rt.attrValues }
