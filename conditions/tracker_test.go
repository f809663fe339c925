package conditions

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"dynamap/schema"
)

func TestTrackerNameRefDeduplicates(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	first := rt.PathRef(Attr(colAge))
	second := rt.PathRef(Attr(colAge))
	require.Equal(t, "#n0", first.Name)
	require.Equal(t, "#n0", second.Name)
	require.Equal(t, map[string]string{"#n0": "age"}, rt.Names())

	other := rt.PathRef(Attr(colEmail))
	require.Equal(t, "#n1", other.Name)
}

func TestTrackerValueRefsNeverDeduplicate(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	a, err := rt.OperandRef(Attr(colAge), 1, false, false)
	require.NoError(t, err)
	b, err := rt.OperandRef(Attr(colAge), 1, false, false)
	require.NoError(t, err)
	require.Equal(t, ":v0", a.Name)
	require.Equal(t, ":v1", b.Name)
	require.Len(t, rt.Values(), 2)
}

func TestTrackerCounterIsMonotone(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	ref := rt.PathRef(Attr(colAge))
	require.Equal(t, "#n0", ref.Name)
	rt.Release(ref)
	require.Empty(t, rt.Names())

	// The released index is never reused.
	again := rt.PathRef(Attr(colAge))
	require.Equal(t, "#n1", again.Name)
}

func TestTrackerReleaseIsBalanced(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	const k = 4
	refs := make([]Reference, 0, k)
	for range k {
		refs = append(refs, rt.PathRef(Attr(colAge)))
	}
	value, err := rt.OperandRef(Attr(colAge), 30, false, false)
	require.NoError(t, err)

	// k-1 releases leave the name tracked.
	rt.Release(refs[:k-1]...)
	require.Equal(t, map[string]string{"#n0": "age"}, rt.Names())

	rt.Release(refs[k-1], value)
	require.Empty(t, rt.Names())
	require.Empty(t, rt.Values())

	// Releasing an already-released or untracked ref is a no-op.
	rt.Release(refs[0], value, Reference{Name: "#n99", Kind: RefName})
	require.Empty(t, rt.Names())
}

func TestTrackerReleasedNameCanBeReMinted(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	first := rt.PathRef(Attr(colAge))
	rt.Release(first)

	// Dropping the last use removes the reverse-index entry too, so a
	// later use mints a fresh placeholder instead of resurrecting the
	// dead one.
	second := rt.PathRef(Attr(colAge))
	require.NotEqual(t, first.Name, second.Name)
	require.Equal(t, map[string]string{second.Name: "age"}, rt.Names())
}

func TestTrackerNestedPathRef(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	ref := rt.PathRef(Attr(colMeta).Key("counts").Index(2).Index(0))
	require.Equal(t, "#n0.#n1[2][0]", ref.Name)
	require.Equal(t, map[string]string{"#n0": "meta", "#n1": "counts"}, rt.Names())

	// Segment names share placeholders with root names and each other.
	again := rt.PathRef(Attr(colMeta).Key("counts"))
	require.Equal(t, "#n0.#n1", again.Name)
}

func TestTrackerValueRefDumpsThroughPathType(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	ref, err := rt.OperandRef(Attr(colMeta).Key("counts").Index(0), 7, false, false)
	require.NoError(t, err)
	require.Equal(t, RefValue, ref.Kind)
	require.Equal(t, &types.AttributeValueMemberN{Value: "7"}, ref.Value)
	require.Equal(t, ref.Value, rt.Values()[ref.Name])
}

func TestTrackerValueRefInnerType(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	ref, err := rt.OperandRef(Attr(colTags), "beta", false, true)
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberS{Value: "beta"}, ref.Value)

	// A scalar has no element type to descend into.
	_, err = rt.OperandRef(Attr(colAge), 1, false, true)
	var invalid *InvalidConditionError
	require.ErrorAs(t, err, &invalid)
}

func TestTrackerFailedDumpConsumesIndex(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	// The placeholder index is allocated before the dump is attempted,
	// so a failed dump burns an index.
	_, err := rt.OperandRef(Attr(colAge), "not a number", false, false)
	require.Error(t, err)
	require.Empty(t, rt.Values())

	ref, err := rt.OperandRef(Attr(colAge), 1, false, false)
	require.NoError(t, err)
	require.Equal(t, ":v1", ref.Name)
}

func TestTrackerOperandRefColumn(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	// Both a Path and a bare column normalize to name refs.
	ref, err := rt.OperandRef(Attr(colEmail), Attr(colNick), false, false)
	require.NoError(t, err)
	require.Equal(t, RefName, ref.Kind)
	require.Equal(t, "#n0", ref.Name)

	ref, err = rt.OperandRef(Attr(colEmail), colNick, false, false)
	require.NoError(t, err)
	require.Equal(t, "#n0", ref.Name, "same column re-uses the placeholder")
	require.Empty(t, rt.Values())
}

func TestTrackerManyRefs(t *testing.T) {
	rt := NewReferenceTracker(schema.Dump)

	var refs []Reference
	for i := range 50 {
		col := &schema.Column{Field: fmt.Sprintf("F%d", i), Name: fmt.Sprintf("f%d", i), Type: schema.Number{}}
		refs = append(refs, rt.PathRef(Attr(col)))
		v, err := rt.OperandRef(Attr(col), i, false, false)
		require.NoError(t, err)
		refs = append(refs, v)
	}
	require.Len(t, rt.Names(), 50)
	require.Len(t, rt.Values(), 50)

	rt.Release(refs...)
	require.Empty(t, rt.Names())
	require.Empty(t, rt.Values())
}
