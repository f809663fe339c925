package schema

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

func TestDumpScalars(t *testing.T) {
	testCases := []struct {
		name string
		td   TypeDef
		v    any
		want types.AttributeValue
	}{
		{name: "string", td: String{}, v: "hello", want: &types.AttributeValueMemberS{Value: "hello"}},
		{name: "number int", td: Number{}, v: 30, want: &types.AttributeValueMemberN{Value: "30"}},
		{name: "number float", td: Number{}, v: 1.5, want: &types.AttributeValueMemberN{Value: "1.5"}},
		{name: "binary", td: Binary{}, v: []byte{0x1, 0x2}, want: &types.AttributeValueMemberB{Value: []byte{0x1, 0x2}}},
		{name: "bool", td: Boolean{}, v: true, want: &types.AttributeValueMemberBOOL{Value: true}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			av, err := Dump(tc.td, tc.v)
			require.NoError(t, err)
			require.Equal(t, tc.want, av)
		})
	}
}

func TestDumpNoValue(t *testing.T) {
	// Values with no wire encoding dump to nil without error; the
	// renderer turns these into existence checks or removals.
	testCases := []struct {
		name string
		td   TypeDef
		v    any
	}{
		{name: "nil", td: String{}, v: nil},
		{name: "empty string", td: String{}, v: ""},
		{name: "empty binary", td: Binary{}, v: []byte{}},
		{name: "empty string set", td: StringSet{}, v: []string{}},
		{name: "empty number set", td: NumberSet{}, v: []int{}},
		{name: "empty binary set", td: BinarySet{}, v: [][]byte{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			av, err := Dump(tc.td, tc.v)
			require.NoError(t, err)
			require.Nil(t, av)
		})
	}
}

func TestDumpSets(t *testing.T) {
	av, err := Dump(StringSet{}, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberSS{Value: []string{"a", "b"}}, av)

	av, err = Dump(NumberSet{}, []int{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberNS{Value: []string{"1", "2", "3"}}, av)

	av, err = Dump(BinarySet{}, [][]byte{{0x1}})
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberBS{Value: [][]byte{{0x1}}}, av)
}

func TestDumpList(t *testing.T) {
	av, err := Dump(List{Elem: Number{}}, []int{1, 2})
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberL{Value: []types.AttributeValue{
		&types.AttributeValueMemberN{Value: "1"},
		&types.AttributeValueMemberN{Value: "2"},
	}}, av)

	// Elements without a value keep their slot as NULL so list indices
	// stay stable.
	av, err = Dump(List{Elem: String{}}, []string{"a", ""})
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberL{Value: []types.AttributeValue{
		&types.AttributeValueMemberS{Value: "a"},
		&types.AttributeValueMemberNULL{Value: true},
	}}, av)
}

func TestDumpMap(t *testing.T) {
	td := Map{Fields: map[string]TypeDef{
		"theme":  String{},
		"volume": Number{},
	}}

	av, err := Dump(td, map[string]any{"theme": "dark", "volume": 7})
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		"theme":  &types.AttributeValueMemberS{Value: "dark"},
		"volume": &types.AttributeValueMemberN{Value: "7"},
	}}, av)

	// Fields without a value are omitted entirely.
	av, err = Dump(td, map[string]any{"theme": ""})
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}, av)

	_, err = Dump(td, map[string]any{"bogus": 1})
	require.Error(t, err)
}

func TestDumpTypeMismatch(t *testing.T) {
	testCases := []struct {
		name string
		td   TypeDef
		v    any
	}{
		{name: "string gets int", td: String{}, v: 1},
		{name: "number gets string", td: Number{}, v: "x"},
		{name: "binary gets string", td: Binary{}, v: "x"},
		{name: "bool gets int", td: Boolean{}, v: 1},
		{name: "string set gets ints", td: StringSet{}, v: []int{1}},
		{name: "number set gets scalar", td: NumberSet{}, v: 1},
		{name: "list gets scalar", td: List{Elem: Number{}}, v: 1},
		{name: "map gets scalar", td: Map{}, v: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Dump(tc.td, tc.v)
			require.Error(t, err)
		})
	}
}

func TestDumpWithoutTypeDef(t *testing.T) {
	_, err := Dump(nil, "x")
	require.Error(t, err)
}

func TestSupportsMatrix(t *testing.T) {
	all := []Operation{
		OpEqual, OpNotEqual, OpLess, OpGreater, OpLessOrEqual,
		OpGreaterOrEqual, OpBeginsWith, OpBetween, OpContains, OpIn,
	}
	// Operations NOT supported, per backing type.
	excluded := map[BackingType][]Operation{
		BackingString:    {},
		BackingBinary:    {},
		BackingNumber:    {OpBeginsWith, OpContains},
		BackingBool:      {OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual, OpBeginsWith, OpBetween, OpContains},
		BackingMap:       {OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual, OpBeginsWith, OpBetween, OpContains},
		BackingStringSet: {OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual, OpBeginsWith, OpBetween},
		BackingNumberSet: {OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual, OpBeginsWith, OpBetween},
		BackingBinarySet: {OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual, OpBeginsWith, OpBetween},
		BackingList:      {OpLess, OpGreater, OpLessOrEqual, OpGreaterOrEqual, OpBeginsWith, OpBetween},
	}
	typedefs := []TypeDef{
		String{}, Number{}, Binary{}, Boolean{},
		StringSet{}, NumberSet{}, BinarySet{},
		List{Elem: String{}}, Map{},
	}
	for _, td := range typedefs {
		deny := make(map[Operation]bool)
		for _, op := range excluded[td.BackingType()] {
			deny[op] = true
		}
		for _, op := range all {
			require.Equal(t, !deny[op], td.Supports(op),
				"backing type %s, operation %s", td.BackingType(), op)
		}
	}
}

func TestTypeDefAt(t *testing.T) {
	td := Map{Fields: map[string]TypeDef{
		"theme":  String{},
		"counts": List{Elem: Number{}},
	}}

	got, err := TypeDefAt(td, []PathSegment{Key("theme")})
	require.NoError(t, err)
	require.Equal(t, BackingString, got.BackingType())

	got, err = TypeDefAt(td, []PathSegment{Key("counts"), Index(3)})
	require.NoError(t, err)
	require.Equal(t, BackingNumber, got.BackingType())

	_, err = TypeDefAt(td, []PathSegment{Key("missing")})
	require.Error(t, err)

	_, err = TypeDefAt(td, []PathSegment{Index(0)})
	require.Error(t, err)

	_, err = TypeDefAt(String{}, []PathSegment{Key("x")})
	require.Error(t, err)

	_, err = TypeDefAt(td, []PathSegment{Key("counts"), Key("x")})
	require.Error(t, err)
}
