package resulty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema_Valid(t *testing.T) {
	s, err := NewSchema(
		[]ClassDef{
			{Name: "Person", Fields: []FieldDef{
				{Name: "name", Type: String()},
				{Name: "friend", Type: Optional(ClassRef("Person"))},
				{Name: "color", Type: EnumRef("Color")},
			}},
		},
		[]EnumDef{
			{Name: "Color", Values: []EnumValueDef{{Value: "RED"}}},
		},
	)
	require.NoError(t, err)

	cls, ok := s.Class("Person")
	require.True(t, ok)
	assert.Len(t, cls.Fields, 3)

	_, ok = s.Class("Nobody")
	assert.False(t, ok)
}

func TestNewSchema_DuplicateClass(t *testing.T) {
	_, err := NewSchema(
		[]ClassDef{{Name: "A"}, {Name: "A"}},
		nil,
	)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.True(t, IsSchemaError(err))
}

func TestNewSchema_EmptyName(t *testing.T) {
	_, err := NewSchema([]ClassDef{{Name: ""}}, nil)
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = NewSchema(nil, []EnumDef{{Name: "E", Values: []EnumValueDef{{Value: ""}}}})
	require.ErrorIs(t, err, ErrEmptyName)
}

func TestNewSchema_DuplicateField(t *testing.T) {
	_, err := NewSchema(
		[]ClassDef{{Name: "A", Fields: []FieldDef{
			{Name: "x", Type: String()},
			{Name: "x", Type: Int()},
		}}},
		nil,
	)
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestNewSchema_UnresolvedReference(t *testing.T) {
	_, err := NewSchema(
		[]ClassDef{{Name: "A", Fields: []FieldDef{
			{Name: "b", Type: ClassRef("B")},
		}}},
		nil,
	)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnresolvedReference)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	// Name identifies the reference that failed to resolve.
	assert.Equal(t, "B", se.Name)
}

func TestNewSchema_NonStringMapKey(t *testing.T) {
	_, err := NewSchema(
		[]ClassDef{{Name: "A", Fields: []FieldDef{
			{Name: "m", Type: MapOf(Int(), String())},
		}}},
		nil,
	)
	require.ErrorIs(t, err, ErrNonStringMapKey)
}

func TestNewSchema_MutualRecursion(t *testing.T) {
	_, err := NewSchema(
		[]ClassDef{
			{Name: "A", Fields: []FieldDef{{Name: "b", Type: Optional(ClassRef("B"))}}},
			{Name: "B", Fields: []FieldDef{{Name: "a", Type: Optional(ClassRef("A"))}}},
		},
		nil,
	)
	require.NoError(t, err)
}

func TestSchema_Merge(t *testing.T) {
	base := MustSchema(
		[]ClassDef{{Name: "A", Fields: []FieldDef{{Name: "x", Type: String()}}}},
		[]EnumDef{{Name: "E", Values: []EnumValueDef{{Value: "ONE"}}}},
	)
	overlay := MustSchema(
		[]ClassDef{
			{Name: "A", Fields: []FieldDef{{Name: "y", Type: Int()}}},
			{Name: "B"},
		},
		nil,
	)

	merged := base.Merge(overlay)

	a, ok := merged.Class("A")
	require.True(t, ok)
	require.Len(t, a.Fields, 1)
	assert.Equal(t, "y", a.Fields[0].Name, "overlay definition wins")

	_, ok = merged.Class("B")
	assert.True(t, ok)
	_, ok = merged.Enum("E")
	assert.True(t, ok)

	// Merge must not touch its inputs.
	orig, _ := base.Class("A")
	assert.Equal(t, "x", orig.Fields[0].Name)
}

func TestLiteralOf(t *testing.T) {
	lit, err := LiteralOf("GO")
	require.NoError(t, err)
	assert.Equal(t, LiteralString("GO"), lit)

	lit, err = LiteralOf(42)
	require.NoError(t, err)
	assert.Equal(t, TypeKindInt, lit.Kind)

	_, err = LiteralOf([]string{"no"})
	require.Error(t, err)
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "string", String().String())
	assert.Equal(t, "int?", Optional(Int()).String())
	assert.Equal(t, "float[]", List(Float()).String())
	assert.Contains(t, Union(ClassRef("A"), EnumRef("B")).String(), "A")
	assert.Contains(t, MapOf(String(), Bool()).String(), "bool")
}
