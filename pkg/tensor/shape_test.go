package tensor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	require.Equal(t, 1, Shape(nil).NumElements())
	require.Equal(t, 1, Shape{}.NumElements())
	require.Equal(t, 6, Shape{2, 3}.NumElements())
	require.Equal(t, 0, Shape{0, 3}.NumElements())
}

func TestShapeEqual(t *testing.T) {
	require.True(t, Shape{2, 3}.Equal(Shape{2, 3}))
	require.False(t, Shape{2, 3}.Equal(Shape{3, 2}))
	require.False(t, Shape{2}.Equal(Shape{2, 1}))
	require.True(t, Shape(nil).Equal(Shape{}))
}

func TestShapeString(t *testing.T) {
	require.Equal(t, "[]", Shape{}.String())
	require.Equal(t, "[2,3]", Shape{2, 3}.String())
}

func TestPartialShapeCompatibility(t *testing.T) {
	tests := []struct {
		name     string
		declared PartialShape
		concrete Shape
		want     bool
	}{
		{"scalar", PartialShape{}, Shape{}, true},
		{"fixed match", PartialShape{2, 3}, Shape{2, 3}, true},
		{"fixed mismatch", PartialShape{2, 3}, Shape{2, 4}, false},
		{"dynamic accepts any", PartialShape{DynamicDim}, Shape{17}, true},
		{"dynamic accepts zero", PartialShape{DynamicDim}, Shape{0}, true},
		{"mixed", PartialShape{DynamicDim, 4}, Shape{9, 4}, true},
		{"mixed mismatch", PartialShape{DynamicDim, 4}, Shape{9, 5}, false},
		{"rank mismatch", PartialShape{DynamicDim}, Shape{2, 2}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.declared.IsCompatibleWith(tc.concrete))
		})
	}
}

func TestPartialShapeIsFullyDefined(t *testing.T) {
	require.True(t, PartialShape{}.IsFullyDefined())
	require.True(t, PartialShape{2, 3}.IsFullyDefined())
	require.False(t, PartialShape{2, DynamicDim}.IsFullyDefined())
}

func TestPartialShapeConcatenate(t *testing.T) {
	got := PartialShape{5}.Concatenate(PartialShape{DynamicDim, 3})
	require.Equal(t, PartialShape{5, DynamicDim, 3}, got)
}

func TestPartialShapeWithDynamicAsZero(t *testing.T) {
	require.Equal(t, Shape{0, 4}, PartialShape{DynamicDim, 4}.WithDynamicAsZero())
	require.Equal(t, Shape{}, PartialShape{}.WithDynamicAsZero())
}

func TestPartialShapeString(t *testing.T) {
	require.Equal(t, "[?,4]", PartialShape{DynamicDim, 4}.String())
}

func TestAreCompatible(t *testing.T) {
	a := []PartialShape{{DynamicDim}, {2, 3}}
	b := []PartialShape{{7}, {2, DynamicDim}}
	require.True(t, AreCompatible(a, b))

	c := []PartialShape{{7}, {4, DynamicDim}}
	require.False(t, AreCompatible(a, c))

	require.False(t, AreCompatible(a, a[:1]))
}

func TestPartialShapeValidate(t *testing.T) {
	require.NoError(t, PartialShape{2, DynamicDim}.Validate())
	err := PartialShape{2, -5}.Validate()
	require.ErrorIs(t, err, ErrInvalidArgument)
}
