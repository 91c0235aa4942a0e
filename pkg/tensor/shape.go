package tensor

import (
	"fmt"
	"strings"
)

// Shape is a concrete tensor shape: one non-negative size per dimension.
// A nil or empty Shape is the scalar shape.
type Shape []int

func (s Shape) Rank() int {
	return len(s)
}

// NumElements returns the product of all dimension sizes. The scalar shape
// has one element.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s Shape) validate() error {
	for i, d := range s {
		if d < 0 {
			return fmt.Errorf("%w: dimension %d has negative size %d", ErrInvalidArgument, i, d)
		}
	}
	return nil
}
