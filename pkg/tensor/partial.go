package tensor

import (
	"fmt"
	"strings"
)

// DynamicDim marks a dimension whose size is not determined until a
// concrete shape is observed.
const DynamicDim = -1

// PartialShape is a declared shape constraint: each dimension is either a
// fixed non-negative size or DynamicDim.
type PartialShape []int

func (p PartialShape) Rank() int {
	return len(p)
}

// IsFullyDefined reports whether no dimension is dynamic.
func (p PartialShape) IsFullyDefined() bool {
	for _, d := range p {
		if d == DynamicDim {
			return false
		}
	}
	return true
}

// IsCompatibleWith reports whether a concrete shape satisfies the
// constraint: ranks match and every fixed dimension matches exactly.
// Dynamic dimensions accept any size.
func (p PartialShape) IsCompatibleWith(s Shape) bool {
	if len(p) != len(s) {
		return false
	}
	for i := range p {
		if p[i] != DynamicDim && p[i] != s[i] {
			return false
		}
	}
	return true
}

// Concatenate returns the constraint for p's dimensions followed by o's.
func (p PartialShape) Concatenate(o PartialShape) PartialShape {
	out := make(PartialShape, 0, len(p)+len(o))
	out = append(out, p...)
	out = append(out, o...)
	return out
}

// WithDynamicAsZero resolves every dynamic dimension to zero, yielding a
// concrete shape. Used for zero-size batches, where no record exists to
// determine the dynamic extents.
func (p PartialShape) WithDynamicAsZero() Shape {
	out := make(Shape, len(p))
	for i, d := range p {
		if d == DynamicDim {
			out[i] = 0
		} else {
			out[i] = d
		}
	}
	return out
}

func (p PartialShape) Clone() PartialShape {
	if p == nil {
		return nil
	}
	out := make(PartialShape, len(p))
	copy(out, p)
	return out
}

func (p PartialShape) String() string {
	parts := make([]string, len(p))
	for i, d := range p {
		if d == DynamicDim {
			parts[i] = "?"
		} else {
			parts[i] = fmt.Sprintf("%d", d)
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Validate rejects dimensions that are neither non-negative nor DynamicDim.
func (p PartialShape) Validate() error {
	for i, d := range p {
		if d < 0 && d != DynamicDim {
			return fmt.Errorf("%w: dimension %d has invalid size %d", ErrInvalidArgument, i, d)
		}
	}
	return nil
}

// compatibleWith reports whether two constraints could accept a common
// concrete shape: ranks match and dimensions fixed on both sides agree.
func (p PartialShape) compatibleWith(o PartialShape) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != DynamicDim && o[i] != DynamicDim && p[i] != o[i] {
			return false
		}
	}
	return true
}

// AreCompatible reports pairwise compatibility of two constraint lists.
// Two queues can be shared only when this holds for their declared shapes.
func AreCompatible(a, b []PartialShape) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].compatibleWith(b[i]) {
			return false
		}
	}
	return true
}

// PartialShapeListString formats a list of constraints for error messages.
func PartialShapeListString(shapes []PartialShape) string {
	parts := make([]string, len(shapes))
	for i, s := range shapes {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
