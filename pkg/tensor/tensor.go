// Package tensor provides the typed, multi-dimensional value buffers stored
// in a padfifo queue, the partial-shape constraints declared per component,
// and the slot-copy primitives used to assemble padded batches.
package tensor

import "fmt"

// Tensor is a flat, row-major buffer of one scalar type with a fixed shape.
// The shape is immutable after construction; the element data is mutable
// through the typed Values view.
type Tensor struct {
	dtype DType
	shape Shape
	data  any
}

// New allocates a zero-valued tensor of the given dtype and shape.
func New(dtype DType, shape Shape) (*Tensor, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	n := shape.NumElements()
	var data any
	switch dtype {
	case Bool:
		data = make([]bool, n)
	case Int8:
		data = make([]int8, n)
	case Int16:
		data = make([]int16, n)
	case Int32:
		data = make([]int32, n)
	case Int64:
		data = make([]int64, n)
	case Uint8:
		data = make([]uint8, n)
	case Uint16:
		data = make([]uint16, n)
	case Uint32:
		data = make([]uint32, n)
	case Uint64:
		data = make([]uint64, n)
	case Float32:
		data = make([]float32, n)
	case Float64:
		data = make([]float64, n)
	case String:
		data = make([]string, n)
	default:
		return nil, fmt.Errorf("%w: cannot allocate dtype %v", ErrUnimplemented, dtype)
	}
	return &Tensor{dtype: dtype, shape: shape.Clone(), data: data}, nil
}

// FromSlice builds a tensor of the given shape from a flat, row-major value
// slice. The dtype is inferred from T. The values are copied.
func FromSlice[T Scalar](shape Shape, values []T) (*Tensor, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	if n := shape.NumElements(); len(values) != n {
		return nil, fmt.Errorf("%w: shape %v holds %d elements, got %d values",
			ErrInvalidArgument, shape, n, len(values))
	}
	data := make([]T, len(values))
	copy(data, values)
	return &Tensor{dtype: DTypeOf[T](), shape: shape.Clone(), data: data}, nil
}

// FromScalar builds a rank-0 tensor holding a single value.
func FromScalar[T Scalar](value T) *Tensor {
	t, _ := FromSlice(nil, []T{value})
	return t
}

func (t *Tensor) DType() DType {
	return t.dtype
}

// Shape returns the tensor's shape. Callers must not modify it.
func (t *Tensor) Shape() Shape {
	return t.shape
}

func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int {
	return t.shape[i]
}

func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Values returns the flat backing slice of t. The requested type must match
// the tensor's dtype.
func Values[T Scalar](t *Tensor) ([]T, error) {
	data, ok := t.data.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: tensor holds %v, requested %v",
			ErrInvalidArgument, t.dtype, DTypeOf[T]())
	}
	return data, nil
}

// ZeroFill overwrites every element with the dtype's zero value.
func (t *Tensor) ZeroFill() error {
	switch data := t.data.(type) {
	case []bool:
		zeroSlice(data)
	case []int8:
		zeroSlice(data)
	case []int16:
		zeroSlice(data)
	case []int32:
		zeroSlice(data)
	case []int64:
		zeroSlice(data)
	case []uint8:
		zeroSlice(data)
	case []uint16:
		zeroSlice(data)
	case []uint32:
		zeroSlice(data)
	case []uint64:
		zeroSlice(data)
	case []float32:
		zeroSlice(data)
	case []float64:
		zeroSlice(data)
	case []string:
		zeroSlice(data)
	default:
		return fmt.Errorf("%w: cannot zero-fill dtype %v", ErrUnimplemented, t.dtype)
	}
	return nil
}

func zeroSlice[T any](data []T) {
	var zero T
	for i := range data {
		data[i] = zero
	}
}
