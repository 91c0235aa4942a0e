package padfifo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/padqueue/padqueue/pkg/tensor"
)

func scalarInt64(t *testing.T, v int64) Tuple {
	t.Helper()
	return Tuple{tensor.FromScalar(v)}
}

func vecFloat32(t *testing.T, vals ...float32) Tuple {
	t.Helper()
	tn, err := tensor.FromSlice(tensor.Shape{len(vals)}, vals)
	require.NoError(t, err)
	return Tuple{tn}
}

func newScalarQueue(t *testing.T, capacity int) *Queue {
	t.Helper()
	q, err := New(capacity, []tensor.DType{tensor.Int64}, []tensor.PartialShape{{}})
	require.NoError(t, err)
	return q
}

func newDynamicVecQueue(t *testing.T, capacity int) *Queue {
	t.Helper()
	q, err := New(capacity,
		[]tensor.DType{tensor.Float32},
		[]tensor.PartialShape{{tensor.DynamicDim}})
	require.NoError(t, err)
	return q
}

func TestNewValidation(t *testing.T) {
	_, err := New(0, nil, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New(0, []tensor.DType{tensor.Int32, tensor.Float32}, []tensor.PartialShape{{}})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Contains(t, err.Error(), "shapes must be provided for all components")

	_, err = New(0, []tensor.DType{tensor.Invalid}, []tensor.PartialShape{{}})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New(0, []tensor.DType{tensor.Int32}, []tensor.PartialShape{{-3}})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewDefaults(t *testing.T) {
	q := newScalarQueue(t, 0)
	require.Equal(t, "padding_fifo_queue", q.Name())
	require.Equal(t, 1, q.NumComponents())
	require.Equal(t, 0, q.Capacity())
	require.Equal(t, 0, q.Size())
	require.False(t, q.IsClosed())

	named, err := New(4, []tensor.DType{tensor.Int64}, []tensor.PartialShape{{}}, WithName("inputs"))
	require.NoError(t, err)
	require.Equal(t, "inputs", named.Name())
	require.Equal(t, 4, named.Capacity())
}

func TestComponentAccessorsCopy(t *testing.T) {
	q, err := New(0,
		[]tensor.DType{tensor.Float32, tensor.String},
		[]tensor.PartialShape{{tensor.DynamicDim, 3}, {}})
	require.NoError(t, err)

	dtypes := q.ComponentDTypes()
	dtypes[0] = tensor.Bool
	require.Equal(t, tensor.Float32, q.ComponentDTypes()[0])

	shapes := q.ComponentShapes()
	shapes[0][0] = 9
	require.Equal(t, tensor.DynamicDim, q.ComponentShapes()[0][0])
}

func TestValidateTuple(t *testing.T) {
	q := newDynamicVecQueue(t, 0)

	require.NoError(t, q.ValidateTuple(vecFloat32(t, 1, 2, 3)))

	// Wrong component count.
	err := q.ValidateTuple(Tuple{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Nil component.
	err = q.ValidateTuple(Tuple{nil})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Wrong dtype.
	err = q.ValidateTuple(scalarInt64(t, 1))
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Wrong rank for the declared shape.
	bad, terr := tensor.FromSlice(tensor.Shape{1, 2}, []float32{1, 2})
	require.NoError(t, terr)
	err = q.ValidateTuple(Tuple{bad})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Contains(t, err.Error(), "shape mismatch in tuple component 0")
}

func TestValidateManyTuple(t *testing.T) {
	q, err := New(0,
		[]tensor.DType{tensor.Float32},
		[]tensor.PartialShape{{3}})
	require.NoError(t, err)

	batch, terr := tensor.FromSlice(tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, terr)
	require.NoError(t, q.ValidateManyTuple(Tuple{batch}))

	// A scalar has no batch dimension.
	err = q.ValidateManyTuple(Tuple{tensor.FromScalar(float32(1))})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Trailing dimensions must match the declared shape.
	bad, terr := tensor.FromSlice(tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, terr)
	err = q.ValidateManyTuple(Tuple{bad})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCompatibleWith(t *testing.T) {
	q, err := New(0,
		[]tensor.DType{tensor.Float32},
		[]tensor.PartialShape{{tensor.DynamicDim}})
	require.NoError(t, err)

	require.NoError(t, q.CompatibleWith(
		[]tensor.DType{tensor.Float32},
		[]tensor.PartialShape{{5}}))

	err = q.CompatibleWith([]tensor.DType{tensor.Float32, tensor.Int32}, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	err = q.CompatibleWith([]tensor.DType{tensor.Int32}, []tensor.PartialShape{{tensor.DynamicDim}})
	require.ErrorIs(t, err, ErrInvalidArgument)

	err = q.CompatibleWith([]tensor.DType{tensor.Float32}, []tensor.PartialShape{{2, 2}})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	q := newScalarQueue(t, 0)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, q.Enqueue(ctx, scalarInt64(t, i)))
	}
	require.Equal(t, 3, q.Size())

	for i := int64(1); i <= 3; i++ {
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		values, verr := tensor.Values[int64](got[0])
		require.NoError(t, verr)
		require.Equal(t, []int64{i}, values)
	}
	require.Equal(t, 0, q.Size())
}

func TestEnqueueValidatesSynchronously(t *testing.T) {
	q := newScalarQueue(t, 0)

	err := q.Enqueue(context.Background(), vecFloat32(t, 1))
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Equal(t, 0, q.Size())
}

func TestEnqueueOnClosedQueue(t *testing.T) {
	q := newScalarQueue(t, 0)
	require.NoError(t, q.Close(false))

	err := q.Enqueue(context.Background(), scalarInt64(t, 1))
	require.ErrorIs(t, err, ErrClosed)
}

func TestDoubleClose(t *testing.T) {
	q := newScalarQueue(t, 0)
	require.NoError(t, q.Close(false))
	require.True(t, q.IsClosed())

	err := q.Close(false)
	require.ErrorIs(t, err, ErrClosed)
	err = q.Close(true)
	require.ErrorIs(t, err, ErrClosed)
}

func TestCapacityBackpressure(t *testing.T) {
	q := newScalarQueue(t, 1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, scalarInt64(t, 1)))

	blocked := make(chan error, 1)
	go func() {
		blocked <- q.Enqueue(ctx, scalarInt64(t, 2))
	}()

	select {
	case err := <-blocked:
		t.Fatalf("enqueue completed on a full queue: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	values, _ := tensor.Values[int64](got[0])
	require.Equal(t, []int64{1}, values)

	select {
	case err := <-blocked:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting enqueue was not released by the dequeue")
	}
	require.Equal(t, 1, q.Size())
}

func TestEnqueueManySplitsBatch(t *testing.T) {
	q := newScalarQueue(t, 0)
	ctx := context.Background()

	batch, err := tensor.FromSlice(tensor.Shape{3}, []int64{10, 20, 30})
	require.NoError(t, err)
	require.NoError(t, q.EnqueueMany(ctx, Tuple{batch}))
	require.Equal(t, 3, q.Size())

	for _, want := range []int64{10, 20, 30} {
		got, derr := q.Dequeue(ctx)
		require.NoError(t, derr)
		values, _ := tensor.Values[int64](got[0])
		require.Equal(t, []int64{want}, values)
	}
}

func TestEnqueueManyZeroBatch(t *testing.T) {
	q := newScalarQueue(t, 0)

	batch, err := tensor.New(tensor.Int64, tensor.Shape{0})
	require.NoError(t, err)
	require.NoError(t, q.EnqueueMany(context.Background(), Tuple{batch}))
	require.Equal(t, 0, q.Size())
}

func TestEnqueueManyIncrementalProgress(t *testing.T) {
	q := newScalarQueue(t, 2)
	ctx := context.Background()

	batch, err := tensor.FromSlice(tensor.Shape{4}, []int64{1, 2, 3, 4})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- q.EnqueueMany(ctx, Tuple{batch})
	}()

	// Only two elements fit; the attempt parks with partial progress.
	require.Eventually(t, func() bool { return q.Size() == 2 }, 2*time.Second, time.Millisecond)

	// Draining in a larger batch makes room element by element.
	got, err := q.DequeueMany(ctx, 4)
	require.NoError(t, err)
	values, _ := tensor.Values[int64](got[0])
	require.Equal(t, []int64{1, 2, 3, 4}, values)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue-many did not complete")
	}
	require.Equal(t, 0, q.Size())
}
