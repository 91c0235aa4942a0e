package padfifo

import (
	"context"
	"fmt"
	"sync"

	eq "github.com/eapache/queue"

	"github.com/padqueue/padqueue/internal/deque"
	"github.com/padqueue/padqueue/pkg/tensor"
)

// Tuple is one record: an ordered sequence of tensors, one per declared
// component. A successful batched dequeue also delivers its result as a
// Tuple, with the batch as the leading dimension of every component.
type Tuple []*tensor.Tensor

// Callback delivers the result of a dequeue operation exactly once: either
// a complete tuple, or nil and an error. Partial results are never delivered.
type Callback func(Tuple, error)

// Queue is a bounded FIFO of multi-component records with per-component
// declared shapes that may contain undetermined dimensions. All mutable
// state is guarded by one mutex; attempt state transitions happen only with
// it held, completion callbacks are invoked only after it is released.
type Queue struct {
	name     string
	capacity int
	dtypes   []tensor.DType
	shapes   []tensor.PartialShape

	mu              sync.Mutex
	stores          []*deque.Deque[*tensor.Tensor] // one per component, equal lengths
	closed          bool
	pendingEnqueues *eq.Queue // of *attempt
	pendingDequeues *eq.Queue // of *attempt
}

// Option configures a Queue at construction.
type Option func(*Queue)

// WithName sets the queue name used in error messages.
func WithName(name string) Option {
	return func(q *Queue) {
		q.name = name
	}
}

// New builds a queue with one store per component. Every component needs
// both a dtype and a declared shape; a capacity of zero or less means the
// queue is unbounded.
func New(capacity int, dtypes []tensor.DType, shapes []tensor.PartialShape, opts ...Option) (*Queue, error) {
	if len(dtypes) == 0 {
		return nil, fmt.Errorf("%w: queue needs at least one component", ErrInvalidArgument)
	}
	if len(shapes) != len(dtypes) {
		return nil, fmt.Errorf("%w: shapes must be provided for all components, but received %d dtypes and %d shapes",
			ErrInvalidArgument, len(dtypes), len(shapes))
	}
	for i, d := range dtypes {
		if !d.Valid() {
			return nil, fmt.Errorf("%w: component %d has unsupported dtype %v", ErrInvalidArgument, i, d)
		}
	}
	q := &Queue{
		name:            "padding_fifo_queue",
		capacity:        capacity,
		dtypes:          make([]tensor.DType, len(dtypes)),
		shapes:          make([]tensor.PartialShape, len(shapes)),
		stores:          make([]*deque.Deque[*tensor.Tensor], len(dtypes)),
		pendingEnqueues: eq.New(),
		pendingDequeues: eq.New(),
	}
	copy(q.dtypes, dtypes)
	for i, s := range shapes {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		q.shapes[i] = s.Clone()
		q.stores[i] = deque.New[*tensor.Tensor]()
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// NumComponents returns the number of components in every record.
func (q *Queue) NumComponents() int {
	return len(q.dtypes)
}

// Capacity returns the configured capacity; zero or less means unbounded.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Size returns the number of stored records.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stores[0].Len()
}

// IsClosed reports whether Close has been called.
func (q *Queue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// ComponentDTypes returns a copy of the per-component element types.
func (q *Queue) ComponentDTypes() []tensor.DType {
	out := make([]tensor.DType, len(q.dtypes))
	copy(out, q.dtypes)
	return out
}

// ComponentShapes returns a copy of the per-component declared shapes.
func (q *Queue) ComponentShapes() []tensor.PartialShape {
	out := make([]tensor.PartialShape, len(q.shapes))
	for i, s := range q.shapes {
		out[i] = s.Clone()
	}
	return out
}

// validateComponents checks component count, presence, and element types.
func (q *Queue) validateComponents(t Tuple) error {
	if len(t) != len(q.dtypes) {
		return fmt.Errorf("%w: tuple has %d components, queue %q has %d",
			ErrInvalidArgument, len(t), q.name, len(q.dtypes))
	}
	for i, c := range t {
		if c == nil {
			return fmt.Errorf("%w: tuple component %d is nil", ErrInvalidArgument, i)
		}
		if c.DType() != q.dtypes[i] {
			return fmt.Errorf("%w: type mismatch in tuple component %d: expected %v, got %v",
				ErrInvalidArgument, i, q.dtypes[i], c.DType())
		}
	}
	return nil
}

// ValidateTuple checks a single record against the declared shapes.
func (q *Queue) ValidateTuple(t Tuple) error {
	if err := q.validateComponents(t); err != nil {
		return err
	}
	for i, c := range t {
		if !q.shapes[i].IsCompatibleWith(c.Shape()) {
			return fmt.Errorf("%w: shape mismatch in tuple component %d: expected %v, got %v",
				ErrInvalidArgument, i, q.shapes[i], c.Shape())
		}
	}
	return nil
}

// ValidateManyTuple checks a batch-shaped record: the first dimension of
// every component is the batch size, and the trailing dimensions must be
// compatible with the declared shapes.
func (q *Queue) ValidateManyTuple(t Tuple) error {
	if err := q.validateComponents(t); err != nil {
		return err
	}
	if t[0].Rank() < 1 {
		return fmt.Errorf("%w: batched tuple component 0 must have a batch dimension", ErrInvalidArgument)
	}
	batchSize := t[0].Dim(0)
	for i, c := range t {
		expected := tensor.PartialShape{batchSize}.Concatenate(q.shapes[i])
		if !expected.IsCompatibleWith(c.Shape()) {
			return fmt.Errorf("%w: shape mismatch in tuple component %d: expected %v, got %v",
				ErrInvalidArgument, i, expected, c.Shape())
		}
	}
	return nil
}

// CompatibleWith checks whether callers sharing this queue agree on its
// component contract.
func (q *Queue) CompatibleWith(dtypes []tensor.DType, shapes []tensor.PartialShape) error {
	if len(dtypes) != len(q.dtypes) {
		return fmt.Errorf("%w: shared queue %q has %d components but %d were requested",
			ErrInvalidArgument, q.name, len(q.dtypes), len(dtypes))
	}
	for i, d := range dtypes {
		if d != q.dtypes[i] {
			return fmt.Errorf("%w: shared queue %q has component %d type %v but requested type was %v",
				ErrInvalidArgument, q.name, i, q.dtypes[i], d)
		}
	}
	if !tensor.AreCompatible(shapes, q.shapes) {
		return fmt.Errorf("%w: shared queue %q has component shapes %s but requested component shapes were %s",
			ErrInvalidArgument, q.name, tensor.PartialShapeListString(q.shapes), tensor.PartialShapeListString(shapes))
	}
	return nil
}

func (q *Queue) hasCapacityLocked() bool {
	return q.capacity <= 0 || q.stores[0].Len() < q.capacity
}

// dequeueLocked removes the oldest record, one component per store.
func (q *Queue) dequeueLocked() Tuple {
	t := make(Tuple, len(q.stores))
	for j, store := range q.stores {
		t[j], _ = store.PopFront()
	}
	return t
}

// restoreLocked pushes previously removed records back to the front of the
// stores, re-establishing their original relative order: the records are
// iterated newest-first so the oldest ends up in front. Restoration is
// best-effort; the first failure is reported but does not stop the loop.
func (q *Queue) restoreLocked(tuples []Tuple) error {
	var firstErr error
	for i := len(tuples) - 1; i >= 0; i-- {
		t := tuples[i]
		if len(t) != len(q.stores) {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: failed to restore record with %d components to queue %q (want %d)",
					ErrDataLoss, len(t), q.name, len(q.stores))
			}
			continue
		}
		for j := range q.stores {
			q.stores[j].PushFront(t[j])
		}
	}
	return firstErr
}

// TryEnqueue validates and asynchronously inserts one record, waiting for
// capacity if the queue is full. Enqueueing against a closed queue fails
// synchronously with ErrClosed.
func (q *Queue) TryEnqueue(ctx context.Context, t Tuple, cb func(error)) {
	if err := q.ValidateTuple(t); err != nil {
		cb(err)
		return
	}
	if ctx != nil && ctx.Err() != nil {
		cb(opCancelledError("enqueue"))
		return
	}

	a := newAttempt(ctx, 1)
	a.run = func(a *attempt) runResult {
		if !q.hasCapacityLocked() {
			return noProgress
		}
		for j := range q.stores {
			q.stores[j].PushBack(t[j])
		}
		a.remaining = 0
		a.done = func() { cb(nil) }
		return completed
	}
	a.onCancel = func(a *attempt) {
		a.done = func() { cb(opCancelledError("enqueue")) }
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		cb(fmt.Errorf("%w: queue %q", ErrClosed, q.name))
		return
	}
	q.pendingEnqueues.Add(a)
	q.mu.Unlock()
	q.watchCancellation(a)
	q.flush()
}

// TryEnqueueMany validates a batch-shaped tuple, splits it along the batch
// dimension, and asynchronously inserts the elements in order, making
// incremental progress as capacity frees up. The callback fires once, after
// the last element is stored.
func (q *Queue) TryEnqueueMany(ctx context.Context, batch Tuple, cb func(error)) {
	if err := q.ValidateManyTuple(batch); err != nil {
		cb(err)
		return
	}
	batchSize := batch[0].Dim(0)
	if batchSize == 0 {
		cb(nil)
		return
	}
	elements := make([]Tuple, batchSize)
	for p := 0; p < batchSize; p++ {
		t := make(Tuple, len(batch))
		for i := range batch {
			var err error
			t[i], err = tensor.SliceAt(batch[i], p)
			if err != nil {
				cb(err)
				return
			}
		}
		elements[p] = t
	}
	if ctx != nil && ctx.Err() != nil {
		cb(opCancelledError("enqueue"))
		return
	}

	next := 0
	a := newAttempt(ctx, batchSize)
	a.run = func(a *attempt) runResult {
		result := noProgress
		for next < len(elements) {
			if !q.hasCapacityLocked() {
				return result
			}
			t := elements[next]
			for j := range q.stores {
				q.stores[j].PushBack(t[j])
			}
			next++
			a.remaining--
			result = madeProgress
		}
		a.done = func() { cb(nil) }
		return completed
	}
	a.onCancel = func(a *attempt) {
		a.done = func() { cb(opCancelledError("enqueue")) }
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		cb(fmt.Errorf("%w: queue %q", ErrClosed, q.name))
		return
	}
	q.pendingEnqueues.Add(a)
	q.mu.Unlock()
	q.watchCancellation(a)
	q.flush()
}

// Close marks the queue closed and re-evaluates every pending attempt.
// Stored records remain dequeueable; pending dequeues that can no longer be
// satisfied fail with ErrOutOfRange after rolling back their partial
// progress. When cancelPendingEnqueues is set, waiting enqueue attempts are
// failed with ErrCancelled instead of being allowed to finish filling the
// queue. Closing twice returns ErrClosed.
func (q *Queue) Close(cancelPendingEnqueues bool) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("%w: queue %q was already closed", ErrClosed, q.name)
	}
	q.closed = true
	if cancelPendingEnqueues {
		for i := 0; i < q.pendingEnqueues.Length(); i++ {
			a := q.pendingEnqueues.Get(i).(*attempt)
			if !a.cancelled && a.done == nil {
				a.cancelled = true
				a.onCancel(a)
			}
		}
	}
	q.mu.Unlock()
	q.flush()
	return nil
}
