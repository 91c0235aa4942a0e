package padfifo

import (
	"context"
	"fmt"

	"github.com/padqueue/padqueue/pkg/tensor"
)

// TryDequeue asynchronously removes the oldest record. A closed, empty
// queue fails with ErrOutOfRange; an open, empty queue waits.
func (q *Queue) TryDequeue(ctx context.Context, cb Callback) {
	if ctx != nil && ctx.Err() != nil {
		cb(nil, opCancelledError("dequeue"))
		return
	}

	a := newAttempt(ctx, 1)
	a.run = func(a *attempt) runResult {
		if q.stores[0].Len() > 0 {
			t := q.dequeueLocked()
			a.remaining = 0
			a.done = func() { cb(t, nil) }
			return completed
		}
		if q.closed {
			err := fmt.Errorf("%w: queue %q is closed and has insufficient elements (requested 1, current size 0)",
				ErrOutOfRange, q.name)
			a.done = func() { cb(nil, err) }
			return completed
		}
		return noProgress
	}
	a.onCancel = func(a *attempt) {
		a.done = func() { cb(nil, opCancelledError("dequeue")) }
	}
	q.register(a, q.pendingDequeues)
}

// TryDequeueMany asynchronously removes n records and delivers them as one
// padded batch: per component, the output shape is [n] plus the declared
// trailing dimensions, with every undetermined dimension resolved to the
// maximum size observed across the batch and shorter records zero-padded.
//
// A request for zero records is satisfied synchronously with one
// empty-along-batch buffer per component, regardless of closed state.
// Dequeueing from a closed queue is permitted while enough records remain;
// a shortfall fails with ErrOutOfRange after restoring any records the
// request had already removed.
func (q *Queue) TryDequeueMany(ctx context.Context, n int, cb Callback) {
	if n < 0 {
		cb(nil, fmt.Errorf("%w: cannot dequeue %d elements", ErrInvalidArgument, n))
		return
	}
	if n == 0 {
		batch, err := q.emptyBatch()
		if err != nil {
			cb(nil, err)
			return
		}
		cb(batch, nil)
		return
	}
	if ctx != nil && ctx.Err() != nil {
		cb(nil, opCancelledError("dequeue"))
		return
	}

	a := newAttempt(ctx, n)
	a.run = func(a *attempt) runResult {
		s := q.stores[0].Len()
		if q.closed && s < a.remaining {
			err := fmt.Errorf("%w: queue %q is closed and has insufficient elements (requested %d, current size %d)",
				ErrOutOfRange, q.name, a.remaining, s)
			if len(a.tuples) > 0 {
				if rerr := q.restoreLocked(a.tuples); rerr != nil {
					err = rerr
				}
				a.tuples = nil
			}
			a.done = func() { cb(nil, err) }
			return completed
		}

		result := noProgress
		for ; s > 0; s-- {
			result = madeProgress
			a.tuples = append(a.tuples, q.dequeueLocked())
			a.remaining--
			if a.remaining == 0 {
				batch, err := q.assembleBatchLocked(a.tuples)
				a.tuples = nil
				if err != nil {
					// The records are already consumed; assembly failures
					// are not rolled back.
					a.done = func() { cb(nil, err) }
					return completed
				}
				a.done = func() { cb(batch, nil) }
				return completed
			}
		}
		return result
	}
	a.onCancel = func(a *attempt) {
		a.done = func() { cb(nil, opCancelledError("dequeue")) }
	}
	q.register(a, q.pendingDequeues)
}

// assembleBatchLocked builds the padded batch for a completed dequeue-many.
// Per component: leading dimension = batch size; each declared trailing
// dimension is taken as-is when fixed, or as the maximum concrete size
// across the records when undetermined. Buffers with any undetermined
// dimension are zero-filled before the copies so narrower records leave
// zeroed padding; fully determined buffers are completely overwritten and
// skip the fill. Any failure aborts the whole batch.
func (q *Queue) assembleBatchLocked(tuples []Tuple) (Tuple, error) {
	batchSize := len(tuples)
	out := make(Tuple, 0, len(q.dtypes))
	for i := range q.dtypes {
		shape := tensor.Shape{batchSize}
		for d := 0; d < q.shapes[i].Rank(); d++ {
			if size := q.shapes[i][d]; size != tensor.DynamicDim {
				shape = append(shape, size)
			} else {
				maxSize := 0
				for _, t := range tuples {
					if v := t[i].Dim(d); v > maxSize {
						maxSize = v
					}
				}
				shape = append(shape, maxSize)
			}
		}
		buf, err := tensor.New(q.dtypes[i], shape)
		if err != nil {
			return nil, err
		}
		if !q.shapes[i].IsFullyDefined() {
			if err := buf.ZeroFill(); err != nil {
				return nil, err
			}
		}
		out = append(out, buf)
	}
	for p, t := range tuples {
		for i := range out {
			if err := tensor.CopyToSlot(t[i], out[i], p); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// emptyBatch allocates the zero-count result: per component, batch
// dimension zero and every undetermined trailing dimension resolved to
// zero.
func (q *Queue) emptyBatch() (Tuple, error) {
	out := make(Tuple, 0, len(q.dtypes))
	for i := range q.dtypes {
		t, err := tensor.New(q.dtypes[i], q.manyOutShape(i, 0))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// manyOutShape is the batched output shape of component i at a given batch
// size, with undetermined dimensions resolved to zero.
func (q *Queue) manyOutShape(i, batchSize int) tensor.Shape {
	shape := tensor.Shape{batchSize}
	return append(shape, q.shapes[i].WithDynamicAsZero()...)
}
