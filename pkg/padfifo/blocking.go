package padfifo

import "context"

// Blocking wrappers over the callback API. Each registers a one-shot
// channel as the callback and waits for the single delivery; cancellation
// and timeouts flow through the context exactly as in the Try variants.

type dequeueResult struct {
	tuple Tuple
	err   error
}

// Enqueue inserts one record, waiting for capacity.
func (q *Queue) Enqueue(ctx context.Context, t Tuple) error {
	errCh := make(chan error, 1)
	q.TryEnqueue(ctx, t, func(err error) { errCh <- err })
	return <-errCh
}

// EnqueueMany inserts a batch-shaped record element by element.
func (q *Queue) EnqueueMany(ctx context.Context, batch Tuple) error {
	errCh := make(chan error, 1)
	q.TryEnqueueMany(ctx, batch, func(err error) { errCh <- err })
	return <-errCh
}

// Dequeue removes and returns the oldest record.
func (q *Queue) Dequeue(ctx context.Context) (Tuple, error) {
	ch := make(chan dequeueResult, 1)
	q.TryDequeue(ctx, func(t Tuple, err error) { ch <- dequeueResult{t, err} })
	res := <-ch
	return res.tuple, res.err
}

// DequeueMany removes n records and returns them as one padded batch.
func (q *Queue) DequeueMany(ctx context.Context, n int) (Tuple, error) {
	ch := make(chan dequeueResult, 1)
	q.TryDequeueMany(ctx, n, func(t Tuple, err error) { ch <- dequeueResult{t, err} })
	res := <-ch
	return res.tuple, res.err
}
