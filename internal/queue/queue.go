package queue

import (
	"context"

	"github.com/padqueue/padqueue/pkg/padfifo"
)

// BatchQueue is the surface the load harness drives: blocking record
// production and padded-batch consumption. It exists so the harness is
// checked against the queue's signatures at compile time rather than
// depending on the concrete type.
type BatchQueue interface {
	// Enqueue inserts one record, waiting for capacity.
	Enqueue(ctx context.Context, t padfifo.Tuple) error

	// DequeueMany removes n records and returns them as one padded batch.
	DequeueMany(ctx context.Context, n int) (padfifo.Tuple, error)

	// Close marks the queue closed; pending dequeues that can no longer be
	// satisfied fail.
	Close(cancelPendingEnqueues bool) error

	// Size returns the number of stored records.
	Size() int
}

// Compile-time enforcement that the padding queue satisfies the harness surface.
var _ BatchQueue = (*padfifo.Queue)(nil)
