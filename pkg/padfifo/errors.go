package padfifo

import (
	"errors"
	"fmt"

	"github.com/padqueue/padqueue/pkg/tensor"
)

var (
	// ErrInvalidArgument reports component, shape, or type mismatches at
	// validation or construction. Shared with pkg/tensor so errors.Is
	// matches across the boundary.
	ErrInvalidArgument = tensor.ErrInvalidArgument

	// ErrOutOfRange reports a closed queue with too few elements left to
	// satisfy a pending dequeue.
	ErrOutOfRange = errors.New("out of range")

	// ErrCancelled reports an operation cancelled before completion.
	ErrCancelled = errors.New("cancelled")

	// ErrClosed reports an enqueue against a closed queue, or a second Close.
	ErrClosed = errors.New("queue is closed")

	// ErrDataLoss reports a failure while restoring removed records to the
	// store; the queue may no longer hold its original content.
	ErrDataLoss = errors.New("data loss")
)

func opCancelledError(op string) error {
	return fmt.Errorf("%w: %s operation was cancelled", ErrCancelled, op)
}
