// Package padfifo implements a bounded, thread-safe FIFO queue of
// multi-component records whose per-component shapes may be partially
// undetermined, together with a batched dequeue that pads every record of
// a batch to the largest shape observed across that batch.
//
// All queue operations are asynchronous: they register a callback and
// return, with completion driven by a per-queue attempt state machine that
// re-evaluates pending operations whenever the queue's content or closed
// state changes. Blocking wrappers are provided for callers that prefer
// synchronous delivery.
package padfifo
