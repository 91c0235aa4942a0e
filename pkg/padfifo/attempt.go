package padfifo

import (
	"context"

	eq "github.com/eapache/queue"
)

// runResult reports the outcome of one evaluation step of an attempt.
type runResult int

const (
	// noProgress: the attempt could not advance (e.g. empty store, full queue).
	noProgress runResult = iota
	// madeProgress: the attempt advanced but is not yet complete.
	madeProgress
	// completed: the attempt reached a terminal state and its done callback is set.
	completed
)

// attempt is one in-flight queue operation. Every field is guarded by the
// owning queue's mutex; run and onCancel are invoked only with that lock
// held, done only after the attempt has been removed from its pending list.
type attempt struct {
	ctx context.Context

	// remaining counts the elements still required (dequeue-many) or still
	// to be inserted (enqueue-many).
	remaining int

	// tuples accumulates records removed from the store by a dequeue-many
	// attempt. They are restored on closure shortfall or cancellation.
	tuples []Tuple

	cancelled bool

	// run advances the attempt by one evaluation step.
	run func(*attempt) runResult

	// onCancel sets done to deliver the cancellation result.
	onCancel func(*attempt)

	// done delivers the final result to the caller. Set exactly once, at
	// the transition to completed or cancelled, and invoked exactly once
	// after the queue lock is released.
	done func()

	// finished is closed when the attempt leaves the pending list; it tears
	// down the context watcher goroutine.
	finished chan struct{}
}

func newAttempt(ctx context.Context, remaining int) *attempt {
	return &attempt{
		ctx:       ctx,
		remaining: remaining,
		finished:  make(chan struct{}),
	}
}

// register appends the attempt to a pending list, starts its cancellation
// watcher, and flushes. The closed check for enqueues happens before this.
func (q *Queue) register(a *attempt, pending *eq.Queue) {
	q.mu.Lock()
	pending.Add(a)
	q.mu.Unlock()
	q.watchCancellation(a)
	q.flush()
}

// watchCancellation marks the attempt cancelled when its context fires
// before completion. Contexts that can never be cancelled need no watcher.
func (q *Queue) watchCancellation(a *attempt) {
	if a.ctx == nil || a.ctx.Done() == nil {
		return
	}
	go func() {
		select {
		case <-a.ctx.Done():
			q.mu.Lock()
			if a.done == nil && !a.cancelled {
				a.cancelled = true
				a.onCancel(a)
			}
			q.mu.Unlock()
			q.flush()
		case <-a.finished:
		}
	}()
}

// flush re-evaluates pending attempts, alternating between the enqueue and
// dequeue lists while either side makes progress, then invokes the
// completion callbacks collected under the lock.
func (q *Queue) flush() {
	var callbacks []func()
	q.mu.Lock()
	for {
		progress := q.serviceAttemptsLocked(q.pendingEnqueues, &callbacks)
		if q.serviceAttemptsLocked(q.pendingDequeues, &callbacks) {
			progress = true
		}
		if !progress {
			break
		}
	}
	q.mu.Unlock()
	for _, cb := range callbacks {
		cb()
	}
}

// serviceAttemptsLocked evaluates attempts strictly from the front of one
// pending list: a later attempt is never serviced while an earlier one can
// still progress. Completed and cancelled attempts are popped and their
// callbacks queued for invocation after the lock is released.
func (q *Queue) serviceAttemptsLocked(pending *eq.Queue, callbacks *[]func()) bool {
	progress := false
	for pending.Length() > 0 {
		a := pending.Peek().(*attempt)
		if a.cancelled {
			if len(a.tuples) > 0 {
				// Hand back whatever the attempt had already removed so
				// the store's content and order are unchanged.
				q.restoreLocked(a.tuples)
				a.tuples = nil
			}
			pending.Remove()
			close(a.finished)
			*callbacks = append(*callbacks, a.done)
			progress = true
			continue
		}
		switch a.run(a) {
		case completed:
			pending.Remove()
			close(a.finished)
			*callbacks = append(*callbacks, a.done)
			progress = true
		case madeProgress:
			return true
		default:
			return progress
		}
	}
	return progress
}
