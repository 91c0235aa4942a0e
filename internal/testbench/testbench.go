package testbench

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/padqueue/padqueue/internal/queue"
	"github.com/padqueue/padqueue/pkg/padfifo"
)

// Config is only about load shape: how many producers, how many consumers,
// and how many records each consumed batch assembles.
type Config struct {
	NumProducers int
	NumConsumers int
	BatchSize    int
}

// RunTimedTest spawns producers and consumers that run for the specified
// duration, measuring how many records are actually enqueued and how many
// are consumed as part of assembled batches in that window. Once the
// window expires, producers stop, the queue is closed, and consumers drain
// whatever full batches remain; records short of a final batch stay in the
// queue and are not counted as consumed.
// Returns total records produced, total records consumed, and the actual
// elapsed time.
func RunTimedTest(
	q queue.BatchQueue,
	cfg Config,
	testDuration time.Duration,
	makeRecord func(i int) padfifo.Tuple,
) (producedCount, consumedCount int64, elapsed time.Duration) {

	ctx, cancel := context.WithTimeout(context.Background(), testDuration)
	defer cancel()

	var totalProduced int64
	var totalConsumed int64

	start := time.Now()

	var recordIndex int64
	var prodWg sync.WaitGroup
	prodWg.Add(cfg.NumProducers)

	for i := 0; i < cfg.NumProducers; i++ {
		go func() {
			defer prodWg.Done()
			for ctx.Err() == nil {
				idx := atomic.AddInt64(&recordIndex, 1) - 1
				// The blocking enqueue returns with a cancellation error
				// once the window expires, even while waiting for capacity.
				if err := q.Enqueue(ctx, makeRecord(int(idx))); err != nil {
					return
				}
				atomic.AddInt64(&totalProduced, 1)
			}
		}()
	}

	var consWg sync.WaitGroup
	consWg.Add(cfg.NumConsumers)

	for i := 0; i < cfg.NumConsumers; i++ {
		go func() {
			defer consWg.Done()
			for {
				batch, err := q.DequeueMany(context.Background(), cfg.BatchSize)
				if err != nil {
					// Closed with fewer records than one batch: drained.
					return
				}
				atomic.AddInt64(&totalConsumed, int64(batch[0].Dim(0)))
			}
		}()
	}

	// Wait for the production window to expire, stop producers, then close
	// the queue so consumers fail out once no full batch remains.
	<-ctx.Done()
	prodWg.Wait()
	_ = q.Close(false)
	consWg.Wait()

	elapsed = time.Since(start)
	producedCount = atomic.LoadInt64(&totalProduced)
	consumedCount = atomic.LoadInt64(&totalConsumed)
	return producedCount, consumedCount, elapsed
}
