package padfifo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/padqueue/padqueue/pkg/tensor"
)

func TestSingleConsumerSeesSequentialBatches(t *testing.T) {
	const (
		total     = 2000
		batchSize = 50
	)
	q := newScalarQueue(t, 64)
	ctx := context.Background()

	go func() {
		for i := int64(0); i < total; i++ {
			if err := q.Enqueue(ctx, Tuple{tensor.FromScalar(i)}); err != nil {
				return
			}
		}
	}()

	next := int64(0)
	for next < total {
		batch, err := q.DequeueMany(ctx, batchSize)
		require.NoError(t, err)
		values, verr := tensor.Values[int64](batch[0])
		require.NoError(t, verr)
		for _, v := range values {
			require.Equal(t, next, v, "records must come out in insertion order")
			next++
		}
	}
	require.Equal(t, 0, q.Size())
}

func TestMultiProducerConsumerConservation(t *testing.T) {
	const (
		producers   = 4
		consumers   = 2
		perProducer = 500
		batchSize   = 25
	)
	q := newScalarQueue(t, 32)
	ctx := context.Background()

	var produced, consumed atomic.Int64
	var prodWg, consWg sync.WaitGroup

	for p := 0; p < producers; p++ {
		prodWg.Add(1)
		go func(p int) {
			defer prodWg.Done()
			for i := 0; i < perProducer; i++ {
				v := int64(p*perProducer + i)
				if err := q.Enqueue(ctx, Tuple{tensor.FromScalar(v)}); err != nil {
					return
				}
				produced.Add(1)
			}
		}(p)
	}

	for c := 0; c < consumers; c++ {
		consWg.Add(1)
		go func() {
			defer consWg.Done()
			for {
				batch, err := q.DequeueMany(ctx, batchSize)
				if err != nil {
					return
				}
				consumed.Add(int64(batch[0].Dim(0)))
			}
		}()
	}

	prodWg.Wait()
	require.NoError(t, q.Close(false))
	consWg.Wait()

	// producers*perProducer divides evenly by batchSize, so the consumers
	// drain everything before the closed queue runs short.
	require.Equal(t, int64(producers*perProducer), produced.Load())
	require.Equal(t, produced.Load(), consumed.Load())
	require.Equal(t, 0, q.Size())
}

func TestConcurrentDequeueManyNoDuplicatesOrLosses(t *testing.T) {
	const (
		total     = 1200
		batchSize = 40
		consumers = 3
	)
	q := newScalarQueue(t, 0)
	ctx := context.Background()

	for i := int64(0); i < total; i++ {
		require.NoError(t, q.Enqueue(ctx, Tuple{tensor.FromScalar(i)}))
	}
	require.NoError(t, q.Close(false))

	var mu sync.Mutex
	seen := make(map[int64]int, total)
	var wg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch, err := q.DequeueMany(ctx, batchSize)
				if err != nil {
					return
				}
				values, verr := tensor.Values[int64](batch[0])
				if verr != nil {
					return
				}
				mu.Lock()
				for _, v := range values {
					seen[v]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, total)
	for v, n := range seen {
		require.Equal(t, 1, n, "record %d delivered %d times", v, n)
	}
}
