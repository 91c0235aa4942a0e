package testbench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/padqueue/padqueue/pkg/padfifo"
	"github.com/padqueue/padqueue/pkg/tensor"
)

func TestRunTimedTestSmoke(t *testing.T) {
	q, err := padfifo.New(64,
		[]tensor.DType{tensor.Int64},
		[]tensor.PartialShape{{}})
	require.NoError(t, err)

	cfg := Config{NumProducers: 2, NumConsumers: 2, BatchSize: 4}
	produced, consumed, elapsed := RunTimedTest(q, cfg, 100*time.Millisecond, func(i int) padfifo.Tuple {
		return padfifo.Tuple{tensor.FromScalar(int64(i))}
	})

	require.Greater(t, produced, int64(0))
	require.Greater(t, elapsed, time.Duration(0))

	// Consumers only count full batches; the remainder stays in the queue.
	require.LessOrEqual(t, consumed, produced)
	require.Equal(t, produced-consumed, int64(q.Size()))
	require.Less(t, int(produced-consumed), cfg.BatchSize)
}
