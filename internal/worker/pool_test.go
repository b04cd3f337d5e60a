package worker

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/metrics"
)

func quietLogger(buf *bytes.Buffer) *logging.Logger {
	return logging.NewWriterLogger("worker", buf, logging.INFO)
}

func TestPoolRunsAllTasks(t *testing.T) {
	var buf bytes.Buffer
	p := NewPool(4, WithLogger(quietLogger(&buf)), WithMetrics(metrics.NewPool(prometheus.NewRegistry())))
	defer p.Close()

	var n atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(Task{Name: "inc", Run: func(ctx context.Context) {
			n.Add(1)
		}}))
	}
	p.Wait()
	assert.Equal(t, int64(100), n.Load())
}

func TestPoolRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	p := NewPool(1, WithLogger(quietLogger(&buf)))

	var ran atomic.Bool
	require.NoError(t, p.Submit(Task{Name: "bad", Run: func(ctx context.Context) {
		panic("boom")
	}}))
	require.NoError(t, p.Submit(Task{Name: "good", Run: func(ctx context.Context) {
		ran.Store(true)
	}}))
	p.Close()

	assert.True(t, ran.Load(), "пул продолжает работу после паники")
	assert.Contains(t, buf.String(), `Паника в задаче "bad"`)
}

func TestPoolCloseWaitsAndRejects(t *testing.T) {
	var buf bytes.Buffer
	p := NewPool(2, WithLogger(quietLogger(&buf)))

	var wg sync.WaitGroup
	wg.Add(1)
	var finished atomic.Bool
	require.NoError(t, p.Submit(Task{Name: "slow", Run: func(ctx context.Context) {
		wg.Wait()
		finished.Store(true)
	}}))

	go wg.Done()
	p.Close()
	assert.True(t, finished.Load(), "Close ждёт выполняющиеся задачи")

	assert.ErrorIs(t, p.Submit(Task{Name: "late", Run: func(context.Context) {}}), ErrClosed)
	p.Close()
}

func TestInlineExecutor(t *testing.T) {
	ran := false
	require.NoError(t, Inline{}.Submit(Task{Run: func(context.Context) { ran = true }}))
	assert.True(t, ran)
	assert.Positive(t, DefaultSize())
}
