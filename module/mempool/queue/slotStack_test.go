package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/onflow/flow-slotpool/module/irrecoverable"
	"github.com/onflow/flow-slotpool/module/metrics"
	"github.com/onflow/flow-slotpool/module/slotpool"
	"github.com/onflow/flow-slotpool/utils/unittest"
)

// TestSlotStack_Sequential evaluates correctness of slot stack implementation against sequential push and pop.
func TestSlotStack_Sequential(t *testing.T) {
	sizeLimit := 100
	s := NewSlotStack[int](uint32(sizeLimit), unittest.Logger(), metrics.NewNoopCollector())

	// initially stack must be empty
	entry, ok := s.Pop()
	require.False(t, ok)
	require.Zero(t, entry)

	// pushing entries sequentially
	for i := 0; i < sizeLimit; i++ {
		_, ok := s.Push(i)
		require.True(t, ok)
		require.Equal(t, uint(i+1), s.Size())
	}

	// once stack meets the size limit, any extra push should fail.
	for i := 0; i < 10; i++ {
		index, ok := s.Push(sizeLimit + i)
		require.False(t, ok)
		require.Equal(t, slotpool.InvalidIndex, index)
		require.Equal(t, uint(sizeLimit), s.Size())
	}

	// pop-ing entries sequentially, most recent first.
	for i := sizeLimit - 1; i >= 0; i-- {
		popped, ok := s.Pop()
		require.True(t, ok)
		require.Equal(t, i, popped)
		require.Equal(t, uint(i), s.Size())
	}
	require.Zero(t, s.Size())
}

// TestSlotStack_Concurrent evaluates correctness of slot stack implementation against concurrent push and pop.
func TestSlotStack_Concurrent(t *testing.T) {
	sizeLimit := 100
	s := NewSlotStack[int](uint32(sizeLimit), unittest.Logger(), metrics.NewNoopCollector())

	pushWG := &sync.WaitGroup{}
	pushWG.Add(sizeLimit)
	for i := 0; i < sizeLimit; i++ {
		go func(i int) {
			_, ok := s.Push(i)
			require.True(t, ok)
			pushWG.Done()
		}(i)
	}
	unittest.RequireReturnsBefore(t, pushWG.Wait, 100*time.Millisecond, "could not push all entries on time")

	popWG := &sync.WaitGroup{}
	popWG.Add(sizeLimit)
	matchLock := &sync.Mutex{}
	seen := make(map[int]struct{})
	for i := 0; i < sizeLimit; i++ {
		go func() {
			popped, ok := s.Pop()
			require.True(t, ok)

			matchLock.Lock()
			seen[popped] = struct{}{}
			matchLock.Unlock()

			popWG.Done()
		}()
	}
	unittest.RequireReturnsBefore(t, popWG.Wait, 100*time.Millisecond, "could not pop all entries on time")

	require.Len(t, seen, sizeLimit)
	require.Zero(t, s.Size())
}

// TestSlotStack_Remove checks that entries can be removed by slot index from anywhere in the stack.
func TestSlotStack_Remove(t *testing.T) {
	s := NewSlotStack[string](3, unittest.Logger(), metrics.NewNoopCollector())

	_, ok := s.Push("a")
	require.True(t, ok)
	b, ok := s.Push("b")
	require.True(t, ok)
	_, ok = s.Push("c")
	require.True(t, ok)

	require.True(t, s.Remove(b))
	require.Equal(t, []string{"c", "a"}, s.Snapshot())

	// removing the same slot twice, an out of range slot, or the sentinel is a no-op.
	require.False(t, s.Remove(b))
	require.False(t, s.Remove(42))
	require.False(t, s.Remove(slotpool.InvalidIndex))
	require.Equal(t, uint(2), s.Size())

	// the freed slot is the next one to be reused.
	d, ok := s.Push("d")
	require.True(t, ok)
	require.Equal(t, b, d)
	require.Equal(t, []string{"d", "c", "a"}, s.Snapshot())

	// a popped entry can no longer be removed by its index.
	popped, ok := s.Pop()
	require.True(t, ok)
	require.Equal(t, "d", popped)
	require.False(t, s.Remove(d))
}

// TestSlotStack_Metrics checks that the stack reports occupancy and drops to its collector.
func TestSlotStack_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.PendingWorkSlotPoolMetricsFactory(registry)
	s := NewSlotStack[int](2, unittest.Logger(), collector)

	s.Push(1)
	s.Push(2)
	s.Push(3)
	s.Pop()

	expected := `
# HELP mempool_slot_pool_pending_work_acquire_dropped_total total number of elements dropped because the pool was full
# TYPE mempool_slot_pool_pending_work_acquire_dropped_total counter
mempool_slot_pool_pending_work_acquire_dropped_total 1
# HELP mempool_slot_pool_pending_work_slots_in_use number of slots currently holding an element
# TYPE mempool_slot_pool_pending_work_slots_in_use gauge
mempool_slot_pool_pending_work_slots_in_use 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, bytes.NewBufferString(expected),
		"mempool_slot_pool_pending_work_acquire_dropped_total",
		"mempool_slot_pool_pending_work_slots_in_use"))
}

// TestSlotStack_DropLogged checks that a dropped push is logged.
func TestSlotStack_DropLogged(t *testing.T) {
	var buf bytes.Buffer
	s := NewSlotStack[int](1, unittest.LoggerWithWriter(&buf), metrics.NewNoopCollector())

	s.Push(1)
	require.Empty(t, buf.String())

	s.Push(2)
	require.Contains(t, buf.String(), "slot stack is full, dropping entry")
	require.Contains(t, buf.String(), `"mempool":"slot-stack"`)
	require.Contains(t, buf.String(), `"size_limit":1`)
}

// TestSlotStack_Drain checks that draining processes every entry, most recent first, and empties the stack.
func TestSlotStack_Drain(t *testing.T) {
	s := NewSlotStack[int](10, unittest.Logger(), metrics.NewNoopCollector())
	for i := 0; i < 5; i++ {
		s.Push(i)
	}

	ctx := irrecoverable.NewMockSignalerContext(t, context.Background())
	var processed []int
	s.Drain(ctx, func(entry int) error {
		processed = append(processed, entry)
		return nil
	})

	require.Equal(t, []int{4, 3, 2, 1, 0}, processed)
	require.Zero(t, s.Size())
}

// TestSlotStack_Drain_Cancelled checks that draining stops once its context is cancelled.
func TestSlotStack_Drain_Cancelled(t *testing.T) {
	s := NewSlotStack[int](10, unittest.Logger(), metrics.NewNoopCollector())
	for i := 0; i < 5; i++ {
		s.Push(i)
	}

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	defer cancel()

	processed := 0
	s.Drain(ctx, func(int) error {
		processed++
		if processed == 2 {
			cancel()
		}
		return nil
	})

	require.Equal(t, 2, processed)
	require.Equal(t, uint(3), s.Size())
}

// TestSlotStack_Drain_Throws checks that a processing error is thrown on the signaler.
func TestSlotStack_Drain_Throws(t *testing.T) {
	s := NewSlotStack[int](10, unittest.Logger(), metrics.NewNoopCollector())
	s.Push(1)
	s.Push(2)

	errChan := make(chan error, 1)
	ctx := irrecoverable.WithSignaler(context.Background(), irrecoverable.NewSignaler(errChan))
	processErr := errors.New("processing failed")

	go s.Drain(ctx, func(entry int) error {
		return fmt.Errorf("entry %d: %w", entry, processErr)
	})

	select {
	case err := <-errChan:
		require.ErrorIs(t, err, processErr)
		require.Contains(t, err.Error(), "entry 2")
	case <-time.After(time.Second):
		require.Fail(t, "drain did not throw")
	}

	// the failing entry was popped, the rest is left for a later drain.
	require.Equal(t, []int{1}, s.Snapshot())
}
