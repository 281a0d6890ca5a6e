package task

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_Enqueue(t *testing.T) {
	q := NewTaskQueue(2, discardLogger)

	first := newStubTask("kanji_class_1.csv", nil)
	require.NoError(t, q.Enqueue(first))
	require.NoError(t, q.Enqueue(newStubTask("kanji_class_2.csv", nil)))
	assert.Equal(t, 2, q.Len())

	err := q.Enqueue(newStubTask("kanji_class_3.csv", nil))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.ErrorContains(t, err, "capacity 2")

	got := <-q.GetChannel()
	assert.Equal(t, first.ID(), got.ID(), "tasks come out in FIFO order")
	assert.Equal(t, 1, q.Len())
}

func TestTaskQueue_MinimumCapacity(t *testing.T) {
	for _, size := range []int{0, -4} {
		q := NewTaskQueue(size, nil)
		require.NoError(t, q.Enqueue(newStubTask("a.csv", nil)))
		assert.ErrorIs(t, q.Enqueue(newStubTask("b.csv", nil)), ErrQueueFull)
	}
}

func TestTaskQueue_Close(t *testing.T) {
	q := NewTaskQueue(4, discardLogger)
	queued := newStubTask("kanji_class_1.csv", nil)
	require.NoError(t, q.Enqueue(queued))

	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(newStubTask("late.csv", nil)), ErrQueueClosed)

	got, ok := <-q.GetChannel()
	require.True(t, ok, "queued task survives Close")
	assert.Equal(t, queued.ID(), got.ID())

	_, ok = <-q.GetChannel()
	assert.False(t, ok, "channel is closed once drained")
}

func TestTaskQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 25
	q := NewTaskQueue(producers*perProducer, discardLogger)

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, q.Enqueue(newStubTask("x.csv", nil)))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
