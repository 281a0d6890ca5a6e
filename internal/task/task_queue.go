package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Queue errors. Enqueue wraps ErrQueueFull with the capacity.
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a bounded in-memory queue. Producers never block: when the
// buffer is full the task is refused and the caller decides what to do.
type TaskQueue struct {
	mu     sync.Mutex
	closed bool
	tasks  chan Task
	logger *slog.Logger
}

var (
	_ TaskQueueReader = (*TaskQueue)(nil)
	_ TaskQueueWriter = (*TaskQueue)(nil)
)

// NewTaskQueue creates a queue holding at most size tasks (minimum 1).
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		tasks:  make(chan Task, max(size, 1)),
		logger: logger.With(slog.String("component", "task_queue")),
	}
}

// Enqueue implements TaskQueueWriter.
func (q *TaskQueue) Enqueue(t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- t:
	default:
		q.logger.Warn("task refused, queue full",
			slog.String("task_id", t.ID().String()),
			slog.Int("capacity", cap(q.tasks)))
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(q.tasks))
	}
	q.logger.Debug("task enqueued",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Int("pending", len(q.tasks)))
	return nil
}

// Len reports how many tasks are waiting.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Close refuses new tasks. Queued tasks remain readable until drained.
// Calling Close more than once is a no-op.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
	q.logger.Info("task queue closed", slog.Int("pending", len(q.tasks)))
}

// GetChannel implements TaskQueueReader.
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.tasks
}
