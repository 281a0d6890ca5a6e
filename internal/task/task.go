package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task states, in order.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeImportFile imports one kanji data file.
const TaskTypeImportFile = "import_file"

// Task is a unit of background work run by the WorkerPool.
type Task interface {
	ID() uuid.UUID
	Type() string
	// Payload is the JSON description of the work, used for logging.
	Payload() []byte
	Status() TaskStatus
	// Execute runs the task. ctx is cancelled when the pool stops and
	// carries a logger tagged with the task id.
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consumer side of a queue.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producer side of a queue.
type TaskQueueWriter interface {
	// Enqueue adds a task without blocking.
	Enqueue(task Task) error
	Close()
}
