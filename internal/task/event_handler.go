package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/kanji-api/internal/events"
)

// ImportTaskFactory builds the task that imports one data file.
type ImportTaskFactory interface {
	CreateImportTask(path string) (Task, error)
}

// TaskFactoryEventHandler implements the events.EventHandler interface: it
// turns import requests into tasks and queues them for the worker pool.
type TaskFactoryEventHandler struct {
	taskFactory ImportTaskFactory
	queue       TaskQueueWriter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and submits them to the provided queue.
func NewTaskFactoryEventHandler(
	taskFactory ImportTaskFactory,
	queue TaskQueueWriter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		queue:       queue,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent processes import request events by creating and queueing
// tasks. Other event types are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeImportRequested {
		return nil
	}

	var payload events.ImportRequestedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.Path == "" {
		return fmt.Errorf("import event %s has no path", event.ID)
	}

	task, err := h.taskFactory.CreateImportTask(payload.Path)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"path", payload.Path,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.queue.Enqueue(task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"path", payload.Path,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"path", payload.Path,
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
