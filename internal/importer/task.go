package importer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/task"
)

// FileTask imports one data file on the worker pool.
type FileTask struct {
	id       uuid.UUID
	path     string
	importer *Importer
	logger   *slog.Logger

	mu     sync.Mutex
	status task.TaskStatus
	report *Report
}

var _ task.Task = (*FileTask)(nil)

// ID returns the task's unique identifier
func (t *FileTask) ID() uuid.UUID { return t.id }

// Type returns task.TaskTypeImportFile.
func (t *FileTask) Type() string { return task.TaskTypeImportFile }

// Payload returns the file path as JSON.
func (t *FileTask) Payload() []byte {
	b, _ := json.Marshal(map[string]string{"path": t.path})
	return b
}

// Status returns the current task status
func (t *FileTask) Status() task.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Report returns the import report once the task has completed.
func (t *FileTask) Report() *Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.report
}

// Execute runs the import.
func (t *FileTask) Execute(ctx context.Context) error {
	t.setStatus(task.TaskStatusProcessing, nil)

	report, err := t.importer.ImportFile(ctx, t.path)
	if err != nil {
		t.setStatus(task.TaskStatusFailed, nil)
		return err
	}

	t.setStatus(task.TaskStatusCompleted, report)
	t.logger.Info("import task completed",
		slog.String("task_id", t.id.String()),
		slog.String("path", t.path),
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped))
	return nil
}

func (t *FileTask) setStatus(status task.TaskStatus, report *Report) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	if report != nil {
		t.report = report
	}
}

// TaskFactory builds FileTasks for an Importer.
type TaskFactory struct {
	importer *Importer
	logger   *slog.Logger
}

var _ task.ImportTaskFactory = (*TaskFactory)(nil)

// NewTaskFactory creates a factory bound to importer.
func NewTaskFactory(importer *Importer, logger *slog.Logger) *TaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactory{
		importer: importer,
		logger:   logger.With(slog.String("component", "import_task")),
	}
}

// CreateImportTask implements task.ImportTaskFactory.
func (f *TaskFactory) CreateImportTask(path string) (task.Task, error) {
	if !IsDataFile(path) {
		return nil, ErrUnsupportedFormat
	}
	return &FileTask{
		id:       uuid.New(),
		path:     path,
		importer: f.importer,
		logger:   f.logger,
		status:   task.TaskStatusPending,
	}, nil
}
