package task

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

// stubTask runs fn, or succeeds when fn is nil.
type stubTask struct {
	id   uuid.UUID
	path string
	fn   func(ctx context.Context) error
}

func newStubTask(path string, fn func(ctx context.Context) error) *stubTask {
	return &stubTask{id: uuid.New(), path: path, fn: fn}
}

func (s *stubTask) ID() uuid.UUID      { return s.id }
func (s *stubTask) Type() string       { return TaskTypeImportFile }
func (s *stubTask) Payload() []byte    { return []byte(s.path) }
func (s *stubTask) Status() TaskStatus { return TaskStatusPending }

func (s *stubTask) Execute(ctx context.Context) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx)
}
