package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubImportFactory struct {
	paths []string
	err   error
}

func (f *stubImportFactory) CreateImportTask(path string) (Task, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return newStubTask(path, nil), nil
}

func TestTaskFactoryEventHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	importEvent := func(t *testing.T, path string) *events.Event {
		t.Helper()
		ev, err := events.NewEvent(events.TypeImportRequested, events.ImportRequestedPayload{Path: path})
		require.NoError(t, err)
		return ev
	}

	t.Run("queues an import task", func(t *testing.T) {
		factory := &stubImportFactory{}
		queue := NewTaskQueue(1, logger)
		h := NewTaskFactoryEventHandler(factory, queue, logger)

		require.NoError(t, h.HandleEvent(ctx, importEvent(t, "data/kanji_class_1.csv")))

		assert.Equal(t, []string{"data/kanji_class_1.csv"}, factory.paths)
		queued := <-queue.GetChannel()
		assert.Equal(t, TaskTypeImportFile, queued.Type())
		assert.Equal(t, []byte("data/kanji_class_1.csv"), queued.Payload())
	})

	t.Run("ignores other events", func(t *testing.T) {
		factory := &stubImportFactory{}
		h := NewTaskFactoryEventHandler(factory, NewTaskQueue(1, logger), logger)

		ev, err := events.NewEvent(events.TypeKanjiCreated, events.KanjiCreatedPayload{})
		require.NoError(t, err)

		assert.NoError(t, h.HandleEvent(ctx, ev))
		assert.Empty(t, factory.paths)
	})

	t.Run("factory error", func(t *testing.T) {
		factory := &stubImportFactory{err: errors.New("no such file")}
		h := NewTaskFactoryEventHandler(factory, NewTaskQueue(1, logger), logger)

		err := h.HandleEvent(ctx, importEvent(t, "missing.csv"))
		assert.ErrorContains(t, err, "no such file")
	})

	t.Run("queue full", func(t *testing.T) {
		queue := NewTaskQueue(1, logger)
		h := NewTaskFactoryEventHandler(&stubImportFactory{}, queue, logger)

		require.NoError(t, h.HandleEvent(ctx, importEvent(t, "a.csv")))
		assert.ErrorIs(t, h.HandleEvent(ctx, importEvent(t, "b.csv")), ErrQueueFull)
	})

	t.Run("missing path", func(t *testing.T) {
		h := NewTaskFactoryEventHandler(&stubImportFactory{}, NewTaskQueue(1, logger), logger)
		assert.Error(t, h.HandleEvent(ctx, importEvent(t, "")))
	})

	t.Run("bad payload", func(t *testing.T) {
		h := NewTaskFactoryEventHandler(&stubImportFactory{}, NewTaskQueue(1, logger), logger)
		ev := &events.Event{ID: uuid.New(), Type: events.TypeImportRequested, Payload: []byte("{")}
		assert.Error(t, h.HandleEvent(ctx, ev))
	})
}
