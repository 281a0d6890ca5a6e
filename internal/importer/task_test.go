package importer_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/kanji-api/internal/events"
	"github.com/phrazzld/kanji-api/internal/importer"
	"github.com/phrazzld/kanji-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskFactory_CreateImportTask(t *testing.T) {
	imp, s := newMemoryImporter(t)
	factory := importer.NewTaskFactory(imp, discardLog)
	path := writeFile(t, t.TempDir(), "kanji_class_1.csv", class1CSV)

	tk, err := factory.CreateImportTask(path)
	require.NoError(t, err)
	assert.Equal(t, task.TaskTypeImportFile, tk.Type())
	assert.Equal(t, task.TaskStatusPending, tk.Status())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(tk.Payload(), &payload))
	assert.Equal(t, path, payload["path"])

	require.NoError(t, tk.Execute(context.Background()))
	assert.Equal(t, task.TaskStatusCompleted, tk.Status())

	fileTask, ok := tk.(*importer.FileTask)
	require.True(t, ok)
	assert.Equal(t, 2, fileTask.Report().Created)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = factory.CreateImportTask("notes.txt")
	assert.ErrorIs(t, err, importer.ErrUnsupportedFormat)
}

func TestFileTask_FailureMarksFailed(t *testing.T) {
	imp, _ := newMemoryImporter(t)
	factory := importer.NewTaskFactory(imp, discardLog)

	tk, err := factory.CreateImportTask(filepath.Join(t.TempDir(), "gone.csv"))
	require.NoError(t, err)

	assert.Error(t, tk.Execute(context.Background()))
	assert.Equal(t, task.TaskStatusFailed, tk.Status())
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
}

func (e *recordingEmitter) EmitEvent(_ context.Context, ev *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *recordingEmitter) paths(t *testing.T) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		var p events.ImportRequestedPayload
		require.NoError(t, ev.UnmarshalPayload(&p))
		out = append(out, p.Path)
	}
	return out
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	emitter := &recordingEmitter{}
	w := importer.NewWatcher(dir, emitter, 50*time.Millisecond, discardLog)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "kanji_class_1.csv")
	for i := 0; i < 3; i++ {
		writeFile(t, dir, "kanji_class_1.csv", class1CSV)
	}
	writeFile(t, dir, "notes.md", "ignored")

	require.Eventually(t, func() bool {
		return len(emitter.paths(t)) > 0
	}, 2*time.Second, 20*time.Millisecond)

	// Writes inside one debounce window collapse into a single request.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{path}, emitter.paths(t))
}

func TestWatcher_FeedsWorkerPool(t *testing.T) {
	imp, s := newMemoryImporter(t)
	queue := task.NewTaskQueue(4, discardLog)
	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{WorkerCount: 1}, discardLog)

	emitter := events.NewInMemoryEventEmitter(discardLog)
	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(importer.NewTaskFactory(imp, discardLog), queue, discardLog))

	dir := t.TempDir()
	w := importer.NewWatcher(dir, emitter, 20*time.Millisecond, discardLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start()
	defer pool.Stop()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	writeFile(t, dir, "kanji_class_2.csv", "character,meaning\n火,fire\n")

	require.Eventually(t, func() bool {
		n, err := s.Count(context.Background())
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)
}
