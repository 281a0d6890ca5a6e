package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/phrazzld/kanji-api/internal/events"
)

// DefaultDebounce is how long the watcher waits after the last change to a
// file before requesting its import.
const DefaultDebounce = 200 * time.Millisecond

// Watcher turns changes to data files into import.requested events.
type Watcher struct {
	dir      string
	emitter  events.EventEmitter
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for the top level of dir.
func NewWatcher(dir string, emitter events.EventEmitter, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      dir,
		emitter:  emitter,
		debounce: debounce,
		logger:   logger.With(slog.String("component", "import_watcher")),
	}
}

// Run watches until ctx is cancelled. Bursts of writes to the same file
// collapse into one request.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watcher: started", slog.String("dir", w.dir))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			w.flush(ctx, pending)
			pending = make(map[string]struct{})

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !IsDataFile(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		event, err := events.NewEvent(events.TypeImportRequested, events.ImportRequestedPayload{Path: path})
		if err != nil {
			w.logger.Error("watcher: build event failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if err := w.emitter.EmitEvent(ctx, event); err != nil {
			w.logger.Warn("watcher: import request failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		w.logger.Debug("watcher: import requested", slog.String("path", path))
	}
}
