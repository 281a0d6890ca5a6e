package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/phrazzld/kanji-api/internal/api/shared"
	"github.com/phrazzld/kanji-api/internal/events"
	"github.com/phrazzld/kanji-api/internal/importer"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/task"
)

// ImportHandler serves POST /api/import. It does not import anything itself:
// it emits one import request per data file and the worker pool picks them
// up.
type ImportHandler struct {
	dataDir string
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(dataDir string, emitter events.EventEmitter, logger *slog.Logger) *ImportHandler {
	if emitter == nil || logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("emitter and logger are required for ImportHandler")
	}
	return &ImportHandler{
		dataDir: dataDir,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "import_handler")),
	}
}

// RequestImport queues every data file in the data directory, or only the
// one named by ?file.
func (h *ImportHandler) RequestImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	files, ok := h.selectFiles(w, r)
	if !ok {
		return
	}

	for _, path := range files {
		event, err := events.NewEvent(events.TypeImportRequested, events.ImportRequestedPayload{Path: path})
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to queue import", err)
			return
		}
		if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
			if errors.Is(err, task.ErrQueueFull) || errors.Is(err, task.ErrQueueClosed) {
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
					"Import queue is busy, try again", err, shared.WithElevatedLogLevel())
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to queue import", err)
			return
		}
	}

	log.Info("import requested", slog.Int("files", len(files)))
	names := make([]string, 0, len(files))
	for _, path := range files {
		names = append(names, filepath.Base(path))
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, ImportResponse{Files: names})
}

func (h *ImportHandler) selectFiles(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	if name := r.URL.Query().Get("file"); name != "" {
		if filepath.Base(name) != name || !importer.IsDataFile(name) {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"must name a .csv, .yaml or .yml file in the data directory", shared.WithField("file"))
			return nil, false
		}
		return []string{filepath.Join(h.dataDir, name)}, true
	}

	files, err := importer.DataFiles(h.dataDir)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Data directory is not readable", err)
		return nil, false
	}
	return files, true
}
