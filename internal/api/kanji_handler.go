package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/kanji-api/internal/api/shared"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/redact"
	"github.com/phrazzld/kanji-api/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// KanjiHandler serves the /api/kanji routes.
type KanjiHandler struct {
	kanjiService service.KanjiService
	logger       *slog.Logger
}

// NewKanjiHandler creates a new KanjiHandler
func NewKanjiHandler(kanjiService service.KanjiService, logger *slog.Logger) *KanjiHandler {
	if kanjiService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("kanjiService cannot be nil for KanjiHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for KanjiHandler")
	}
	return &KanjiHandler{
		kanjiService: kanjiService,
		logger:       logger.With(slog.String("component", "kanji_handler")),
	}
}

// ListKanji handles GET /api/kanji, optionally filtered by ?class.
func (h *KanjiHandler) ListKanji(w http.ResponseWriter, r *http.Request) {
	class, err := getOptionalIntQuery(r, "class")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	items, err := h.kanjiService.ListKanji(r.Context(), class)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list kanji")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, kanjiListToResponse(items))
}

// CreateKanji handles POST /api/kanji.
func (h *KanjiHandler) CreateKanji(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateKanjiRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	req.normalize()

	if err := shared.ValidateRequest(&req); err != nil {
		handleValidatorError(w, r, err)
		return
	}

	item, err := h.kanjiService.CreateKanji(r.Context(), req.Params())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create kanji")
		return
	}

	log.Info("kanji created",
		slog.String("kanji_id", item.ID.String()),
		slog.String("character", item.Character))
	shared.RespondWithJSON(w, r, http.StatusCreated, kanjiToResponse(item))
}

// GetKanji handles GET /api/kanji/{id}.
func (h *KanjiHandler) GetKanji(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	item, err := h.kanjiService.GetKanji(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get kanji")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, kanjiToResponse(item))
}

// ReviewHistory handles GET /api/kanji/{id}/reviews, newest first.
func (h *KanjiHandler) ReviewHistory(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, err := getLimitQuery(r, defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	history, err := h.kanjiService.ReviewHistory(r.Context(), id, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load review history")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, reviewEventsToResponse(history))
}
