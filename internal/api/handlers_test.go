package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/api"
	"github.com/phrazzld/kanji-api/internal/api/shared"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/domain/srs"
	"github.com/phrazzld/kanji-api/internal/events"
	"github.com/phrazzld/kanji-api/internal/mocks"
	"github.com/phrazzld/kanji-api/internal/service/kanji_review"
	"github.com/phrazzld/kanji-api/internal/store"
	"github.com/phrazzld/kanji-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  http.Handler
	kanji   *mocks.MockKanjiService
	reviews *mocks.MockReviewService
	stats   *mocks.MockStatsService
	emitter *events.InMemoryEventEmitter
	dataDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := &testServer{
		kanji:   &mocks.MockKanjiService{},
		reviews: &mocks.MockReviewService{},
		stats:   &mocks.MockStatsService{},
		emitter: events.NewInMemoryEventEmitter(log),
		dataDir: t.TempDir(),
	}

	r := chi.NewRouter()
	r.Route("/api", api.Handlers{
		Kanji:  api.NewKanjiHandler(ts.kanji, log),
		Review: api.NewReviewHandler(ts.reviews, log),
		Stats:  api.NewStatsHandler(ts.stats, log),
		Import: api.NewImportHandler(ts.dataDir, ts.emitter, log),
	}.Mount)
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func sampleItem() *domain.KanjiItem {
	class := 1
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.KanjiItem{
		ID:           uuid.New(),
		Character:    "日",
		Meaning:      "sun, day",
		GradeClass:   &class,
		Difficulty:   domain.DifficultyEasy,
		Onyomi:       []string{"ニチ", "ジツ"},
		Kunyomi:      []string{"ひ"},
		Examples:     []domain.Example{{Japanese: "日本", Reading: "にほん", Meaning: "Japan"}},
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestListKanji(t *testing.T) {
	ts := newTestServer(t)
	ts.kanji.Items = []*domain.KanjiItem{sampleItem()}

	var gotClass *int
	ts.kanji.ListKanjiFn = func(_ context.Context, class *int) ([]*domain.KanjiItem, error) {
		gotClass = class
		return ts.kanji.Items, nil
	}

	w := ts.do(t, http.MethodGet, "/api/kanji/?class=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotClass)
	assert.Equal(t, 1, *gotClass)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "日", got[0]["character"])
	assert.Equal(t, map[string]interface{}{
		"onyomi":  []interface{}{"ニチ", "ジツ"},
		"kunyomi": []interface{}{"ひ"},
	}, got[0]["readings"])
	assert.Nil(t, got[0]["last_reviewed_at"])

	w = ts.do(t, http.MethodGet, "/api/kanji?class=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "class", decodeError(t, w).Field)

	ts.kanji.ListKanjiFn = nil
	ts.kanji.Err = domain.NewValidationError("grade_class", "must be between 1 and 6", nil)
	w = ts.do(t, http.MethodGet, "/api/kanji?class=9", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateKanji(t *testing.T) {
	ts := newTestServer(t)
	ts.kanji.Item = sampleItem()

	body := `{
		"character": "日",
		"meaning": "sun, day",
		"difficulty": "easy",
		"grade_class": 1,
		"onyomi": ["ニチ", "ジツ"],
		"kunyomi": ["ひ"],
		"example_data": [
			{"japanese": "日本", "reading": "にほん", "meaning": "Japan"},
			{"japanese": "", "reading": "", "meaning": ""}
		]
	}`
	w := ts.do(t, http.MethodPost, "/api/kanji/", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Len(t, ts.kanji.CreatedParams, 1)
	params := ts.kanji.CreatedParams[0]
	assert.Equal(t, "日", params.Character)
	assert.Equal(t, domain.DifficultyEasy, params.Difficulty)
	assert.Equal(t, []domain.Example{{Japanese: "日本", Reading: "にほん", Meaning: "Japan"}}, params.Examples)

	var got api.KanjiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, ts.kanji.Item.ID, got.ID)
	assert.Equal(t, 0, got.MasteryLevel)
}

func TestCreateKanji_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantField  string
	}{
		{
			name:       "malformed json",
			body:       `{"character": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing meaning",
			body:       `{"character": "日"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "meaning",
		},
		{
			name:       "class out of range",
			body:       `{"character": "日", "meaning": "sun", "grade_class": 7}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "grade_class",
		},
		{
			name:       "example without meaning",
			body:       `{"character": "日", "meaning": "sun", "examples": [{"japanese": "日本"}]}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "examples[0].meaning",
		},
		{
			name:       "duplicate character",
			body:       `{"character": "日", "meaning": "sun"}`,
			serviceErr: domain.NewValidationError("character", "already exists", store.ErrCharacterExists),
			wantStatus: http.StatusBadRequest,
			wantField:  "character",
		},
		{
			name:       "store failure",
			body:       `{"character": "日", "meaning": "sun"}`,
			serviceErr: errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.kanji.Err = tc.serviceErr

			w := ts.do(t, http.MethodPost, "/api/kanji", tc.body)
			assert.Equal(t, tc.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tc.wantField, body.Field)
			assert.NotContains(t, body.Error, "connection refused")
		})
	}
}

func TestGetKanjiAndHistory(t *testing.T) {
	ts := newTestServer(t)
	item := sampleItem()
	ts.kanji.Item = item
	ts.kanji.History = []*domain.ReviewEvent{{
		ID: uuid.New(), KanjiID: item.ID, Result: domain.ReviewCorrect,
		PreviousLevel: 0, NewLevel: 1, ReviewedAt: item.CreatedAt, NextReviewAt: item.CreatedAt.Add(24 * time.Hour),
	}}

	w := ts.do(t, http.MethodGet, "/api/kanji/"+item.ID.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	var gotLimit int
	ts.kanji.ReviewHistoryFn = func(_ context.Context, _ uuid.UUID, limit int) ([]*domain.ReviewEvent, error) {
		gotLimit = limit
		return ts.kanji.History, nil
	}
	w = ts.do(t, http.MethodGet, "/api/kanji/"+item.ID.String()+"/reviews?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, gotLimit)
	var history []api.ReviewEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "correct", history[0].Result)

	w = ts.do(t, http.MethodGet, "/api/kanji/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", decodeError(t, w).Field)

	ts.kanji.Err = store.ErrKanjiNotFound
	ts.kanji.Item = nil
	w = ts.do(t, http.MethodGet, "/api/kanji/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNextDue(t *testing.T) {
	ts := newTestServer(t)
	ts.reviews.Item = sampleItem()

	w := ts.do(t, http.MethodGet, "/api/review/?level=0", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ts.reviews.Filters, 1)
	require.NotNil(t, ts.reviews.Filters[0].MasteryLevel)
	assert.Equal(t, 0, *ts.reviews.Filters[0].MasteryLevel)
	assert.Nil(t, ts.reviews.Filters[0].GradeClass)

	ts.reviews.Item = nil
	ts.reviews.Err = kanji_review.ErrNoItemsDue
	w = ts.do(t, http.MethodGet, "/api/review", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	ts.reviews.Err = domain.NewValidationError("filter", "level and class are mutually exclusive", domain.ErrInvalidFilter)
	w = ts.do(t, http.MethodGet, "/api/review?level=1&class=2", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "filter", decodeError(t, w).Field)
}

func TestSubmitReview(t *testing.T) {
	item := sampleItem()

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCalls  int
	}{
		{"correct", `{"kanji_id": "` + item.ID.String() + `", "result": "correct"}`, nil, http.StatusOK, 1},
		{"missing result", `{"kanji_id": "` + item.ID.String() + `"}`, nil, http.StatusBadRequest, 0},
		{"bad id", `{"kanji_id": "42", "result": "correct"}`, nil, http.StatusBadRequest, 0},
		{
			"unknown result",
			`{"kanji_id": "` + item.ID.String() + `", "result": "easy"}`,
			domain.NewValidationError("result", "must be correct, hard or incorrect", domain.ErrInvalidReviewResult),
			http.StatusBadRequest, 1,
		},
		{"not found", `{"kanji_id": "` + item.ID.String() + `", "result": "hard"}`, store.ErrKanjiNotFound, http.StatusNotFound, 1},
		{"contention", `{"kanji_id": "` + item.ID.String() + `", "result": "hard"}`, kanji_review.ErrStoreContention, http.StatusServiceUnavailable, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.reviews.Item = item
			ts.reviews.Err = tc.serviceErr

			w := ts.do(t, http.MethodPost, "/api/review", tc.body)
			assert.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			assert.Len(t, ts.reviews.Submitted, tc.wantCalls)
		})
	}
}

func TestGetStats(t *testing.T) {
	ts := newTestServer(t)
	ts.stats.Result = srs.Stats{TotalKanji: 2, Mastered: 1, Learning: 1, MasteryProgress: 50}

	w := ts.do(t, http.MethodGet, "/api/stats/", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got srs.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.TotalKanji)
	assert.InDelta(t, 50.0, got.MasteryProgress, 0.001)

	ts.stats.Err = errors.New("boom")
	w = ts.do(t, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequestImport(t *testing.T) {
	ts := newTestServer(t)
	for _, name := range []string{"kanji_class_2.csv", "kanji_class_1.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(ts.dataDir, name), []byte("character,meaning\n"), 0o600))
	}

	var paths []string
	ts.emitter.RegisterHandler(events.EventHandlerFunc(func(_ context.Context, ev *events.Event) error {
		var p events.ImportRequestedPayload
		require.NoError(t, ev.UnmarshalPayload(&p))
		paths = append(paths, p.Path)
		return nil
	}))

	w := ts.do(t, http.MethodPost, "/api/import", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	var resp api.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"kanji_class_1.csv", "kanji_class_2.csv"}, resp.Files)
	assert.Equal(t, []string{
		filepath.Join(ts.dataDir, "kanji_class_1.csv"),
		filepath.Join(ts.dataDir, "kanji_class_2.csv"),
	}, paths)

	paths = nil
	w = ts.do(t, http.MethodPost, "/api/import?file=kanji_class_2.csv", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{filepath.Join(ts.dataDir, "kanji_class_2.csv")}, paths)

	w = ts.do(t, http.MethodPost, "/api/import?file=../secrets.csv", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file", decodeError(t, w).Field)
}

func TestRequestImport_QueueFull(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(ts.dataDir, "kanji_class_1.csv"), []byte("character\n"), 0o600))
	ts.emitter.RegisterHandler(events.EventHandlerFunc(func(context.Context, *events.Event) error {
		return task.ErrQueueFull
	}))

	w := ts.do(t, http.MethodPost, "/api/import", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTrailingSlashAndMethods(t *testing.T) {
	ts := newTestServer(t)
	ts.kanji.Items = []*domain.KanjiItem{}

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/kanji", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/kanji/", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, ts.do(t, http.MethodDelete, "/api/kanji", "").Code)

	var buf bytes.Buffer
	buf.WriteString(strings.Repeat("x", shared.MaxBodyBytes+1))
	w := ts.do(t, http.MethodPost, "/api/kanji", `{"character": "`+buf.String()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
