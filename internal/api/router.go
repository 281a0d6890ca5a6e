package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Kanji  *KanjiHandler
	Review *ReviewHandler
	Stats  *StatsHandler
	Import *ImportHandler
	Events http.Handler
}

// Mount registers the API routes on r. Every route also answers with a
// trailing slash, which is how the React client calls them.
func (h Handlers) Mount(r chi.Router) {
	route := func(method, pattern string, fn http.HandlerFunc) {
		r.Method(method, pattern, fn)
		r.Method(method, pattern+"/", fn)
	}

	route(http.MethodGet, "/kanji", h.Kanji.ListKanji)
	route(http.MethodPost, "/kanji", h.Kanji.CreateKanji)
	route(http.MethodGet, "/kanji/{id}", h.Kanji.GetKanji)
	route(http.MethodGet, "/kanji/{id}/reviews", h.Kanji.ReviewHistory)

	route(http.MethodGet, "/review", h.Review.NextDue)
	route(http.MethodPost, "/review", h.Review.SubmitReview)

	route(http.MethodGet, "/stats", h.Stats.GetStats)

	if h.Import != nil {
		route(http.MethodPost, "/import", h.Import.RequestImport)
	}
	if h.Events != nil {
		r.Method(http.MethodGet, "/events", h.Events)
	}
}
