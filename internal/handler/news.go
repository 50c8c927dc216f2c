package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/news-aggregator/internal/apperror"
	"github.com/sakif/news-aggregator/internal/auth"
	"github.com/sakif/news-aggregator/internal/model"
	"github.com/sakif/news-aggregator/internal/service"
)

// NewsHandler exposes the article surface: public category feeds and
// search, the authenticated personalized feed and saved-article
// operations, and the admin-only ingestion trigger.
type NewsHandler struct {
	feeds  *service.FeedService
	saved  *service.SavedService
	ingest *service.IngestService
	logger *slog.Logger
}

// NewNewsHandler creates a NewsHandler.
func NewNewsHandler(
	feeds *service.FeedService,
	saved *service.SavedService,
	ingest *service.IngestService,
	logger *slog.Logger,
) *NewsHandler {
	return &NewsHandler{
		feeds:  feeds,
		saved:  saved,
		ingest: ingest,
		logger: logger,
	}
}

// personalizedResponse is returned when the user has no preferences yet —
// a 200 with a message, distinguishable from an empty-but-configured feed.
type personalizedResponse struct {
	Message string          `json:"message"`
	News    []model.Article `json:"news"`
}

// HandlePersonalized responds to GET /news/personalized (auth).
func (h *NewsHandler) HandlePersonalized(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	articles, hasPreferences, err := h.feeds.Personalized(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("loading personalized feed",
			slog.String("userId", identity.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	if !hasPreferences {
		writeJSON(w, http.StatusOK, personalizedResponse{
			Message: "no preferences configured",
			News:    []model.Article{},
		})
		return
	}

	writeJSON(w, http.StatusOK, articles)
}

// HandleByCategory responds to GET /news/category/{categoryId} (public).
func (h *NewsHandler) HandleByCategory(w http.ResponseWriter, r *http.Request) {
	articles, err := h.feeds.ByCategory(r.Context(), chi.URLParam(r, "categoryId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HandleSearch responds to GET /news/search?query= (public).
func (h *NewsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	articles, err := h.feeds.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HandleSave responds to POST /news/save/{newsId} (auth).
func (h *NewsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	saved, err := h.saved.Save(r.Context(), identity.UserID, chi.URLParam(r, "newsId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// HandleListSaved responds to GET /news/saved (auth).
func (h *NewsHandler) HandleListSaved(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	articles, err := h.saved.List(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HandleDeleteSaved responds to DELETE /news/saved/{newsId} (auth).
func (h *NewsHandler) HandleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.saved.Remove(r.Context(), identity.UserID, chi.URLParam(r, "newsId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFetch responds to POST /news/fetch (admin). It triggers one
// ingestion run synchronously and reports the outcome; per-category
// failures are listed in the body, not surfaced as a request failure.
func (h *NewsHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingest.Run(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
