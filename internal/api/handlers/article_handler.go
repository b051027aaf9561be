package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/teamkb-be/internal/auth"
	"github.com/isdelr/teamkb-be/internal/models"
	"github.com/isdelr/teamkb-be/internal/services"
)

// SearchObserver is told the outcome of every search.
type SearchObserver interface {
	ObserveSearch(matcher string, hits int, err error)
}

// ArticleHandler handles HTTP requests for articles.
type ArticleHandler struct {
	service  services.ArticleServiceProvider
	observer SearchObserver
}

// NewArticleHandler creates a new ArticleHandler. observer may be nil.
func NewArticleHandler(service services.ArticleServiceProvider, observer SearchObserver) *ArticleHandler {
	return &ArticleHandler{service: service, observer: observer}
}

// ArticlePayload is the body of create and update requests. TeamID is
// ignored on update.
type ArticlePayload struct {
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Metadata models.Metadata `json:"metadata,omitempty"`
	TeamID   *string         `json:"teamId,omitempty"`
}

func (p ArticlePayload) input() services.ArticleInput {
	in := services.ArticleInput{Title: p.Title, Content: p.Content, Metadata: p.Metadata}
	if p.TeamID != nil {
		in.TeamID = *p.TeamID
	}
	return in
}

// Create stores a new article.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	if !requireCaller(w, r, caller, "Failed to create article", nil) {
		return
	}
	var payload ArticlePayload
	if err := decode(r, &payload); err != nil {
		writeError(w, r, err, "Failed to create article", map[string]string{"user_id": caller.UserID})
		return
	}

	article, err := h.service.CreateArticle(r.Context(), caller, payload.input())
	if err != nil {
		fields := map[string]string{"user_id": caller.UserID}
		if payload.TeamID != nil {
			fields["team_id"] = *payload.TeamID
		}
		writeError(w, r, err, "Failed to create article", fields)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// List returns the articles in the requested scope.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	teamID := r.URL.Query().Get("teamId")
	category := r.URL.Query().Get("category")

	articles, err := h.service.ListArticles(r.Context(), caller, teamID, category)
	if err != nil {
		writeError(w, r, err, "Failed to fetch articles", map[string]string{"user_id": caller.UserID, "team_id": teamID})
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// Search runs a text search in the requested scope.
func (h *ArticleHandler) Search(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	query := r.URL.Query().Get("q")
	teamID := r.URL.Query().Get("teamId")

	articles, err := h.service.SearchArticles(r.Context(), caller, query, teamID)
	if h.observer != nil {
		h.observer.ObserveSearch(h.service.MatcherName(), len(articles), err)
	}
	if err != nil {
		writeError(w, r, err, "Failed to search articles", map[string]string{"user_id": caller.UserID, "team_id": teamID})
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// Get returns one article.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	id := chi.URLParam(r, "id")

	article, err := h.service.GetArticle(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err, "Failed to fetch article", map[string]string{"user_id": caller.UserID, "article_id": id})
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// Update replaces an article's title, content and metadata.
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	id := chi.URLParam(r, "id")
	fields := map[string]string{"user_id": caller.UserID, "article_id": id}
	if !requireCaller(w, r, caller, "Failed to update article", fields) {
		return
	}

	var payload ArticlePayload
	if err := decode(r, &payload); err != nil {
		writeError(w, r, err, "Failed to update article", fields)
		return
	}
	in := payload.input()
	in.TeamID = ""

	article, err := h.service.UpdateArticle(r.Context(), caller, id, in)
	if err != nil {
		writeError(w, r, err, "Failed to update article", fields)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// Delete removes an article and answers with an empty 200.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteArticle(r.Context(), caller, id); err != nil {
		writeError(w, r, err, "Failed to delete article", map[string]string{"user_id": caller.UserID, "article_id": id})
		return
	}
	w.WriteHeader(http.StatusOK)
}
