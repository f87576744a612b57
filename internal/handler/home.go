package handler

import (
	"database/sql"
	"net/http"

	"github.com/avolkov/inkpress/internal/middleware"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/store"
)

// HomeHandler renders the home page aggregation.
type HomeHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(db *sql.DB, renderer *render.Renderer) *HomeHandler {
	return &HomeHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// HomeData holds the three home page sections.
type HomeData struct {
	Trending   []store.PostRow
	Latest     []store.PostRow
	TopAuthors []store.TopAuthorRow
}

// Home renders the landing page: up to three trending posts, the six
// latest published posts, and the four most active authors. The sections
// are computed fresh on every request.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	trending, err := h.queries.ListTrendingPosts(ctx, trendingTagName, homeTrendingLimit)
	if err != nil {
		logAndInternalError(w, "failed to load trending posts", "error", err)
		return
	}

	latest, err := h.queries.ListLatestPosts(ctx, homeLatestLimit)
	if err != nil {
		logAndInternalError(w, "failed to load latest posts", "error", err)
		return
	}

	authors, err := h.queries.ListTopAuthors(ctx, homeTopAuthorsLimit)
	if err != nil {
		logAndInternalError(w, "failed to load top authors", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "home", render.TemplateData{
		Title: "Home",
		User:  middleware.GetUser(r),
		Data: HomeData{
			Trending:   trending,
			Latest:     latest,
			TopAuthors: authors,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render home page", "error", err)
	}
}

// About renders the static about page.
func (h *HomeHandler) About(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "about", render.TemplateData{
		Title: "About",
		User:  middleware.GetUser(r),
	}); err != nil {
		logAndInternalError(w, "failed to render about page", "error", err)
	}
}
