package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/inkpress/internal/cache"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/store"
)

// TaxonomyHandler handles category and tag listing pages.
type TaxonomyHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	sidebar  *cache.SidebarCache
}

// NewTaxonomyHandler creates a new TaxonomyHandler.
func NewTaxonomyHandler(db *sql.DB, renderer *render.Renderer, sidebar *cache.SidebarCache) *TaxonomyHandler {
	return &TaxonomyHandler{
		queries:  store.New(db),
		renderer: renderer,
		sidebar:  sidebar,
	}
}

// TaxonomyListData holds data for a category or tag listing page.
type TaxonomyListData struct {
	Heading    string
	Posts      []store.PostRow
	Pagination Pagination
	Sidebar    *cache.SidebarData
}

// Category renders posts filtered by category name. An unknown name
// renders an empty listing rather than a 404.
func (h *TaxonomyHandler) Category(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	category, err := h.queries.GetCategoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.renderListing(w, r, "Category: "+name, nil, Pagination{}, "/categories/"+url.PathEscape(name))
			return
		}
		logAndInternalError(w, "failed to get category", "error", err, "name", name)
		return
	}

	page := pageParam(r)
	offset := int64(page-1) * postsPerPage

	posts, err := h.queries.ListPostsByCategory(ctx, store.ListPostsByCategoryParams{
		CategoryID: category.ID,
		Limit:      postsPerPage,
		Offset:     offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list posts by category", "error", err)
		return
	}

	total, err := h.queries.CountPostsByCategory(ctx, category.ID)
	if err != nil {
		logAndInternalError(w, "failed to count posts by category", "error", err)
		return
	}

	baseURL := "/categories/" + url.PathEscape(category.Name)
	h.renderListing(w, r, "Category: "+category.Name, posts,
		BuildPagination(page, total, postsPerPage, baseURL, r.URL.Query()), baseURL)
}

// Tag renders posts filtered by tag slug.
func (h *TaxonomyHandler) Tag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	tag, err := h.queries.GetTagBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Tag not found", http.StatusNotFound)
		} else {
			logAndInternalError(w, "failed to get tag", "error", err, "slug", slug)
		}
		return
	}

	page := pageParam(r)
	offset := int64(page-1) * postsPerPage

	posts, err := h.queries.ListPostsByTag(ctx, store.ListPostsByTagParams{
		TagID:  tag.ID,
		Limit:  postsPerPage,
		Offset: offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list posts by tag", "error", err)
		return
	}

	total, err := h.queries.CountPostsByTag(ctx, tag.ID)
	if err != nil {
		logAndInternalError(w, "failed to count posts by tag", "error", err)
		return
	}

	baseURL := "/tags/" + url.PathEscape(tag.Slug)
	h.renderListing(w, r, "Tag: "+tag.Name, posts,
		BuildPagination(page, total, postsPerPage, baseURL, r.URL.Query()), baseURL)
}

func (h *TaxonomyHandler) renderListing(w http.ResponseWriter, r *http.Request, heading string, posts []store.PostRow, pagination Pagination, baseURL string) {
	sidebar, err := h.sidebar.Get(r.Context())
	if err != nil {
		sidebar = &cache.SidebarData{}
	}

	data := TaxonomyListData{
		Heading:    heading,
		Posts:      posts,
		Pagination: pagination,
		Sidebar:    sidebar,
	}

	if err := h.renderer.Render(w, r, "taxonomy_posts", render.TemplateData{
		Title: heading,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render listing page", "error", err, "url", baseURL)
	}
}
