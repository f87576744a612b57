package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avolkov/inkpress/internal/middleware"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/store"
)

// CommentHandler handles comment submission.
type CommentHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(db *sql.DB, renderer *render.Renderer) *CommentHandler {
	return &CommentHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// Create handles POST /posts/{id}: a signed in user submitting a comment
// on the detail page. The post must exist; empty comments are rejected
// with a flash back to the detail page.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	post, ok := requireEntityWithError(w, "post", id, func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(ctx, id)
	})
	if !ok {
		return
	}

	detailURL := fmt.Sprintf(redirectPostsID, post.ID)
	if !parseFormOrRedirect(w, r, h.renderer, detailURL) {
		return
	}

	body := strings.TrimSpace(r.FormValue("body"))
	if body == "" {
		flashError(w, r, h.renderer, detailURL, "Comment cannot be empty")
		return
	}

	if _, err := h.queries.CreateComment(ctx, store.CreateCommentParams{
		PostID:    post.ID,
		UserID:    user.ID,
		Body:      body,
		CreatedAt: time.Now(),
	}); err != nil {
		logAndInternalError(w, "failed to create comment", "error", err, "post_id", post.ID)
		return
	}

	flashSuccess(w, r, h.renderer, detailURL, "Comment added")
}
