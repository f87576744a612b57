package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/avolkov/inkpress/internal/middleware"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/store"
)

// LikeHandler handles like toggling.
type LikeHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewLikeHandler creates a new LikeHandler.
func NewLikeHandler(db *sql.DB, renderer *render.Renderer) *LikeHandler {
	return &LikeHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// Toggle handles POST /posts/{id}/like. Signing in is required; a second
// toggle removes the like. The UNIQUE(post_id, user_id) constraint keeps
// concurrent requests from creating duplicates.
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
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

	liked, err := h.queries.ToggleLike(ctx, store.ToggleLikeParams{
		PostID:    post.ID,
		UserID:    user.ID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to toggle like", "error", err, "post_id", post.ID)
		return
	}

	detailURL := fmt.Sprintf(redirectPostsID, post.ID)
	if liked {
		flashSuccess(w, r, h.renderer, detailURL, "Post liked")
	} else {
		flashAndRedirect(w, r, h.renderer, detailURL, "Like removed", "info")
	}
}
