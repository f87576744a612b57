package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/inkpress/internal/cache"
	"github.com/avolkov/inkpress/internal/imaging"
	"github.com/avolkov/inkpress/internal/middleware"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/store"
	"github.com/avolkov/inkpress/internal/util"
)

// maxUploadSize limits post image and avatar uploads.
const maxUploadSize = 10 << 20 // 10 MB

// maxTagsPerPost caps the number of tags accepted from the post form.
const maxTagsPerPost = 10

// PostHandler handles post listing, detail, and authoring routes.
type PostHandler struct {
	queries   *store.Queries
	renderer  *render.Renderer
	sidebar   *cache.SidebarCache
	processor *imaging.Processor
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(db *sql.DB, renderer *render.Renderer, sidebar *cache.SidebarCache, processor *imaging.Processor) *PostHandler {
	return &PostHandler{
		queries:   store.New(db),
		renderer:  renderer,
		sidebar:   sidebar,
		processor: processor,
	}
}

// PostListData holds data for the post listing and search page.
type PostListData struct {
	Posts      []store.PostRow
	Query      string
	Pagination Pagination
	Sidebar    *cache.SidebarData
}

// List renders the published post listing. With a `q` parameter it runs
// the free-text search across titles, content, category names, tag names
// and author usernames instead.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := pageParam(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	offset := int64(page-1) * postsPerPage

	var (
		posts []store.PostRow
		total int64
		err   error
	)
	if query != "" {
		posts, err = h.queries.SearchPosts(ctx, store.SearchPostsParams{
			Query:  query,
			Limit:  postsPerPage,
			Offset: offset,
		})
		if err == nil {
			total, err = h.queries.CountSearchPosts(ctx, query)
		}
	} else {
		posts, err = h.queries.ListPublishedPosts(ctx, store.ListPublishedPostsParams{
			Limit:  postsPerPage,
			Offset: offset,
		})
		if err == nil {
			total, err = h.queries.CountPublishedPosts(ctx)
		}
	}
	if err != nil {
		logAndInternalError(w, "failed to load posts", "error", err, "query", query)
		return
	}

	sidebar, err := h.sidebar.Get(ctx)
	if err != nil {
		slog.Error("failed to load sidebar", "error", err)
		sidebar = &cache.SidebarData{}
	}

	title := "Posts"
	if query != "" {
		title = "Search: " + query
	}

	if err := h.renderer.Render(w, r, "post_list", render.TemplateData{
		Title: title,
		User:  middleware.GetUser(r),
		Data: PostListData{
			Posts:      posts,
			Query:      query,
			Pagination: BuildPagination(page, total, postsPerPage, RoutePosts, r.URL.Query()),
			Sidebar:    sidebar,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render post list", "error", err)
	}
}

// PostDetailData holds data for the post detail page.
type PostDetailData struct {
	Post     store.PostRow
	Tags     []store.Tag
	Comments []store.CommentRow
	HasLiked bool
	IsAuthor bool
}

// Detail renders a single post with its comments and like state. Posts
// are served by id regardless of status; unpublished posts simply never
// appear in the public listings.
func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	post, ok := requireEntityWithError(w, "post", id, func(id int64) (store.PostRow, error) {
		return h.queries.GetPostRowByID(ctx, id)
	})
	if !ok {
		return
	}

	tags, err := h.queries.GetTagsForPost(ctx, post.ID)
	if err != nil {
		logAndInternalError(w, "failed to load post tags", "error", err, "post_id", post.ID)
		return
	}

	comments, err := h.queries.ListCommentsForPost(ctx, post.ID)
	if err != nil {
		logAndInternalError(w, "failed to load comments", "error", err, "post_id", post.ID)
		return
	}

	user := middleware.GetUser(r)
	var hasLiked bool
	if user != nil {
		hasLiked, err = h.queries.HasLiked(ctx, store.HasLikedParams{PostID: post.ID, UserID: user.ID})
		if err != nil {
			slog.Error("failed to check like state", "error", err, "post_id", post.ID)
		}
	}

	if err := h.renderer.Render(w, r, "post_detail", render.TemplateData{
		Title: post.Title,
		User:  user,
		Data: PostDetailData{
			Post:     post,
			Tags:     tags,
			Comments: comments,
			HasLiked: hasLiked,
			IsAuthor: user != nil && user.ID == post.AuthorID,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render post detail", "error", err)
	}
}

// PostFormData holds data for the post create/edit form.
type PostFormData struct {
	Form       postForm
	Errors     ValidationErrors
	Post       *store.Post
	Categories []store.Category
}

// NewForm renders the post creation form.
func (h *PostHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderPostForm(w, r, "New Post", PostFormData{
		Form:   postForm{Status: store.PostStatusPublished},
		Errors: ValidationErrors{},
	})
}

// Create handles the post creation form submission.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	form, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}

	errs := form.validate()
	status, publishedAt, timeErr := resolveStatus(form.Status, r.FormValue("scheduled_at"))
	if timeErr != "" {
		errs["scheduled_at"] = timeErr
	}
	if !errs.OK() {
		h.renderPostForm(w, r, "New Post", PostFormData{Form: form, Errors: errs})
		return
	}

	ctx := r.Context()
	slug, err := h.uniqueSlug(r, form.Title)
	if err != nil {
		logAndInternalError(w, "failed to generate slug", "error", err)
		return
	}

	image, ok := h.processImageUpload(w, r, "image")
	if !ok {
		return
	}

	now := time.Now()
	post, err := h.queries.CreatePost(ctx, store.CreatePostParams{
		Title:       strings.TrimSpace(form.Title),
		Slug:        slug,
		Content:     form.Content,
		Image:       image,
		Status:      status,
		PublishedAt: publishedAt,
		CategoryID:  util.ParseNullInt64(form.CategoryID),
		AuthorID:    user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	if err := h.savePostTags(r, post.ID, form.Tags); err != nil {
		slog.Error("failed to save post tags", "error", err, "post_id", post.ID)
	}

	h.sidebar.Invalidate(ctx)
	recordInfoEvent(ctx, h.queries, "Post created: "+post.Title,
		map[string]any{"post_id": post.ID, "user_id": user.ID})

	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectPostsID, post.ID), "Post created")
}

// EditForm renders the post edit form. Only the author may edit.
func (h *PostHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireOwnPost(w, r)
	if !ok {
		return
	}

	tags, err := h.queries.GetTagsForPost(r.Context(), post.ID)
	if err != nil {
		logAndInternalError(w, "failed to load post tags", "error", err, "post_id", post.ID)
		return
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}

	var categoryID string
	if post.CategoryID.Valid {
		categoryID = fmt.Sprintf("%d", post.CategoryID.Int64)
	}

	h.renderPostForm(w, r, "Edit Post", PostFormData{
		Form: postForm{
			Title:      post.Title,
			Content:    post.Content,
			CategoryID: categoryID,
			Tags:       strings.Join(names, ", "),
			Status:     post.Status,
		},
		Errors: ValidationErrors{},
		Post:   &post,
	})
}

// Update handles the post edit form submission. Only the author may update.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireOwnPost(w, r)
	if !ok {
		return
	}

	form, ok := h.parsePostForm(w, r)
	if !ok {
		return
	}

	errs := form.validate()
	status, publishedAt, timeErr := resolveStatus(form.Status, r.FormValue("scheduled_at"))
	if timeErr != "" {
		errs["scheduled_at"] = timeErr
	}
	if !errs.OK() {
		h.renderPostForm(w, r, "Edit Post", PostFormData{Form: form, Errors: errs, Post: &post})
		return
	}

	// A published post keeps its original publication time
	if status == store.PostStatusPublished && post.Status == store.PostStatusPublished {
		publishedAt = post.PublishedAt
	}

	image := post.Image
	if uploaded, ok := h.processImageUpload(w, r, "image"); !ok {
		return
	} else if uploaded.Valid {
		image = uploaded
	}

	ctx := r.Context()
	updated, err := h.queries.UpdatePost(ctx, store.UpdatePostParams{
		ID:          post.ID,
		Title:       strings.TrimSpace(form.Title),
		Content:     form.Content,
		Image:       image,
		Status:      status,
		PublishedAt: publishedAt,
		CategoryID:  util.ParseNullInt64(form.CategoryID),
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to update post", "error", err, "post_id", post.ID)
		return
	}

	if err := h.savePostTags(r, updated.ID, form.Tags); err != nil {
		slog.Error("failed to save post tags", "error", err, "post_id", updated.ID)
	}

	h.sidebar.Invalidate(ctx)
	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectPostsID, updated.ID), "Post updated")
}

// DeleteConfirm renders the delete confirmation page. Only the author
// may delete.
func (h *PostHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireOwnPost(w, r)
	if !ok {
		return
	}

	if err := h.renderer.Render(w, r, "post_confirm_delete", render.TemplateData{
		Title: "Delete Post",
		User:  middleware.GetUser(r),
		Data:  post,
	}); err != nil {
		logAndInternalError(w, "failed to render delete confirmation", "error", err)
	}
}

// Delete removes a post along with its comments and likes (cascaded by
// the schema) and its uploaded image files.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.requireOwnPost(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.queries.DeletePost(ctx, post.ID); err != nil {
		logAndInternalError(w, "failed to delete post", "error", err, "post_id", post.ID)
		return
	}

	if post.Image.Valid {
		if id := imageUUID(post.Image.String); id != "" {
			if err := h.processor.DeleteImageFiles(id); err != nil {
				slog.Error("failed to delete post image files", "error", err, "post_id", post.ID)
			}
		}
	}

	h.sidebar.Invalidate(ctx)
	user := middleware.GetUser(r)
	recordInfoEvent(ctx, h.queries, "Post deleted: "+post.Title,
		map[string]any{"post_id": post.ID, "user_id": user.ID})

	flashSuccess(w, r, h.renderer, redirectPosts, "Post deleted")
}

// requireOwnPost loads the {id} post and verifies the signed in user is
// its author. Writes 404/403 responses itself on failure.
func (h *PostHandler) requireOwnPost(w http.ResponseWriter, r *http.Request) (store.Post, bool) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return store.Post{}, false
	}

	post, ok := requireEntityWithError(w, "post", id, func(id int64) (store.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return store.Post{}, false
	}

	user := middleware.GetUser(r)
	if user == nil || user.ID != post.AuthorID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return store.Post{}, false
	}

	return post, true
}

// parsePostForm parses the (possibly multipart) post form.
func (h *PostHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (postForm, bool) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxUploadSize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		flashError(w, r, h.renderer, redirectPosts, "Invalid form data")
		return postForm{}, false
	}

	return postForm{
		Title:      r.FormValue("title"),
		Content:    r.FormValue("content"),
		CategoryID: r.FormValue("category_id"),
		Tags:       r.FormValue("tags"),
		Status:     r.FormValue("status"),
	}, true
}

// renderPostForm renders the shared create/edit form template.
func (h *PostHandler) renderPostForm(w http.ResponseWriter, r *http.Request, title string, data PostFormData) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load categories", "error", err)
		return
	}
	data.Categories = categories

	if err := h.renderer.Render(w, r, "post_form", render.TemplateData{
		Title: title,
		User:  middleware.GetUser(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}

// uniqueSlug slugifies a title and appends a numeric suffix until the
// slug is free.
func (h *PostHandler) uniqueSlug(r *http.Request, title string) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		base = "post"
	}

	slug := base
	for i := 2; ; i++ {
		exists, err := h.queries.PostSlugExists(r.Context(), slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// savePostTags replaces the post's tags from a comma-separated list,
// creating missing tags on the fly.
func (h *PostHandler) savePostTags(r *http.Request, postID int64, tagList string) error {
	ctx := r.Context()
	seen := make(map[string]bool)
	var tagIDs []int64

	for _, raw := range strings.Split(tagList, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if len(tagIDs) >= maxTagsPerPost {
			break
		}

		tag, err := h.queries.GetOrCreateTag(ctx, store.GetOrCreateTagParams{
			Name:      name,
			Slug:      util.Slugify(name),
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	return h.queries.SetPostTags(ctx, postID, tagIDs)
}

// processImageUpload handles an optional image file field. Returns an
// invalid NullString when no file was uploaded. On a processing failure
// it writes the error response and returns ok=false.
func (h *PostHandler) processImageUpload(w http.ResponseWriter, r *http.Request, field string) (sql.NullString, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return sql.NullString{}, true
		}
		flashError(w, r, h.renderer, redirectPosts, "Invalid image upload")
		return sql.NullString{}, false
	}
	defer file.Close()

	ref, err := saveUpload(h.processor, file, header)
	if err != nil {
		slog.Error("failed to process image upload", "error", err, "filename", header.Filename)
		flashError(w, r, h.renderer, redirectPosts, "Could not process the uploaded image")
		return sql.NullString{}, false
	}

	return sql.NullString{String: ref, Valid: true}, true
}

// saveUpload runs an uploaded image through the processor and returns the
// stored reference path ("originals/<uuid>/<filename>").
func saveUpload(processor *imaging.Processor, file multipart.File, header *multipart.FileHeader) (string, error) {
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if !processor.IsImage(processor.DetectMimeType(head[:n])) {
		return "", fmt.Errorf("unsupported file type")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	fileID := uuid.NewString()
	safeName := filepath.Base(header.Filename)

	result, err := processor.ProcessImage(file, fileID, safeName)
	if err != nil {
		return "", err
	}

	if _, err := processor.CreateAllVariants(result.FilePath, fileID, safeName); err != nil {
		slog.Error("failed to create image variants", "error", err, "file_id", fileID)
	}

	return "originals/" + fileID + "/" + safeName, nil
}

// imageUUID extracts the file ID from a stored image reference.
func imageUUID(ref string) string {
	parts := strings.Split(ref, "/")
	if len(parts) == 3 && parts[0] == "originals" {
		return parts[1]
	}
	return ""
}

// resolveStatus maps the form status and optional scheduled time to the
// stored status and published_at. Published posts get the current time;
// scheduled posts need a parseable future time.
func resolveStatus(status, scheduledAt string) (string, sql.NullTime, string) {
	switch status {
	case store.PostStatusDraft:
		return store.PostStatusDraft, sql.NullTime{}, ""
	case store.PostStatusScheduled:
		t, err := time.ParseInLocation("2006-01-02T15:04", scheduledAt, time.Local)
		if err != nil {
			return "", sql.NullTime{}, "A valid schedule time is required"
		}
		if !t.After(time.Now()) {
			return "", sql.NullTime{}, "Schedule time must be in the future"
		}
		return store.PostStatusScheduled, sql.NullTime{Time: t, Valid: true}, ""
	default:
		return store.PostStatusPublished, sql.NullTime{Time: time.Now(), Valid: true}, ""
	}
}
