package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/inkpress/internal/auth"
	"github.com/avolkov/inkpress/internal/imaging"
	"github.com/avolkov/inkpress/internal/middleware"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/store"
)

// ProfileHandler handles public profile pages and profile management.
type ProfileHandler struct {
	queries   *store.Queries
	renderer  *render.Renderer
	processor *imaging.Processor
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(db *sql.DB, renderer *render.Renderer, processor *imaging.Processor) *ProfileHandler {
	return &ProfileHandler{
		queries:   store.New(db),
		renderer:  renderer,
		processor: processor,
	}
}

// ProfileData holds data for the public profile page.
type ProfileData struct {
	Profile    store.User
	Posts      []store.PostRow
	Pagination Pagination
	IsSelf     bool
}

// View renders a public profile page with the author's published posts.
func (h *ProfileHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "username")

	profile, err := h.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			logAndInternalError(w, "failed to get user", "error", err, "username", username)
		}
		return
	}

	page := pageParam(r)
	offset := int64(page-1) * postsPerPage

	posts, err := h.queries.ListPostsByAuthor(ctx, store.ListPostsByAuthorParams{
		AuthorID: profile.ID,
		Limit:    postsPerPage,
		Offset:   offset,
	})
	if err != nil {
		logAndInternalError(w, "failed to list posts by author", "error", err)
		return
	}

	total, err := h.queries.CountPostsByAuthor(ctx, profile.ID)
	if err != nil {
		logAndInternalError(w, "failed to count posts by author", "error", err)
		return
	}

	user := middleware.GetUser(r)
	data := ProfileData{
		Profile:    profile,
		Posts:      posts,
		Pagination: BuildPagination(page, total, postsPerPage, fmt.Sprintf("/profile/%s", profile.Username), r.URL.Query()),
		IsSelf:     user != nil && user.ID == profile.ID,
	}

	if err := h.renderer.Render(w, r, "profile", render.TemplateData{
		Title: profile.DisplayName(),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render profile page", "error", err)
	}
}

// MyProfile redirects the signed in user to their own profile page.
func (h *ProfileHandler) MyProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/profile/"+user.Username, http.StatusSeeOther)
}

// ProfileEditData holds data for the profile edit form.
type ProfileEditData struct {
	Form   profileForm
	Errors ValidationErrors
	User   store.User
}

// requireSelf rejects edit requests for any profile but the caller's own.
func requireSelf(w http.ResponseWriter, r *http.Request, user *store.User) bool {
	if !strings.EqualFold(chi.URLParam(r, "username"), user.Username) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// EditForm renders the profile edit form for the signed in user.
func (h *ProfileHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !requireSelf(w, r, user) {
		return
	}
	form := profileForm{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
	}
	h.renderEditForm(w, r, ProfileEditData{Form: form, Errors: ValidationErrors{}, User: *user})
}

// Edit handles the profile edit form submission.
func (h *ProfileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(r)
	if !requireSelf(w, r, user) {
		return
	}

	form, avatarRef, ok := h.parseProfileForm(w, r)
	if !ok {
		return
	}

	errs := form.validate()

	if errs.Get("email") == "" && !strings.EqualFold(form.Email, user.Email) {
		if other, err := h.queries.GetUserByEmail(ctx, form.Email); err == nil && other.ID != user.ID {
			errs["email"] = "Email is already registered"
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to check email", "error", err)
			return
		}
	}

	if !errs.OK() {
		h.renderEditForm(w, r, ProfileEditData{Form: form, Errors: errs, User: *user})
		return
	}

	updated, err := h.queries.UpdateUser(ctx, store.UpdateUserParams{
		ID:        user.ID,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Bio:       form.Bio,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to update user", "error", err)
		return
	}

	if avatarRef != "" {
		oldAvatar := user.Avatar
		if err := h.queries.UpdateUserAvatar(ctx, store.UpdateUserAvatarParams{
			ID:        user.ID,
			Avatar:    avatarRef,
			UpdatedAt: time.Now(),
		}); err != nil {
			logAndInternalError(w, "failed to update avatar", "error", err)
			return
		}
		if oldAvatar.Valid {
			if id := imageUUID(oldAvatar.String); id != "" {
				if err := h.processor.DeleteImageFiles(id); err != nil {
					slog.Warn("failed to delete old avatar files", "error", err)
				}
			}
		}
	}

	slog.Info("profile updated", "user_id", updated.ID)
	flashSuccess(w, r, h.renderer, "/profile/"+updated.Username, "Profile updated")
}

// PasswordFormData holds data for the password change form.
type PasswordFormData struct {
	Errors ValidationErrors
}

// PasswordForm renders the password change form.
func (h *ProfileHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	h.renderPasswordForm(w, r, PasswordFormData{Errors: ValidationErrors{}})
}

// ChangePassword handles the password change form submission.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(r)

	if !parseFormOrRedirect(w, r, h.renderer, RouteChangePassword) {
		return
	}

	form := passwordChangeForm{
		Current: r.FormValue("current_password"),
		New:     r.FormValue("new_password"),
		Confirm: r.FormValue("confirm"),
	}

	errs := form.validate()

	if errs.Get("current_password") == "" {
		valid, err := auth.CheckPassword(form.Current, user.PasswordHash)
		if err != nil {
			logAndInternalError(w, "password check error", "error", err)
			return
		}
		if !valid {
			errs["current_password"] = "Current password is incorrect"
		}
	}

	if !errs.OK() {
		h.renderPasswordForm(w, r, PasswordFormData{Errors: errs})
		return
	}

	hash, err := auth.HashPassword(form.New)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	if err := h.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		ID:           user.ID,
		PasswordHash: hash,
		UpdatedAt:    time.Now(),
	}); err != nil {
		logAndInternalError(w, "failed to update password", "error", err)
		return
	}

	slog.Info("password changed", "user_id", user.ID)
	recordInfoEvent(ctx, h.queries, "Password changed: "+user.Username,
		map[string]any{"user_id": user.ID})

	flashSuccess(w, r, h.renderer, "/profile/"+user.Username, "Password changed")
}

// parseProfileForm parses the profile edit submission, which may be
// multipart when an avatar is attached. Returns the form, the stored
// avatar reference ("" when no file was uploaded), and whether parsing
// succeeded.
func (h *ProfileHandler) parseProfileForm(w http.ResponseWriter, r *http.Request) (profileForm, string, bool) {
	var avatarRef string

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			flashError(w, r, h.renderer, RouteProfileEdit, "Invalid form data or file too large")
			return profileForm{}, "", false
		}
		if file, header, err := r.FormFile("avatar"); err == nil {
			defer file.Close()
			ref, err := saveUpload(h.processor, file, header)
			if err != nil {
				slog.Error("failed to process avatar upload", "error", err, "filename", header.Filename)
				flashError(w, r, h.renderer, RouteProfileEdit, "Could not process the uploaded image")
				return profileForm{}, "", false
			}
			avatarRef = ref
		} else if !errors.Is(err, http.ErrMissingFile) {
			flashError(w, r, h.renderer, RouteProfileEdit, "Invalid avatar upload")
			return profileForm{}, "", false
		}
	} else if !parseFormOrRedirect(w, r, h.renderer, RouteProfileEdit) {
		return profileForm{}, "", false
	}

	form := profileForm{
		Email:     strings.TrimSpace(r.FormValue("email")),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Bio:       strings.TrimSpace(r.FormValue("bio")),
	}
	return form, avatarRef, true
}

func (h *ProfileHandler) renderEditForm(w http.ResponseWriter, r *http.Request, data ProfileEditData) {
	if err := h.renderer.Render(w, r, "profile_edit", render.TemplateData{
		Title: "Edit Profile",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render profile edit form", "error", err)
	}
}

func (h *ProfileHandler) renderPasswordForm(w http.ResponseWriter, r *http.Request, data PasswordFormData) {
	if err := h.renderer.Render(w, r, "password_change", render.TemplateData{
		Title: "Change Password",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render password change form", "error", err)
	}
}
