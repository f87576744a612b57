package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/avolkov/inkpress/internal/auth"
	"github.com/avolkov/inkpress/internal/imaging"
	"github.com/avolkov/inkpress/internal/middleware"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/store"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
	processor       *imaging.Processor
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection, processor *imaging.Processor) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
		processor:       processor,
	}
}

// RegisterFormData holds data for the registration form.
type RegisterFormData struct {
	Form   registerForm
	Errors ValidationErrors
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.redirectSignedIn(w, r) {
		return
	}
	h.renderRegister(w, r, RegisterFormData{Errors: ValidationErrors{}})
}

// Register handles the registration form submission.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.redirectSignedIn(w, r) {
		return
	}

	// Multipart when a profile image is attached
	var avatarRef string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			flashError(w, r, h.renderer, redirectRegister, "Invalid form data or file too large")
			return
		}
		if file, header, err := r.FormFile("avatar"); err == nil {
			defer file.Close()
			ref, err := saveUpload(h.processor, file, header)
			if err != nil {
				slog.Error("failed to process avatar upload", "error", err, "filename", header.Filename)
				flashError(w, r, h.renderer, redirectRegister, "Could not process the uploaded image")
				return
			}
			avatarRef = ref
		} else if !errors.Is(err, http.ErrMissingFile) {
			flashError(w, r, h.renderer, redirectRegister, "Invalid avatar upload")
			return
		}
	} else if !parseFormOrRedirect(w, r, h.renderer, redirectRegister) {
		return
	}

	form := registerForm{
		Username:  strings.TrimSpace(r.FormValue("username")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Password:  r.FormValue("password"),
		Confirm:   r.FormValue("confirm"),
	}

	errs := form.validate()
	ctx := r.Context()

	if errs.Get("username") == "" {
		if _, err := h.queries.GetUserByUsername(ctx, form.Username); err == nil {
			errs["username"] = "Username is already taken"
		} else if !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to check username", "error", err)
			return
		}
	}
	if errs.Get("email") == "" {
		if _, err := h.queries.GetUserByEmail(ctx, form.Email); err == nil {
			errs["email"] = "Email is already registered"
		} else if !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to check email", "error", err)
			return
		}
	}

	if !errs.OK() {
		h.renderRegister(w, r, RegisterFormData{Form: form, Errors: errs})
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(ctx, store.CreateUserParams{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		logAndInternalError(w, "failed to create user", "error", err)
		return
	}

	if avatarRef != "" {
		if err := h.queries.UpdateUserAvatar(ctx, store.UpdateUserAvatarParams{
			ID:        user.ID,
			Avatar:    avatarRef,
			UpdatedAt: now,
		}); err != nil {
			logAndInternalError(w, "failed to set avatar", "error", err)
			return
		}
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	recordInfoEvent(ctx, h.queries, "User registered: "+user.Username,
		map[string]any{"user_id": user.ID})

	flashSuccess(w, r, h.renderer, redirectLogin, "Account created, you can sign in now")
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.redirectSignedIn(w, r) {
		return
	}

	if err := h.renderer.Render(w, r, "login", render.TemplateData{
		Title: "Sign In",
	}); err != nil {
		logAndInternalError(w, "failed to render login page", "error", err)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Username and password are required")
		return
	}

	ctx := r.Context()
	ip := clientIP(r)

	if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
		recordWarningEvent(ctx, h.queries, "Login attempt on locked account",
			map[string]any{"username": username, "ip": ip})
		flashError(w, r, h.renderer, redirectLogin,
			"Account temporarily locked, try again in "+formatDuration(remaining))
		return
	}

	user, err := h.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Record the failure for unknown usernames too, to prevent
			// enumeration through lockout behavior
			recordWarningEvent(ctx, h.queries, "Login failed: user not found",
				map[string]any{"username": username, "ip": ip})
		} else {
			slog.Error("database error during login", "error", err)
		}
		h.failLogin(w, r, username)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Invalid username or password")
		return
	}
	if !valid {
		recordWarningEvent(ctx, h.queries, "Login failed: invalid password",
			map[string]any{"username": username, "ip": ip})
		h.failLogin(w, r, username)
		return
	}

	h.loginProtection.RecordSuccessfulLogin(username)

	// Upgrade hashes made with older parameters while the plaintext is
	// available
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				ID:           user.ID,
				PasswordHash: newHash,
				UpdatedAt:    time.Now(),
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	// Regenerate the session token to prevent fixation
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(ctx, middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	recordInfoEvent(ctx, h.queries, "User logged in: "+user.Username,
		map[string]any{"user_id": user.ID, "ip": ip})

	flashSuccess(w, r, h.renderer, RouteRoot, "Welcome back, "+user.DisplayName())
}

// Logout destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	if userID > 0 {
		slog.Info("user logged out", "user_id", userID)
	}

	flashAndRedirect(w, r, h.renderer, RouteRoot, "Signed out", "info")
}

// failLogin records a failed attempt and responds with the generic
// invalid-credentials message, or the lockout message when the attempt
// tripped the limit.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, username string) {
	if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
		flashError(w, r, h.renderer, redirectLogin,
			"Too many failed attempts, account locked for "+formatDuration(lockDuration))
		return
	}

	if remaining := h.loginProtection.GetRemainingAttempts(username); remaining > 0 && remaining <= 3 {
		flashError(w, r, h.renderer, redirectLogin,
			fmt.Sprintf("Invalid username or password (%d attempts remaining)", remaining))
		return
	}

	flashError(w, r, h.renderer, redirectLogin, "Invalid username or password")
}

// redirectSignedIn sends already signed in users home. Returns true when
// a redirect was written.
func (h *AuthHandler) redirectSignedIn(w http.ResponseWriter, r *http.Request) bool {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return true
	}
	return false
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, data RegisterFormData) {
	if err := h.renderer.Render(w, r, "register", render.TemplateData{
		Title: "Register",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render registration page", "error", err)
	}
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
