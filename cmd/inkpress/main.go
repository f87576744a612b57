package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/avolkov/inkpress/internal/cache"
	"github.com/avolkov/inkpress/internal/config"
	"github.com/avolkov/inkpress/internal/geoip"
	"github.com/avolkov/inkpress/internal/handler"
	"github.com/avolkov/inkpress/internal/imaging"
	"github.com/avolkov/inkpress/internal/logging"
	"github.com/avolkov/inkpress/internal/mailer"
	"github.com/avolkov/inkpress/internal/middleware"
	"github.com/avolkov/inkpress/internal/render"
	"github.com/avolkov/inkpress/internal/scheduler"
	"github.com/avolkov/inkpress/internal/session"
	"github.com/avolkov/inkpress/internal/store"
	"github.com/avolkov/inkpress/web"
)

func main() {
	// Load .env if present; environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	// Ensure data and upload directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// WARN and ERROR logs also land in the events table from here on
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	cacheBackend, err := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		slog.Warn("cache backend unavailable, falling back to memory", "error", err)
		cacheBackend = cache.NewSimpleMemoryCache(time.Duration(cfg.CacheTTL) * time.Second)
	}
	defer func() {
		if err := cacheBackend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	queries := store.New(db)
	sidebarCache := cache.NewSidebarCache(cacheBackend, queries, time.Duration(cfg.CacheTTL)*time.Second)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip unavailable", "error", err, "path", cfg.GeoIPDBPath)
		} else {
			slog.Info("geoip initialized", "path", cfg.GeoIPDBPath)
		}
	}
	defer func() {
		if err := geo.Close(); err != nil {
			slog.Error("error closing geoip database", "error", err)
		}
	}()

	mail := mailer.New(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPass,
		From:      cfg.SMTPFrom,
		AdminAddr: cfg.AdminEmail,
	})
	if mail.Enabled() {
		slog.Info("enquiry notifications enabled", "smtp_host", cfg.SMTPHost)
	}

	sched := scheduler.New(db, geo, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	processor := imaging.NewProcessor(cfg.UploadsDir)

	// Handlers
	homeHandler := handler.NewHomeHandler(db, renderer)
	postHandler := handler.NewPostHandler(db, renderer, sidebarCache, processor)
	commentHandler := handler.NewCommentHandler(db, renderer)
	likeHandler := handler.NewLikeHandler(db, renderer)
	taxonomyHandler := handler.NewTaxonomyHandler(db, renderer, sidebarCache)
	profileHandler := handler.NewProfileHandler(db, renderer, processor)
	contactHandler := handler.NewContactHandler(db, renderer, geo, mail)
	healthHandler := handler.NewHealthHandler(db, sessionManager, cfg.UploadsDir)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection, processor)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))
	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	// Health endpoints stay outside the session middleware
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Uploaded images
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(cfg.UploadsDir))))

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(csrfMiddleware)
		r.Use(middleware.OptionalLoadUser(sessionManager, db))

		// Public pages
		r.Get(handler.RouteRoot, homeHandler.Home)
		r.Get(handler.RouteAbout, homeHandler.About)
		r.Get(handler.RoutePosts, postHandler.List)
		r.Get(handler.RoutePostsID, postHandler.Detail)
		r.Get(handler.RouteCategoryName, taxonomyHandler.Category)
		r.Get(handler.RouteTagSlug, taxonomyHandler.Tag)
		r.Get(handler.RouteProfile, profileHandler.View)
		r.Get(handler.RouteContact, contactHandler.Form)
		r.Get(handler.RouteRegister, authHandler.RegisterForm)
		r.Get(handler.RouteLogin, authHandler.LoginForm)

		// Rate limited public form submissions
		r.Group(func(r chi.Router) {
			r.Use(publicRateLimiter.Middleware())
			r.Post(handler.RouteContact, contactHandler.Submit)
			r.Post(handler.RouteRegister, authHandler.Register)
		})
		r.Group(func(r chi.Router) {
			r.Use(loginProtection.Middleware())
			r.Post(handler.RouteLogin, authHandler.Login)
		})

		// Signed-in users only
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))

			r.Post(handler.RouteLogout, authHandler.Logout)
			r.Get(handler.RouteLogout, authHandler.Logout)

			r.Get(handler.RoutePostsNew, postHandler.NewForm)
			r.Post(handler.RoutePostsNew, postHandler.Create)
			r.Get(handler.RoutePostsIDEdit, postHandler.EditForm)
			r.Post(handler.RoutePostsIDEdit, postHandler.Update)
			r.Get(handler.RoutePostsIDDelete, postHandler.DeleteConfirm)
			r.Post(handler.RoutePostsIDDelete, postHandler.Delete)

			r.Post(handler.RoutePostsID, commentHandler.Create)
			r.Post(handler.RoutePostsIDLike, likeHandler.Toggle)

			r.Get(handler.RouteMyProfile, profileHandler.MyProfile)
			r.Get(handler.RouteProfileEdit, profileHandler.EditForm)
			r.Post(handler.RouteProfileEdit, profileHandler.Edit)
			r.Get(handler.RouteChangePassword, profileHandler.PasswordForm)
			r.Post(handler.RouteChangePassword, profileHandler.ChangePassword)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
