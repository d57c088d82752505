package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"threatconsole/internal/auth"
	"threatconsole/internal/config"
	"threatconsole/internal/database"
	"threatconsole/internal/gateway"
	"threatconsole/internal/handlers"
	"threatconsole/internal/listing"
	"threatconsole/internal/logger"
	"threatconsole/internal/middleware"
	"threatconsole/internal/policy"
	"threatconsole/internal/services"
	"threatconsole/internal/viewstate"
	"threatconsole/web"
)

// trackerCapacity bounds the number of (session, view) pairs remembered for
// stale-response detection.
const trackerCapacity = 4096

func main() {
	// Load configuration
	cfg, cfgErr := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFile)
	defer log.Sync()

	if cfgErr != nil {
		log.Fatalw("Failed to load configuration", "error", cfgErr)
	}
	if cfg.UsesDefaultSecret() {
		log.Warn("CONSOLE_SESSION_SECRET is not set; using the built-in development secret")
	}

	templatesFS, staticFS := webAssets(cfg.WebDir, log)

	// Initialize database
	db, err := database.New(cfg.DataDir)
	if err != nil {
		log.Fatalw("Failed to initialize database", "error", err)
	}
	defer db.Close()

	// Initialize services
	auditService := services.NewAuditService(db)
	downloadService := services.NewDownloadService(db)
	exportService := services.NewExportService(auditService, downloadService)

	sessionManager, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SecureCookie)
	if err != nil {
		log.Fatalw("Failed to initialize sessions", "error", err)
	}

	gw := gateway.New(gateway.Options{
		UsersURL:   cfg.UsersAPIURL,
		AIURL:      cfg.AIAPIURL,
		Timeout:    cfg.RequestTimeout,
		AICacheTTL: cfg.AICacheTTL,
	}, log)
	tracker := viewstate.NewTracker(trackerCapacity)
	collation := listing.NewCollation(cfg.SortLanguage)

	// Load templates
	templates, err := web.LoadTemplates(templatesFS, handlers.FuncMap())
	if err != nil {
		log.Fatalw("Failed to load templates", "error", err)
	}

	// Initialize handlers
	base := handlers.NewBase(templates, sessionManager, gw, tracker, auditService, log)
	authHandler := handlers.NewAuthHandler(base)
	dashboardHandler := handlers.NewDashboardHandler(base)
	usersHandler := handlers.NewUsersHandler(base, collation)
	flaggedHandler := handlers.NewFlaggedHandler(base)
	logsHandler := handlers.NewLogsHandler(base, collation)
	downloadsHandler := handlers.NewDownloadsHandler(base, downloadService)
	behaviorHandler := handlers.NewBehaviorHandler(base, exportService)
	aiHandler := handlers.NewAIHandler(base)
	registerHandler := handlers.NewRegisterHandler(base)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(sessionManager, log)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/login", authHandler.LoginPage)
	r.With(httprate.LimitByIP(cfg.LoginRatePerMin, time.Minute)).Post("/login", authHandler.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Post("/logout", authHandler.Logout)
		r.Get("/", authHandler.Home)
		r.Get("/api/stats", dashboardHandler.Stats)

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Use(authMiddleware.RequireTab(policy.TabUsers))
			r.Get("/", usersHandler.List)
			r.Get("/table", usersHandler.Table)
			r.With(authMiddleware.RequireAction(policy.TabUsers, policy.ActionBlockUser)).
				Post("/{id}/block", usersHandler.Block)
			r.With(authMiddleware.RequireAction(policy.TabUsers, policy.ActionUnblockUser)).
				Post("/{id}/unblock", usersHandler.Unblock)
		})

		// Flagged users
		r.Route("/flagged", func(r chi.Router) {
			r.Use(authMiddleware.RequireTab(policy.TabFlagged))
			r.Get("/", flaggedHandler.List)
			r.Get("/list", flaggedHandler.Cards)
			r.With(authMiddleware.RequireAction(policy.TabFlagged, policy.ActionUnblockUser)).
				Post("/{id}/unblock", flaggedHandler.Unblock)
		})

		// Activity logs; the scope is checked per request
		r.Route("/logs", func(r chi.Router) {
			r.Use(authMiddleware.RequireTab(policy.TabLogs))
			r.Get("/", logsHandler.List)
			r.Get("/list", logsHandler.Rows)
		})

		// Downloads
		r.Route("/downloads", func(r chi.Router) {
			r.Use(authMiddleware.RequireTab(policy.TabDownloads))
			r.Get("/", downloadsHandler.List)
			r.Get("/list", downloadsHandler.History)
			r.Get("/{id}/file", downloadsHandler.File)
			r.With(authMiddleware.RequireAction(policy.TabDownloads, policy.ActionDownloadFile)).
				Post("/", downloadsHandler.Create)
		})

		// Behavior monitor
		r.Route("/behavior", func(r chi.Router) {
			r.Use(authMiddleware.RequireTab(policy.TabBehavior))
			r.Get("/", behaviorHandler.Monitor)
			r.Get("/audit/export", behaviorHandler.ExportAudit)
			r.With(authMiddleware.RequireAction(policy.TabBehavior, policy.ActionSendWeeklySummary)).
				Post("/weekly-summary", behaviorHandler.SendWeeklySummary)
		})

		// AI analysis
		r.Route("/ai", func(r chi.Router) {
			r.Use(authMiddleware.RequireTab(policy.TabAIAnalysis))
			r.Get("/", aiHandler.Dashboard)
			r.With(authMiddleware.RequireAction(policy.TabAIAnalysis, policy.ActionTriggerWeeklyAnalysis)).
				Post("/trigger-weekly", aiHandler.TriggerWeekly)
			r.With(authMiddleware.RequireAction(policy.TabAIAnalysis, policy.ActionAnalyzeUser)).
				Post("/analyze", aiHandler.Analyze)
		})

		// Registration
		r.Route("/register", func(r chi.Router) {
			r.Use(authMiddleware.RequireTab(policy.TabRegister))
			r.Get("/", registerHandler.Form)
			r.With(authMiddleware.RequireAction(policy.TabRegister, policy.ActionRegisterUser)).
				Post("/", registerHandler.Submit)
		})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnw("Graceful shutdown failed", "error", err)
		}
	}()

	log.Infow("Starting insider threat console",
		"addr", addr,
		"users_api", cfg.UsersAPIURL,
		"ai_api", cfg.AIAPIURL,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("Failed to start server", "error", err)
	}
}

// webAssets serves templates and static files from disk when a web
// directory is configured, and from the embedded copies otherwise.
func webAssets(dir string, log *zap.SugaredLogger) (templates, static fs.FS) {
	if dir == "" {
		return web.Templates(), web.Static()
	}
	if _, err := os.Stat(filepath.Join(dir, "templates")); err != nil {
		log.Warnw("Web directory not usable, falling back to embedded assets", "dir", dir, "error", err)
		return web.Templates(), web.Static()
	}
	log.Infow("Using web directory", "dir", dir)
	return os.DirFS(filepath.Join(dir, "templates")), os.DirFS(filepath.Join(dir, "static"))
}
