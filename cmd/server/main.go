package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"dose-tracker/internal/auth"
	"dose-tracker/internal/config"
	"dose-tracker/internal/database"
	"dose-tracker/internal/handlers"
	"dose-tracker/internal/middleware"
	"dose-tracker/internal/notify"
	"dose-tracker/internal/scheduler"
	"dose-tracker/internal/service"
	"dose-tracker/internal/store"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	// Load environment variables
	if err := loadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Wire the core: store, notification backend, reminder scheduler,
	// medication service. The service loads the persisted collection here;
	// reminders do not survive a restart.
	st := store.New(db)
	notifier := notify.New(db)
	notifier.Start()
	defer notifier.Stop()

	sched := scheduler.New(notifier)

	svc, err := service.New(st, sched)
	if err != nil {
		log.Fatalf("Failed to initialize medication service: %v", err)
	}
	defer svc.Close()

	// Initialize security components
	jwtManager := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionDuration)
	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// Initialize router
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes (no authentication required)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		// First-run setup and login
		r.Post("/api/setup", handlers.HandleSetup(st))
		r.Post("/api/auth/login", handlers.HandleLogin(st, jwtManager))
	})

	// Protected routes (authentication required)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(rateLimiter.Middleware)

		r.Route("/api", func(r chi.Router) {
			r.Get("/auth/me", handlers.HandleGetCurrentUser())

			// Medication routes
			r.Route("/medications", func(r chi.Router) {
				r.Get("/", handlers.HandleListMedications(svc))
				r.Post("/", handlers.HandleCreateMedication(svc))
				r.Get("/{id}", handlers.HandleGetMedication(svc))
				r.Put("/{id}", handlers.HandleUpdateMedication(svc))
				r.Delete("/{id}", handlers.HandleDeleteMedication(svc))
				r.Get("/{id}/summary", handlers.HandleGetSummary(svc))
				r.Post("/{id}/doses", handlers.HandleRecordDose(svc))
				r.Delete("/{id}/doses/last", handlers.HandleUndoDose(svc))
			})

			// Notification routes
			r.Get("/notifications", handlers.HandleListNotifications(notifier))
			r.Put("/notifications/{id}/read", handlers.HandleMarkNotificationRead(notifier))

			// Export routes
			r.Get("/export/csv", handlers.HandleExportCSV(svc))
			r.Get("/export/pdf", handlers.HandleExportPDF(svc))

			// Settings routes
			r.Get("/settings/theme", handlers.HandleGetTheme(svc))
			r.Put("/settings/theme", handlers.HandleSetTheme(svc))
		})
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server starting on http://localhost%s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// loadEnv loads environment variables from .env file
func loadEnv() error {
	data, err := os.ReadFile(".env")
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if key, value, ok := strings.Cut(line, "="); ok {
			os.Setenv(key, value)
		}
	}

	return nil
}
