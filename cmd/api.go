package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"fileaccess/internal/auth"
	"fileaccess/internal/cache"
	repo "fileaccess/internal/database/postgresql"
	"fileaccess/internal/events"
	"fileaccess/internal/handlers/downloads"
	"fileaccess/internal/handlers/files"
	"fileaccess/internal/idempotency"
	"fileaccess/internal/storage"
)

type application struct {
	config        config
	conn          *pgxpool.Pool
	cache         *cache.RedisClient
	authenticator *auth.Authenticator
	storage       storage.Backend
	legacy        storage.LegacyResolver
	eventBus      events.Bus
	logger        *slog.Logger
}

type config struct {
	addr              string
	frontend          string
	events            *events.EventConfig
	fileConstraints   map[storage.Category]files.FileConstraint
	tokenTTL          time.Duration
	tokenMaxDownloads int32
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontend},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	idempotencyStore := idempotency.NewStore(app.cache)

	queries := repo.New(app.conn)
	eventHandler := events.NewEventHandler(app.eventBus, app.config.events, app.logger)

	filesService := files.NewFilesService(app.storage, app.config.fileConstraints, eventHandler, app.logger)
	filesHandler := files.NewFileHandler(filesService)

	downloadsService := downloads.NewDownloadsService(queries, app.storage, app.legacy, app.logger)
	downloadsHandler := downloads.NewDownloadsHandler(downloadsService)

	r.Group(func(r chi.Router) {
		// Public routes: the guest link carries its own authorization.
		r.Use(middleware.Recoverer)

		r.Get("/download/{token}", downloadsHandler.GuestDownload)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Use(idempotency.Idempotency(idempotencyStore))

		// Authenticated routes
		r.Use(app.authenticator.Middleware)
		r.Post("/files", filesHandler.Upload)
		r.Delete("/files/*", filesHandler.Delete)

		r.Get("/resources/{id}/download", downloadsHandler.ResourceDownload)
	})

	return r
}

func (app *application) run(h http.Handler) error {
	svr := &http.Server{
		Addr:         app.config.addr,
		Handler:      h,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute * 1,
	}

	slog.Info("Starting server on " + app.config.addr)
	go func() {
		if err := svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Listen: %s\n", err)
		}
	}()

	// Wait for interrupt (Ctrl+C or orchestrator stop)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		log.Fatal("Server Forced to Shutdown:", err)
		return err
	}

	// Drain lets in-flight messages finish processing before we close.
	if err := app.eventBus.Drain(); err != nil {
		log.Fatal("NATS Drain failed:", err)
		return err
	}

	app.conn.Close()

	if err := app.cache.Close(); err != nil {
		log.Fatal("Redis Close failed:", err)
		return err
	}

	log.Println("Server Exited Properly")
	return nil
}
