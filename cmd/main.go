package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fileaccess/internal/auth"
	"fileaccess/internal/cache"
	repo "fileaccess/internal/database/postgresql"
	"fileaccess/internal/events"
	"fileaccess/internal/handlers/files"
	"fileaccess/internal/storage"
	"fileaccess/internal/telemetry"
)

func main() {
	// Use JSON traced logging
	baseHandler := slog.NewJSONHandler(os.Stdout, nil)
	logger := slog.New(telemetry.NewTraceHandler(baseHandler))
	slog.SetDefault(logger)

	if collector := os.Getenv("OTEL_COLLECTOR_URL"); collector != "" {
		shutdown, err := telemetry.InitTracer("fileaccess-service", collector)
		if err != nil {
			slog.Error("Failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	tokenTTLHours, _ := strconv.Atoi(os.Getenv("DOWNLOAD_TOKEN_TTL_HOURS"))
	if tokenTTLHours <= 0 {
		tokenTTLHours = 72
	}
	tokenMaxDownloads, _ := strconv.Atoi(os.Getenv("DOWNLOAD_TOKEN_MAX_DOWNLOADS"))
	if tokenMaxDownloads <= 0 {
		tokenMaxDownloads = 3
	}

	config := config{
		addr:     ":" + os.Getenv("API_PORT"),
		frontend: os.Getenv("DOMAIN_NAME"),
		events:   events.NewEventConfig(),
		fileConstraints: map[storage.Category]files.FileConstraint{
			storage.CategoryResource: {
				MaxSize: 200 * 1024 * 1024, // 200MB
				AllowedMimeTypes: []string{
					"application/pdf",
					"application/zip",
					"application/msword",
					"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
					"application/vnd.ms-powerpoint",
					"application/vnd.openxmlformats-officedocument.presentationml.presentation",
					"application/epub+zip",
					"application/octet-stream",
				},
			},
			storage.CategoryPreview: {
				MaxSize:          10 * 1024 * 1024, // 10MB
				AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/webp"},
			},
			storage.CategoryAvatar: {
				MaxSize:          5 * 1024 * 1024, // 5MB
				AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
			},
		},
		tokenTTL:          time.Duration(tokenTTLHours) * time.Hour,
		tokenMaxDownloads: int32(tokenMaxDownloads),
	}

	poolSize, _ := strconv.Atoi(os.Getenv("REDIS_POOL_SIZE"))
	minIdleConns, _ := strconv.Atoi(os.Getenv("REDIS_MIN_IDLE_CONNS"))

	cacheCfg := cache.Config{
		Addr:         os.Getenv("REDIS_ADDR"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	}
	slog.Info("Connecting to Redis cache", "addr", cacheCfg.Addr)
	rdb, err := cache.NewRedisClient(cacheCfg)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	dsn := os.Getenv("DB_DSN")
	slog.Info("Connecting to database")
	conn, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	storageCfg := storage.Config{
		Driver:          os.Getenv("STORAGE_DRIVER"),
		LocalRoot:       os.Getenv("STORAGE_LOCAL_ROOT"),
		LocalPublicURL:  os.Getenv("STORAGE_LOCAL_PUBLIC_URL"),
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		UseSSL:          os.Getenv("S3_USE_SSL") == "true",
		PublicBucket:    os.Getenv("S3_PUBLIC_BUCKET"),
		PrivateBucket:   os.Getenv("S3_PRIVATE_BUCKET"),
		PublicBaseURL:   os.Getenv("S3_PUBLIC_BASE_URL"),
	}
	slog.Info("Initializing object storage", "driver", storageCfg.Driver)
	backend, err := storage.New(storageCfg)
	if err != nil {
		slog.Error("Failed to initialize storage backend", "error", err)
		os.Exit(1)
	}

	legacy := storage.LegacyResolver{Root: os.Getenv("STORAGE_LEGACY_ROOT")}

	slog.Info("Connecting to event bus", "endpoint", os.Getenv("NATS_ENDPOINT"))
	eventBus, err := events.NewNATSBus(os.Getenv("NATS_ENDPOINT"), logger)
	if err != nil {
		slog.Error("Failed to initialize event bus", "error", err)
		os.Exit(1)
	}

	issuer := events.NewTokenIssuer(repo.New(conn), eventBus, config.events, logger, config.tokenTTL, config.tokenMaxDownloads)
	if _, err := issuer.SubscribeToPurchaseCompleted(); err != nil {
		slog.Error("Failed to subscribe to purchase events", "error", err)
		os.Exit(1)
	}

	slog.Info("Connecting to authorization service", "url", os.Getenv("AUTHORIZATION_URL"))
	authenticator, err := auth.NewAuthenticator(context.Background(), os.Getenv("AUTHORIZATION_URL"), os.Getenv("AUTHORIZATION_CLIENT_ID"))
	if err != nil {
		slog.Error("Failed to initialize authenticator", "error", err)
		os.Exit(1)
	}

	app := &application{
		config:        config,
		conn:          conn,
		cache:         rdb,
		authenticator: authenticator,
		storage:       backend,
		legacy:        legacy,
		eventBus:      eventBus,
		logger:        logger,
	}

	if err := app.run(app.mount()); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
