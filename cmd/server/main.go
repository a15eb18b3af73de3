package main

import (
	"context"
	"log"
	"time"

	"invoice-billing-backend/internal/config"
	"invoice-billing-backend/internal/logger"
	"invoice-billing-backend/internal/metrics"
	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/routes"
	"invoice-billing-backend/internal/services/documents"
	"invoice-billing-backend/internal/services/invoicing"
	"invoice-billing-backend/internal/services/rendering"
	"invoice-billing-backend/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zapLogger := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = zapLogger.Sync() }()

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		zapLogger.Fatal("database unavailable", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.Invoice{},
		&models.RenderLog{},
	); err != nil {
		zapLogger.Fatal("migration failed", zap.Error(err))
	}

	artifacts, err := newArtifactStore(context.Background(), cfg.Storage, zapLogger)
	if err != nil {
		zapLogger.Fatal("artifact store unavailable", zap.Error(err))
	}

	renderer := rendering.NewWkhtmltopdf(rendering.WkhtmltopdfConfig{
		BinaryPath:       cfg.Render.BinaryPath,
		Timeout:          cfg.Render.Timeout,
		IgnoreExitStatus: cfg.Render.IgnoreExitStatus,
		Logger:           zapLogger,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.GinMiddleware(zapLogger), logger.Recovery(zapLogger))
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Dependencies{
		DB:              db,
		Renderer:        renderer,
		Artifacts:       artifacts,
		ScratchDir:      cfg.Render.ScratchDir,
		DuplicatePolicy: invoicing.DuplicatePolicy(cfg.Invoice.DuplicatePolicy),
		Metrics:         metrics.New(registry),
		Gatherer:        registry,
		Logger:          zapLogger,
	})

	zapLogger.Info("starting server",
		zap.String("port", cfg.App.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("database", cfg.Database.Driver))
	if err := r.Run(":" + cfg.App.Port); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func newArtifactStore(ctx context.Context, cfg config.StorageConfig, zapLogger *zap.Logger) (documents.ArtifactStore, error) {
	if cfg.Driver == "memory" {
		zapLogger.Warn("using in-memory artifact store; PDFs are lost on restart")
		return storage.NewMemoryStore(), nil
	}

	s3Store, err := storage.NewS3Store(ctx, cfg, storage.WithLogger(zapLogger))
	if err != nil {
		return nil, err
	}
	if cfg.EnsureBucket {
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	zapLogger.Info("using S3 artifact store", zap.String("bucket", s3Store.Bucket()))
	return s3Store, nil
}
