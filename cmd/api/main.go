package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/suryansh1j/vaidya/config"
	"github.com/suryansh1j/vaidya/internal/extract"
	v1 "github.com/suryansh1j/vaidya/internal/handler/v1"
	"github.com/suryansh1j/vaidya/internal/media"
	"github.com/suryansh1j/vaidya/internal/middleware"
	"github.com/suryansh1j/vaidya/internal/repository"
	"github.com/suryansh1j/vaidya/internal/service"
	"github.com/suryansh1j/vaidya/internal/transcribe"
	"github.com/suryansh1j/vaidya/pkg/auth"
	"github.com/suryansh1j/vaidya/pkg/database"
	"github.com/suryansh1j/vaidya/pkg/logger"
	"github.com/suryansh1j/vaidya/pkg/metrics"
	"github.com/suryansh1j/vaidya/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("vaidya")
	if sqlDB, err := db.DB(); err == nil {
		go func() {
			for range time.Tick(15 * time.Second) {
				collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}()
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Process-scoped collaborators, initialized once and injected.
	jwtManager := auth.NewJWTManager(cfg.JWT)

	store, err := media.NewStore(cfg.Upload, log)
	if err != nil {
		return err
	}

	sttBackend, sttClose, err := buildSTTBackend(cfg.Pipeline, log)
	if err != nil {
		return err
	}
	defer sttClose()

	symptomExtractor, err := extract.NewSymptomExtractor()
	if err != nil {
		return fmt.Errorf("loading symptom lexicon: %w", err)
	}
	fieldExtractor := extract.NewFieldExtractor(extract.NewHTTPQAClient(cfg.Pipeline), log)

	// Services
	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, log)
	intakeSvc := service.NewIntakeService(store, sttBackend, fieldExtractor, symptomExtractor, patientRepo, auditSvc, collector, log)

	// HTTP
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Instrument(collector))
	r.Use(middleware.RateLimit(cfg.RateLimit))
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:       cfg.CORS.MaxAge,
	}))

	v1.RegisterRoutes(r, v1.Handlers{
		Auth:    v1.NewAuthHandler(authSvc, log),
		Patient: v1.NewPatientHandler(patientSvc, log),
		Upload:  v1.NewUploadHandler(intakeSvc, log),
	}, jwtManager, cfg)

	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	// Frontend: anything the API doesn't claim falls through to the
	// static page.
	if st, err := os.Stat(cfg.Server.FrontendDir); err == nil && st.IsDir() {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.Server.FrontendDir))))
		log.Info("frontend static files mounted", zap.String("dir", cfg.Server.FrontendDir))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

func buildSTTBackend(cfg config.PipelineConfig, log *zap.Logger) (transcribe.Backend, func(), error) {
	switch cfg.STTBackend {
	case "google":
		backend, err := transcribe.NewGoogleBackend(context.Background(), cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() { _ = backend.Close() }, nil
	default:
		return transcribe.NewWhisperBackend(cfg, log), func() {}, nil
	}
}
