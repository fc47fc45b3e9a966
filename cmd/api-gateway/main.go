package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/planucab-api/api/swagger"
	"github.com/noah-isme/planucab-api/internal/handler"
	internalmiddleware "github.com/noah-isme/planucab-api/internal/middleware"
	"github.com/noah-isme/planucab-api/internal/models"
	"github.com/noah-isme/planucab-api/internal/repository"
	"github.com/noah-isme/planucab-api/internal/service"
	"github.com/noah-isme/planucab-api/pkg/cache"
	"github.com/noah-isme/planucab-api/pkg/config"
	"github.com/noah-isme/planucab-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/planucab-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/planucab-api/pkg/middleware/requestid"
	"github.com/noah-isme/planucab-api/pkg/storage"
)

// @title PlanUCAB API
// @version 1.0.0
// @description Personal academic planner: events, weekly class schedules and graded evaluations with conflict and weight checks.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := build(cfg, logr)
	if err != nil {
		logr.Fatal("failed to start", zap.Error(err))
	}
	defer app.close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(app.metrics, "/health", "/ready", "/metrics"))

	registerRoutes(r, cfg, app.handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage_dir", cfg.Storage.Dir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type application struct {
	metrics  *service.MetricsService
	handlers handlers
	closers  []func() error
}

func (a *application) close() {
	for _, c := range a.closers {
		_ = c()
	}
}

// build opens the block files, loads the subject catalog and wires services and handlers.
func build(cfg *config.Config, logr *zap.Logger) (*application, error) {
	metricsSvc := service.NewMetricsService()

	files, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}

	opts := func(kind models.BlockKind, filename string) repository.StoreOptions {
		return repository.StoreOptions{
			Kind:           kind,
			Files:          files,
			Filename:       filename,
			RecoverCorrupt: cfg.Storage.RecoverCorrupt,
			Logger:         logr,
			Metrics:        metricsSvc,
		}
	}

	events, err := repository.OpenBlockStore[models.Event](opts(models.KindEvent, "events.json"))
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	horarios, err := repository.OpenBlockStore[models.Horario](opts(models.KindHorario, "horarios.json"))
	if err != nil {
		return nil, fmt.Errorf("open horarios: %w", err)
	}
	evaluaciones, err := repository.OpenBlockStore[models.Evaluacion](opts(models.KindEvaluacion, "evaluaciones.json"))
	if err != nil {
		return nil, fmt.Errorf("open evaluaciones: %w", err)
	}
	logr.Info("block stores loaded",
		zap.Int("events", events.Len()),
		zap.Int("horarios", horarios.Len()),
		zap.Int("evaluaciones", evaluaciones.Len()),
	)

	materiaRepo, err := repository.LoadMateriaRepository(cfg.Materias.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load materias: %w", err)
	}

	app := &application{metrics: metricsSvc}
	checks := map[string]handler.ReadinessCheck{
		"storage": func(context.Context) error { return files.Probe() },
	}

	var cacheRepo service.CacheRepository
	if cfg.Agenda.CacheEnabled {
		client, err := cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, agenda cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			cacheRepo = redisRepo
			checks["redis"] = redisRepo.Ping
			app.closers = append(app.closers, redisRepo.Close)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Agenda.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()
	materiaSvc := service.NewMateriaService(materiaRepo, logr)
	detector := service.NewConflictDetector(events, horarios, evaluaciones, metricsSvc, logr)
	weights := service.NewWeightAllocator(evaluaciones, cfg.Weights.Decimals, metricsSvc, logr)
	agendaSvc := service.NewAgendaService(events, horarios, evaluaciones, cacheSvc, service.AgendaConfig{
		MaxDays:  cfg.Agenda.MaxDays,
		CacheTTL: cfg.Agenda.CacheTTL,
	}, logr)
	guard := service.NewScheduleGuard(service.NewOwnerLocks(), detector, agendaSvc, logr)

	eventSvc := service.NewEventService(events, guard, validate, logr)
	horarioSvc := service.NewHorarioService(horarios, guard, materiaSvc, validate, logr)
	evaluacionSvc := service.NewEvaluacionService(evaluaciones, guard, weights, materiaSvc, cfg.Weights.Decimals, validate, logr)

	app.handlers = handlers{
		events:       handler.NewEventHandler(eventSvc),
		horarios:     handler.NewHorarioHandler(horarioSvc),
		evaluaciones: handler.NewEvaluacionHandler(evaluacionSvc),
		materias:     handler.NewMateriaHandler(materiaSvc),
		agenda:       handler.NewAgendaHandler(agendaSvc),
		metrics:      handler.NewMetricsHandler(metricsSvc, checks),
	}
	return app, nil
}
