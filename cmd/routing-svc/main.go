// Package main is the entry point for routing-svc: the asynchronous
// cold-chain delivery routing engine. It exposes a JSON HTTP API (§6) for
// submitting optimization jobs, polling their progress, and managing the
// vehicles, shipments, depots and routes those jobs read and write, and
// runs a background worker pool that dequeues submitted jobs off the redis
// broker and drives them through the solve-and-materialize lifecycle.
package main

import (
	"context"
	"log"
	"net/http"

	"logistics/internal/auth"
	"logistics/internal/crud"
	"logistics/internal/httpapi"
	"logistics/internal/job"
	"logistics/internal/middleware"
	"logistics/internal/queue"
	"logistics/internal/repository"
	"logistics/pkg/config"
	"logistics/pkg/database"
	"logistics/pkg/database/migrations"
	"logistics/pkg/logger"
	"logistics/pkg/metrics"
	"logistics/pkg/ratelimit"
	"logistics/pkg/server"
)

// workerConcurrency is the number of concurrent dequeue loops the worker
// pool runs; §4.1 doesn't budget this as a submission parameter so it's
// fixed here rather than added to the configuration surface.
const workerConcurrency = 4

func main() {
	cfg, err := config.LoadWithServiceDefaults("routing-svc", 8080)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	logger.Log.Info("Starting routing service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	ctx := context.Background()

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database, migrations.PostgresMigrations, "postgres"); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	broker, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatal("failed to connect to job queue", "error", err)
	}
	defer broker.Close()

	vehicleRepo := repository.NewPostgresVehicleRepository(db)
	shipmentRepo := repository.NewPostgresShipmentRepository(db)
	depotRepo := repository.NewPostgresDepotRepository(db)
	routeRepo := repository.NewPostgresRouteRepository(db)
	jobRepo := repository.NewPostgresJobRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	if recovered, err := broker.Recover(ctx); err != nil {
		logger.Log.Warn("failed to recover orphaned jobs", "error", err)
	} else if recovered > 0 {
		logger.Log.Info("recovered orphaned jobs from a prior crash", "count", recovered)
	}

	orchestrator := job.New(db, jobRepo, vehicleRepo, shipmentRepo, depotRepo, broker, cfg.Solver, cfg.Depot, cfg.Queue)
	worker := job.NewWorker(orchestrator)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	go worker.Run(workerCtx, workerConcurrency)

	authSvc := auth.New(userRepo, cfg.JWT)

	handlers := &httpapi.Handlers{
		Orchestrator: orchestrator,
		Auth:         authSvc,
		Vehicles:     crud.NewVehicleService(vehicleRepo),
		Shipments:    crud.NewShipmentService(shipmentRepo, routeRepo),
		Depots:       crud.NewDepotService(depotRepo),
		Routes:       routeRepo,
	}

	srv := server.New(cfg)

	apiMux := http.NewServeMux()
	handlers.Register(apiMux)

	var apiHandler http.Handler = apiMux
	apiHandler = middleware.Auth(authSvc, httpapi.PublicPaths())(apiHandler)
	if limiter := srv.RateLimiter(); limiter != nil {
		apiHandler = middleware.RateLimit(limiter, ratelimit.DefaultKeyExtractor)(apiHandler)
	}
	apiHandler = middleware.Metrics(apiHandler)
	apiHandler = middleware.Logging(apiHandler)

	srv.Mux().Handle("/api/v1/", apiHandler)

	logger.Log.Info("routing-svc ready",
		"port", cfg.HTTP.Port,
		"workers", workerConcurrency,
	)

	if err := srv.Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
