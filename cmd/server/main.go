package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/config"
	"github.com/mamadbah2/peixeiro/internal/repository/memory"
	"github.com/mamadbah2/peixeiro/internal/repository/mongodb"
	"github.com/mamadbah2/peixeiro/internal/repository/sheets"
	"github.com/mamadbah2/peixeiro/internal/scheduler"
	"github.com/mamadbah2/peixeiro/internal/server/handlers"
	"github.com/mamadbah2/peixeiro/internal/server/router"
	exportsvc "github.com/mamadbah2/peixeiro/internal/service/export"
	sharingsvc "github.com/mamadbah2/peixeiro/internal/service/sharing"
	simulationsvc "github.com/mamadbah2/peixeiro/internal/service/simulation"
	whatsappclient "github.com/mamadbah2/peixeiro/pkg/clients/whatsapp"
	"github.com/mamadbah2/peixeiro/pkg/logger"
	"github.com/mamadbah2/peixeiro/pkg/metrics"
)

const memoryURIPrefix = "memory://"

var _ simulationsvc.Repository = (*mongodb.MongoDBRepository)(nil)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Format))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(cfg.Metrics.Namespace, registry)

	var repo simulationsvc.Repository
	if strings.HasPrefix(cfg.MongoDB.URI, memoryURIPrefix) {
		baseLogger.Warn("using in-memory simulation store, data is lost on restart")
		repo = memory.NewRepository()
	} else {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		repo = mongoRepo
	}

	simulationSvc := simulationsvc.NewService(repo, collector, baseLogger.Named("svc.simulation"))

	registerCtx, cancelRegister := context.WithTimeout(context.Background(), 10*time.Second)
	if err := simulationSvc.RegisterEngine(registerCtx); err != nil {
		baseLogger.Fatal("failed to register engine version", zap.Error(err))
	}
	cancelRegister()

	exportSvc := exportsvc.NewService(nil, baseLogger.Named("svc.export"))
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exportSvc = exportsvc.NewService(sheetsRepo, baseLogger.Named("svc.export"))
		baseLogger.Info("google sheets export enabled")
	} else {
		baseLogger.Warn("google sheets credentials missing, export disabled")
	}

	var sharingSvc sharingsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		sharingSvc = sharingsvc.NewWhatsAppService(whatsClient, baseLogger.Named("svc.sharing"))
		baseLogger.Info("whatsapp sharing enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, sharing disabled")
	}

	simulationHandler := handlers.NewSimulationHandler(simulationSvc, exportSvc, sharingSvc, collector, baseLogger.Named("handlers.simulation"))
	engine := router.New(simulationHandler, collector, registry, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Retention, simulationSvc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
