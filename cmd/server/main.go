package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/allocgrid/internal/config"
	"github.com/mamadbah2/allocgrid/internal/metrics"
	"github.com/mamadbah2/allocgrid/internal/repository/mongodb"
	"github.com/mamadbah2/allocgrid/internal/repository/sheets"
	"github.com/mamadbah2/allocgrid/internal/scheduler"
	"github.com/mamadbah2/allocgrid/internal/server/handlers"
	"github.com/mamadbah2/allocgrid/internal/server/router"
	allocationsvc "github.com/mamadbah2/allocgrid/internal/service/allocation"
	commandsvc "github.com/mamadbah2/allocgrid/internal/service/commands"
	exportsvc "github.com/mamadbah2/allocgrid/internal/service/export"
	reportingsvc "github.com/mamadbah2/allocgrid/internal/service/reporting"
	"github.com/mamadbah2/allocgrid/pkg/clients/allocationapi"
	"github.com/mamadbah2/allocgrid/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Logging.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	registry := metrics.NewRegistry()
	apiClient := allocationapi.NewClient(cfg.AllocationAPI)

	var runStore allocationsvc.RunStore
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		runStore = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, allocation run history disabled")
	}

	var sheetWriter exportsvc.SheetWriter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetWriter = sheetsRepo
	} else {
		baseLogger.Warn("google sheet id missing, sheets export disabled")
	}

	allocationSvc := allocationsvc.NewService(apiClient, runStore, registry, baseLogger.Named("svc.allocation"))
	reportingSvc := reportingsvc.NewService(allocationSvc, baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(allocationSvc, baseLogger.Named("svc.commands"))
	exportSvc := exportsvc.NewService(reportingSvc, sheetWriter, cfg.Sheets.Range, registry, baseLogger.Named("svc.export"))

	allocationHandler := handlers.NewAllocationHandler(allocationSvc, reportingSvc, commandDispatcher, exportSvc, baseLogger.Named("handlers.allocation"))
	engine := router.New(allocationHandler, registry.Handler(), baseLogger.Named("router"))

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.AllocationAPI.Timeout)
	if err := allocationSvc.Reload(loadCtx); err != nil {
		baseLogger.Warn("initial load failed, serving empty dataset", zap.Error(err))
	}
	cancelLoad()

	var publisher scheduler.Publisher
	if exportSvc.SheetsEnabled() {
		publisher = exportSvc
	}
	sched, err := scheduler.NewScheduler(cfg.Scheduler, allocationSvc, publisher, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AllocationAPI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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
