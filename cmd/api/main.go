package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/db/migrations"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/config"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/productivity"
	appHTTP "github.com/nguyentranus1989/productivity-system-sub002/internal/handler/http"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/cron"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/database"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/metrics"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/shiftsource"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/repository/postgresql"
	idleService "github.com/nguyentranus1989/productivity-system-sub002/internal/service/idle"
	productivityService "github.com/nguyentranus1989/productivity-system-sub002/internal/service/productivity"
	reconcileService "github.com/nguyentranus1989/productivity-system-sub002/internal/service/reconcile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.App.LogLevel),
	})))

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	translator, err := timezone.NewTranslator(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx, migrations.Files); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	employeeRepo := postgresql.NewEmployeeRepository(db)
	directory := postgresql.NewEmployeeDirectory(db)
	roleRepo := postgresql.NewRoleConfigRepository(db)
	feed := postgresql.NewActivityFeed(db)
	intervalRepo := postgresql.NewClockIntervalRepository(db)
	lockRepo := postgresql.NewSyncLockRepository(db)
	periodRepo := postgresql.NewIdlePeriodRepository(db)
	scoreRepo := postgresql.NewDailyScoreRepository(db)

	shiftClient := shiftsource.NewClient(shiftsource.Config{
		BaseURL: cfg.ShiftAPI.URL,
		APIKey:  cfg.ShiftAPI.APIKey,
		Timeout: cfg.ShiftAPI.Timeout,
	})

	reconcileSvc := reconcileService.NewReconcileService(
		intervalRepo,
		lockRepo,
		shiftClient,
		directory,
		translator,
		m,
		reconcileService.Config{
			StaleAfter:   cfg.Reconcile.LockStaleAfter,
			MaxDuration:  cfg.Reconcile.MaxDuration,
			RetryBackoff: cfg.Reconcile.RetryBackoff,
		},
	)
	idleSvc := idleService.NewIdleService(intervalRepo, periodRepo, employeeRepo, roleRepo, feed, translator, m)
	productivitySvc := productivityService.NewProductivityService(
		intervalRepo,
		scoreRepo,
		employeeRepo,
		roleRepo,
		feed,
		translator,
		productivity.DefaultWeighting{
			ActiveWeight:     cfg.Score.ActiveWeight,
			ThroughputWeight: cfg.Score.ThroughputWeight,
		},
		m,
	)

	scheduler := cron.NewScheduler()
	cron.NewReconcileJobs(
		reconcileSvc,
		translator,
		cfg.Scheduler.ReconcileInterval,
		cfg.Scheduler.CatchupInterval,
		cfg.Scheduler.CatchupDays,
	).RegisterJobs(scheduler)
	cron.NewIdleJobs(idleSvc, cfg.Scheduler.IdleCheckInterval).RegisterJobs(scheduler)
	cron.NewScoreJobs(productivitySvc, translator, cfg.Scheduler.ScoreInterval).RegisterJobs(scheduler)

	reconcileHandler := appHTTP.NewReconcileHandler(reconcileSvc, scheduler, translator)
	idleHandler := appHTTP.NewIdleHandler(idleSvc, translator)
	productivityHandler := appHTTP.NewProductivityHandler(productivitySvc, translator)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			Version:        version,
			AllowedOrigins: cfg.CORSOrigin,
			Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		},
		reconcileHandler,
		idleHandler,
		productivityHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler.Start()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "timezone", cfg.App.Timezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serveErr:
		scheduler.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()

	slog.Info("Server stopped")
	return nil
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
