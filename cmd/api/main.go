package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/yamlfile"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := appHTTP.NewLogger(os.Stdout, cfg.LogLevel(), "payroll-engine", cfg.App.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalogRepo, closeCatalog, err := newCatalogRepository(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise payroll catalog", "source", cfg.Payroll.CatalogSource, "error", err)
		os.Exit(1)
	}
	defer closeCatalog()

	payrollMetrics := metrics.NewPayrollMetrics(prometheus.DefaultRegisterer)
	payrollSvc := payrollService.NewPayrollService(catalogRepo, payrollMetrics, payrollService.BatchOptions{
		Concurrency: cfg.Payroll.BatchConcurrency,
		Timeout:     cfg.Payroll.BatchTimeout,
	})
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.App.AllowedOrigins,
		Metrics:        promhttp.Handler(),
	}, payrollHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server running", "addr", server.Addr, "catalog_source", cfg.Payroll.CatalogSource)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}

func newCatalogRepository(ctx context.Context, cfg *config.Config) (payroll.CatalogRepository, func(), error) {
	switch cfg.Payroll.CatalogSource {
	case config.CatalogSourceFile:
		return yamlfile.NewCatalogRepository(cfg.Payroll.CatalogFile), func() {}, nil
	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := postgresql.EnsureCatalogSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgresql.NewCatalogRepository(db), db.Close, nil
	}
}
