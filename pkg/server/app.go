package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "snowroll/internal/domain/repository"
	"snowroll/internal/usecase"
	pkgch "snowroll/pkg/clickhouse"
	"snowroll/pkg/config"
	xhttp "snowroll/pkg/http"
	applogger "snowroll/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	engine      *usecase.Engine
	publisher   domrepo.EventPublisher
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.Engine,
	publisher domrepo.EventPublisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		engine:    engine,
		publisher: publisher,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Engine exposes the ingestion engine for one-shot command modes.
func (a *App) Engine() *usecase.Engine { return a.engine }

// RunOnce executes a single roll pass and releases resources.
func (a *App) RunOnce(ctx context.Context) error {
	defer a.closeClients()
	report, err := a.engine.Roll(ctx)
	if err != nil {
		return err
	}
	a.logReport(report)
	return nil
}

// RunFill ingests one calendar date across the watchlist and releases
// resources.
func (a *App) RunFill(ctx context.Context, date time.Time) error {
	defer a.closeClients()
	report, err := a.engine.FillDate(ctx, date)
	if err != nil {
		return err
	}
	a.logReport(report)
	return nil
}

// Run starts the HTTP server and the roll scheduler, blocking until
// interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path, a.log),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	if a.cfg.Scheduler.RollInterval > 0 {
		go a.rollLoop(ctx)
		a.log.Info("roll scheduler started",
			applogger.Duration("interval", a.cfg.Scheduler.RollInterval))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// rollLoop runs periodic roll passes until the context is cancelled.
func (a *App) rollLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Scheduler.RollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := a.engine.Roll(ctx)
			if err != nil {
				a.log.Error("scheduled roll error", applogger.Error(err))
				continue
			}
			a.logReport(report)
		}
	}
}

func (a *App) logReport(report *usecase.Report) {
	fields := []applogger.Field{
		applogger.String("op", report.Op),
		applogger.Int("processed", len(report.Processed)),
		applogger.Int("skipped", len(report.Skipped)),
		applogger.Int("failed", len(report.Failed)),
	}
	if report.Date != "" {
		fields = append(fields, applogger.String("date", report.Date))
	}
	a.log.Info("ingestion pass complete", fields...)
	for _, f := range report.Failed {
		a.log.Warn("symbol failed",
			applogger.String("symbol", f.Symbol),
			applogger.String("op", f.Op),
			applogger.String("reason", f.Reason))
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	a.closeClients()
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) closeClients() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
}
