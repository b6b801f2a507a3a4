package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Kronos/internal/domain/repository"
	"Kronos/pkg/config"
	xhttp "Kronos/pkg/http"
	applogger "Kronos/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	recorder   repository.HistoryRecorder
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	recorder repository.HistoryRecorder,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		handler:  handler,
		recorder: recorder,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("data_dir", a.cfg.Data.Dir),
		applogger.String("model", a.cfg.Model.BaseURL))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.logger.Warn("recorder close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
