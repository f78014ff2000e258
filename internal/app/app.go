package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"hr_notify/internal/broker"
	"hr_notify/internal/config"
	"hr_notify/internal/queue"
	"hr_notify/internal/realtime"
	"hr_notify/internal/sse"
	"hr_notify/internal/telemetry"
)

type App struct {
	cfg       *config.Config
	hub       *sse.Hub
	bus       *realtime.Bus
	broker    broker.Broker
	consumer  queue.Consumer
	publisher queue.Publisher
	server    *http.Server
	logger    *zap.Logger
	wg        sync.WaitGroup

	mu                sync.Mutex
	telemetryShutdown telemetry.Shutdown
}

func NewApp(
	cfg *config.Config,
	hub *sse.Hub,
	bus *realtime.Bus,
	b broker.Broker,
	consumer queue.Consumer,
	publisher queue.Publisher,
	router *gin.Engine,
	logger *zap.Logger,
) *App {
	return &App{
		cfg:       cfg,
		hub:       hub,
		bus:       bus,
		broker:    b,
		consumer:  consumer,
		publisher: publisher,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
		logger: logger,
	}
}

// Run starts the background workers and serves HTTP until Shutdown. The
// workers stop when ctx is done.
func (a *App) Run(ctx context.Context) error {
	shutdown, err := telemetry.Init(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.telemetryShutdown = shutdown
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.hub.Run(ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.broker.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("broker stopped", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.consumer.Start(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	a.logger.Info("HTTP server listening", zap.String("addr", a.cfg.HTTPAddr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open streams first; http.Server.Shutdown does not wait for
// hijacked sockets and would wait forever on SSE responses.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("graceful shutdown started")
	a.hub.Close()
	a.bus.Close()
	shutdownErr := a.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if shutdownErr == nil {
			shutdownErr = ctx.Err()
		}
	}

	for _, c := range []any{a.broker, a.publisher} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				a.logger.Warn("close failed", zap.Error(err))
			}
		}
	}
	a.mu.Lock()
	telemetryShutdown := a.telemetryShutdown
	a.mu.Unlock()
	if telemetryShutdown != nil {
		if err := telemetryShutdown(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	if shutdownErr == nil {
		a.logger.Info("graceful shutdown completed")
	}
	return shutdownErr
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}
