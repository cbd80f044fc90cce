package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/jobs"
	"TradePulse/internal/scheduler"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	applogger "TradePulse/pkg/logger"
)

// App owns the application lifecycle: the HTTP/websocket server, the
// per-symbol scheduler, the distribution queue, and the storage
// clients behind them.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	sched      *scheduler.Scheduler
	handler    xhttp.Handler
	store      drepo.SignalStore
	journal    drepo.Journal
	runner     *jobs.Runner
	redisCli   *redis.Client
	httpServer *xhttp.Server
}

// New creates an App with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	sched *scheduler.Scheduler,
	handler xhttp.Handler,
	store drepo.SignalStore,
	journal drepo.Journal,
	runner *jobs.Runner,
	redisCli *redis.Client,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		sched:    sched,
		handler:  handler,
		store:    store,
		journal:  journal,
		runner:   runner,
		redisCli: redisCli,
	}
}

// Run starts all services and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.runner.Start(); err != nil {
		a.log.Error("queue start error", applogger.Error(err))
		return err
	}

	a.sched.Start(ctx)
	a.log.Info("scheduler started",
		applogger.Duration("cycle_interval", a.cfg.Scheduler.CycleInterval))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown stops services in reverse start order.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// symbol loops observe the cancelled context
	a.sched.Wait()

	if err := a.runner.Stop(shutdownCtx); err != nil {
		a.log.Warn("queue stop error", applogger.Error(err))
	}
	if err := a.journal.Close(); err != nil {
		a.log.Warn("journal close error", applogger.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("signal store close error", applogger.Error(err))
	}
	if a.redisCli != nil {
		if err := a.redisCli.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
