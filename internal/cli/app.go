package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hiace/internal/backend"
	"hiace/internal/config"
	"hiace/internal/ledger"
	"hiace/internal/log"
	"hiace/internal/remote"
	"hiace/internal/services"
)

// App is one opened ledger with the services built over it.
type App struct {
	Config      *config.Config
	Logger      *log.Logger
	Ledger      *ledger.Ledger
	Automations *services.AutomationEngine
	Objectives  *services.ObjectiveReconciler

	// Remote is nil when no broker is configured or reachable.
	Remote  *remote.Adapter
	backend *backend.BackendResult
}

// OpenApp creates the configured backend, restores the ledger and, when a
// broker is available, attaches the remote adapter seeded from local state.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger, factory backend.Factory) (*App, error) {
	if factory == nil {
		factory = backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	l := ledger.New(
		ledger.WithPersister(result.Store),
		ledger.WithLogger(logger),
	)
	if err := l.Load(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("load ledger: %w", err), result.Cleanup())
	}

	app := &App{
		Config:      cfg,
		Logger:      logger,
		Ledger:      l,
		Automations: services.NewAutomationEngine(l),
		Objectives:  services.NewObjectiveReconciler(l),
		backend:     result,
	}

	if result.Transport != nil {
		adapter := remote.NewAdapter(cfg.SyncOrigin, result.Transport, l, logger)
		if err := adapter.Seed(l.Snapshot()); err != nil {
			return nil, errors.Join(fmt.Errorf("seed remote mirror: %w", err), result.Cleanup())
		}
		l.SetSyncer(adapter)
		app.Remote = adapter
		logger.InfoContext(ctx, "Remote sync enabled",
			log.FieldOrigin, cfg.SyncOrigin,
			log.FieldOperation, log.OpSync)
	}
	return app, nil
}

// Consume delivers inbound documents to the remote adapter until ctx ends.
// Without a broker it just waits.
func (a *App) Consume(ctx context.Context) error {
	if a.Remote == nil || a.backend.Transport == nil {
		<-ctx.Done()
		return nil
	}
	err := a.backend.Transport.Consume(ctx, a.Remote.HandleMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Ready reports whether the sync transport accepts publishes. A process
// without a broker is always ready.
func (a *App) Ready(ctx context.Context) error {
	if a.backend.Transport == nil {
		return nil
	}
	return a.backend.Transport.Ready(ctx)
}

// Close flushes the ledger and releases storage and transport.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Join(a.Ledger.Close(ctx), a.backend.Cleanup())
}
