package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "hiace/internal/http"
	"hiace/internal/log"
	"hiace/internal/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API, the sync consumer and the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := GracefulShutdown(cmd.Context(), opts.Logger)
			defer cancel()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, logger := opts.Config, opts.Logger

	app, err := OpenApp(ctx, cfg, logger, opts.Factory)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Ledger:      app.Ledger,
		Automations: app.Automations,
		Objectives:  app.Objectives,
		Logger:      logger,
		SummaryTTL:  cfg.SummaryCacheTTL,
		Ready:       app.Ready,
	})
	srv.Start()

	var automations services.AutomationRunner
	if cfg.AutomationAutoApply {
		automations = app.Automations
	}
	scheduler := services.NewScheduler(app.Objectives, automations, services.SchedulerConfig{
		ObjectiveInterval:    cfg.ObjectiveCheckInterval,
		AutoApplyAutomations: cfg.AutomationAutoApply,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting hiace server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"sync", app.Remote != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return app.Consume(gctx)
	})

	g.Go(func() error {
		return scheduler.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(
			scheduler.Stop(shutdownCtx),
			srv.Shutdown(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
