package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/traysync/backend/config"
	"github.com/traysync/backend/internal/domain"
	"github.com/traysync/backend/internal/infrastructure/browser"
	"github.com/traysync/backend/internal/infrastructure/logger"
	"github.com/traysync/backend/internal/infrastructure/platformapi"
	"github.com/traysync/backend/internal/infrastructure/reportfile"
	"github.com/traysync/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("sync run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("starting sync run",
		zap.String("source", cfg.Source.URL),
		zap.String("target", cfg.Target.URL),
		zap.Bool("dry_run", cfg.Sync.DryRun),
		zap.Int("sync_limit", cfg.Sync.SyncLimit),
		zap.Int("page_limit", cfg.Sync.PageLimit))

	sourceDriver, err := newDriver(cfg, cfg.Source, log)
	if err != nil {
		return fmt.Errorf("source driver: %w", err)
	}
	defer sourceDriver.Close()

	targetDriver, err := newDriver(cfg, cfg.Target, log)
	if err != nil {
		return fmt.Errorf("target driver: %w", err)
	}
	defer targetDriver.Close()

	target := newCollector(targetDriver, cfg, cfg.Target.Label, log).Collect(ctx)
	log.Info("target catalog collected",
		zap.Int("products", target.Len()),
		zap.Int("pages", target.Audit.PagesVisited),
		zap.String("termination", string(target.Audit.Termination)))

	source := newCollector(sourceDriver, cfg, cfg.Source.Label, log).Collect(ctx)
	log.Info("source catalog collected",
		zap.Int("products", source.Len()),
		zap.Int("pages", source.Audit.PagesVisited),
		zap.String("termination", string(source.Audit.Termination)))

	reconciler := usecase.NewReconciler(usecase.ReconcilerConfig{
		DisableNameFallback: !cfg.Sync.NameFallback,
		Logger:              log,
	})
	result := reconciler.Reconcile(source, target)
	log.Info("catalogs reconciled",
		zap.Int("exact", len(result.Exact)),
		zap.Int("divergent", len(result.Divergent)),
		zap.Int("missing", len(result.Missing)))

	report := usecase.NewRunReport()
	report.SetAudits(source.Audit, target.Audit)
	report.SetMismatches(result.Divergent)

	executor := usecase.NewSyncExecutor(sourceDriver, newWriter(targetDriver, cfg, log), usecase.SyncExecutorConfig{
		DryRun:           cfg.Sync.DryRun,
		SyncLimit:        cfg.Sync.SyncLimit,
		MutationInterval: cfg.Sync.MutationInterval,
		Logger:           log,
	})
	executor.Run(ctx, result.Candidates(), report)

	paths, writeErr := reportfile.NewWriter(cfg.Report.Dir, log).WriteAll(report)
	for _, path := range paths {
		log.Info("report written", zap.String("path", path))
	}

	summary := report.Summary()
	log.Info("sync run finished",
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("mismatches", summary.Mismatches),
		zap.Int("anomalies", summary.Anomalies))

	if writeErr != nil {
		return fmt.Errorf("write reports: %w", writeErr)
	}
	if ctx.Err() != nil {
		log.Warn("run interrupted before completion, reports reflect partial progress")
	}
	return nil
}

func newDriver(cfg *config.Config, store config.StoreConfig, log *zap.Logger) (*browser.Driver, error) {
	return browser.New(browser.Config{
		BaseURL:           store.URL,
		StoreLabel:        store.Label,
		RemoteURL:         cfg.Driver.CDPURL,
		Headless:          cfg.Driver.Headless,
		NoSandbox:         cfg.Driver.NoSandbox,
		DeepLinkPaging:    cfg.Driver.DeepLinkPaging,
		PageSize:          cfg.Sync.PageSize,
		NavigationTimeout: cfg.Driver.NavigationTimeout,
		StepDelay:         cfg.Driver.StepDelay,
		Logger:            log.With(zap.String("store", store.Label)),
	})
}

func newCollector(driver *browser.Driver, cfg *config.Config, label string, log *zap.Logger) *usecase.Collector {
	return usecase.NewCollector(driver, usecase.CollectorConfig{
		StoreLabel:         label,
		PageSize:           cfg.Sync.PageSize,
		PageLimit:          cfg.Sync.PageLimit,
		ClickPagination:    !cfg.Driver.DeepLinkPaging,
		FingerprintTimeout: cfg.Driver.FingerprintTimeout,
		RetryBudget:        cfg.Driver.RetryBudget,
		Logger:             log,
	})
}

// newWriter picks where mutations go: the admin API when the target
// store has a token, otherwise the target's own browser session.
func newWriter(targetDriver *browser.Driver, cfg *config.Config, log *zap.Logger) domain.ProductWriter {
	if cfg.Target.APIToken != "" {
		log.Info("mutations will use the admin API", zap.String("store", cfg.Target.Label))
		return platformapi.NewClient(cfg.Target.URL, cfg.Target.APIToken, cfg.Sync.MutationInterval, log)
	}
	return targetDriver
}
