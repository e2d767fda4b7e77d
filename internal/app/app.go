// Package app wires configuration into a ready-to-run Runner.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitenotifier/internal/config"
	"github.com/hamed0406/sitenotifier/internal/metrics"
	"github.com/hamed0406/sitenotifier/internal/monitor"
	"github.com/hamed0406/sitenotifier/internal/notify"
	"github.com/hamed0406/sitenotifier/internal/probe"
	"github.com/hamed0406/sitenotifier/internal/store"
	"github.com/hamed0406/sitenotifier/internal/store/file"
	"github.com/hamed0406/sitenotifier/internal/store/postgres"
)

type App struct {
	Logger  *zap.Logger
	Sites   store.SiteStore
	Runner  *monitor.Runner
	Metrics *metrics.Metrics

	closers []func()
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Logger: logger, Metrics: metrics.New()}

	sites, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Sites = sites
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	prober := probe.WithRetry(probe.NewHTTPProber(cfg.ProbeTimeout), cfg.RetryAttempts, cfg.RetryBackoff)
	notifier := notify.Multi{notify.Log{Logger: logger}, notify.NewSlack(cfg.NotifyTimeout)}

	r := monitor.NewRunner(
		logger,
		sites,
		prober,
		notifier,
		monitor.Engine{DefaultWebhook: cfg.DefaultWebhook},
		siteTimeout(cfg),
		cfg.MaxConcurrent,
	)
	r.Metrics = a.Metrics
	if cfg.DNSDiagnose {
		r.Diagnose = func(ctx context.Context, url string) probe.DNSStatus {
			return probe.Diagnose(ctx, nil, url)
		}
	}
	a.Runner = r

	if cfg.DefaultWebhook == "" {
		logger.Warn("default_webhook_empty")
	}
	return a, nil
}

// OpenStore picks Postgres when DATABASE_URL is set and the flat file
// otherwise. The returned func, if not nil, releases the store.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.SiteStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("site_store", zap.String("kind", "file"), zap.String("path", cfg.SitesFile))
		return file.New(cfg.SitesFile), nil, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	logger.Info("site_store", zap.String("kind", "postgres"))
	return pg, pg.Close, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// siteTimeout leaves room for every probe attempt and the backoff between
// them.
func siteTimeout(cfg config.Config) time.Duration {
	per := cfg.ProbeTimeout
	if per <= 0 {
		per = probe.DefaultTimeout
	}
	attempts := max(cfg.RetryAttempts, 1)
	return per*time.Duration(attempts) + cfg.RetryBackoff*time.Duration(attempts-1)
}
