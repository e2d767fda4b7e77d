package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitenotifier/internal/domain"
	"github.com/hamed0406/sitenotifier/internal/metrics"
	"github.com/hamed0406/sitenotifier/internal/notify"
	"github.com/hamed0406/sitenotifier/internal/probe"
	"github.com/hamed0406/sitenotifier/internal/store"
)

// Report summarises one run.
type Report struct {
	Sites        int       `json:"sites"`
	Checked      int       `json:"checked"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	Alerts       int       `json:"alerts"`
	Recoveries   int       `json:"recoveries"`
	NotifyErrors int       `json:"notify_errors"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Runner performs one pass over the site list: load, probe every enabled
// site, notify on transitions, save.
type Runner struct {
	Logger      *zap.Logger
	Sites       store.SiteStore
	Prober      probe.Prober
	Notifier    notify.Notifier
	Engine      Engine
	Timeout     time.Duration
	Concurrency int

	// Diagnose, when set, is called for unreachable sites and its result
	// is logged. It does not affect the site's status.
	Diagnose func(ctx context.Context, url string) probe.DNSStatus
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func NewRunner(
	logger *zap.Logger,
	sites store.SiteStore,
	prober probe.Prober,
	notifier notify.Notifier,
	engine Engine,
	timeout time.Duration,
	concurrency int,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	return &Runner{
		Logger:      logger,
		Sites:       sites,
		Prober:      prober,
		Notifier:    notifier,
		Engine:      engine,
		Timeout:     timeout,
		Concurrency: concurrency,
		Now:         time.Now,
	}
}

// outcome is what one site evaluation leaves behind; each goroutine owns
// exactly one slot.
type outcome struct {
	checked   bool
	decision  Decision
	notifyErr error
}

// RunOnce runs a single pass. Invalid sites abort the run before anything is
// probed. A notification that cannot be delivered is logged and the run goes
// on; failing to save the updated list is returned as an error. If ctx is
// cancelled the run stops without saving and returns the context error.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	rep := Report{StartedAt: r.now()}

	sites, err := r.Sites.Load(ctx)
	if err != nil {
		r.Metrics.ObserveRun(rep.StartedAt, err)
		return rep, fmt.Errorf("load sites: %w", err)
	}
	rep.Sites = len(sites)
	if len(sites) == 0 {
		r.Logger.Info("run_no_sites")
		rep.FinishedAt = r.now()
		return rep, nil
	}
	if err := domain.ValidateAll(sites); err != nil {
		r.Metrics.ObserveRun(rep.StartedAt, err)
		return rep, fmt.Errorf("invalid site list: %w", err)
	}

	r.Logger.Info("run_started", zap.Int("sites", len(sites)))

	updated := make([]domain.Site, len(sites))
	outcomes := make([]outcome, len(sites))

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup

	for i, site := range sites {
		if !site.Enabled || ctx.Err() != nil {
			updated[i] = site
			continue
		}
		i, site := i, site
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			outcomes[i] = r.evaluate(ctx, site)
			updated[i] = outcomes[i].decision.Site
		}()
	}
	wg.Wait()

	// A probe cut short by cancellation looks exactly like an unreachable
	// site, so nothing from an interrupted run is trusted or saved.
	if err := ctx.Err(); err != nil {
		r.Logger.Warn("run_cancelled", zap.Error(err))
		r.Metrics.ObserveRun(rep.StartedAt, err)
		rep.FinishedAt = r.now()
		return rep, fmt.Errorf("run cancelled: %w", err)
	}

	for i, o := range outcomes {
		if !o.checked {
			rep.Skipped++
			continue
		}
		rep.Checked++
		if o.decision.Status.IsFailed() {
			rep.Failed++
		}
		if n := o.decision.Notification; n != nil {
			switch n.Kind {
			case KindAlert:
				rep.Alerts++
			case KindRecovery:
				rep.Recoveries++
			}
			if o.notifyErr != nil {
				rep.NotifyErrors++
				r.Logger.Warn("notify_error",
					zap.String("url", sites[i].URL),
					zap.String("kind", string(n.Kind)),
					zap.Error(o.notifyErr),
				)
			}
		}
	}

	if err := r.Sites.Save(ctx, updated); err != nil {
		r.Logger.Error("save_error", zap.Error(err))
		r.Metrics.ObserveRun(rep.StartedAt, err)
		return rep, fmt.Errorf("save sites: %w", err)
	}

	rep.FinishedAt = r.now()
	r.Metrics.ObserveRun(rep.FinishedAt, nil)
	r.Logger.Info("run_finished",
		zap.Int("checked", rep.Checked),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Int("alerts", rep.Alerts),
		zap.Int("recoveries", rep.Recoveries),
		zap.Int("notify_errors", rep.NotifyErrors),
		zap.Duration("took", rep.FinishedAt.Sub(rep.StartedAt)),
	)
	return rep, nil
}

func (r *Runner) evaluate(ctx context.Context, site domain.Site) outcome {
	pctx, cancel := context.WithTimeout(ctx, r.Timeout)
	code := r.Prober.Probe(pctx, site.URL)
	cancel()
	if ctx.Err() != nil {
		return outcome{decision: Decision{Previous: site.CurrentStatus, Status: site.CurrentStatus, Site: site}}
	}

	d := r.Engine.Evaluate(site, code, r.now())
	r.Metrics.ObserveProbe(string(d.Status))

	r.Logger.Debug("site_checked",
		zap.String("url", site.URL),
		zap.String("name", site.Name),
		zap.Int("status_code", code),
		zap.String("previous", string(d.Previous)),
		zap.String("status", string(d.Status)),
	)
	if d.Previous != d.Status {
		r.Logger.Info("site_transition",
			zap.String("url", site.URL),
			zap.String("from", string(d.Previous)),
			zap.String("to", string(d.Status)),
			zap.String("reason", d.Reason),
		)
	}
	if code == probe.Unreachable && r.Diagnose != nil {
		dns := r.Diagnose(ctx, site.URL)
		r.Logger.Info("dns_check",
			zap.String("url", site.URL),
			zap.String("domain", dns.Domain),
			zap.String("class", dns.Class),
			zap.Strings("nameservers", dns.Nameservers),
			zap.String("resolver_error", dns.Err),
		)
	}

	o := outcome{checked: true, decision: d}
	if n := d.Notification; n != nil {
		if n.Kind == KindRecovery && site.FailedTimestamp == nil {
			r.Logger.Warn("recovery_without_failed_timestamp", zap.String("url", site.URL))
		}
		o.notifyErr = r.Notifier.Send(ctx, n.Endpoint, n.Text)
		r.Metrics.ObserveNotification(string(n.Kind), o.notifyErr)
	}
	return o
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
