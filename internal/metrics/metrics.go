package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters of one process on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry      *prometheus.Registry
	Probes        *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Runs          *prometheus.CounterVec
	LastRun       prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitenotifier",
			Name:      "probes_total",
			Help:      "Site probes by resulting status.",
		}, []string{"status"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitenotifier",
			Name:      "notifications_total",
			Help:      "Notifications by kind and delivery result.",
		}, []string{"kind", "result"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitenotifier",
			Name:      "runs_total",
			Help:      "Completed runs by result.",
		}, []string{"result"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sitenotifier",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
	m.Registry.MustRegister(
		m.Probes, m.Notifications, m.Runs, m.LastRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveProbe(status string) {
	if m == nil {
		return
	}
	m.Probes.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveRun(at time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Runs.WithLabelValues("failed").Inc()
		return
	}
	m.Runs.WithLabelValues("ok").Inc()
	m.LastRun.Set(float64(at.Unix()))
}
