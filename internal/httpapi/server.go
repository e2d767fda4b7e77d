package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/sitenotifier/internal/httpapi/middleware"
	"github.com/hamed0406/sitenotifier/internal/metrics"
	"github.com/hamed0406/sitenotifier/internal/monitor"
	"github.com/hamed0406/sitenotifier/internal/status"
	"github.com/hamed0406/sitenotifier/internal/store"
)

type Server struct {
	Logger  *zap.Logger
	Sites   store.SiteStore
	Runner  *monitor.Runner
	Metrics *metrics.Metrics
	Now     func() time.Time

	// runMu keeps API-triggered runs from overlapping.
	runMu sync.Mutex
}

func NewServer(l *zap.Logger, sites store.SiteStore, runner *monitor.Runner, m *metrics.Metrics) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Sites: sites, Runner: runner, Metrics: m, Now: time.Now}
}

// Router builds the HTTP handler. Rate limits are requests per minute;
// zero disables the limit.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)
	r.Use(corsHandler(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(pubRPM, pubBurst))
		r.Get("/api/sites", s.handleListSites)
	})
	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(admRPM, admBurst))
		r.Post("/api/run", s.handleRun)
	})

	return r
}

func corsHandler(allowed []string) func(http.Handler) http.Handler {
	if len(allowed) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// siteView is the public shape of a site. Webhook URLs carry secrets and
// are never exposed; only whether a site has its own is reported.
type siteView struct {
	URL           string     `json:"url"`
	Name          string     `json:"name"`
	Enabled       bool       `json:"enabled"`
	Status        string     `json:"status"`
	FailedSince   *time.Time `json:"failed_since,omitempty"`
	DownFor       string     `json:"down_for,omitempty"`
	CustomWebhook bool       `json:"custom_webhook"`
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Sites.Load(r.Context())
	if err != nil {
		s.Logger.Error("list_sites_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load sites"})
		return
	}

	now := s.now().Unix()
	out := make([]siteView, 0, len(sites))
	for _, site := range sites {
		v := siteView{
			URL:     site.URL,
			Name:    site.Name,
			Enabled: site.Enabled,
			Status:  string(site.CurrentStatus),
		}
		if v.Status == "" {
			v.Status = "unknown"
		}
		_, v.CustomWebhook = site.Webhook()
		if site.CurrentStatus.IsFailed() && site.FailedTimestamp != nil {
			since := time.Unix(*site.FailedTimestamp, 0).UTC()
			v.FailedSince = &since
			v.DownFor = strings.Trim(status.FormatDowntime(*site.FailedTimestamp, now), "* ")
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.runMu.TryLock() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	defer s.runMu.Unlock()

	rep, err := s.Runner.RunOnce(r.Context())
	if err != nil {
		s.Logger.Error("api_run_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
