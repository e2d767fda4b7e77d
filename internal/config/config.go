package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	SitesFile      string        // flat site list, JSON or YAML by extension
	DefaultWebhook string        // used for sites without channel_webhook
	LogDir         string        // logs directory
	DatabaseURL    string        // when set, sites are kept in Postgres instead of SitesFile
	ProbeTimeout   time.Duration // per-site probe timeout
	NotifyTimeout  time.Duration // webhook POST timeout
	MaxConcurrent  int           // sites probed at once
	RetryAttempts  int           // probe attempts for unreachable sites; 1 = no retry
	RetryBackoff   time.Duration // backoff between retries
	DNSDiagnose    bool          // log a DNS diagnosis for unreachable sites

	// API server (cmd/api)
	Addr           string
	PublicAPIKeys  []string
	AdminAPIKeys   []string
	AllowedOrigins []string
	PublicRPM      int
	PublicBurst    int
	AdminRPM       int
	AdminBurst     int
}

func FromEnv() Config {
	sitesFile := os.Getenv("SITES_FILE")
	if sitesFile == "" {
		sitesFile = "./example-siteList.json"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	// Bind address (Windows-friendly default)
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	return Config{
		SitesFile:      sitesFile,
		DefaultWebhook: strings.TrimSpace(os.Getenv("DEFAULT_WEBHOOK")),
		LogDir:         logDir,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ProbeTimeout:   millis("PROBE_TIMEOUT_MS", 3500*time.Millisecond),
		NotifyTimeout:  millis("NOTIFY_TIMEOUT_MS", 10*time.Second),
		MaxConcurrent:  positive("MAX_CONCURRENT_CHECKS", 4),
		RetryAttempts:  positive("RETRY_ATTEMPTS", 1),
		RetryBackoff:   millis("RETRY_BACKOFF_MS", 300*time.Millisecond),
		DNSDiagnose:    boolean("DNS_DIAGNOSE", true),

		Addr:           addr,
		PublicAPIKeys:  list("PUBLIC_API_KEYS"),
		AdminAPIKeys:   list("ADMIN_API_KEYS"),
		AllowedOrigins: list("ALLOWED_ORIGINS"),
		PublicRPM:      positive("PUBLIC_RPM", 120),
		PublicBurst:    positive("PUBLIC_BURST", 60),
		AdminRPM:       positive("ADMIN_RPM", 30),
		AdminBurst:     positive("ADMIN_BURST", 10),
	}
}

func millis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func positive(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func boolean(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func list(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
