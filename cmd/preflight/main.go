// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/sitenotifier/internal/config"
	"github.com/hamed0406/sitenotifier/internal/domain"
	"github.com/hamed0406/sitenotifier/internal/store/file"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	if cfg.DatabaseURL == "" {
		sites, err := file.New(cfg.SitesFile).Load(context.Background())
		if err != nil {
			fail("cannot read SITES_FILE: " + err.Error())
		}
		if len(sites) == 0 {
			warn(cfg.SitesFile + " has no sites; runs will do nothing.")
		}
		if err := domain.ValidateAll(sites); err != nil {
			for _, e := range multierr.Errors(err) {
				fmt.Fprintln(os.Stderr, "  -", e)
			}
			fail(cfg.SitesFile + " has invalid sites.")
		}
		enabled, custom := 0, 0
		for _, s := range sites {
			if s.Enabled {
				enabled++
			}
			if _, has := s.Webhook(); has {
				custom++
			}
		}
		ok(fmt.Sprintf("%s: %d sites, %d enabled, %d with their own webhook", cfg.SitesFile, len(sites), enabled, custom))
		if cfg.DefaultWebhook == "" && custom < len(sites) {
			warn("DEFAULT_WEBHOOK is empty; sites without channel_webhook cannot be notified.")
		}
	} else {
		ok("DATABASE_URL present; sites are read from Postgres")
		if cfg.DefaultWebhook == "" {
			warn("DEFAULT_WEBHOOK is empty; sites without channel_webhook cannot be notified.")
		}
	}

	// API settings only matter for cmd/api.
	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if v == "" {
			warn(name + " is empty; the API accepts unauthenticated requests for its routes.")
		} else if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; the API allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	ok("preflight passed")
}
