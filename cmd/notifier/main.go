// Command notifier checks every enabled site once, posts alert and recovery
// messages, and saves the updated site list. It is meant to be run from cron.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/sitenotifier/internal/app"
	"github.com/hamed0406/sitenotifier/internal/config"
	"github.com/hamed0406/sitenotifier/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sitenotifier:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Runner.RunOnce(ctx); err != nil {
		logger.Error("run_failed", zap.Error(err))
		return err
	}
	return nil
}
