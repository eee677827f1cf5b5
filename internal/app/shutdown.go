package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uiverse-scraper/internal/observability"
)

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. A
// positive maxRun also bounds the whole process.
func GracefulShutdown(parent context.Context, logger *observability.Logger, maxRun time.Duration) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if maxRun > 0 {
		ctx, cancel = context.WithTimeout(parent, maxRun)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
