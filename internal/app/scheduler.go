package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"uiverse-scraper/internal/config"
	"uiverse-scraper/internal/observability"
)

// Job is one scheduled scrape run.
type Job func(ctx context.Context) error

// Schedule runs job according to cfg.Scheduler. Oneshot returns the job's
// error; interval and cron modes log job errors and run until ctx is done.
func Schedule(ctx context.Context, cfg *config.Config, logger *observability.Logger, job Job) error {
	switch cfg.Scheduler.Mode {
	case "interval":
		return runEvery(ctx, cfg.GetSchedulerInterval(), logger, job)
	case "cron":
		return runCron(ctx, cfg.Scheduler.CronExpr, logger, job)
	default:
		return job(ctx)
	}
}

func runEvery(ctx context.Context, interval time.Duration, logger *observability.Logger, job Job) error {
	logger.Info("Interval scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := job(ctx); err != nil {
			logger.Error("Scheduled run failed", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			logger.Info("Interval scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Standard 5-field expressions: minute hour day month weekday.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func runCron(ctx context.Context, expr string, logger *observability.Logger, job Job) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	cl := cronLogger{logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	_, err := c.AddFunc(expr, func() {
		if err := job(ctx); err != nil {
			logger.Error("Scheduled run failed", "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	c.Start()
	logger.Info("Cron scheduler started", "expr", expr)

	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	logger.Info("Cron scheduler stopped")
	return nil
}

// cronLogger routes cron's own messages into the structured logger.
type cronLogger struct {
	logger *observability.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err.Error())...)
}
