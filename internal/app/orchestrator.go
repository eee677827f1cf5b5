// Package app sequences a scrape run: discovery, one browser visit per
// component page, the catalog write and the optional storage mirror.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uiverse-scraper/internal/browser"
	"uiverse-scraper/internal/catalog"
	"uiverse-scraper/internal/checksum"
	"uiverse-scraper/internal/config"
	"uiverse-scraper/internal/discovery"
	"uiverse-scraper/internal/extract"
	"uiverse-scraper/internal/observability"
	"uiverse-scraper/internal/storage"
)

// PageVisit is one component page opened in the browser.
type PageVisit interface {
	Navigate(ctx context.Context, target string) error
	DismissBanners(ctx context.Context)
	WaitForCode(ctx context.Context) bool
	Title(ctx context.Context) string
	Extract(ctx context.Context) (extract.Result, error)
	SaveArtifacts(ctx context.Context, dir, id string) error
	Close() error
}

// Session hands out page visits one at a time.
type Session interface {
	Open(ctx context.Context) (PageVisit, error)
}

// URLSource produces the work queue for a run.
type URLSource interface {
	Discover(ctx context.Context, count int, seedsOnly bool) []string
}

type browserSession struct {
	b *browser.Browser
}

// BrowserSession adapts a launched browser to Session.
func BrowserSession(b *browser.Browser) Session {
	return browserSession{b: b}
}

func (s browserSession) Open(ctx context.Context) (PageVisit, error) {
	return s.b.Open(ctx)
}

type Orchestrator struct {
	cfg        *config.Config
	logger     *observability.Logger
	session    Session
	urls       URLSource
	repo       storage.Repository
	metrics    *observability.Metrics
	checksumer *checksum.Generator
}

// NewOrchestrator wires a run. repo and metrics may be nil.
func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	session Session,
	urls URLSource,
	repo storage.Repository,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		session:    session,
		urls:       urls,
		repo:       repo,
		metrics:    metrics,
		checksumer: checksum.NewGenerator(),
	}
}

type RunOptions struct {
	Count      int
	SeedsOnly  bool
	OutputPath string
}

type RunStats struct {
	Requested int
	Attempted int
	Succeeded int
	Empty     int
	Failed    int
	TimedOut  int
	Replaced  int

	StoredNew       int
	StoredUpdated   int
	StoredUnchanged int
	StoreErrors     int

	OutputPath    string
	Duration      time.Duration
	StoppedReason string
}

// Run visits every discovered page in order and writes the catalog. Errors
// from a single page end up in its item; only a failed catalog write is
// returned.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunStats, error) {
	started := time.Now()

	count := discovery.ClampCount(opts.Count)
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = o.cfg.Run.OutputPath
	}
	seedsOnly := opts.SeedsOnly || o.cfg.Run.SeedsOnly

	urls := o.urls.Discover(ctx, count, seedsOnly)

	o.logger.Info("Starting scrape run",
		"requested", count,
		"queued", len(urls),
		"seeds_only", seedsOnly,
		"output", outputPath,
	)

	stats := &RunStats{Requested: count, OutputPath: outputPath}
	cat := catalog.New(count, 0)

	for i, rawURL := range urls {
		if err := ctx.Err(); err != nil {
			stats.StoppedReason = fmt.Sprintf("cancelled before page %d: %v", i+1, err)
			o.logger.Warn("Run cancelled", "remaining", len(urls)-i, "error", err.Error())
			break
		}
		if i > 0 {
			if err := sleep(ctx, o.cfg.GetPolitenessDelay()); err != nil {
				continue
			}
		}

		src, err := catalog.NewComponentSource(rawURL)
		if err != nil {
			o.logger.Warn("Skipping malformed component url", "url", rawURL, "error", err.Error())
			continue
		}

		stats.Attempted++
		item, outcome := o.visit(ctx, src)
		o.record(stats, outcome)

		if prev, replaced := cat.Add(item); replaced {
			stats.Replaced++
			o.logger.Warn("Component id collision, keeping the later item",
				"id", item.ID,
				"previous_url", prev.URL,
				"url", item.URL,
			)
		}
	}

	if stats.StoppedReason == "" {
		stats.StoppedReason = "queue exhausted"
	}

	cat.Attempted = stats.Attempted
	cat.Finalize(time.Now())

	if err := catalog.NewWriter(outputPath).Write(cat); err != nil {
		o.logger.Error("Failed to write catalog", "path", outputPath, "error", err.Error())
		return stats, fmt.Errorf("write catalog: %w", err)
	}

	o.mirror(ctx, cat, stats)

	stats.Duration = time.Since(started)

	if o.metrics != nil {
		o.metrics.SetCatalogItems(cat.Count)
		if err := o.metrics.WriteTextfile(o.cfg.Observability.MetricsPath); err != nil {
			o.logger.Warn("Failed to write metrics", "error", err.Error())
		}
	}

	o.logger.Info("Scrape run completed",
		"requested", stats.Requested,
		"attempted", stats.Attempted,
		"succeeded", stats.Succeeded,
		"empty", stats.Empty,
		"failed", stats.Failed,
		"timed_out", stats.TimedOut,
		"replaced", stats.Replaced,
		"duration", stats.Duration.String(),
		"reason", stats.StoppedReason,
	)

	return stats, nil
}

// visit runs one page. It always yields an item.
func (o *Orchestrator) visit(ctx context.Context, src catalog.ComponentSource) (catalog.ScrapeItem, string) {
	started := time.Now()
	logger := o.logger.With("id", src.ID, "url", src.URL)

	item, outcome := o.scrape(ctx, src, logger)

	if o.metrics != nil {
		o.metrics.ObserveVisit(outcome, time.Since(started))
		if item.Provenance != nil {
			o.metrics.ObserveOrigin("html", string(item.Provenance.HTML))
			o.metrics.ObserveOrigin("css", string(item.Provenance.CSS))
		}
	}

	logger.Info("Visited component page",
		"outcome", outcome,
		"success", item.Success,
		"html_len", len(item.HTML),
		"css_len", len(item.CSS),
		"elapsed", time.Since(started).String(),
	)
	return item, outcome
}

func (o *Orchestrator) scrape(ctx context.Context, src catalog.ComponentSource, logger *observability.Logger) (catalog.ScrapeItem, string) {
	v, err := o.session.Open(ctx)
	if err != nil {
		logger.Error("Failed to open page", "error", err.Error())
		return catalog.FailedItem(src, "", err), classifyErr(err, observability.OutcomeError)
	}
	defer func() {
		if err := v.Close(); err != nil {
			logger.Warn("Failed to release page", "error", err.Error())
		}
	}()

	if err := v.Navigate(ctx, src.URL); err != nil {
		logger.Warn("Navigation failed", "error", err.Error())
		return catalog.FailedItem(src, "", err), classifyErr(err, observability.OutcomeNavigation)
	}

	v.DismissBanners(ctx)
	if !v.WaitForCode(ctx) {
		logger.Debug("No code selector appeared, extracting anyway")
	}
	title := v.Title(ctx)

	res, err := o.extractWithin(ctx, v)
	if err != nil {
		logger.Warn("Extraction failed", "error", err.Error())
		o.saveArtifacts(ctx, v, src, logger)
		return catalog.FailedItem(src, title, err), classifyErr(err, observability.OutcomeError)
	}

	item := catalog.NewItem(src, title, res)
	if item.Success {
		return item, observability.OutcomeSuccess
	}

	logger.Warn("No code found on page")
	o.saveArtifacts(ctx, v, src, logger)
	return item, observability.OutcomeEmpty
}

// saveArtifacts snapshots a page that yielded neither html nor css, whether
// extraction came back empty, failed or ran out of time.
func (o *Orchestrator) saveArtifacts(ctx context.Context, v PageVisit, src catalog.ComponentSource, logger *observability.Logger) {
	dir := o.cfg.Run.DebugDir
	if dir == "" || ctx.Err() != nil {
		return
	}
	if err := v.SaveArtifacts(ctx, dir, src.ID); err != nil {
		logger.Warn("Failed to save debug artifacts", "error", err.Error())
	}
}

type extraction struct {
	res extract.Result
	err error
}

// extractWithin races the whole extraction stage against the extract
// timeout. On expiry the stage is cancelled and drained so the page is idle
// before the next visit starts.
func (o *Orchestrator) extractWithin(ctx context.Context, v PageVisit) (extract.Result, error) {
	budget := o.cfg.GetRodExtractTimeout()
	ectx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan extraction, 1)
	go func() {
		res, err := v.Extract(ectx)
		done <- extraction{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ectx.Done():
		<-done
		if err := ctx.Err(); err != nil {
			return extract.Result{}, fmt.Errorf("extraction cancelled: %w", err)
		}
		return extract.Result{}, fmt.Errorf("extraction timed out after %s: %w", budget, ectx.Err())
	}
}

func (o *Orchestrator) record(stats *RunStats, outcome string) {
	switch outcome {
	case observability.OutcomeSuccess:
		stats.Succeeded++
	case observability.OutcomeEmpty:
		stats.Empty++
	case observability.OutcomeTimeout:
		stats.TimedOut++
		stats.Failed++
	default:
		stats.Failed++
	}
}

// mirror upserts every catalog item into the repository. Storage errors are
// logged and counted, never fatal: the JSON catalog is the contract.
func (o *Orchestrator) mirror(ctx context.Context, cat *catalog.Catalog, stats *RunStats) {
	if o.repo == nil {
		return
	}

	for _, item := range cat.Items {
		rec := storage.NewRecord(item, o.checksumer, cat.ScrapedAt)
		isNew, isUpdated, err := o.repo.UpsertItem(ctx, rec)
		switch {
		case err != nil:
			stats.StoreErrors++
			o.logger.Error("Failed to store component", "id", item.ID, "error", err.Error())
		case isNew:
			stats.StoredNew++
		case isUpdated:
			stats.StoredUpdated++
		default:
			stats.StoredUnchanged++
		}
	}

	o.logger.Info("Catalog mirrored to storage",
		"new", stats.StoredNew,
		"updated", stats.StoredUpdated,
		"unchanged", stats.StoredUnchanged,
		"errors", stats.StoreErrors,
	)
}

func classifyErr(err error, fallback string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return observability.OutcomeTimeout
	}
	return fallback
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
