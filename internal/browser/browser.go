package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"uiverse-scraper/internal/normalize"
	"uiverse-scraper/internal/observability"
)

// Browser owns one Chrome process and one page. Visits and listing reads
// take turns on that page.
type Browser struct {
	opts       Options
	logger     *observability.Logger
	siteHost   string
	normalizer *normalize.Normalizer

	launcher *launcher.Launcher
	rod      *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter

	turn sync.Mutex
}

// Launch starts Chrome and prepares the shared page. A missing binary is
// reported as ErrBrowserUnavailable.
func Launch(ctx context.Context, opts Options, logger *observability.Logger) (*Browser, error) {
	siteHost, err := SiteHost(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	bin := opts.ChromePath
	if bin == "" {
		found, ok := launcher.LookPath()
		if !ok {
			return nil, fmt.Errorf("%w: no Chrome or Chromium binary found", ErrBrowserUnavailable)
		}
		bin = found
	}

	l := launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to launch %s: %v", ErrBrowserUnavailable, bin, err)
	}

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: failed to connect: %v", ErrBrowserUnavailable, err)
	}

	b := &Browser{
		opts:       opts,
		logger:     logger,
		siteHost:   siteHost,
		normalizer: normalize.NewNormalizer(opts.Normalize),
		launcher:   l,
		rod:        rb,
	}

	if err := b.preparePage(); err != nil {
		_ = b.Close()
		return nil, err
	}

	logger.Info("Browser launched", "bin", bin, "headless", opts.Headless, "site", siteHost)
	return b, nil
}

func (b *Browser) preparePage() error {
	page, err := b.rod.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	b.page = page

	if b.opts.ViewportWidth > 0 && b.opts.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  b.opts.ViewportWidth,
			Height: b.opts.ViewportHeight,
		}); err != nil {
			b.logger.Warn("Failed to set viewport", "error", err)
		}
	}

	if b.opts.UserAgent != "" || b.opts.AcceptLanguage != "" {
		if err := (proto.NetworkSetUserAgentOverride{
			UserAgent:      b.opts.UserAgent,
			AcceptLanguage: b.opts.AcceptLanguage,
		}).Call(page); err != nil {
			b.logger.Warn("Failed to override user agent", "error", err)
		}
	}

	if b.opts.BlockOffsiteDocuments {
		router := page.HijackRequests()
		if err := router.Add("*", "", func(h *rod.Hijack) {
			if blockDocument(h.Request.Type(), h.Request.URL(), b.siteHost) {
				b.logger.Debug("Blocked off-site document", "url", h.Request.URL().String())
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}); err != nil {
			return fmt.Errorf("failed to install request router: %w", err)
		}
		go router.Run()
		b.router = router
	}

	return nil
}

// navigate loads target and waits for DOMContentLoaded plus the settle
// delay. The navigation timeout yields context.DeadlineExceeded.
func (b *Browser) navigate(ctx context.Context, target string) error {
	navCtx := ctx
	if b.opts.NavigateTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, b.opts.NavigateTimeout)
		defer cancel()
	}

	p := b.page.Context(navCtx)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(target); err != nil {
		if ctxErr := navCtx.Err(); ctxErr != nil {
			return fmt.Errorf("navigate %s: %w", target, ctxErr)
		}
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	wait()
	if err := navCtx.Err(); err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}

	return pause(ctx, b.opts.SettleDelay)
}

// back steps the history back one entry and waits for the document.
func (b *Browser) back(ctx context.Context) error {
	backCtx := ctx
	if b.opts.NavigateTimeout > 0 {
		var cancel context.CancelFunc
		backCtx, cancel = context.WithTimeout(ctx, b.opts.NavigateTimeout)
		defer cancel()
	}

	p := b.page.Context(backCtx)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.NavigateBack(); err != nil {
		return err
	}
	wait()
	return backCtx.Err()
}

func (b *Browser) currentURL(ctx context.Context) (string, error) {
	info, err := b.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Listing renders a listing page, scrolls to the bottom so lazily loaded
// cards appear, and returns the resulting markup.
func (b *Browser) Listing(ctx context.Context, listingURL string) (string, error) {
	b.turn.Lock()
	defer b.turn.Unlock()

	if err := b.navigate(ctx, listingURL); err != nil {
		return "", err
	}

	p := b.page.Context(ctx)
	if _, err := p.Eval(scrollToBottomJS); err != nil {
		b.logger.Debug("Listing scroll failed", "error", err)
	}
	if err := pause(ctx, b.opts.ScrollDelay); err != nil {
		return "", err
	}

	doc, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("read listing markup: %w", err)
	}
	return doc, nil
}

// Close stops the router, the browser and the Chrome process.
func (b *Browser) Close() error {
	var firstErr error
	if b.router != nil {
		if err := b.router.Stop(); err != nil {
			firstErr = err
		}
	}
	if b.rod != nil {
		if err := b.rod.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
	return firstErr
}

// pause waits d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
