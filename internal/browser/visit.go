package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"uiverse-scraper/internal/extract"
	"uiverse-scraper/internal/observability"
)

const bannerSettle = 300 * time.Millisecond

// Visit is one component page visit. It holds the browser turn and the
// network and navigation listeners until Close.
type Visit struct {
	browser *Browser
	page    *rod.Page
	logger  *observability.Logger
	sniffer *sniffer
	guard   *guard

	cancel    context.CancelFunc
	done      sync.WaitGroup
	closeOnce sync.Once
}

// Open takes the browser turn and subscribes the sniffer and the navigation
// guard. The listeners live until Close, whatever happens in between.
func (b *Browser) Open(ctx context.Context) (*Visit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.turn.Lock()

	subCtx, cancel := context.WithCancel(ctx)
	v := &Visit{
		browser: b,
		page:    b.page,
		logger:  b.logger,
		sniffer: newSniffer(b.siteHost, b.logger),
		guard:   newGuard(b.siteHost, b.logger),
		cancel:  cancel,
	}

	p := b.page.Context(subCtx)
	wait := p.EachEvent(
		v.sniffer.onResponse,
		func(e *proto.NetworkLoadingFinished) { v.sniffer.onFinished(p, e) },
		v.guard.onFrameNavigated,
	)

	v.done.Add(2)
	go func() {
		defer v.done.Done()
		wait()
	}()
	go func() {
		defer v.done.Done()
		v.guard.run(subCtx, b)
	}()

	return v, nil
}

// Close removes the listeners, waits for them to stop and releases the
// browser turn. It is safe to call more than once.
func (v *Visit) Close() error {
	v.closeOnce.Do(func() {
		v.cancel()
		v.done.Wait()
		v.browser.turn.Unlock()
	})
	return nil
}

func (v *Visit) Navigate(ctx context.Context, target string) error {
	return v.browser.navigate(ctx, target)
}

// DismissBanners clicks the first consent or notice control it finds.
func (v *Visit) DismissBanners(ctx context.Context) {
	vocab := v.browser.opts.Vocabulary
	selector := strings.Join(vocab.BannerSelectors, ", ")
	if selector == "" {
		return
	}
	p := v.page.Context(ctx)
	for _, label := range vocab.BannerLabels {
		res, err := p.Eval(bannerJS, labelPattern(label), selector, vocab.SkipPhrases, vocab.UnsafeLinkWords)
		if err != nil {
			v.logger.Debug("Banner scan failed", "label", label, "error", err)
			return
		}
		if res.Value.Bool() {
			v.logger.Debug("Dismissed banner", "label", label)
			_ = pause(ctx, bannerSettle)
			return
		}
	}
}

// labelPattern matches label as a whole word in lowercased control text, so
// "ok" matches "OK" and "Ok, thanks" but not "Cookie policy".
func labelPattern(label string) string {
	return `(^|[^a-z0-9])` + regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(label))) + `($|[^a-z0-9])`
}

// WaitForCode waits for any code-bearing element. Absence is not an error.
func (v *Visit) WaitForCode(ctx context.Context) bool {
	return v.waitFor(ctx, v.browser.opts.Vocabulary.CodeWaitSelector, v.browser.opts.CodeWaitTimeout)
}

func (v *Visit) Title(ctx context.Context) string {
	info, err := v.page.Context(ctx).Info()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(info.Title)
}

// OpenCodePanel clicks the first panel label that matches and waits for
// the panel to render. It returns the label that worked.
func (v *Visit) OpenCodePanel(ctx context.Context) (string, bool) {
	label, ok := v.clickFirst(ctx, v.browser.opts.Vocabulary.PanelLabels)
	if !ok {
		return "", false
	}
	v.waitFor(ctx, v.browser.opts.Vocabulary.DialogSelector, v.browser.opts.DialogWaitTimeout)
	v.waitFor(ctx, v.browser.opts.Vocabulary.CodeWaitSelector, v.browser.opts.CodeWaitTimeout)
	return label, true
}

// SelectTab switches to the first tab whose label matches. Whatever is on
// screen stays harvestable when no tab matches.
func (v *Visit) SelectTab(ctx context.Context, labels []string) (string, bool) {
	label, ok := v.clickFirst(ctx, labels)
	if ok {
		_ = pause(ctx, v.browser.opts.TabSettle)
	}
	v.waitFor(ctx, v.browser.opts.Vocabulary.TabWaitSelector, v.browser.opts.CodeWaitTimeout)
	return label, ok
}

func (v *Visit) clickFirst(ctx context.Context, labels []string) (string, bool) {
	for _, label := range labels {
		clicked, err := v.clickByLabel(ctx, label)
		if err != nil {
			v.logger.Debug("Click attempt failed", "label", label, "error", err)
			if ctx.Err() != nil {
				return "", false
			}
			continue
		}
		if clicked {
			return label, true
		}
	}
	return "", false
}

func (v *Visit) clickByLabel(ctx context.Context, label string) (bool, error) {
	vocab := v.browser.opts.Vocabulary
	res, err := v.page.Context(ctx).Eval(clickByLabelJS, label, vocab.ClickableSelectors, vocab.SkipPhrases, vocab.UnsafeLinkWords)
	if err != nil {
		return false, err
	}
	if !res.Value.Bool() {
		return false, nil
	}
	_ = pause(ctx, v.browser.opts.ClickSettle)
	return true, nil
}

func (v *Visit) waitFor(ctx context.Context, selector string, d time.Duration) bool {
	if selector == "" || d <= 0 {
		return false
	}
	waitCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	_, err := v.page.Context(waitCtx).Element(selector)
	return err == nil
}

// Extract reveals the code panel, reads the markup and style views, the
// embedded state and the sniffed pairs, and reconciles them.
func (v *Visit) Extract(ctx context.Context) (extract.Result, error) {
	vocab := v.browser.opts.Vocabulary

	if label, ok := v.OpenCodePanel(ctx); ok {
		v.logger.Debug("Opened code panel", "label", label)
	}

	var in extract.Inputs
	var err error

	if label, ok := v.SelectTab(ctx, vocab.HTMLTabLabels); ok {
		v.logger.Debug("Selected markup tab", "label", label)
	}
	if in.HTMLView, err = v.harvest(ctx, vocab.HTMLCodeSelectors); err != nil {
		if ctx.Err() != nil {
			return extract.Result{}, fmt.Errorf("extract: %w", ctx.Err())
		}
		v.logger.Warn("Markup harvest failed", "error", err)
	}

	if label, ok := v.SelectTab(ctx, vocab.CSSTabLabels); ok {
		v.logger.Debug("Selected style tab", "label", label)
	}
	if in.CSSView, err = v.harvest(ctx, vocab.CSSCodeSelectors); err != nil {
		if ctx.Err() != nil {
			return extract.Result{}, fmt.Errorf("extract: %w", ctx.Err())
		}
		v.logger.Warn("Style harvest failed", "error", err)
	}

	in.State = v.embeddedState(ctx)
	in.Network = v.sniffer.Pairs()

	if err := ctx.Err(); err != nil {
		return extract.Result{}, fmt.Errorf("extract: %w", err)
	}
	if err := v.guard.Err(); err != nil {
		return extract.Result{}, err
	}

	v.logger.Debug("Harvested candidates",
		"html_view", len(in.HTMLView),
		"css_view", len(in.CSSView),
		"network_pairs", len(in.Network),
		"state_pairs", len(in.State))

	return extract.Reconcile(in, v.browser.opts.Thresholds), nil
}

// embeddedState reads the state blob from the markup snapshot, or from the
// live window object when the snapshot has none. Failures yield nothing.
func (v *Visit) embeddedState(ctx context.Context) []extract.Pair {
	p := v.page.Context(ctx)
	minString := v.browser.opts.MinStateString

	doc, err := p.HTML()
	if err != nil {
		return nil
	}
	pairs, err := extract.ParseEmbeddedState(doc, v.browser.opts.Vocabulary.StateSelector, minString)
	if err == nil {
		return pairs
	}
	if !errors.Is(err, extract.ErrNoStateBlob) {
		v.logger.Debug("Embedded state unreadable", "error", err)
		return nil
	}

	res, err := p.Eval(nextDataJS)
	if err != nil {
		return nil
	}
	raw := res.Value.Str()
	if raw == "" {
		return nil
	}
	pairs, err = extract.ParseStateBlob(raw, minString)
	if err != nil {
		v.logger.Debug("Window state unreadable", "error", err)
		return nil
	}
	return pairs
}

// SaveArtifacts writes fail-<id>.html and fail-<id>.png into dir.
func (v *Visit) SaveArtifacts(ctx context.Context, dir, id string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}
	p := v.page.Context(ctx)
	base := filepath.Join(dir, "fail-"+id)

	doc, err := p.HTML()
	if err != nil {
		return fmt.Errorf("read page markup: %w", err)
	}
	if err := os.WriteFile(base+".html", []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write markup snapshot: %w", err)
	}

	shot, err := p.Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.WriteFile(base+".png", shot, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}

	v.logger.Info("Saved failure artifacts", "html", base+".html", "png", base+".png")
	return nil
}
