package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uiverse-scraper/internal/catalog"
	"uiverse-scraper/internal/config"
	"uiverse-scraper/internal/extract"
	"uiverse-scraper/internal/observability"
	"uiverse-scraper/internal/storage"
)

type pageBehavior struct {
	navErr   error
	title    string
	result   extract.Result
	extErr   error
	hang     bool
	artifact bool
}

type fakeSession struct {
	mu        sync.Mutex
	pages     map[string]pageBehavior
	opened    int
	closed    int
	artifacts []string
	openErr   error
}

func (s *fakeSession) Open(ctx context.Context) (PageVisit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opened++
	return &fakeVisit{session: s}, nil
}

type fakeVisit struct {
	session *fakeSession
	page    pageBehavior
}

func (v *fakeVisit) Navigate(ctx context.Context, target string) error {
	v.session.mu.Lock()
	v.page = v.session.pages[target]
	v.session.mu.Unlock()
	return v.page.navErr
}

func (v *fakeVisit) DismissBanners(ctx context.Context) {}

func (v *fakeVisit) WaitForCode(ctx context.Context) bool { return true }

func (v *fakeVisit) Title(ctx context.Context) string { return v.page.title }

func (v *fakeVisit) Extract(ctx context.Context) (extract.Result, error) {
	if v.page.hang {
		<-ctx.Done()
		return extract.Result{}, ctx.Err()
	}
	return v.page.result, v.page.extErr
}

func (v *fakeVisit) SaveArtifacts(ctx context.Context, dir, id string) error {
	v.session.mu.Lock()
	defer v.session.mu.Unlock()
	v.session.artifacts = append(v.session.artifacts, filepath.Join(dir, id))
	return nil
}

func (v *fakeVisit) Close() error {
	v.session.mu.Lock()
	defer v.session.mu.Unlock()
	v.session.closed++
	return nil
}

type fixedURLs []string

func (f fixedURLs) Discover(ctx context.Context, count int, seedsOnly bool) []string {
	if len(f) > count {
		return f[:count]
	}
	return f
}

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*storage.ComponentRecord
}

func (r *fakeRepo) EnsureSchema(ctx context.Context) error { return nil }

func (r *fakeRepo) UpsertItem(ctx context.Context, rec *storage.ComponentRecord) (bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.records == nil {
		r.records = make(map[string]*storage.ComponentRecord)
	}
	prev, ok := r.records[rec.ID]
	r.records[rec.ID] = rec
	switch {
	case !ok:
		return true, false, nil
	case prev.CheckSum != rec.CheckSum:
		return false, true, nil
	default:
		return false, false, nil
	}
}

func (r *fakeRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[id]
	return ok, nil
}

func (r *fakeRepo) GetItemCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records), nil
}

func (r *fakeRepo) Close() error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Run.PolitenessDelayMS = 0
	cfg.Run.OutputPath = filepath.Join(dir, "catalog.json")
	cfg.Run.DebugDir = filepath.Join(dir, "debug")
	cfg.Rod.ExtractTimeoutS = 1
	cfg.Observability.MetricsPath = filepath.Join(dir, "metrics.prom")
	return cfg
}

func goodResult() extract.Result {
	return extract.Result{
		HTML:       `<button class="btn">Hi</button>`,
		CSS:        ".btn{color:red;}",
		Provenance: extract.Provenance{HTML: extract.OriginDOM, CSS: extract.OriginDOM},
	}
}

const (
	urlA = "https://uiverse.io/alice/button-1"
	urlB = "https://uiverse.io/bob/card-2"
	urlC = "https://uiverse.io/carol/loader-3"
)

func TestRunNavigationTimeoutDoesNotAbortBatch(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{pages: map[string]pageBehavior{
		urlA: {navErr: fmt.Errorf("navigate %s: %w", urlA, context.DeadlineExceeded)},
		urlB: {title: "Card", result: goodResult()},
	}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA, urlB}, nil, observability.NewMetrics())

	stats, err := o.Run(context.Background(), RunOptions{Count: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.TimedOut)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, session.closed)

	cat, err := catalog.Read(cfg.Run.OutputPath)
	require.NoError(t, err)
	require.Len(t, cat.Items, 2)

	assert.Equal(t, "alice-button-1", cat.Items[0].ID)
	assert.False(t, cat.Items[0].Success)
	assert.Contains(t, cat.Items[0].Error, "deadline exceeded")

	assert.Equal(t, "bob-card-2", cat.Items[1].ID)
	assert.True(t, cat.Items[1].Success)
	assert.Equal(t, "Card", cat.Items[1].Title)

	assert.Equal(t, 1, cat.Count)
	assert.Equal(t, 2, cat.Requested)
	assert.Equal(t, 2, cat.Attempted)

	metrics, err := os.ReadFile(cfg.Observability.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `uiverse_visits_total{outcome="timeout"} 1`)
	assert.Contains(t, string(metrics), `uiverse_visits_total{outcome="success"} 1`)
	assert.Contains(t, string(metrics), `uiverse_field_origin_total{field="html",origin="dom"} 1`)
}

func TestRunExtractionTimeout(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{pages: map[string]pageBehavior{
		urlA: {hang: true},
		urlB: {result: goodResult()},
	}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA, urlB}, nil, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TimedOut)
	assert.Equal(t, 1, stats.Succeeded)

	cat, err := catalog.Read(cfg.Run.OutputPath)
	require.NoError(t, err)
	require.Len(t, cat.Items, 2)
	assert.Contains(t, cat.Items[0].Error, "timed out")
	assert.True(t, cat.Items[1].Success)
}

func TestRunExtractionTimeoutSavesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{pages: map[string]pageBehavior{
		urlA: {hang: true},
	}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA}, nil, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TimedOut)
	assert.Equal(t, []string{filepath.Join(cfg.Run.DebugDir, "alice-button-1")}, session.artifacts)

	cat, err := catalog.Read(cfg.Run.OutputPath)
	require.NoError(t, err)
	require.Len(t, cat.Items, 1)
	assert.False(t, cat.Items[0].Success)
	assert.Empty(t, cat.Items[0].HTML)
	assert.Contains(t, cat.Items[0].Error, "timed out")
}

func TestRunNoArtifactsWithoutDebugDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.DebugDir = ""
	session := &fakeSession{pages: map[string]pageBehavior{
		urlA: {extErr: errors.New("boom")},
	}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA}, nil, nil)

	_, err := o.Run(context.Background(), RunOptions{Count: 1})
	require.NoError(t, err)
	assert.Empty(t, session.artifacts)
}

func TestRunEmptyResultSavesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{pages: map[string]pageBehavior{
		urlA: {title: "Empty"},
	}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA}, nil, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Empty)
	assert.Equal(t, []string{filepath.Join(cfg.Run.DebugDir, "alice-button-1")}, session.artifacts)

	cat, err := catalog.Read(cfg.Run.OutputPath)
	require.NoError(t, err)
	require.Len(t, cat.Items, 1)
	assert.False(t, cat.Items[0].Success)
	assert.Equal(t, 0, cat.Count)
}

func TestRunExtractErrorIsRecorded(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{pages: map[string]pageBehavior{
		urlA: {extErr: errors.New("page drifted off site")},
	}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA}, nil, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []string{filepath.Join(cfg.Run.DebugDir, "alice-button-1")}, session.artifacts)

	cat, err := catalog.Read(cfg.Run.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "page drifted off site", cat.Items[0].Error)
}

func TestRunOpenFailureIsRecorded(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{openErr: errors.New("target closed")}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA, urlB}, nil, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 2, stats.Attempted)
}

func TestRunIDCollisionOverwrites(t *testing.T) {
	cfg := testConfig(t)
	upper := "https://uiverse.io/Alice/Button-1"
	session := &fakeSession{pages: map[string]pageBehavior{
		urlA:  {result: goodResult()},
		upper: {title: "second", result: goodResult()},
	}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA, upper}, nil, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Replaced)

	cat, err := catalog.Read(cfg.Run.OutputPath)
	require.NoError(t, err)
	require.Len(t, cat.Items, 1)
	assert.Equal(t, "second", cat.Items[0].Title)
	assert.Equal(t, 2, cat.Attempted)
}

func TestRunClampsCount(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{pages: map[string]pageBehavior{}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA, urlB, urlC}, nil, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Requested)
	assert.Equal(t, 1, stats.Attempted)
}

func TestRunOutputPathOverride(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "nested", "out.json")
	session := &fakeSession{pages: map[string]pageBehavior{urlA: {result: goodResult()}}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA}, nil, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 1, OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, stats.OutputPath)

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestRunMirrorsToStorage(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{pages: map[string]pageBehavior{
		urlA: {result: goodResult()},
		urlB: {},
	}}
	repo := &fakeRepo{}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA, urlB}, repo, nil)

	stats, err := o.Run(context.Background(), RunOptions{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.StoredNew)

	stats, err = o.Run(context.Background(), RunOptions{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.StoredNew)
	assert.Equal(t, 2, stats.StoredUnchanged)

	rec := repo.records["alice-button-1"]
	require.NotNil(t, rec)
	assert.Equal(t, "dom", rec.HTMLOrigin)
	assert.Len(t, rec.CheckSum, 64)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	cfg := testConfig(t)
	session := &fakeSession{pages: map[string]pageBehavior{}}
	o := NewOrchestrator(cfg, observability.NewNop(), session, fixedURLs{urlA, urlB}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := o.Run(ctx, RunOptions{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Attempted)
	assert.Contains(t, stats.StoppedReason, "cancelled")

	cat, err := catalog.Read(cfg.Run.OutputPath)
	require.NoError(t, err)
	assert.Empty(t, cat.Items)
}

func TestScheduleOneshot(t *testing.T) {
	cfg := config.Default()
	var calls int32
	boom := errors.New("boom")

	err := Schedule(context.Background(), cfg, observability.NewNop(), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRunEveryRepeatsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32

	err := runEvery(ctx, 5*time.Millisecond, observability.NewNop(), func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 3 {
			cancel()
		}
		return nil
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestScheduleRejectsBadCron(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.Mode = "cron"
	cfg.Scheduler.CronExpr = "every tuesday"

	err := Schedule(context.Background(), cfg, observability.NewNop(), func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}
