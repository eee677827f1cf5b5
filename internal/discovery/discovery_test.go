package discovery

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uiverse-scraper/internal/observability"
)

type fakeSource struct {
	doc   string
	err   error
	calls int
}

func (f *fakeSource) Listing(ctx context.Context, listingURL string) (string, error) {
	f.calls++
	return f.doc, f.err
}

func newTestDiscoverer(t *testing.T, src ListingSource) *Discoverer {
	t.Helper()
	d, err := NewDiscoverer(src, Options{
		ListingURL:  "https://uiverse.io/elements?orderBy=recent",
		Oversample:  3,
		MinDiscover: 5,
	}, observability.NewNop())
	require.NoError(t, err)
	return d
}

func TestClampCount(t *testing.T) {
	tests := []struct{ in, want int }{
		{-3, 1}, {0, 1}, {1, 1}, {5, 5}, {10, 10}, {11, 10}, {1000, 10},
	}
	for _, tt := range tests {
		if got := ClampCount(tt.in); got != tt.want {
			t.Errorf("ClampCount(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsComponentURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://uiverse.io/alexruix/tame-fly-42", true},
		{"https://uiverse.io/alexruix/tame-fly-42/", true},
		{"https://uiverse.io/profile/tame-fly-42", false},
		{"https://uiverse.io/Tags/neon-3", false},
		{"https://uiverse.io/alexruix/tame-fly", false},
		{"https://uiverse.io/alexruix", false},
		{"https://uiverse.io/a/b/c-1", false},
		{"https://uiverse.io/elements", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		if got := IsComponentURL(tt.url, DefaultReserved); got != tt.want {
			t.Errorf("IsComponentURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestSeedsAreComponentURLs(t *testing.T) {
	seeds := Seeds()
	assert.Len(t, seeds, len(seedTable))
	for _, s := range seeds {
		assert.True(t, IsComponentURL(s, DefaultReserved), s)
	}

	seeds[0] = "mutated"
	assert.NotEqual(t, "mutated", Seeds()[0])
}

const listingPage = `<html><body>
<a href="/alexruix/tame-fly-42">dup of a seed</a>
<a href="/newauthor/shiny-cat-12#preview">card</a>
<a href="https://uiverse.io/other/quiet-dog-7?ref=home">card</a>
<a href="/newauthor/shiny-cat-12">same card again</a>
<a href="/profile/someone-1">profile</a>
<a href="/collections/best-10">collection</a>
<a href="/elements">section</a>
<a href="https://evil.example.com/x/y-1">off site</a>
<a href="mailto:hi@uiverse.io">mail</a>
<a>no href</a>
</body></html>`

func TestParseListing(t *testing.T) {
	base, _ := url.Parse("https://uiverse.io/elements?orderBy=recent")

	links, err := ParseListing(listingPage, base, DefaultReserved)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://uiverse.io/alexruix/tame-fly-42",
		"https://uiverse.io/newauthor/shiny-cat-12",
		"https://uiverse.io/other/quiet-dog-7",
	}, links)
}

func TestParseListingNeverReturnsInvalidPaths(t *testing.T) {
	base, _ := url.Parse("https://uiverse.io/")
	hrefs := []string{
		"/a/b-1", "/a/b-1/c", "/tag/x-2", "/search/q-3", "/", "", "//uiverse.io/x/y-9",
		"../up/one-4", "/Profile/p-5", "/x/y-z", "/only-6", "https://uiverse.io//double-7",
	}
	var b strings.Builder
	for _, h := range hrefs {
		b.WriteString(`<a href="` + h + `">x</a>`)
	}

	links, err := ParseListing(b.String(), base, DefaultReserved)
	require.NoError(t, err)

	reserved := map[string]bool{}
	for _, r := range DefaultReserved {
		reserved[r] = true
	}
	for _, l := range links {
		u, err := url.Parse(l)
		require.NoError(t, err)
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		assert.Len(t, segs, 2, l)
		assert.False(t, reserved[strings.ToLower(segs[0])], l)
	}
}

func TestDiscoverFallsBackToSeeds(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	d := newTestDiscoverer(t, src)

	got := d.Discover(context.Background(), 4, false)

	assert.Equal(t, Seeds()[:4], got)
	assert.Equal(t, 1, src.calls)
}

func TestDiscoverSeedsOnlySkipsListing(t *testing.T) {
	src := &fakeSource{doc: listingPage}
	d := newTestDiscoverer(t, src)

	got := d.Discover(context.Background(), 50, true)

	assert.Equal(t, Seeds()[:MaxCount], got)
	assert.Zero(t, src.calls)
}

func TestDiscoverPutsDiscoveredFirst(t *testing.T) {
	d := newTestDiscoverer(t, &fakeSource{doc: listingPage})

	got := d.Discover(context.Background(), 5, false)

	seeds := Seeds()
	assert.Equal(t, []string{
		"https://uiverse.io/alexruix/tame-fly-42",
		"https://uiverse.io/newauthor/shiny-cat-12",
		"https://uiverse.io/other/quiet-dog-7",
		seeds[1],
		seeds[2],
	}, got)
}

func TestDiscoverDedupesByComponentID(t *testing.T) {
	doc := `<a href="/codecite/angry-bullfrog-58">lowercase seed</a>
<a href="/CodeCite/Angry-Bullfrog-58">again</a>`
	d := newTestDiscoverer(t, &fakeSource{doc: doc})

	got := d.Discover(context.Background(), 10, false)

	require.Len(t, got, 10)
	assert.Equal(t, "https://uiverse.io/codecite/angry-bullfrog-58", got[0])
	for _, u := range got[1:] {
		assert.NotEqual(t, "codecite-angry-bullfrog-58", componentKey(u), "component %s queued twice", u)
	}
}

func TestComponentKey(t *testing.T) {
	assert.Equal(t, "codecite-angry-bullfrog-58", componentKey("https://uiverse.io/Codecite/angry-bullfrog-58"))
	assert.Equal(t, "codecite-angry-bullfrog-58", componentKey("https://uiverse.io/codecite/angry-bullfrog-58/"))
}

func TestDiscoverRespectsOversampleLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString(`<a href="/author` + string(rune('a'+i)) + `/thing-1">x</a>`)
	}
	d, err := NewDiscoverer(&fakeSource{doc: b.String()}, Options{
		ListingURL:  "https://uiverse.io/elements",
		Oversample:  1,
		MinDiscover: 2,
	}, observability.NewNop())
	require.NoError(t, err)

	got := d.Discover(context.Background(), 3, false)

	require.Len(t, got, 3)
	assert.Equal(t, "https://uiverse.io/authora/thing-1", got[0])
	assert.Equal(t, "https://uiverse.io/authorc/thing-1", got[2])
}

func TestNewDiscovererRejectsBadListing(t *testing.T) {
	_, err := NewDiscoverer(nil, Options{ListingURL: "not a url"}, observability.NewNop())
	assert.Error(t, err)
}
