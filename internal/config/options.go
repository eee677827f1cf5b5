package config

import (
	"uiverse-scraper/internal/browser"
	"uiverse-scraper/internal/discovery"
	"uiverse-scraper/internal/extract"
	"uiverse-scraper/internal/normalize"
	"uiverse-scraper/internal/observability"
)

func (c *Config) NormalizeOptions() normalize.Options {
	return normalize.Options{
		TrimNBSP:        c.Normalize.TrimNBSP,
		MaxSnippetChars: c.Normalize.MaxSnippetChars,
	}
}

func (c *Config) Thresholds() extract.Thresholds {
	return extract.Thresholds{
		MaterialityMargin: c.Heuristics.MaterialityMargin,
		MinViableHTML:     c.Heuristics.MinViableHTML,
	}
}

// BrowserOptions assembles the rod session settings. vocab usually comes
// from LoadVocabulary.
func (c *Config) BrowserOptions(vocab browser.Vocabulary) browser.Options {
	return browser.Options{
		BaseURL:        c.Site.BaseURL,
		ChromePath:     c.Rod.ChromePath,
		Headless:       c.Rod.Headless,
		NoSandbox:      c.Rod.NoSandbox,
		UserAgent:      c.Rod.UserAgent,
		AcceptLanguage: c.Rod.AcceptLanguage,
		ViewportWidth:  c.Rod.ViewportWidth,
		ViewportHeight: c.Rod.ViewportHeight,

		NavigateTimeout:   c.GetRodNavigateTimeout(),
		SettleDelay:       c.GetRodSettleDelay(),
		CodeWaitTimeout:   c.GetRodCodeWaitTimeout(),
		DialogWaitTimeout: c.GetRodDialogWaitTimeout(),
		ClickSettle:       c.GetRodClickSettle(),
		TabSettle:         c.GetRodTabSettle(),
		ScrollDelay:       c.GetDiscoveryScrollDelay(),

		BlockOffsiteDocuments: c.Rod.BlockOffsiteDocuments,
		MinStateString:        c.Heuristics.MinStateString,

		Thresholds: c.Thresholds(),
		Normalize:  c.NormalizeOptions(),
		Vocabulary: vocab,
	}
}

func (c *Config) DiscoveryOptions() discovery.Options {
	return discovery.Options{
		ListingURL:  c.Site.ListingURL,
		Reserved:    c.Discovery.ReservedSections,
		Oversample:  c.Discovery.Oversample,
		MinDiscover: c.Discovery.MinDiscover,
	}
}

func (c *Config) LogOptions() observability.LogOptions {
	return observability.LogOptions{
		Path:       c.Observability.LogPath,
		Level:      c.Observability.LogLevel,
		MaxSizeMB:  c.Observability.LogMaxSizeMB,
		MaxBackups: c.Observability.LogMaxBackups,
		MaxAgeDays: c.Observability.LogMaxAgeDays,
	}
}
