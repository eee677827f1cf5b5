// Package browser drives a single headless Chrome page: it reveals hidden
// code panels, harvests code-bearing text, listens to same-site JSON traffic
// and keeps the page on the target site.
package browser

import (
	"errors"
	"time"

	"uiverse-scraper/internal/extract"
	"uiverse-scraper/internal/normalize"
)

var (
	// ErrBrowserUnavailable means no Chrome could be found or started.
	ErrBrowserUnavailable = errors.New("browser automation unavailable")
	// ErrOffSite means the page left the target site and could not be
	// brought back.
	ErrOffSite = errors.New("page drifted off site")
	// ErrAccessDenied marks a frame whose document could not be read.
	ErrAccessDenied = errors.New("frame access denied")
)

// Options configures a Browser. Zero durations disable the matching wait.
type Options struct {
	BaseURL        string
	ChromePath     string
	Headless       bool
	NoSandbox      bool
	UserAgent      string
	AcceptLanguage string
	ViewportWidth  int
	ViewportHeight int

	NavigateTimeout   time.Duration
	SettleDelay       time.Duration
	CodeWaitTimeout   time.Duration
	DialogWaitTimeout time.Duration
	ClickSettle       time.Duration
	TabSettle         time.Duration
	ScrollDelay       time.Duration

	BlockOffsiteDocuments bool
	MinStateString        int

	Thresholds extract.Thresholds
	Normalize  normalize.Options
	Vocabulary Vocabulary
}

// Vocabulary is the text and selector knowledge the driver and harvester
// rely on. It can be overridden from a YAML file.
type Vocabulary struct {
	BannerLabels       []string `yaml:"banner_labels"`
	BannerSelectors    []string `yaml:"banner_selectors"`
	PanelLabels        []string `yaml:"panel_labels"`
	HTMLTabLabels      []string `yaml:"html_tab_labels"`
	CSSTabLabels       []string `yaml:"css_tab_labels"`
	ClickableSelectors []string `yaml:"clickable_selectors"`
	SkipPhrases        []string `yaml:"skip_phrases"`
	UnsafeLinkWords    []string `yaml:"unsafe_link_words"`
	DialogSelector     string   `yaml:"dialog_selector"`
	CodeWaitSelector   string   `yaml:"code_wait_selector"`
	TabWaitSelector    string   `yaml:"tab_wait_selector"`
	HTMLCodeSelectors  []string `yaml:"html_code_selectors"`
	CSSCodeSelectors   []string `yaml:"css_code_selectors"`
	StateSelector      string   `yaml:"state_selector"`
}

// DefaultVocabulary matches the uiverse.io component pages.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		BannerLabels:       []string{"accept", "agree", "okay", "ok", "got it", "close"},
		BannerSelectors:    []string{"button", `[role="button"]`, "a"},
		PanelLabels:        []string{"Get code", "Show code", "View code", "Code"},
		HTMLTabLabels:      []string{"HTML", "Markup", "Markup (HTML)"},
		CSSTabLabels:       []string{"CSS", "Tailwind CSS", "Tailwind", "Styles", "Style"},
		ClickableSelectors: []string{"button", `[role="tab"]`, `[role="button"]`},
		SkipPhrases:        []string{"code of conduct"},
		UnsafeLinkWords:    []string{"termly", "policy", "privacy", "terms"},
		DialogSelector:     `[role="dialog"], [aria-modal="true"], [data-state="open"]`,
		CodeWaitSelector:   "pre code, code, pre, textarea",
		TabWaitSelector:    `pre code, code, pre, textarea, .cm-content, [contenteditable="true"], [class*="code"]`,
		HTMLCodeSelectors: []string{
			"pre code", "code.language-html", `code[class*="language-"]`, "code",
			`pre[class*="language-"]`, "pre", "textarea", ".cm-content", `[contenteditable="true"]`,
			`div[class*="code"]`, `section[class*="code"]`,
			`[data-language*="html"]`, `[data-lang*="html"]`, `[aria-label*="html"]`,
		},
		CSSCodeSelectors: []string{
			"pre code", "code.language-css", `code[class*="language-"]`, "code",
			`pre[class*="language-"]`, "pre", "textarea", ".cm-content", `[contenteditable="true"]`,
			`div[class*="code"]`, `section[class*="code"]`,
			`[data-language*="css"]`, `[data-lang*="css"]`, `[aria-label*="css"]`,
		},
		StateSelector: extract.DefaultStateSelector,
	}
}
