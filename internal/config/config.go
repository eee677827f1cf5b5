package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Site                SiteConfig          `yaml:"site"`
	Run                 RunConfig           `yaml:"run"`
	Rod                 RodConfig           `yaml:"rod"`
	Discovery           DiscoveryConfig     `yaml:"discovery"`
	Backoff             BackoffConfig       `yaml:"backoff"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	HTTP                HttpConfig          `yaml:"http"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	Heuristics          HeuristicsConfig    `yaml:"heuristics"`
	SelectorsFile       string              `yaml:"selectors_file"`
	Normalize           NormalizeConfig     `yaml:"normalize"`
	Storage             StorageConfig       `yaml:"storage"`
	Scheduler           SchedulerConfig     `yaml:"scheduler"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type SiteConfig struct {
	BaseURL    string `yaml:"base_url"`
	ListingURL string `yaml:"listing_url"`
}

type RunConfig struct {
	DefaultCount      int    `yaml:"default_count"`
	SeedsOnly         bool   `yaml:"seeds_only"`
	OutputPath        string `yaml:"output_path"`
	DebugDir          string `yaml:"debug_dir"`
	PolitenessDelayMS int    `yaml:"politeness_delay_ms"`
	MaxRunS           int    `yaml:"max_run_s"`
}

type RodConfig struct {
	ChromePath            string `yaml:"chrome_path"`
	Headless              bool   `yaml:"headless"`
	NoSandbox             bool   `yaml:"no_sandbox"`
	UserAgent             string `yaml:"user_agent"`
	AcceptLanguage        string `yaml:"accept_language"`
	ViewportWidth         int    `yaml:"viewport_width"`
	ViewportHeight        int    `yaml:"viewport_height"`
	NavigateTimeoutS      int    `yaml:"navigate_timeout_s"`
	SettleDelayMS         int    `yaml:"settle_delay_ms"`
	CodeWaitTimeoutS      int    `yaml:"code_wait_timeout_s"`
	DialogWaitTimeoutS    int    `yaml:"dialog_wait_timeout_s"`
	ExtractTimeoutS       int    `yaml:"extract_timeout_s"`
	ClickSettleMS         int    `yaml:"click_settle_ms"`
	TabSettleMS           int    `yaml:"tab_settle_ms"`
	BlockOffsiteDocuments bool   `yaml:"block_offsite_documents"`
}

type DiscoveryConfig struct {
	Mode             string   `yaml:"mode"`
	ReservedSections []string `yaml:"reserved_sections"`
	ScrollDelayMS    int      `yaml:"scroll_delay_ms"`
	Oversample       int      `yaml:"oversample"`
	MinDiscover      int      `yaml:"min_discover"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type HttpConfig struct {
	UserAgent        string `yaml:"user_agent"`
	ConnectTimeoutMS int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS   int    `yaml:"total_timeout_ms"`
	MaxRetries       int    `yaml:"max_retries"`
	AcceptLanguage   string `yaml:"accept_language"`
	RespectRobots    bool   `yaml:"respect_robots"`
}

type RateLimitConfig struct {
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
}

// HeuristicsConfig carries the empirically tuned reconciliation knobs.
type HeuristicsConfig struct {
	MaterialityMargin int `yaml:"materiality_margin"`
	MinViableHTML     int `yaml:"min_viable_html"`
	MinStateString    int `yaml:"min_state_string"`
}

type NormalizeConfig struct {
	TrimNBSP        bool `yaml:"trim_nbsp"`
	MaxSnippetChars int  `yaml:"max_snippet_chars"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type SchedulerConfig struct {
	Mode      string `yaml:"mode"`
	IntervalS int    `yaml:"interval_s"`
	CronExpr  string `yaml:"cron_expr"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
	MetricsPath   string `yaml:"metrics_path"`
}

// Default returns a configuration that scrapes uiverse.io with the
// reference timings. A config file only needs to carry overrides.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:    "https://uiverse.io",
			ListingURL: "https://uiverse.io/elements?orderBy=recent",
		},
		Run: RunConfig{
			DefaultCount:      5,
			OutputPath:        "public/uiverse_components.json",
			DebugDir:          "public/debug",
			PolitenessDelayMS: 400,
		},
		Rod: RodConfig{
			Headless:              true,
			NoSandbox:             true,
			UserAgent:             "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123 Safari/537.36",
			AcceptLanguage:        "en-US,en;q=0.9",
			ViewportWidth:         1200,
			ViewportHeight:        900,
			NavigateTimeoutS:      45,
			SettleDelayMS:         1200,
			CodeWaitTimeoutS:      8,
			DialogWaitTimeoutS:    5,
			ExtractTimeoutS:       30,
			ClickSettleMS:         600,
			TabSettleMS:           400,
			BlockOffsiteDocuments: true,
		},
		Discovery: DiscoveryConfig{
			Mode:             "browser",
			ReservedSections: []string{"profile", "collection", "collections", "tag", "tags", "search"},
			ScrollDelayMS:    600,
			Oversample:       3,
			MinDiscover:      5,
		},
		Backoff: BackoffConfig{
			MinMS:     250,
			MaxMS:     2000,
			JitterPct: 20,
		},
		RobotsCacheTTLHours: 12,
		HTTP: HttpConfig{
			UserAgent:        "Mozilla/5.0 (compatible; UiverseCatalogBot/1.0)",
			ConnectTimeoutMS: 10000,
			TotalTimeoutMS:   30000,
			MaxRetries:       2,
			AcceptLanguage:   "en-US,en;q=0.9",
			RespectRobots:    true,
		},
		RateLimit: RateLimitConfig{
			MaxConcurrentPerHost: 1,
			RPM:                  30,
		},
		Heuristics: HeuristicsConfig{
			MaterialityMargin: 40,
			MinViableHTML:     50,
			MinStateString:    5,
		},
		Normalize: NormalizeConfig{
			TrimNBSP:        true,
			MaxSnippetChars: 200000,
		},
		Storage: StorageConfig{
			Driver:           "none",
			CommandTimeoutMS: 5000,
		},
		Scheduler: SchedulerConfig{
			Mode: "oneshot",
		},
		Observability: ObservabilityConfig{
			LogPath:       "logs/uiverse-scraper.log",
			LogLevel:      "info",
			LogMaxSizeMB:  20,
			LogMaxBackups: 3,
			LogMaxAgeDays: 14,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	base, err := url.Parse(c.Site.BaseURL)
	if err != nil || base.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL")
	}
	if c.Site.ListingURL == "" {
		return fmt.Errorf("site.listing_url is required")
	}
	if c.Run.DefaultCount <= 0 {
		return fmt.Errorf("run.default_count must be > 0")
	}
	if c.Run.OutputPath == "" {
		return fmt.Errorf("run.output_path is required")
	}
	if c.Run.PolitenessDelayMS < 0 {
		return fmt.Errorf("run.politeness_delay_ms must be >= 0")
	}
	if c.Rod.NavigateTimeoutS <= 0 {
		return fmt.Errorf("rod.navigate_timeout_s must be > 0")
	}
	if c.Rod.ExtractTimeoutS <= 0 {
		return fmt.Errorf("rod.extract_timeout_s must be > 0")
	}
	if c.Rod.CodeWaitTimeoutS < 0 || c.Rod.DialogWaitTimeoutS < 0 {
		return fmt.Errorf("rod wait timeouts must be >= 0")
	}
	if c.Rod.SettleDelayMS < 0 || c.Rod.ClickSettleMS < 0 || c.Rod.TabSettleMS < 0 {
		return fmt.Errorf("rod delays must be >= 0")
	}
	switch c.Discovery.Mode {
	case "browser", "http", "off":
	default:
		return fmt.Errorf("discovery.mode must be 'browser', 'http' or 'off'")
	}
	if c.Discovery.Oversample <= 0 {
		return fmt.Errorf("discovery.oversample must be > 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.Heuristics.MaterialityMargin < 0 || c.Heuristics.MinViableHTML < 0 || c.Heuristics.MinStateString < 0 {
		return fmt.Errorf("heuristics values must be >= 0")
	}
	switch c.Storage.Driver {
	case "", "none":
	case "mssql", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is %q", c.Storage.Driver)
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	default:
		return fmt.Errorf("storage.driver must be 'none', 'mssql' or 'postgres'")
	}
	if c.Scheduler.Mode == "" || (c.Scheduler.Mode != "interval" && c.Scheduler.Mode != "cron" && c.Scheduler.Mode != "oneshot") {
		return fmt.Errorf("scheduler.mode must be 'interval', 'cron' or 'oneshot'")
	}
	if c.Scheduler.Mode == "interval" && c.Scheduler.IntervalS <= 0 {
		return fmt.Errorf("scheduler.interval_s must be > 0 when mode is 'interval'")
	}
	if c.Scheduler.Mode == "cron" && c.Scheduler.CronExpr == "" {
		return fmt.Errorf("scheduler.cron_expr must be set when mode is 'cron'")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetSchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalS) * time.Second
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetPolitenessDelay() time.Duration {
	return time.Duration(c.Run.PolitenessDelayMS) * time.Millisecond
}

func (c *Config) GetMaxRun() time.Duration {
	return time.Duration(c.Run.MaxRunS) * time.Second
}

func (c *Config) GetRodNavigateTimeout() time.Duration {
	return time.Duration(c.Rod.NavigateTimeoutS) * time.Second
}

func (c *Config) GetRodSettleDelay() time.Duration {
	return time.Duration(c.Rod.SettleDelayMS) * time.Millisecond
}

func (c *Config) GetRodCodeWaitTimeout() time.Duration {
	return time.Duration(c.Rod.CodeWaitTimeoutS) * time.Second
}

func (c *Config) GetRodDialogWaitTimeout() time.Duration {
	return time.Duration(c.Rod.DialogWaitTimeoutS) * time.Second
}

func (c *Config) GetRodExtractTimeout() time.Duration {
	return time.Duration(c.Rod.ExtractTimeoutS) * time.Second
}

func (c *Config) GetRodClickSettle() time.Duration {
	return time.Duration(c.Rod.ClickSettleMS) * time.Millisecond
}

func (c *Config) GetRodTabSettle() time.Duration {
	return time.Duration(c.Rod.TabSettleMS) * time.Millisecond
}

func (c *Config) GetDiscoveryScrollDelay() time.Duration {
	return time.Duration(c.Discovery.ScrollDelayMS) * time.Millisecond
}
