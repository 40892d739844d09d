package commands

import (
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/config"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/database"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/jobs"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/scraper"
	"github.com/go-resty/resty/v2"
)

func browserOptions(cfg config.BrowserConfig, sc config.ScraperConfig) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Headless
	opts.Timeout = cfg.Timeout
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	opts.ViewportWidth = cfg.ViewportWidth
	opts.ViewportHeight = cfg.ViewportHeight
	opts.AcceptLanguage = cfg.AcceptLanguage
	opts.TimezoneID = cfg.TimezoneID
	opts.Locale = cfg.Locale
	opts.ProxyServer = cfg.ProxyServer
	opts.SettleDelay = cfg.SettleDelay
	opts.ClickPause = sc.ClickPause
	opts.NavigationAttempts = cfg.NavigationAttempts
	return opts
}

func scraperOptions(cfg config.ScraperConfig) scraper.Options {
	opts := scraper.DefaultOptions()
	opts.EntryTimeout = cfg.EntryTimeout
	opts.ClickPause = cfg.ClickPause
	opts.ListingSettle = cfg.ListingSettle
	opts.PageInterval = cfg.PageInterval
	opts.MaxPages = cfg.MaxPages
	if cfg.PageParam != "" {
		opts.Selectors.PageParam = cfg.PageParam
	}
	return opts
}

func databaseConfig(cfg config.DatabaseConfig) database.Config {
	return database.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		Database:    cfg.Name,
		SSLMode:     cfg.SSLMode,
		MaxConns:    cfg.MaxConns,
		MinConns:    cfg.MinConns,
		MaxConnLife: cfg.MaxConnLifetime,
		MaxConnIdle: cfg.MaxConnIdleTime,
	}
}

func jobOptions(cfg config.WorkerConfig) jobs.Options {
	return jobs.Options{
		PollInterval: cfg.PollInterval,
		RunTimeout:   cfg.RunTimeout,
		RunDelayMin:  cfg.RunDelayMin,
		RunDelayMax:  cfg.RunDelayMax,
	}
}

// opener is a session source that may hold a process to shut down.
type opener interface {
	browser.Opener
	Close() error
}

type staticOpener struct {
	*browser.Static
}

func (staticOpener) Close() error { return nil }

// newOpener starts Chromium unless static is set, in which case pages are
// fetched over plain HTTP.
func newOpener(static bool, opts *browser.Options) (opener, error) {
	if static {
		return staticOpener{browser.NewStatic(resty.New(), opts)}, nil
	}
	b, err := browser.New(opts)
	if err != nil {
		return nil, err
	}
	return b, nil
}
