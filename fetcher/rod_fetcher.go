package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"ris-scraper/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodFetcher implements the Fetcher interface using rod (headless browser).
// It is meant for deployments where the plain HTTP client is blocked.
type RodFetcher struct {
	browser *rod.Browser
	log     logger.Logger
}

// chromePaths are tried in order before rod falls back to downloading Chromium
var chromePaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
}

// NewRodFetcher launches a headless browser and connects to it
func NewRodFetcher(userAgent string, log logger.Logger) (*RodFetcher, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-extensions")
	if userAgent != "" {
		l = l.Set("user-agent", userAgent)
	}

	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodFetcher{
		browser: browser,
		log:     log,
	}, nil
}

// Close closes the browser
func (rf *RodFetcher) Close() error {
	if rf.browser != nil {
		return rf.browser.Close()
	}
	return nil
}

// Fetch implements the Fetcher interface
func (rf *RodFetcher) Fetch(ctx context.Context, pageURL string, params url.Values) (string, error) {
	target, err := BuildURL(pageURL, params)
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}

	rf.log.Debug("Fetching page with browser", logger.String("url", target))

	page, err := rf.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", target, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			rf.log.Warn("Failed to close page", logger.Error(err))
		}
	}()

	// The site is server-rendered, a finished load event is enough
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", target, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}
