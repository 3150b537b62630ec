package bringfido

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetcher returns the rendered HTML of a page once it has settled.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, settle config.Interval) (string, error)
}

// ChromeFetcher renders pages in tabs of one shared headless Chrome.
type ChromeFetcher struct {
	browserCtx  context.Context
	cancel      context.CancelFunc
	pageTimeout time.Duration
}

// NewChromeFetcher launches the browser. Close must be called to stop it.
func NewChromeFetcher(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*ChromeFetcher, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[bringfido] Using browser binary: %s", chromeBin)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg.Headless, chromeBin)...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	timeout := cfg.PageTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	return &ChromeFetcher{browserCtx: browserCtx, cancel: cancel, pageTimeout: timeout}, nil
}

// Fetch opens url in a new tab, waits for the body and a random settle
// period, and returns the document's outer HTML.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string, settle config.Interval) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.pageTimeout)
	defer cancelTimeout()

	// Tie the tab to the caller so Ctrl-C aborts the navigation.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(utils.RandomDuration(settle.Min, settle.Max)),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("chromedp fetch %s: %w", url, err)
	}
	return html, nil
}

func (f *ChromeFetcher) Close() {
	f.cancel()
}

// CheckBrowser launches a throwaway browser, loads cfg.TestBrowserURL and
// returns the page title.
func CheckBrowser(ctx context.Context, cfg *config.Config) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(true, findChromeBinary(cfg.ChromeBin))...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, 10*time.Second)
	defer cancelTimeout()

	var title string
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(cfg.TestBrowserURL),
		chromedp.Title(&title),
	); err != nil {
		return "", fmt.Errorf("browser check: %w", err)
	}
	return title, nil
}

func allocatorOptions(headless bool, chromeBin string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}
	return opts
}

// findChromeBinary locates Chrome/Chromium. An explicit path wins.
func findChromeBinary(explicit string) string {
	if explicit != "" {
		return explicit
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
