package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeOptions controls how ChromeFetcher drives the browser.
type ChromeOptions struct {
	// ChromePath optionally overrides the Chrome/Chromium executable path.
	// If empty, chromedp will try to find a browser on PATH / default locations.
	ChromePath string
	// Headless controls whether Chrome runs without a visible window.
	Headless bool
	// Timeout is the per-page deadline for navigation + rendering + capture.
	// If <= 0, DefaultChromeTimeout is used.
	Timeout time.Duration
	// WaitSelector optionally waits for a CSS selector to become visible before
	// capturing the page.
	WaitSelector string
}

// ChromeFetcher renders workshop pages in a real Chrome/Chromium browser via the
// DevTools protocol. Use it when plain HTTP responses lack the rendered listing
// (age gates, script-injected collection children).
type ChromeFetcher struct {
	opts ChromeOptions
}

// NewChromeFetcher returns a fetcher using opts.
func NewChromeFetcher(opts ChromeOptions) *ChromeFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultChromeTimeout
	}
	return &ChromeFetcher{opts: opts}
}

// Options returns the effective options.
func (f *ChromeFetcher) Options() ChromeOptions {
	return f.opts
}

func (f *ChromeFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	allocatorOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocatorOpts = append(allocatorOpts,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.UserAgent(UserAgent),
	)
	if f.opts.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(f.opts.ChromePath))
	}
	if f.opts.Headless {
		allocatorOpts = append(allocatorOpts, chromedp.Headless)
	} else {
		allocatorOpts = append(allocatorOpts, chromedp.Flag("headless", false))
	}
	return allocatorOpts
}

// Fetch loads url and returns the rendered <html> outerHTML once the network is idle.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, f.opts.Timeout)
	defer cancelRun()

	waitForNetworkIdle := func(ctx context.Context) error {
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}

		ch := make(chan struct{}, 1)
		chromedp.ListenTarget(ctx, func(ev interface{}) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		})

		if err := chromedp.Navigate(url).Do(ctx); err != nil {
			return err
		}

		select {
		case <-ch:
			log.Printf("Network idle reached for %s", url)
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}

	var html string
	actions := []chromedp.Action{
		chromedp.ActionFunc(waitForNetworkIdle),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if strings.TrimSpace(f.opts.WaitSelector) != "" {
		actions = append(actions, chromedp.WaitVisible(f.opts.WaitSelector, chromedp.ByQuery))
	}
	actions = append(actions,
		chromedp.Sleep(DefaultNetworkIdleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return html, nil
}
