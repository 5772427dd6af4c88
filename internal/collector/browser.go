package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/seoscout/seoscout/internal/seo"
)

// BrowserConfig controls the headless performance probe.
type BrowserConfig struct {
	UserAgent         string
	NavigationTimeout time.Duration
}

// Browser implements seo.BrowserMetrics using chromedp and headless Chrome.
type Browser struct {
	cfg         BrowserConfig
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewBrowser creates a headless performance probe backed by chromedp.
func NewBrowser(cfg BrowserConfig) (*Browser, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Browser{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context.
func (b *Browser) Close() {
	b.allocCancel()
}

type browserTimings struct {
	PageLoadTime     float64 `json:"pageLoadTime"`
	DOMContentLoaded float64 `json:"domContentLoaded"`
	FirstByte        float64 `json:"firstByte"`
	TotalRequests    int     `json:"totalRequests"`
	TotalSize        int     `json:"totalSize"`
	Images           int     `json:"images"`
	Scripts          int     `json:"scripts"`
	Stylesheets      int     `json:"stylesheets"`
}

const timingScript = `(() => {
	const nav = performance.getEntriesByType('navigation')[0];
	const res = performance.getEntriesByType('resource');
	const byType = t => res.filter(r => r.initiatorType === t).length;
	return {
		pageLoadTime: nav ? nav.loadEventEnd - nav.startTime : 0,
		domContentLoaded: nav ? nav.domContentLoadedEventEnd - nav.startTime : 0,
		firstByte: nav ? nav.responseStart - nav.startTime : 0,
		totalRequests: res.length,
		totalSize: res.reduce((s, r) => s + (r.transferSize || 0), 0),
		images: byType('img'),
		scripts: byType('script'),
		stylesheets: byType('link'),
	};
})()`

// Measure navigates with a headless browser and reads the Navigation Timing
// and Resource Timing entries of the rendered page.
func (b *Browser) Measure(ctx context.Context, url string) (seo.Performance, error) {
	taskCtx, taskCancel := chromedp.NewContext(b.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, b.cfg.NavigationTimeout)
	defer cancel()

	var timings browserTimings
	actions := []chromedp.Action{
		b.userAgentAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Evaluate(timingScript, &timings),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return seo.Performance{}, fmt.Errorf("chromedp run: %w", err)
	}

	return seo.Performance{
		PageLoadTimeMs:     timings.PageLoadTime,
		DOMContentLoadedMs: timings.DOMContentLoaded,
		FirstByteMs:        timings.FirstByte,
		Resources: seo.ResourceStats{
			TotalRequests: timings.TotalRequests,
			TotalSize:     timings.TotalSize,
			Images:        timings.Images,
			Scripts:       timings.Scripts,
			Stylesheets:   timings.Stylesheets,
		},
	}, nil
}

func (b *Browser) userAgentAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if b.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(b.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}
