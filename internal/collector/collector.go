// Package collector gathers raw SEO signals from a target page. Every
// collaborator is allowed to fail: the failing section keeps its zero value
// and collection carries on.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/seo"
)

const (
	wordsPerMinute    = 200
	probeContentLimit = 500
)

// Config controls collection behavior.
type Config struct {
	UserAgent    string
	ProbeTimeout time.Duration
}

// Collector extracts seo.RawSignals for a URL.
type Collector struct {
	cfg     Config
	fetcher seo.PageFetcher
	browser seo.BrowserMetrics
	probes  *http.Client
	clock   seo.Clock
	logger  *zap.Logger
}

// New builds a Collector. The browser collaborator may be nil; performance
// timings then fall back to what the plain fetch measured.
func New(cfg Config, fetcher seo.PageFetcher, browser seo.BrowserMetrics, clock seo.Clock, logger *zap.Logger) *Collector {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	return &Collector{
		cfg:     cfg,
		fetcher: fetcher,
		browser: browser,
		probes:  &http.Client{Timeout: cfg.ProbeTimeout},
		clock:   clock,
		logger:  logger,
	}
}

// Collect assembles the raw signals for a URL. Only an unparseable URL is
// rejected; a failed page fetch, auxiliary probe or browser measurement
// leaves its sections empty and collection carries on.
func (c *Collector) Collect(ctx context.Context, rawURL string) (seo.RawSignals, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return seo.RawSignals{}, fmt.Errorf("invalid url %q", rawURL)
	}

	signals := seo.RawSignals{
		URL:       rawURL,
		Timestamp: c.clock.Now(),
		BasicInfo: seo.BasicInfo{
			Domain:     parsed.Hostname(),
			SSLEnabled: parsed.Scheme == "https",
		},
		TrafficData: map[string]any{
			"available": false,
			"note":      "traffic data source not configured",
		},
		SERPData: map[string]any{
			"available": false,
			"note":      "search ranking data source not configured",
		},
	}

	doc, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		c.logger.Warn("page fetch failed, content signals degraded",
			zap.String("url", rawURL), zap.Error(err))
	} else {
		signals.Performance = seo.Performance{
			MeasuredLoadTimeMs: float64(doc.Duration.Milliseconds()),
			StatusCode:         doc.StatusCode,
			SizeBytes:          len(doc.Body),
		}
		page, parseErr := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
		if parseErr != nil {
			c.logger.Warn("parse html failed", zap.String("url", rawURL), zap.Error(parseErr))
		} else {
			signals.ContentAnalysis = c.extractContent(page, parsed)
			signals.TechnicalSEO = c.extractTechnical(page, parsed)
		}
	}

	c.probeAuxiliary(ctx, parsed, &signals.TechnicalSEO)
	c.measurePerformance(ctx, rawURL, &signals.Performance)

	return signals, nil
}

func (c *Collector) extractContent(page *goquery.Document, base *url.URL) seo.ContentAnalysis {
	title := strings.TrimSpace(page.Find("title").First().Text())
	description, _ := page.Find(`meta[name="description"]`).Attr("content")
	description = strings.TrimSpace(description)
	keywords, _ := page.Find(`meta[name="keywords"]`).Attr("content")

	headings := make(map[string][]string)
	for _, level := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		page.Find(level).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" {
				headings[level] = append(headings[level], text)
			}
		})
	}

	var images seo.ImageStats
	page.Find("img").Each(func(_ int, s *goquery.Selection) {
		images.Total++
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			images.WithAlt++
		} else {
			images.WithoutAlt++
		}
	})

	var links seo.LinkStats
	page.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		links.Total++
		if rel, ok := s.Attr("rel"); ok && strings.Contains(rel, "nofollow") {
			links.Nofollow++
		}
		target, err := base.Parse(href)
		if err != nil {
			return
		}
		if target.Hostname() == base.Hostname() {
			links.Internal++
		} else {
			links.External++
		}
	})

	body := page.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	words := len(strings.Fields(body.Text()))
	readingTime := words / wordsPerMinute
	if words > 0 && readingTime == 0 {
		readingTime = 1
	}

	return seo.ContentAnalysis{
		TDK: seo.TDK{
			Title:             title,
			TitleLength:       len([]rune(title)),
			Description:       description,
			DescriptionLength: len([]rune(description)),
			Keywords:          strings.TrimSpace(keywords),
		},
		Headings: headings,
		Images:   images,
		Links:    links,
		Metrics: seo.ContentMetrics{
			WordCount:   words,
			ReadingTime: readingTime,
		},
	}
}

func (c *Collector) extractTechnical(page *goquery.Document, base *url.URL) seo.TechnicalSEO {
	tech := seo.TechnicalSEO{
		HTTPS: base.Scheme == "https",
	}

	if robots, ok := page.Find(`meta[name="robots"]`).Attr("content"); ok {
		tech.MetaRobots = strings.TrimSpace(robots)
	}
	if canonical, ok := page.Find(`link[rel="canonical"]`).Attr("href"); ok {
		tech.Canonical = strings.TrimSpace(canonical)
	}

	page.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		tech.SchemaTypes = append(tech.SchemaTypes, schemaTypes(s.Text())...)
	})

	og := make(map[string]string)
	page.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if prop != "" && content != "" {
			og[prop] = content
		}
	})
	if len(og) > 0 {
		tech.OpenGraph = og
	}

	twitter := make(map[string]string)
	page.Find(`meta[name^="twitter:"]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		if name != "" && content != "" {
			twitter[name] = content
		}
	})
	if len(twitter) > 0 {
		tech.TwitterCard = twitter
	}

	if _, ok := page.Find(`meta[name="viewport"]`).Attr("content"); ok {
		tech.MobileFriendly = 100
	}

	return tech
}

// schemaTypes pulls every @type value out of a JSON-LD block, tolerating
// both single objects and arrays.
func schemaTypes(raw string) []string {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	var types []string
	var walk func(v any)
	walk = func(v any) {
		switch node := v.(type) {
		case map[string]any:
			if t, ok := node["@type"].(string); ok {
				types = append(types, t)
			}
		case []any:
			for _, item := range node {
				walk(item)
			}
		}
	}
	walk(parsed)
	return types
}

func (c *Collector) probeAuxiliary(ctx context.Context, base *url.URL, tech *seo.TechnicalSEO) {
	tech.RobotsTxt = c.probe(ctx, base, "/robots.txt", true)
	tech.SitemapXML = c.probe(ctx, base, "/sitemap.xml", false)
}

func (c *Collector) probe(ctx context.Context, base *url.URL, path string, keepContent bool) seo.ResourceProbe {
	target := base.Scheme + "://" + base.Host + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return seo.ResourceProbe{}
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	resp, err := c.probes.Do(req)
	if err != nil {
		c.logger.Debug("auxiliary probe failed", zap.String("target", target), zap.Error(err))
		return seo.ResourceProbe{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return seo.ResourceProbe{}
	}
	probe := seo.ResourceProbe{Exists: true}
	if keepContent {
		body, err := io.ReadAll(io.LimitReader(resp.Body, probeContentLimit))
		if err == nil {
			probe.Content = string(body)
		}
	}
	return probe
}

func (c *Collector) measurePerformance(ctx context.Context, rawURL string, perf *seo.Performance) {
	if c.browser == nil {
		return
	}
	measured, err := c.browser.Measure(ctx, rawURL)
	if err != nil {
		c.logger.Warn("browser measurement failed", zap.String("url", rawURL), zap.Error(err))
		return
	}
	perf.PageLoadTimeMs = measured.PageLoadTimeMs
	perf.DOMContentLoadedMs = measured.DOMContentLoadedMs
	perf.FirstByteMs = measured.FirstByteMs
	perf.Resources = measured.Resources
}
