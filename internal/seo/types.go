// Package seo defines core types shared across subsystems.
package seo

import "time"

// RawSignals is the structured extraction of a page's SEO-relevant
// attributes, gathered by the collector. Every sub-section defaults to its
// zero value when a collaborator is unavailable, so downstream stages always
// see a well-shaped document.
type RawSignals struct {
	URL             string          `json:"url"`
	Timestamp       time.Time       `json:"timestamp"`
	BasicInfo       BasicInfo       `json:"basic_info"`
	TechnicalSEO    TechnicalSEO    `json:"technical_seo"`
	ContentAnalysis ContentAnalysis `json:"content_analysis"`
	Performance     Performance     `json:"performance"`
	TrafficData     map[string]any  `json:"traffic_data"`
	SERPData        map[string]any  `json:"serp_data"`
}

// BasicInfo holds domain-level facts about the target.
type BasicInfo struct {
	Domain     string `json:"domain"`
	SSLEnabled bool   `json:"ssl_enabled"`
}

// TechnicalSEO captures crawl directives, social tags and structured data.
type TechnicalSEO struct {
	RobotsTxt      ResourceProbe     `json:"robots_txt"`
	SitemapXML     ResourceProbe     `json:"sitemap_xml"`
	MetaRobots     string            `json:"meta_robots,omitempty"`
	Canonical      string            `json:"canonical,omitempty"`
	SchemaTypes    []string          `json:"schema_org,omitempty"`
	OpenGraph      map[string]string `json:"open_graph,omitempty"`
	TwitterCard    map[string]string `json:"twitter_card,omitempty"`
	HTTPS          bool              `json:"https"`
	MobileFriendly int               `json:"mobile_friendly_score"`
}

// ResourceProbe records whether an auxiliary resource (robots.txt,
// sitemap.xml) exists and a prefix of its content.
type ResourceProbe struct {
	Exists  bool   `json:"exists"`
	Content string `json:"content,omitempty"`
}

// ContentAnalysis holds on-page content signals.
type ContentAnalysis struct {
	TDK      TDK                 `json:"tdk"`
	Headings map[string][]string `json:"headings"`
	Images   ImageStats          `json:"images"`
	Links    LinkStats           `json:"links"`
	Metrics  ContentMetrics      `json:"content_metrics"`
}

// TDK groups title, description and keywords meta signals.
type TDK struct {
	Title             string `json:"title"`
	TitleLength       int    `json:"title_length"`
	Description       string `json:"description"`
	DescriptionLength int    `json:"description_length"`
	Keywords          string `json:"keywords,omitempty"`
}

// ImageStats counts images and their alt-text coverage.
type ImageStats struct {
	Total      int `json:"total"`
	WithoutAlt int `json:"without_alt"`
	WithAlt    int `json:"with_alt"`
}

// LinkStats counts anchors by destination class.
type LinkStats struct {
	Total    int `json:"total"`
	Internal int `json:"internal"`
	External int `json:"external"`
	Nofollow int `json:"nofollow"`
}

// ContentMetrics summarizes body text volume.
type ContentMetrics struct {
	WordCount   int `json:"word_count"`
	ReadingTime int `json:"reading_time"`
}

// Performance holds page timing metrics, from the browser collaborator when
// available or derived from the plain fetch otherwise.
type Performance struct {
	PageLoadTimeMs     float64       `json:"page_load_time,omitempty"`
	DOMContentLoadedMs float64       `json:"dom_content_loaded,omitempty"`
	FirstByteMs        float64       `json:"first_byte,omitempty"`
	Resources          ResourceStats `json:"resources"`
	MeasuredLoadTimeMs float64       `json:"measured_load_time"`
	StatusCode         int           `json:"status_code,omitempty"`
	SizeBytes          int           `json:"size,omitempty"`
}

// ResourceStats counts subresources loaded by the page.
type ResourceStats struct {
	TotalRequests int `json:"total_requests"`
	TotalSize     int `json:"total_size"`
	Images        int `json:"images"`
	Scripts       int `json:"scripts"`
	Stylesheets   int `json:"stylesheets"`
}

// Recommendation is a single remediation item.
type Recommendation struct {
	Issue    string `json:"issue"`
	Solution string `json:"solution"`
	Priority string `json:"priority"`
}

// Summary aggregates headline numbers for a finished analysis.
type Summary struct {
	OverallScore         int `json:"overall_score"`
	CriticalIssues       int `json:"critical_issues"`
	Warnings             int `json:"warnings"`
	RecommendationsCount int `json:"recommendations_count"`
}

// AnalysisResult is the full payload produced for one URL. It is the value
// stored on a completed task and serialized into the persisted record. AI
// stage outputs are loosely typed maps because the model response shape is
// only best-effort; the agents package owns the fallback construction rules.
type AnalysisResult struct {
	URL             string           `json:"url"`
	Timestamp       time.Time        `json:"timestamp"`
	OverallScore    int              `json:"overall_score"`
	RawData         *RawSignals      `json:"raw_data,omitempty"`
	Analysis        map[string]any   `json:"analysis,omitempty"`
	Strategy        map[string]any   `json:"strategy,omitempty"`
	HTMLReport      string           `json:"html_report,omitempty"`
	Summary         Summary          `json:"summary"`
	SubScores       map[string]int   `json:"sub_scores,omitempty"`
	AIInsights      map[string]any   `json:"ai_insights,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	AnalysisTime    float64          `json:"analysis_time,omitempty"`
}
