package seo

import (
	"context"
	"time"
)

// PageDocument is the raw outcome of fetching one URL.
type PageDocument struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// PageFetcher retrieves a page over plain HTTP.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (PageDocument, error)
}

// BrowserMetrics measures JavaScript-rendered timing and DOM metrics. The
// implementation may be absent entirely; callers treat that as "no data",
// not an error.
type BrowserMetrics interface {
	Measure(ctx context.Context, url string) (Performance, error)
}

// Completer is the text-completion collaborator: system instruction plus
// user content in, text out. Implementations enforce their own hard timeout
// and return a human-readable fallback string instead of an error, so a
// degraded call still yields usable (low-information) text.
type Completer interface {
	Complete(ctx context.Context, system, user string) string
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces task and record identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
