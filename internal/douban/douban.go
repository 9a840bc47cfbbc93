// Package douban scrapes the Douban Top 250 movie chart. A plain Colly
// fetcher does the regular work; when a page looks like an anti-bot
// interstitial a headless renderer can take a second pass.
package douban

import (
	"context"
	"time"
)

// Page is one fetched chart page.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	UsedJS     bool
}

// Config governs the scraper.
type Config struct {
	// BaseURL is the chart URL without paging parameters.
	BaseURL string
	// UserAgent is sent on every request, rendered or not.
	UserAgent string
	// Pages and PageSize describe the chart layout (10 x 25 for Top 250).
	Pages    int
	PageSize int
	// PageDelay spaces successive page fetches.
	PageDelay time.Duration
	// RequestTimeout bounds a single plain fetch.
	RequestTimeout time.Duration
}

// Fetcher fetches a chart page over plain HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Renderer fetches a chart page with a JS-capable browser.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (Page, error)
}

// Detector decides whether a fetched page is an anti-bot shell rather than
// the chart itself.
type Detector interface {
	Blocked(ctx context.Context, page Page) bool
}
