package douban

import (
	"context"
	"fmt"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// CollyFetcher fetches chart pages with a Colly collector. The base
// collector is cloned per fetch so callback state never leaks between
// pages.
type CollyFetcher struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewCollyFetcher builds a fetcher from the scraper config.
func NewCollyFetcher(cfg Config, logger *zap.Logger) *CollyFetcher {
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &CollyFetcher{base: base, logger: logger}
}

// Fetch retrieves a single page. Non-2xx responses surface as errors so the
// caller can decide whether to skip the page.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	collector := f.base.Clone()

	var (
		page     Page
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		page = Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			page.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return Page{}, fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return Page{}, fmt.Errorf("fetch %s (status %d): %w", rawURL, page.StatusCode, fetchErr)
		}
		if err != nil {
			return Page{}, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
	}
	if page.StatusCode == 0 {
		return Page{}, fmt.Errorf("fetch %s: no response recorded", rawURL)
	}

	f.logger.Debug("fetched chart page",
		zap.String("url", rawURL),
		zap.Int("status", page.StatusCode),
		zap.Int("bytes", len(page.Body)),
	)
	return page, nil
}
