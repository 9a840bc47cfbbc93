package douban

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"doubanlink/internal/catalog"
)

// Scraper walks the chart pages in order and collects their entries. A page
// that fails to fetch or parse is logged and skipped; the crawl keeps going
// so one bad page does not cost the other nine.
type Scraper struct {
	cfg      Config
	fetcher  Fetcher
	renderer Renderer
	detector Detector
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewScraper wires a scraper. renderer may be nil when headless fallback is
// disabled; detector may be nil to accept every fetched page as-is.
func NewScraper(cfg Config, fetcher Fetcher, renderer Renderer, detector Detector, logger *zap.Logger) *Scraper {
	var limiter *rate.Limiter
	if cfg.PageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.PageDelay), 1)
	}
	return &Scraper{
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: renderer,
		detector: detector,
		limiter:  limiter,
		logger:   logger,
	}
}

// Scrape fetches every chart page and returns the entries in chart order.
// It fails only when the whole crawl produced nothing.
func (s *Scraper) Scrape(ctx context.Context) ([]catalog.Movie, error) {
	var movies []catalog.Movie
	for page := 0; page < s.cfg.Pages; page++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("page pacing: %w", err)
			}
		}

		pageURL := s.pageURL(page)
		s.logger.Info("fetching chart page",
			zap.Int("page", page+1),
			zap.Int("pages", s.cfg.Pages),
			zap.String("url", pageURL),
		)

		entries, err := s.scrapePage(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn("chart page failed, skipping",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			continue
		}
		movies = append(movies, entries...)
	}

	if len(movies) == 0 {
		return nil, errors.New("no chart entries scraped")
	}
	s.logger.Info("crawl finished", zap.Int("movies", len(movies)))
	return movies, nil
}

func (s *Scraper) scrapePage(ctx context.Context, pageURL string) ([]catalog.Movie, error) {
	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if s.detector != nil && s.detector.Blocked(ctx, page) {
		if s.renderer == nil {
			return nil, errors.New("page looks blocked and headless fallback is disabled")
		}
		s.logger.Info("plain fetch looks blocked, retrying with renderer", zap.String("url", pageURL))
		page, err = s.renderer.Render(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if s.detector.Blocked(ctx, page) {
			return nil, errors.New("page still blocked after rendering")
		}
	}

	entries, skipped, err := parsePage(page.Body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.logger.Warn("skipped unparsable chart entries",
			zap.String("url", pageURL),
			zap.Int("skipped", skipped),
		)
	}
	return entries, nil
}

func (s *Scraper) pageURL(page int) string {
	return fmt.Sprintf("%s?start=%d", s.cfg.BaseURL, page*s.cfg.PageSize)
}
