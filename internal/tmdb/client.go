// Package tmdb implements a minimal client for the TMDB v3 search API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
)

// Genre tag IDs TMDB assigns in search results.
const (
	GenreDocumentary int64 = 99
	GenreTVMovie     int64 = 10770
	GenreTalkShow    int64 = 10767
)

// DefaultExcludedGenres returns the genre tags dropped from candidate lists
// before matching. Chart entries are feature films; talk shows, TV movies
// and documentaries returned for the same title are noise.
func DefaultExcludedGenres() []int64 {
	return []int64{GenreTalkShow, GenreTVMovie, GenreDocumentary}
}

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultLanguage = "zh-CN"
	defaultTimeout  = 15 * time.Second
	initialBackoff  = 250 * time.Millisecond
)

// Movie is one row of a /search/movie response.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	GenreIDs      []int64 `json:"genre_ids"`
}

// ReleaseYear returns the 4-digit year of the release date, or "" when TMDB
// has no date for the entry.
func (m Movie) ReleaseYear() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

type searchResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// StatusError reports a non-2xx TMDB response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb responded %s", e.Status)
}

// Client talks to the TMDB v3 API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	retryMax   uint64
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (mainly for tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithLanguage sets the language parameter sent on searches.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithRetryMax caps transport-level retries after the initial attempt.
// Zero disables retrying.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.retryMax = uint64(n)
	}
}

// NewClient builds a Client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		language: defaultLanguage,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retryMax: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchMovies queries /search/movie. A zero year leaves the search
// unconstrained, otherwise the year parameter is sent. Rate-limit (429) and
// 5xx responses are retried with exponential backoff up to the configured
// cap; any error that survives retrying is the caller's per-query failure.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]Movie, error) {
	endpoint := c.searchURL(query, year)

	var results []Movie
	backoff := retry.WithMaxRetries(c.retryMax, retry.NewExponential(initialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		movies, err := c.doSearch(ctx, endpoint)
		if err != nil {
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		results = movies
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}
	return results, nil
}

func (c *Client) searchURL(query string, year int) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	if c.language != "" {
		params.Set("language", c.language)
	}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	return c.baseURL + "/search/movie?" + params.Encode()
}

func (c *Client) doSearch(ctx context.Context, endpoint string) ([]Movie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded.Results, nil
}

// retryable reports whether an attempt is worth repeating. Cancellation is
// final; 429 and 5xx responses and transport hiccups are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
