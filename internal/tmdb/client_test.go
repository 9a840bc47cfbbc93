package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const searchFixture = `{
	"page": 1,
	"results": [
		{
			"id": 55,
			"title": "霸王别姬",
			"original_title": "霸王别姬",
			"release_date": "1993-01-01",
			"genre_ids": [18, 10749]
		},
		{
			"id": 900,
			"title": "Farewell",
			"original_title": "Farewell",
			"release_date": "",
			"genre_ids": []
		}
	],
	"total_pages": 1,
	"total_results": 2
}`

func TestSearchMoviesSendsExpectedQuery(t *testing.T) {
	t.Parallel()

	var captured url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		captured = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL))
	movies, err := c.SearchMovies(context.Background(), "霸王别姬", 1993)
	require.NoError(t, err)

	require.Equal(t, "secret", captured.Get("api_key"))
	require.Equal(t, "霸王别姬", captured.Get("query"))
	require.Equal(t, "zh-CN", captured.Get("language"))
	require.Equal(t, "1993", captured.Get("year"))

	require.Len(t, movies, 2)
	require.Equal(t, int64(55), movies[0].ID)
	require.Equal(t, "1993", movies[0].ReleaseYear())
	require.Equal(t, []int64{18, 10749}, movies[0].GenreIDs)
	require.Equal(t, "", movies[1].ReleaseYear())
}

func TestSearchMoviesOmitsYearWhenZero(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("year") {
			t.Errorf("year parameter sent for unconstrained search: %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[],"total_pages":0,"total_results":0}`))
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL))
	movies, err := c.SearchMovies(context.Background(), "Heat", 0)
	require.NoError(t, err)
	require.Empty(t, movies)
}

func TestSearchMoviesLanguageOverride(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("language"); got != "en-US" {
			t.Errorf("language = %q, want en-US", got)
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL), WithLanguage("en-US"))
	_, err := c.SearchMovies(context.Background(), "Heat", 0)
	require.NoError(t, err)
}

func TestSearchMoviesStatusErrorNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL), WithRetryMax(3))
	_, err := c.SearchMovies(context.Background(), "Heat", 0)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, int64(1), hits.Load())
}

func TestSearchMoviesRetriesRateLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL), WithRetryMax(2))
	movies, err := c.SearchMovies(context.Background(), "霸王别姬", 0)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	require.Equal(t, int64(2), hits.Load())
}

func TestSearchMoviesRetryExhaustion(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL), WithRetryMax(1))
	_, err := c.SearchMovies(context.Background(), "Heat", 0)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	require.Equal(t, int64(2), hits.Load())
}

func TestSearchMoviesDecodeError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": [`))
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL), WithRetryMax(0))
	_, err := c.SearchMovies(context.Background(), "Heat", 0)
	require.Error(t, err)
	require.False(t, errors.As(err, new(*StatusError)))
}

func TestMovieReleaseYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		date string
		want string
	}{
		{"1993-01-01", "1993"},
		{"1993", "1993"},
		{"19", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := (Movie{ReleaseDate: tc.date}).ReleaseYear(); got != tc.want {
			t.Fatalf("ReleaseYear(%q) = %q, want %q", tc.date, got, tc.want)
		}
	}
}
