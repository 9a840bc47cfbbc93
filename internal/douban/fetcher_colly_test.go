package douban

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCollyFetcherFetch(t *testing.T) {
	t.Parallel()

	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.UserAgent()
		_, _ = w.Write([]byte(`<html><body><div class="item">ok</div></body></html>`))
	}))
	defer srv.Close()

	f := NewCollyFetcher(Config{UserAgent: "chart-test-agent", RequestTimeout: 5 * time.Second}, zap.NewNop())
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if page.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", page.StatusCode)
	}
	if !strings.Contains(string(page.Body), "div class=\"item\"") {
		t.Fatalf("unexpected body: %s", page.Body)
	}
	if page.UsedJS {
		t.Fatal("plain fetch must not be marked as rendered")
	}
	if gotAgent != "chart-test-agent" {
		t.Fatalf("expected user agent override, got %q", gotAgent)
	}
}

func TestCollyFetcherHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewCollyFetcher(Config{UserAgent: "chart-test-agent", RequestTimeout: 5 * time.Second}, zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestCollyFetcherContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := NewCollyFetcher(Config{UserAgent: "chart-test-agent", RequestTimeout: 5 * time.Second}, zap.NewNop())
	_, err := f.Fetch(ctx, srv.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
