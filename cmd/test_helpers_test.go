package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"doubanlink/internal/catalog"
	"doubanlink/internal/config"
	"doubanlink/internal/tmdb"
)

// stubApp replaces the real service container in command tests.
type stubApp struct {
	cfg    config.Config
	logger *zap.Logger
	closed bool
}

func (a *stubApp) Close()                { a.closed = true }
func (a *stubApp) Config() config.Config { return a.cfg }
func (a *stubApp) Logger() *zap.Logger   { return a.logger }

// swapNewApp points the command factory at a stub for the duration of the
// test and restores the real one afterwards.
func swapNewApp(t *testing.T, cfg config.Config) *stubApp {
	t.Helper()
	stub := &stubApp{cfg: cfg, logger: zaptest.NewLogger(t)}
	orig := newApp
	newApp = func(context.Context) (App, error) { return stub, nil }
	t.Cleanup(func() { newApp = orig })
	return stub
}

// runCommand executes the root command with args and returns captured stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

// testConfig builds a runnable config with artifact paths under a fresh temp
// dir. Tests point the base URLs at their own httptest servers.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Douban: config.DoubanConfig{
			BaseURL:          "https://movie.douban.com/top250",
			UserAgent:        "doubanlink-test",
			Pages:            1,
			PageSize:         25,
			RequestTimeout:   5 * time.Second,
			DetectorMinBytes: 1,
		},
		TMDB: config.TMDBConfig{
			APIKey:         "test-key",
			BaseURL:        "https://api.themoviedb.org/3",
			Language:       "zh-CN",
			RequestTimeout: 5 * time.Second,
			ExcludedGenres: tmdb.DefaultExcludedGenres(),
		},
		Output: config.OutputConfig{
			Catalog:  filepath.Join(dir, "douban_top250.yml"),
			Kometa:   filepath.Join(dir, "douban_top250_kometa.yml"),
			Merged:   filepath.Join(dir, "douban_top250_complete.yml"),
			NotFound: filepath.Join(dir, "not_found.txt"),
		},
	}
}

func writeCatalogFixture(t *testing.T, path string, movies []catalog.Movie) {
	t.Helper()
	if err := catalog.NewDocument(movies).Write(path); err != nil {
		t.Fatalf("write catalog fixture: %v", err)
	}
}

func writeKometaFixture(t *testing.T, path string, movies []catalog.Movie) {
	t.Helper()
	if err := catalog.NewKometaDocument(movies).Write(path); err != nil {
		t.Fatalf("write kometa fixture: %v", err)
	}
}

// newTMDBServer serves canned /search/movie results keyed by query text.
// Queries without an entry get an empty result list.
func newTMDBServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			http.NotFound(w, r)
			return
		}
		payload, ok := results[r.URL.Query().Get("query")]
		if !ok {
			payload = "[]"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"page":1,"results":%s,"total_pages":1,"total_results":0}`, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newChartServer serves the same chart page for every request.
func newChartServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func chartPage(items ...string) string {
	var b bytes.Buffer
	b.WriteString(`<!DOCTYPE html><html><body><ol class="grid_view">`)
	for _, item := range items {
		b.WriteString("<li>")
		b.WriteString(item)
		b.WriteString("</li>")
	}
	b.WriteString(`</ol></body></html>`)
	return b.String()
}

const chartItemFarewell = `<div class="item">
  <div class="pic"><em class="">1</em></div>
  <div class="info">
    <div class="hd">
      <a href="https://movie.douban.com/subject/1291546/">
        <span class="title">霸王别姬</span>
        <span class="title">&nbsp;/&nbsp;Farewell My Concubine</span>
        <span class="other">&nbsp;/&nbsp;再见，我的妾</span>
      </a>
    </div>
    <div class="bd">
      <p>
        导演: 陈凯歌 Kaige Chen&nbsp;&nbsp;&nbsp;主演: 张国荣 Leslie Cheung /...<br>
        1993&nbsp;/&nbsp;中国大陆 中国香港&nbsp;/&nbsp;剧情 爱情
      </p>
      <div class="star"><span class="rating_num" property="v:average">9.6</span></div>
    </div>
  </div>
</div>`

const chartItemNameless = `<div class="item">
  <div class="pic"><em class="">2</em></div>
  <div class="info">
    <div class="hd">
      <a href="https://movie.douban.com/subject/99999999/">
        <span class="title">无名影片</span>
        <span class="title">&nbsp;/&nbsp;Nameless</span>
      </a>
    </div>
    <div class="bd">
      <p>
        导演: 某导演 Unknown&nbsp;&nbsp;&nbsp;主演: 某演员 Nobody /...<br>
        2001&nbsp;/&nbsp;中国大陆&nbsp;/&nbsp;剧情
      </p>
      <div class="star"><span class="rating_num" property="v:average">8.1</span></div>
    </div>
  </div>
</div>`
