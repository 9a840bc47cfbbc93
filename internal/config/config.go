// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"doubanlink/internal/tmdb"
)

// Config captures all CLI configuration knobs loaded via Viper.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Douban  DoubanConfig  `mapstructure:"douban"`
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Match   MatchConfig   `mapstructure:"match"`
	Output  OutputConfig  `mapstructure:"output"`

	// ConfigFileUsed reports which file Viper loaded, if any.
	ConfigFileUsed string `mapstructure:"-"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DoubanConfig governs the Top 250 chart scraper.
type DoubanConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	UserAgent          string        `mapstructure:"user_agent"`
	Pages              int           `mapstructure:"pages"`
	PageSize           int           `mapstructure:"page_size"`
	PageDelay          time.Duration `mapstructure:"page_delay"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	Headless           bool          `mapstructure:"headless"`
	HeadlessNavTimeout time.Duration `mapstructure:"headless_nav_timeout"`
	DetectorMinBytes   int           `mapstructure:"detector_min_bytes"`
	BlockKeywords      []string      `mapstructure:"block_keywords"`
}

// TMDBConfig configures the TMDB search client.
type TMDBConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Language       string        `mapstructure:"language"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryMax       int           `mapstructure:"retry_max"`
	ExcludedGenres []int64       `mapstructure:"excluded_genres"`
}

// MatchConfig paces the resolution batch.
type MatchConfig struct {
	EntryDelay time.Duration `mapstructure:"entry_delay"`
}

// OutputConfig sets artifact paths.
type OutputConfig struct {
	Catalog  string `mapstructure:"catalog"`
	Kometa   string `mapstructure:"kometa"`
	Merged   string `mapstructure:"merged"`
	NotFound string `mapstructure:"not_found"`
}

// Load builds a Config from disk and environment. An empty path searches the
// working directory and ~/.config/doubanlink for doubanlink.yaml; a missing
// file is fine, defaults plus environment take over.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOUBANLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bare TMDB_API_KEY form is what TMDB's docs train people to export.
	_ = v.BindEnv("tmdb.api_key", "DOUBANLINK_TMDB_API_KEY", "TMDB_API_KEY")

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("doubanlink")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/doubanlink")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigFileUsed = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)

	v.SetDefault("douban.base_url", "https://movie.douban.com/top250")
	v.SetDefault("douban.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36")
	v.SetDefault("douban.pages", 10)
	v.SetDefault("douban.page_size", 25)
	v.SetDefault("douban.page_delay", "1s")
	v.SetDefault("douban.request_timeout", "20s")
	v.SetDefault("douban.headless", false)
	v.SetDefault("douban.headless_nav_timeout", "25s")
	v.SetDefault("douban.detector_min_bytes", 2000)
	v.SetDefault("douban.block_keywords", []string{"sec.douban.com", "异常请求"})

	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.language", "zh-CN")
	v.SetDefault("tmdb.request_timeout", "15s")
	v.SetDefault("tmdb.retry_max", 3)
	v.SetDefault("tmdb.excluded_genres", tmdb.DefaultExcludedGenres())

	v.SetDefault("match.entry_delay", "400ms")

	v.SetDefault("output.catalog", "douban_top250.yml")
	v.SetDefault("output.kometa", "douban_top250_kometa.yml")
	v.SetDefault("output.merged", "douban_top250_complete.yml")
	v.SetDefault("output.not_found", "not_found.txt")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Douban.BaseURL == "" {
		return fmt.Errorf("douban.base_url must be set")
	}
	if c.Douban.Pages <= 0 {
		return fmt.Errorf("douban.pages must be > 0")
	}
	if c.Douban.PageSize <= 0 {
		return fmt.Errorf("douban.page_size must be > 0")
	}
	if c.Douban.RequestTimeout <= 0 {
		return fmt.Errorf("douban.request_timeout must be > 0")
	}
	if c.Douban.Headless && c.Douban.HeadlessNavTimeout <= 0 {
		return fmt.Errorf("douban.headless_nav_timeout must be > 0 when headless is enabled")
	}
	if c.TMDB.BaseURL == "" {
		return fmt.Errorf("tmdb.base_url must be set")
	}
	if c.TMDB.RequestTimeout <= 0 {
		return fmt.Errorf("tmdb.request_timeout must be > 0")
	}
	if c.TMDB.RetryMax < 0 {
		return fmt.Errorf("tmdb.retry_max must be >= 0")
	}
	if c.Match.EntryDelay < 0 {
		return fmt.Errorf("match.entry_delay must be >= 0")
	}
	if c.Output.Catalog == "" || c.Output.Kometa == "" || c.Output.Merged == "" || c.Output.NotFound == "" {
		return fmt.Errorf("output paths must be set")
	}
	return nil
}
