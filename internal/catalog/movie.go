// Package catalog defines the scraped movie records and the YAML documents
// the pipeline reads and writes: the raw chart, the Kometa collection, and
// the merged complete catalog.
package catalog

import (
	"fmt"
	"strconv"
)

// Movie is one Douban Top 250 entry. The yaml keys are the established
// document format; TMDBID appears only in merged documents.
type Movie struct {
	Rank     int     `yaml:"rank"`
	TitleCN  string  `yaml:"title_cn"`
	TitleEN  string  `yaml:"title_en"`
	Year     int     `yaml:"year,omitempty"`
	Rating   float64 `yaml:"rating,omitempty"`
	Director string  `yaml:"director"`
	Actors   string  `yaml:"actors"`
	TMDBID   int64   `yaml:"tmdb_id,omitempty"`
}

// Describe renders the entry the way unmatched lists and logs show it.
func (m Movie) Describe() string {
	year := "?"
	if m.Year > 0 {
		year = strconv.Itoa(m.Year)
	}
	return fmt.Sprintf("%s / %s (%s)", m.TitleCN, m.TitleEN, year)
}
