package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CollectionName is the Kometa collection the pipeline maintains.
const CollectionName = "豆瓣电影 Top 250"

const kometaSummary = "豆瓣评分最高的 250 部电影合集；自动生成于脚本"

// KometaDocument is a Kometa collections file.
type KometaDocument struct {
	Collections map[string]KometaCollection `yaml:"collections"`
}

// KometaCollection holds one collection's summary and movie list.
type KometaCollection struct {
	Summary   string        `yaml:"summary"`
	TMDBMovie []KometaEntry `yaml:"tmdb_movie"`
}

// KometaEntry is one matched movie. Index is the Douban rank so the
// collection keeps chart order inside Kometa.
type KometaEntry struct {
	ID    int64  `yaml:"id"`
	Title string `yaml:"title"`
	Index int    `yaml:"index"`
}

// NewKometaDocument builds the collection from movies that carry a TMDB ID,
// preserving input order.
func NewKometaDocument(movies []Movie) KometaDocument {
	entries := make([]KometaEntry, 0, len(movies))
	for _, m := range movies {
		if m.TMDBID == 0 {
			continue
		}
		entries = append(entries, KometaEntry{ID: m.TMDBID, Title: m.TitleCN, Index: m.Rank})
	}
	return KometaDocument{Collections: map[string]KometaCollection{
		CollectionName: {Summary: kometaSummary, TMDBMovie: entries},
	}}
}

// ReadKometaDocument loads a Kometa collections file.
func ReadKometaDocument(path string) (KometaDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return KometaDocument{}, fmt.Errorf("read kometa file %s: %w", path, err)
	}
	var doc KometaDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return KometaDocument{}, fmt.Errorf("parse kometa file %s: %w", path, err)
	}
	return doc, nil
}

// Write persists the document.
func (d KometaDocument) Write(path string) error {
	return writeYAML(path, d)
}

// Links returns title -> TMDB ID for the standard collection. Titles are
// compared byte-exact downstream, so no normalization happens here.
func (d KometaDocument) Links() map[string]int64 {
	collection, ok := d.Collections[CollectionName]
	if !ok {
		return nil
	}
	links := make(map[string]int64, len(collection.TMDBMovie))
	for _, entry := range collection.TMDBMovie {
		links[entry.Title] = entry.ID
	}
	return links
}
