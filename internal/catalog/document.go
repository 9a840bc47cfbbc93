package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Document summaries, unchanged across regenerated files so downstream
// tooling keyed on them keeps working.
const (
	chartSummary  = "豆瓣评分最高的250部电影合集"
	mergedSummary = "豆瓣Top250电影完整信息，包含TMDb匹配结果"
)

// Document is the scraped chart file.
type Document struct {
	List List `yaml:"豆瓣Top250电影列表"`
}

// List carries the chart summary and its entries in rank order.
type List struct {
	Summary    string  `yaml:"summary"`
	TotalCount int     `yaml:"total_count"`
	Movies     []Movie `yaml:"movies"`
}

// NewDocument wraps scraped movies in the standard chart document.
func NewDocument(movies []Movie) Document {
	return Document{List: List{
		Summary:    chartSummary,
		TotalCount: len(movies),
		Movies:     movies,
	}}
}

// ReadDocument loads a catalog file. An unreadable, unparseable or empty
// catalog is an error; batches cannot run without entries.
func ReadDocument(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(doc.List.Movies) == 0 {
		return Document{}, fmt.Errorf("catalog %s contains no movies", path)
	}
	return doc, nil
}

// Write persists the document.
func (d Document) Write(path string) error {
	return writeYAML(path, d)
}

// MergedDocument is the complete catalog with linkage results.
type MergedDocument struct {
	Data MergedList `yaml:"豆瓣Top250完整数据"`
}

// MergedList carries every chart entry plus match bookkeeping.
type MergedList struct {
	Summary      string  `yaml:"summary"`
	TotalCount   int     `yaml:"total_count"`
	MatchedCount int     `yaml:"matched_count"`
	Movies       []Movie `yaml:"movies"`
}

// Write persists the merged document.
func (d MergedDocument) Write(path string) error {
	return writeYAML(path, d)
}

func writeYAML(path string, doc any) error {
	payload, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
