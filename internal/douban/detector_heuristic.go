package douban

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HeuristicDetector applies cheap checks to static HTML to decide whether
// Douban served an anti-bot interstitial instead of the chart. A page is
// suspect when the body is tiny, when it carries a known block marker, or
// when a selector every real chart page has is missing.
type HeuristicDetector struct {
	minHTMLBytes int
	selectors    []string
	keywords     [][]byte
}

// NewHeuristicDetector builds a detector. Empty keywords are dropped and
// matching is case-insensitive.
func NewHeuristicDetector(minHTMLBytes int, selectors []string, keywords []string) *HeuristicDetector {
	kw := make([][]byte, 0, len(keywords))
	for _, k := range keywords {
		if k == "" {
			continue
		}
		kw = append(kw, []byte(strings.ToLower(k)))
	}
	return &HeuristicDetector{
		minHTMLBytes: minHTMLBytes,
		selectors:    selectors,
		keywords:     kw,
	}
}

// Blocked reports whether the page looks like a block shell.
func (d *HeuristicDetector) Blocked(_ context.Context, page Page) bool {
	if d.minHTMLBytes > 0 && len(page.Body) < d.minHTMLBytes {
		return true
	}

	if len(d.keywords) > 0 {
		lower := bytes.ToLower(page.Body)
		for _, kw := range d.keywords {
			if bytes.Contains(lower, kw) {
				return true
			}
		}
	}

	if len(d.selectors) > 0 {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
		if err != nil {
			return true
		}
		for _, sel := range d.selectors {
			if doc.Find(sel).Length() == 0 {
				return true
			}
		}
	}
	return false
}
