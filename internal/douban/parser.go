package douban

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"doubanlink/internal/catalog"
)

var (
	yearPattern     = regexp.MustCompile(`(\d{4})`)
	directorPattern = regexp.MustCompile(`导演:\s*([^主]+)`)
	actorsPattern   = regexp.MustCompile(`主演:\s*([^\.]+)`)
)

// parsePage extracts chart entries from one Top 250 page. Entries that
// cannot be parsed are skipped; the count of skipped entries is returned so
// the caller can log it.
func parsePage(body []byte) ([]catalog.Movie, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse chart page: %w", err)
	}

	var (
		movies  []catalog.Movie
		skipped int
	)
	doc.Find("div.item").Each(func(_ int, item *goquery.Selection) {
		movie, err := parseItem(item)
		if err != nil {
			skipped++
			return
		}
		movies = append(movies, movie)
	})
	return movies, skipped, nil
}

// parseItem pulls one movie out of a chart item. The second span under the
// title link is the foreign title or, when the movie has none, the alias
// list; either way it is stored as scraped, separator junk included, and
// downstream cleaning owns it.
func parseItem(item *goquery.Selection) (catalog.Movie, error) {
	titles := item.Find("div.hd a span")
	if titles.Length() == 0 {
		return catalog.Movie{}, errors.New("entry has no title")
	}
	titleCN := strings.TrimSpace(titles.First().Text())
	titleEN := ""
	if titles.Length() > 1 {
		titleEN = strings.TrimSpace(titles.Eq(1).Text())
	}

	rankText := strings.TrimSpace(item.Find("em").First().Text())
	rank, err := strconv.Atoi(rankText)
	if err != nil {
		return catalog.Movie{}, fmt.Errorf("parse rank %q: %w", rankText, err)
	}

	info := item.Find("div.bd p").First()
	if info.Length() == 0 {
		return catalog.Movie{}, errors.New("entry has no info block")
	}
	infoText := info.Text()

	year := 0
	if m := yearPattern.FindString(infoText); m != "" {
		year, _ = strconv.Atoi(m)
	}

	rating := 0.0
	if txt := strings.TrimSpace(item.Find("span.rating_num").First().Text()); txt != "" {
		rating, err = strconv.ParseFloat(txt, 64)
		if err != nil {
			return catalog.Movie{}, fmt.Errorf("parse rating %q: %w", txt, err)
		}
	}

	director := ""
	if m := directorPattern.FindStringSubmatch(infoText); m != nil {
		director = strings.TrimSpace(m[1])
	}
	actors := ""
	if m := actorsPattern.FindStringSubmatch(infoText); m != nil {
		actors = strings.TrimSpace(m[1])
	}

	return catalog.Movie{
		Rank:     rank,
		TitleCN:  titleCN,
		TitleEN:  titleEN,
		Year:     year,
		Rating:   rating,
		Director: director,
		Actors:   actors,
	}, nil
}
