// Package resolve links scraped movie records to external catalog IDs. It
// runs a fixed cascade of title searches against a search provider and picks
// a winner from the first non-empty result list via tiered matching rules.
package resolve

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Query is one catalog entry to link.
type Query struct {
	// NativeTitle is the primary title as scraped. Never empty.
	NativeTitle string
	// ForeignTitle is the secondary title. Douban markup prefixes it with a
	// "/" separator; the raw value is kept here and cleaned only where the
	// cascade needs search text.
	ForeignTitle string
	// Year is the release year. Zero means unknown.
	Year int
}

// Candidate is a single provider search result. Candidates are read-only;
// the resolver never mutates them.
type Candidate struct {
	ID            int64
	Title         string
	OriginalTitle string
	// ReleaseYear is a 4-digit year string, or "" when the provider has none.
	ReleaseYear string
	GenreIDs    []int64
}

// Tier identifies the rule that selected a match.
type Tier int

// Match tiers, strongest first.
const (
	TierNone Tier = iota
	TierExactTitleYear
	TierYear
	TierExactTitle
	TierSubstring
	TierFirstResult
)

// String returns a short label for logging.
func (t Tier) String() string {
	switch t {
	case TierExactTitleYear:
		return "exact_title_year"
	case TierYear:
		return "exact_year"
	case TierExactTitle:
		return "exact_title"
	case TierSubstring:
		return "substring"
	case TierFirstResult:
		return "first_result"
	default:
		return "none"
	}
}

// Match is the terminal outcome of resolving one query. Matched false means
// the cascade produced no candidates at all; it is a result, not an error.
type Match struct {
	ID      int64
	Tier    Tier
	Matched bool
}

// Provider runs one full-text movie search. A zero year means unconstrained.
// Empty results must come back as an empty slice, not an error, and the
// slice order is the provider's relevance order.
type Provider interface {
	SearchMovies(ctx context.Context, query string, year int) ([]Candidate, error)
}

// Observer receives the post-filter candidate list once per resolution with
// a non-empty result set. Presentation only; it cannot affect the outcome.
type Observer interface {
	ObserveCandidates(query Query, candidates []Candidate)
}

// Resolver implements the matching policy over a Provider.
type Resolver struct {
	provider Provider
	observer Observer
	excluded map[int64]struct{}
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithObserver installs a candidate observer.
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// WithExcludedGenres sets the genre tag IDs dropped by the candidate filter.
func WithExcludedGenres(ids []int64) Option {
	return func(r *Resolver) {
		r.excluded = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			r.excluded[id] = struct{}{}
		}
	}
}

// New builds a Resolver around provider. The provider must be non-nil.
func New(provider Provider, opts ...Option) *Resolver {
	r := &Resolver{provider: provider}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// attempt is one cascade step: the text to search and whether to constrain
// the search to the query year.
type attempt struct {
	title    string
	withYear bool
}

// attempts returns the fixed-order search cascade for q. Year-constrained
// steps exist only when the query carries a year, foreign-title steps only
// when the cleaned foreign title is non-empty.
func (q Query) attempts() []attempt {
	foreign := CleanForeignTitle(q.ForeignTitle)
	list := make([]attempt, 0, 4)
	if q.Year > 0 {
		list = append(list, attempt{title: q.NativeTitle, withYear: true})
		if foreign != "" {
			list = append(list, attempt{title: foreign, withYear: true})
		}
	}
	list = append(list, attempt{title: q.NativeTitle})
	if foreign != "" {
		list = append(list, attempt{title: foreign})
	}
	return list
}

// CleanForeignTitle strips the "/" separator noise Douban leaves on
// secondary titles, plus surrounding whitespace.
func CleanForeignTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "/")
	return strings.TrimSpace(s)
}

// Resolve runs the search cascade and the tiered match for one query. It
// performs no I/O beyond the provider calls, never retries, and never
// sleeps. An Unmatched outcome is Match{Matched: false} with a nil error;
// errors are provider failures for this single query.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Match, error) {
	candidates, err := r.search(ctx, q)
	if err != nil {
		return Match{}, err
	}
	candidates = dropMalformed(candidates)
	if len(candidates) == 0 {
		return Match{}, nil
	}
	candidates = r.filterGenres(candidates)
	if r.observer != nil {
		r.observer.ObserveCandidates(q, candidates)
	}
	return pick(q, candidates), nil
}

// search walks the cascade and returns the first non-empty result list.
// Later attempts are never issued once one yields results.
func (r *Resolver) search(ctx context.Context, q Query) ([]Candidate, error) {
	for _, a := range q.attempts() {
		year := 0
		if a.withYear {
			year = q.Year
		}
		candidates, err := r.provider.SearchMovies(ctx, a.title, year)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", a.title, err)
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return nil, nil
}

// dropMalformed removes provider entries that carry no usable identifier.
func dropMalformed(in []Candidate) []Candidate {
	kept := in[:0:0]
	for _, c := range in {
		if c.ID != 0 {
			kept = append(kept, c)
		}
	}
	return kept
}

// filterGenres drops candidates tagged with an excluded genre. A filter
// that would leave nothing is skipped and the unfiltered list is used; some
// match always beats an empty stricter one.
func (r *Resolver) filterGenres(in []Candidate) []Candidate {
	if len(r.excluded) == 0 {
		return in
	}
	kept := make([]Candidate, 0, len(in))
	for _, c := range in {
		if !r.hasExcludedGenre(c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return in
	}
	return kept
}

func (r *Resolver) hasExcludedGenre(c Candidate) bool {
	for _, id := range c.GenreIDs {
		if _, ok := r.excluded[id]; ok {
			return true
		}
	}
	return false
}

// pick applies the match tiers in order over a non-empty candidate list.
// Tier comparisons normalize case and surrounding whitespace. The foreign
// title is compared raw (trimmed, "/" kept): cleaning applies to search
// text only.
func pick(q Query, candidates []Candidate) Match {
	if q.Year > 0 {
		year := strconv.Itoa(q.Year)
		for _, c := range candidates {
			if c.ReleaseYear == year && titleEquals(q, c) {
				return Match{ID: c.ID, Tier: TierExactTitleYear, Matched: true}
			}
		}
		for _, c := range candidates {
			if c.ReleaseYear == year {
				return Match{ID: c.ID, Tier: TierYear, Matched: true}
			}
		}
	}
	for _, c := range candidates {
		if titleEquals(q, c) {
			return Match{ID: c.ID, Tier: TierExactTitle, Matched: true}
		}
	}
	for _, c := range candidates {
		if titleContains(q, c) {
			return Match{ID: c.ID, Tier: TierSubstring, Matched: true}
		}
	}
	return Match{ID: candidates[0].ID, Tier: TierFirstResult, Matched: true}
}

func titleEquals(q Query, c Candidate) bool {
	if norm(c.Title) == norm(q.NativeTitle) {
		return true
	}
	foreign := norm(q.ForeignTitle)
	return foreign != "" && norm(c.OriginalTitle) == foreign
}

func titleContains(q Query, c Candidate) bool {
	if strings.Contains(norm(c.Title), norm(q.NativeTitle)) {
		return true
	}
	foreign := norm(q.ForeignTitle)
	return foreign != "" && strings.Contains(norm(c.OriginalTitle), foreign)
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
