package pipeline

import (
	"context"

	"doubanlink/internal/resolve"
	"doubanlink/internal/tmdb"
)

// TMDBProvider adapts the TMDB client to the resolver's provider seam.
type TMDBProvider struct {
	client *tmdb.Client
}

// NewTMDBProvider wraps a TMDB client.
func NewTMDBProvider(client *tmdb.Client) *TMDBProvider {
	return &TMDBProvider{client: client}
}

// SearchMovies runs a title search and maps the results into candidates.
func (p *TMDBProvider) SearchMovies(ctx context.Context, query string, year int) ([]resolve.Candidate, error) {
	movies, err := p.client.SearchMovies(ctx, query, year)
	if err != nil {
		return nil, err
	}
	candidates := make([]resolve.Candidate, 0, len(movies))
	for _, m := range movies {
		candidates = append(candidates, resolve.Candidate{
			ID:            m.ID,
			Title:         m.Title,
			OriginalTitle: m.OriginalTitle,
			ReleaseYear:   m.ReleaseYear(),
			GenreIDs:      m.GenreIDs,
		})
	}
	return candidates, nil
}
