package catalog

// Merge left-outer joins chart movies with linkage results keyed by
// title_cn. Every input movie appears in the output in input order; a movie
// gains its TMDB ID only on a byte-equal title hit, no fuzzy matching.
func Merge(movies []Movie, links map[string]int64) MergedDocument {
	merged := make([]Movie, len(movies))
	matched := 0
	for i, m := range movies {
		if id, ok := links[m.TitleCN]; ok {
			m.TMDBID = id
			matched++
		} else {
			m.TMDBID = 0
		}
		merged[i] = m
	}
	return MergedDocument{Data: MergedList{
		Summary:      mergedSummary,
		TotalCount:   len(merged),
		MatchedCount: matched,
		Movies:       merged,
	}}
}
