package query

import "github.com/orneryd/amem/internal/index"

// TextSearch ranks nodes by BM25 relevance to query, using the term index
// when present and falling back to a linear tokenize-and-score pass
// otherwise. Both paths are required to agree on the top-k ranking for
// identical input (§8, "BM25 index equivalence").
func (s *Source) TextSearch(query string, k int) []index.Scored {
	if s.Index != nil && s.Index.Term != nil && s.Index.DocLens != nil {
		return s.Index.Term.ScoreFast(query, s.Index.DocLens, k)
	}
	return index.ScoreSlow(s.View, query, k)
}
