package index

import (
	"math"

	"github.com/orneryd/amem/internal/model"
	"github.com/orneryd/amem/internal/tokenize"
)

// BM25 parameters fixed by the format (§4.6).
const (
	BM25K1 = 1.2
	BM25B  = 0.75
)

// idf is the Robertson/Sparck-Jones inverse document frequency with a
// +1 floor so common terms never drive the score negative.
func idf(totalDocs, docFreq int) float64 {
	return math.Log(1 + (float64(totalDocs)-float64(docFreq)+0.5)/(float64(docFreq)+0.5))
}

// ScoreFast ranks documents using the term index's posting lists — the
// fast path of text_search (§4.6). Returns node ids sorted by descending
// BM25 score; ties keep ascending node id via a stable secondary sort.
func (t *TermIndex) ScoreFast(query string, docLens []int32, k int) []Scored {
	terms := tokenize.Tokens(query)
	if len(terms) == 0 {
		return nil
	}
	totalDocs := len(docLens)
	avgLen := AvgDocLength(docLens)
	scores := make(map[model.NodeID]float64)
	for _, term := range terms {
		postings, ok := t.Postings[term]
		if !ok {
			continue
		}
		df := t.DocFreq[term]
		weight := idf(totalDocs, df)
		for _, p := range postings {
			dl := float64(docLens[p.Node])
			tf := float64(p.Freq)
			denom := tf + BM25K1*(1-BM25B+BM25B*dl/avgLen)
			scores[p.Node] += weight * (tf * (BM25K1 + 1)) / denom
		}
	}
	return topK(scores, k)
}

// Scored pairs a node id with a ranking score.
type Scored struct {
	Node  model.NodeID
	Score float64
}

func topK(scores map[model.NodeID]float64, k int) []Scored {
	out := make([]Scored, 0, len(scores))
	for id, s := range scores {
		out = append(out, Scored{Node: id, Score: s})
	}
	sortScoredDesc(out)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func sortScoredDesc(s []Scored) {
	// insertion sort is fine: result sets are small (top-k), and this
	// keeps the tie-break (ascending node id) trivial to get right.
	for i := 1; i < len(s); i++ {
		j := i
		for j > 0 && less(s[j], s[j-1]) {
			s[j], s[j-1] = s[j-1], s[j]
			j--
		}
	}
}

func less(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Node < b.Node
}

// ScoreSlow is the linear-scan fallback used when no term index is
// present: it tokenizes every node's content on the fly. Given the same
// tokenization, it must agree with ScoreFast on the top-k ranking
// (property 7, "BM25 index equivalence").
func ScoreSlow(view model.View, query string, k int) []Scored {
	terms := tokenize.Tokens(query)
	if len(terms) == 0 {
		return nil
	}
	n := view.NodeCount()
	docLens := make([]int32, n)
	docFreq := make(map[string]int)
	postings := make(map[string][]Posting)
	for id := 0; id < n; id++ {
		node, ok := view.Node(model.NodeID(id))
		if !ok {
			continue
		}
		toks := tokenize.Tokens(node.Content)
		docLens[id] = int32(len(toks))
		freq := make(map[string]int)
		for _, t := range toks {
			freq[t]++
		}
		for term, f := range freq {
			postings[term] = append(postings[term], Posting{Node: node.ID, Freq: f})
			docFreq[term]++
		}
	}
	t := &TermIndex{Postings: postings, DocFreq: docFreq}
	return t.ScoreFast(query, docLens, k)
}
