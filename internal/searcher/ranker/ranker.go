// Package ranker implements the two interchangeable relevance scorers over
// the loaded postings: TF-IDF cosine similarity and BM25. Both apply the
// fixed field weights (title 3.0, ingredients 2.0, instructions 1.0) and an
// inline accept predicate per posting, so filters prune documents during
// scoring rather than afterwards.
package ranker

import (
	"math"
	"sort"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/index"
)

// BM25 parameters.
const (
	k1 = 1.2
	b  = 0.75
)

// ScoredDoc is one ranked document.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// AcceptFunc decides per document whether it may contribute to the result
// set. A nil AcceptFunc accepts everything.
type AcceptFunc func(docID string) bool

// TFIDF scores documents by cosine similarity between the query vector and
// field-weighted document vectors. Query terms absent from the dictionary
// contribute nothing; if no query term is known, there are no results.
// Documents with zero accumulated magnitude are skipped.
func TFIDF(idx *index.Index, queryTerms []string, accept AcceptFunc) []ScoredDoc {
	queryTF := countTerms(queryTerms)

	var queryMagnitude float64
	for term, tf := range queryTF {
		info, ok := idx.Term(term)
		if !ok {
			continue
		}
		w := float64(tf) * info.IDF
		queryMagnitude += w * w
	}
	queryMagnitude = math.Sqrt(queryMagnitude)
	if queryMagnitude == 0 {
		return nil
	}

	scores := make(map[string]float64)
	magnitudes := make(map[string]float64)
	for term, tf := range queryTF {
		info, ok := idx.Term(term)
		if !ok {
			continue
		}
		queryWeight := float64(tf) * info.IDF
		for _, p := range idx.Postings(term) {
			if accept != nil && !accept(p.DocID) {
				continue
			}
			docWeight := float64(p.TF) * info.IDF * p.Field.Weight()
			scores[p.DocID] += queryWeight * docWeight
			magnitudes[p.DocID] += docWeight * docWeight
		}
	}

	results := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		magnitude := magnitudes[docID]
		if magnitude <= 0 {
			continue
		}
		results = append(results, ScoredDoc{
			DocID: docID,
			Score: score / (queryMagnitude * math.Sqrt(magnitude)),
		})
	}
	sortByScore(results)
	return results
}

// BM25 scores documents with per-field length normalisation: term frequency
// saturates via k1, and matches in fields longer than the corpus average are
// discounted via b. Terms absent from the dictionary contribute nothing;
// there is no fuzzy or partial matching.
func BM25(idx *index.Index, queryTerms []string, accept AcceptFunc) []ScoredDoc {
	avgDocLen := idx.AvgDocLength()
	if avgDocLen == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for term := range countTerms(queryTerms) {
		info, ok := idx.Term(term)
		if !ok {
			continue
		}
		for _, p := range idx.Postings(term) {
			if accept != nil && !accept(p.DocID) {
				continue
			}
			meta, ok := idx.Doc(p.DocID)
			if !ok {
				continue
			}
			fieldLen := float64(meta.FieldLen(p.Field))
			tf := float64(p.TF)
			termScore := (tf * (k1 + 1)) / (tf + k1*(1-b+b*(fieldLen/avgDocLen)))
			scores[p.DocID] += termScore * info.IDF * p.Field.Weight()
		}
	}

	results := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		results = append(results, ScoredDoc{DocID: docID, Score: score})
	}
	sortByScore(results)
	return results
}

func countTerms(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	return counts
}

// sortByScore orders by score descending. Ties break by document id so the
// ordering is stable across runs; callers must not rely on any particular
// tie order beyond that.
func sortByScore(results []ScoredDoc) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
}
