package ranker

import (
	"math"
	"testing"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/index"
)

// smallIndex builds a three-document index by hand: "garlic" appears in A's
// title and B's ingredients, "bread" only in C.
func smallIndex() *index.Index {
	terms := map[string]index.TermInfo{
		"garlic": {DF: 2, IDF: math.Log(3.0 / 2.0)},
		"bread":  {DF: 1, IDF: math.Log(3.0 / 1.0)},
	}
	postings := map[string][]index.Posting{
		"garlic": {
			{Field: index.FieldTitle, DocID: "A", TF: 1},
			{Field: index.FieldIngredients, DocID: "B", TF: 1},
		},
		"bread": {
			{Field: index.FieldTitle, DocID: "C", TF: 1},
		},
	}
	docs := map[string]index.DocMeta{
		"A": {Title: "Garlic Soup", LenTitle: 2, LenIngredients: 4, LenInstructions: 8},
		"B": {Title: "Plain Broth", LenTitle: 2, LenIngredients: 4, LenInstructions: 8},
		"C": {Title: "Bread", LenTitle: 1, LenIngredients: 4, LenInstructions: 8},
	}
	return index.New(terms, postings, docs, []string{"A", "B", "C"})
}

func TestBM25OnlyMatchingDocs(t *testing.T) {
	idx := smallIndex()
	results := BM25(idx, []string{"garlic"}, nil)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.DocID == "C" {
			t.Error("document without the term was returned")
		}
		if r.Score <= 0 {
			t.Errorf("score for %s = %f, want > 0", r.DocID, r.Score)
		}
	}
	// Equal tf and equal field length, but A's match is in the title
	// (weight 3) and B's in ingredients (weight 2).
	if results[0].DocID != "A" {
		t.Errorf("top doc = %s, want A (title match outweighs ingredients)", results[0].DocID)
	}
}

func TestBM25UnknownTerm(t *testing.T) {
	idx := smallIndex()
	if results := BM25(idx, []string{"unicorn"}, nil); len(results) != 0 {
		t.Errorf("unknown term returned %d results, want 0", len(results))
	}
}

func TestBM25LengthNormalization(t *testing.T) {
	terms := map[string]index.TermInfo{
		"garlic": {DF: 2, IDF: math.Log(2)},
	}
	postings := map[string][]index.Posting{
		"garlic": {
			{Field: index.FieldIngredients, DocID: "short", TF: 1},
			{Field: index.FieldIngredients, DocID: "long", TF: 1},
		},
	}
	docs := map[string]index.DocMeta{
		"short": {LenTitle: 2, LenIngredients: 3, LenInstructions: 5},
		"long":  {LenTitle: 2, LenIngredients: 40, LenInstructions: 5},
	}
	idx := index.New(terms, postings, docs, []string{"long", "short"})

	results := BM25(idx, []string{"garlic"}, nil)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocID != "short" {
		t.Errorf("top doc = %s, want short (same tf in a shorter field)", results[0].DocID)
	}
}

func TestBM25TermFrequencySaturates(t *testing.T) {
	terms := map[string]index.TermInfo{
		"garlic": {DF: 2, IDF: 1.0},
	}
	postings := map[string][]index.Posting{
		"garlic": {
			{Field: index.FieldInstructions, DocID: "once", TF: 1},
			{Field: index.FieldInstructions, DocID: "often", TF: 10},
		},
	}
	docs := map[string]index.DocMeta{
		"once":  {LenInstructions: 20},
		"often": {LenInstructions: 20},
	}
	idx := index.New(terms, postings, docs, []string{"often", "once"})

	results := BM25(idx, []string{"garlic"}, nil)
	if results[0].DocID != "often" {
		t.Fatalf("top doc = %s, want often", results[0].DocID)
	}
	// tf 10 vs tf 1 must score higher, but not 10x higher.
	ratio := results[0].Score / results[1].Score
	if ratio <= 1 || ratio >= 10 {
		t.Errorf("score ratio = %f, want between 1 and 10 (saturation)", ratio)
	}
}

func TestTFIDFQueryScaleInvariance(t *testing.T) {
	idx := smallIndex()
	once := TFIDF(idx, []string{"garlic"}, nil)
	twice := TFIDF(idx, []string{"garlic", "garlic"}, nil)

	if len(once) != len(twice) {
		t.Fatalf("result counts differ: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].DocID != twice[i].DocID {
			t.Errorf("order differs at %d: %s vs %s", i, once[i].DocID, twice[i].DocID)
		}
		if math.Abs(once[i].Score-twice[i].Score) > 1e-9 {
			t.Errorf("cosine not scale invariant: %f vs %f", once[i].Score, twice[i].Score)
		}
	}
}

func TestTFIDFUnknownQuery(t *testing.T) {
	idx := smallIndex()
	if results := TFIDF(idx, []string{"unicorn"}, nil); len(results) != 0 {
		t.Errorf("unknown term returned %d results, want 0", len(results))
	}
}

func TestAcceptFuncPrunesDuringScoring(t *testing.T) {
	idx := smallIndex()
	onlyB := func(docID string) bool { return docID == "B" }

	for name, fn := range map[string]func(*index.Index, []string, AcceptFunc) []ScoredDoc{
		"tfidf": TFIDF,
		"bm25":  BM25,
	} {
		results := fn(idx, []string{"garlic"}, onlyB)
		if len(results) != 1 || results[0].DocID != "B" {
			t.Errorf("%s: results = %v, want only B", name, results)
		}
	}
}

func TestTieBreakByDocID(t *testing.T) {
	terms := map[string]index.TermInfo{
		"garlic": {DF: 2, IDF: 1.0},
	}
	postings := map[string][]index.Posting{
		"garlic": {
			{Field: index.FieldTitle, DocID: "zz", TF: 1},
			{Field: index.FieldTitle, DocID: "aa", TF: 1},
		},
	}
	docs := map[string]index.DocMeta{
		"aa": {LenTitle: 2},
		"zz": {LenTitle: 2},
	}
	idx := index.New(terms, postings, docs, []string{"aa", "zz"})

	results := BM25(idx, []string{"garlic"}, nil)
	if results[0].DocID != "aa" || results[1].DocID != "zz" {
		t.Errorf("tie order = %s, %s; want aa, zz", results[0].DocID, results[1].DocID)
	}
}
