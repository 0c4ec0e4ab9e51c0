// Package indexer builds the inverted index from normalized recipe records.
// Building is an explicit two-phase process: Add accumulates postings and
// document metadata, Finalize fixes the document count and computes IDF.
// IDF is undefined before the full pass, so there is deliberately no
// streaming variant.
package indexer

import (
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/index"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/tokenizer"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
)

// BuildStats reports what a build pass consumed and produced. ErrorDocs
// counts malformed records and records without an id; EmptyDocs counts
// records whose three text fields all tokenized to nothing.
type BuildStats struct {
	TotalDocs     int `json:"total_docs"`
	EmptyDocs     int `json:"empty_docs"`
	ErrorDocs     int `json:"error_docs"`
	TotalTerms    int `json:"total_terms"`
	TotalPostings int `json:"total_postings"`
}

// Builder accumulates the index structures over one pass of the corpus.
// Not safe for concurrent use; index building is a one-shot batch process.
type Builder struct {
	df       map[string]int
	postings map[string][]index.Posting
	docs     map[string]index.DocMeta
	stats    BuildStats
	logger   *slog.Logger
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		df:       make(map[string]int),
		postings: make(map[string][]index.Posting),
		docs:     make(map[string]index.DocMeta),
		logger:   slog.Default().With("component", "index-builder"),
	}
}

// AddLine decodes one corpus line and indexes it. Malformed JSON is counted
// and logged, never fatal.
func (b *Builder) AddLine(line []byte) {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return
	}
	var rec recipe.Record
	if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
		b.logger.Error("skipping malformed record", "error", err)
		b.stats.ErrorDocs++
		return
	}
	b.Add(&rec)
}

// Add indexes a single record: tokenizes title, ingredients, and
// instructions independently, records metadata, and appends one posting per
// distinct term-in-field. A term's document frequency increments once per
// field posting, so a term present in two fields of one document counts
// twice, matching the persisted df semantics the scorers rely on.
func (b *Builder) Add(rec *recipe.Record) {
	if rec.ID == "" {
		b.logger.Warn("skipping record without id", "url", rec.URL)
		b.stats.ErrorDocs++
		return
	}

	title := strings.TrimSpace(rec.Title)
	titleTokens := tokenizer.Tokenize(title)
	ingredientTokens := tokenizer.Tokenize(strings.Join(rec.Ingredients, " "))
	instructionTokens := tokenizer.Tokenize(strings.Join(rec.Instructions, " "))

	if len(titleTokens)+len(ingredientTokens)+len(instructionTokens) == 0 {
		b.logger.Warn("skipping document with no content", "doc_id", rec.ID)
		b.stats.EmptyDocs++
		return
	}

	b.docs[rec.ID] = index.DocMeta{
		URL:             rec.URL,
		Title:           title,
		LenTitle:        len(titleTokens),
		LenIngredients:  len(ingredientTokens),
		LenInstructions: len(instructionTokens),
	}

	b.indexField(rec.ID, index.FieldTitle, titleTokens)
	b.indexField(rec.ID, index.FieldIngredients, ingredientTokens)
	b.indexField(rec.ID, index.FieldInstructions, instructionTokens)
}

func (b *Builder) indexField(docID string, field index.Field, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	counts := make(map[string]int, len(tokens))
	for _, term := range tokens {
		counts[term]++
	}
	for term, tf := range counts {
		b.df[term]++
		b.postings[term] = append(b.postings[term], index.Posting{
			Field: field,
			DocID: docID,
			TF:    tf,
		})
	}
}

// DocCount returns the number of documents accumulated so far.
func (b *Builder) DocCount() int {
	return len(b.docs)
}

// Finalize fixes totalDocuments, computes idf = ln(N/df) for every term,
// and returns the immutable index plus build statistics. The Builder should
// not be reused afterwards.
func (b *Builder) Finalize() (*index.Index, BuildStats) {
	totalDocs := len(b.docs)
	terms := make(map[string]index.TermInfo, len(b.df))
	if totalDocs == 0 {
		b.logger.Warn("no documents accumulated, index will be empty")
	} else {
		for term, df := range b.df {
			terms[term] = index.TermInfo{
				DF:  df,
				IDF: math.Log(float64(totalDocs) / float64(df)),
			}
		}
	}

	docIDs := make([]string, 0, len(b.docs))
	for id := range b.docs {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	b.stats.TotalDocs = totalDocs
	b.stats.TotalTerms = len(terms)
	for _, plist := range b.postings {
		b.stats.TotalPostings += len(plist)
	}

	b.logger.Info("index finalized",
		"docs", b.stats.TotalDocs,
		"terms", b.stats.TotalTerms,
		"postings", b.stats.TotalPostings,
		"empty_docs", b.stats.EmptyDocs,
		"error_docs", b.stats.ErrorDocs,
	)
	return index.New(terms, b.postings, b.docs, docIDs), b.stats
}
