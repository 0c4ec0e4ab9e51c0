// Package index defines the in-memory inverted index: term dictionary,
// field postings, and per-document metadata. An Index is immutable after
// construction and safe for concurrent read access without locking.
package index

import "sort"

// Field names the three indexed recipe text fields.
type Field string

const (
	FieldTitle        Field = "title"
	FieldIngredients  Field = "ingredients"
	FieldInstructions Field = "instructions"
)

// Weight returns the fixed relevance multiplier for the field
// (title > ingredients > instructions).
func (f Field) Weight() float64 {
	switch f {
	case FieldTitle:
		return 3.0
	case FieldIngredients:
		return 2.0
	default:
		return 1.0
	}
}

// Posting records that a term occurs TF times in one field of one document.
// A term may carry several postings for the same document, one per field.
type Posting struct {
	Field Field
	DocID string
	TF    int
}

// TermInfo holds a term's document frequency and inverse document frequency.
// DF counts one per field posting's first occurrence in a document; IDF is
// ln(totalDocs/df), computed only after the full build pass.
type TermInfo struct {
	DF  int
	IDF float64
}

// DocMeta is the per-document metadata stored alongside the postings:
// enough for BM25 length normalisation and snippet generation, nothing more.
type DocMeta struct {
	URL             string
	Title           string
	LenTitle        int
	LenIngredients  int
	LenInstructions int
}

// FieldLen returns the stored token count for the given field.
func (m DocMeta) FieldLen(f Field) int {
	switch f {
	case FieldTitle:
		return m.LenTitle
	case FieldIngredients:
		return m.LenIngredients
	default:
		return m.LenInstructions
	}
}

// TotalLen returns the document's total token count across all fields.
func (m DocMeta) TotalLen() int {
	return m.LenTitle + m.LenIngredients + m.LenInstructions
}

// Index is the loaded, read-only inverted index.
type Index struct {
	terms     map[string]TermInfo
	postings  map[string][]Posting
	docs      map[string]DocMeta
	docIDs    []string
	avgDocLen float64
}

// New assembles an Index from its three structures. docIDs are kept in
// sorted order for deterministic scans; the average document length is fixed
// at construction.
func New(terms map[string]TermInfo, postings map[string][]Posting, docs map[string]DocMeta, sortedDocIDs []string) *Index {
	idx := &Index{
		terms:    terms,
		postings: postings,
		docs:     docs,
		docIDs:   sortedDocIDs,
	}
	if len(docs) > 0 {
		total := 0
		for _, meta := range docs {
			total += meta.TotalLen()
		}
		idx.avgDocLen = float64(total) / float64(len(docs))
	}
	return idx
}

// Term returns the dictionary entry for a term.
func (idx *Index) Term(term string) (TermInfo, bool) {
	info, ok := idx.terms[term]
	return info, ok
}

// Postings returns the postings list for a term, nil if the term is not in
// the dictionary. Callers must not mutate the returned slice.
func (idx *Index) Postings(term string) []Posting {
	return idx.postings[term]
}

// AllTerms returns every dictionary term in sorted order.
func (idx *Index) AllTerms() []string {
	terms := make([]string, 0, len(idx.terms))
	for term := range idx.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Doc returns the metadata for a document id.
func (idx *Index) Doc(docID string) (DocMeta, bool) {
	meta, ok := idx.docs[docID]
	return meta, ok
}

// DocIDs returns all document ids in sorted order. Callers must not mutate
// the returned slice.
func (idx *Index) DocIDs() []string {
	return idx.docIDs
}

// TotalDocs returns the number of indexed documents.
func (idx *Index) TotalDocs() int {
	return len(idx.docs)
}

// TermCount returns the dictionary size.
func (idx *Index) TermCount() int {
	return len(idx.terms)
}

// AvgDocLength returns the mean total token count over all documents.
func (idx *Index) AvgDocLength() float64 {
	return idx.avgDocLen
}
