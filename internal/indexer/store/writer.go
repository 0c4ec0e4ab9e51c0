// Package store persists and loads the three index files: terms.tsv,
// postings.tsv, and docmeta.tsv. The files are plain tab-separated UTF-8
// with a header row, sorted by key for reproducible builds. They are build
// artifacts: written once per corpus version, read-only during querying.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/index"
)

const (
	TermsFile    = "terms.tsv"
	PostingsFile = "postings.tsv"
	DocMetaFile  = "docmeta.tsv"

	termsHeader    = "term\tdf\tidf"
	postingsHeader = "term\tfield\tdocId\ttf"
	docMetaHeader  = "docId\turl\ttitle\tlen_title\tlen_ing\tlen_instr"
)

// Write persists the index into dir, creating it if needed. Each file is
// written to a .tmp sibling first and renamed on success, so a crashed
// build never leaves a truncated index file behind.
func Write(dir string, idx *index.Index) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	terms := idx.AllTerms()

	if err := writeAtomic(filepath.Join(dir, TermsFile), func(w *bufio.Writer) error {
		fmt.Fprintln(w, termsHeader)
		for _, term := range terms {
			info, _ := idx.Term(term)
			if _, err := fmt.Fprintf(w, "%s\t%d\t%.6f\n", term, info.DF, info.IDF); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("writing %s: %w", TermsFile, err)
	}

	if err := writeAtomic(filepath.Join(dir, PostingsFile), func(w *bufio.Writer) error {
		fmt.Fprintln(w, postingsHeader)
		for _, term := range terms {
			postings := append([]index.Posting(nil), idx.Postings(term)...)
			sort.Slice(postings, func(i, j int) bool {
				if postings[i].DocID != postings[j].DocID {
					return postings[i].DocID < postings[j].DocID
				}
				return fieldRank(postings[i].Field) < fieldRank(postings[j].Field)
			})
			for _, p := range postings {
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", term, p.Field, p.DocID, p.TF); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("writing %s: %w", PostingsFile, err)
	}

	if err := writeAtomic(filepath.Join(dir, DocMetaFile), func(w *bufio.Writer) error {
		fmt.Fprintln(w, docMetaHeader)
		for _, docID := range idx.DocIDs() {
			meta, _ := idx.Doc(docID)
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
				docID, meta.URL, sanitizeTitle(meta.Title),
				meta.LenTitle, meta.LenIngredients, meta.LenInstructions,
			); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("writing %s: %w", DocMetaFile, err)
	}

	return nil
}

func writeAtomic(path string, fill func(w *bufio.Writer) error) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// sanitizeTitle keeps the TSV row on one line.
func sanitizeTitle(title string) string {
	r := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	return r.Replace(title)
}

func fieldRank(f index.Field) int {
	switch f {
	case index.FieldTitle:
		return 0
	case index.FieldIngredients:
		return 1
	default:
		return 2
	}
}
