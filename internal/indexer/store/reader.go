package store

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer/index"
	apperrors "github.com/Marosko123/food-recipes-ir-pipeline/pkg/errors"
)

// Load rehydrates the three index files from dir into an immutable Index.
// Missing directory or files are fatal (ErrIndexNotFound). Malformed rows
// are recoverable: they are skipped with a warning. A header that differs
// from the expected column names warns but does not fail, so older readers
// tolerate added columns. An index that loads with zero documents is fatal:
// a half-loaded index would rank silently wrong.
func Load(dir string) (*index.Index, error) {
	logger := slog.Default().With("component", "index-loader")

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: index directory %s", apperrors.ErrIndexNotFound, dir)
	}

	terms := make(map[string]index.TermInfo)
	if err := readRows(filepath.Join(dir, TermsFile), termsHeader, logger, func(parts []string, lineNum int) {
		if len(parts) != 3 {
			logger.Warn("invalid terms row", "file", TermsFile, "line", lineNum)
			return
		}
		df, err := strconv.Atoi(parts[1])
		if err != nil {
			logger.Warn("invalid df value", "file", TermsFile, "line", lineNum, "error", err)
			return
		}
		idf, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			logger.Warn("invalid idf value", "file", TermsFile, "line", lineNum, "error", err)
			return
		}
		terms[parts[0]] = index.TermInfo{DF: df, IDF: idf}
	}); err != nil {
		return nil, err
	}

	postings := make(map[string][]index.Posting)
	if err := readRows(filepath.Join(dir, PostingsFile), postingsHeader, logger, func(parts []string, lineNum int) {
		if len(parts) != 4 {
			logger.Warn("invalid postings row", "file", PostingsFile, "line", lineNum)
			return
		}
		term := parts[0]
		if _, ok := terms[term]; !ok {
			// postings for unknown terms would score with undefined idf
			logger.Warn("dropping posting for unknown term", "term", term, "line", lineNum)
			return
		}
		tf, err := strconv.Atoi(parts[3])
		if err != nil {
			logger.Warn("invalid tf value", "file", PostingsFile, "line", lineNum, "error", err)
			return
		}
		postings[term] = append(postings[term], index.Posting{
			Field: index.Field(parts[1]),
			DocID: parts[2],
			TF:    tf,
		})
	}); err != nil {
		return nil, err
	}

	docs := make(map[string]index.DocMeta)
	if err := readRows(filepath.Join(dir, DocMetaFile), docMetaHeader, logger, func(parts []string, lineNum int) {
		if len(parts) < 6 {
			logger.Warn("invalid docmeta row", "file", DocMetaFile, "line", lineNum)
			return
		}
		lenTitle, err1 := strconv.Atoi(parts[3])
		lenIng, err2 := strconv.Atoi(parts[4])
		lenInstr, err3 := strconv.Atoi(parts[5])
		if err1 != nil || err2 != nil || err3 != nil {
			logger.Warn("invalid docmeta lengths", "file", DocMetaFile, "line", lineNum)
			return
		}
		docs[parts[0]] = index.DocMeta{
			URL:             parts[1],
			Title:           parts[2],
			LenTitle:        lenTitle,
			LenIngredients:  lenIng,
			LenInstructions: lenInstr,
		}
	}); err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoDocuments, dir)
	}

	docIDs := make([]string, 0, len(docs))
	for id := range docs {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	logger.Info("index loaded",
		"dir", dir,
		"terms", len(terms),
		"docs", len(docs),
	)
	return index.New(terms, postings, docs, docIDs), nil
}

func readRows(path string, wantHeader string, logger *slog.Logger, row func(parts []string, lineNum int)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrIndexNotFound, path)
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("%w: reading header of %s: %v", apperrors.ErrIndexCorrupt, path, err)
		}
		// empty file: row count zero, the caller decides whether that is fatal
		return nil
	}
	if header := strings.TrimRight(scanner.Text(), "\r\n"); header != wantHeader {
		logger.Warn("unexpected index file header",
			"file", filepath.Base(path),
			"got", header,
			"want", wantHeader,
		)
	}

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		row(strings.Split(line, "\t"), lineNum)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: scanning %s: %v", apperrors.ErrIndexCorrupt, path, err)
	}
	return nil
}
