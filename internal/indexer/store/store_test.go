package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
	apperrors "github.com/Marosko123/food-recipes-ir-pipeline/pkg/errors"
)

func buildSmallIndex(t *testing.T) (*indexer.Builder, string) {
	t.Helper()
	b := indexer.NewBuilder()
	b.Add(&recipe.Record{
		ID:           "1",
		URL:          "https://example.com/1",
		Title:        "Garlic Soup",
		Ingredients:  []string{"garlic", "stock"},
		Instructions: []string{"simmer garlic in stock"},
	})
	b.Add(&recipe.Record{
		ID:    "2",
		URL:   "https://example.com/2",
		Title: "Tomato\tSalad\nPlate",
	})
	return b, t.TempDir()
}

func TestWriteLoadRoundTrip(t *testing.T) {
	b, dir := buildSmallIndex(t)
	built, _ := b.Finalize()

	if err := Write(dir, built); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, name := range []string{TermsFile, PostingsFile, DocMetaFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.TotalDocs() != built.TotalDocs() {
		t.Errorf("TotalDocs = %d, want %d", loaded.TotalDocs(), built.TotalDocs())
	}
	if loaded.TermCount() != built.TermCount() {
		t.Errorf("TermCount = %d, want %d", loaded.TermCount(), built.TermCount())
	}

	for _, term := range built.AllTerms() {
		wantInfo, _ := built.Term(term)
		gotInfo, ok := loaded.Term(term)
		if !ok {
			t.Fatalf("term %q lost in round trip", term)
		}
		if gotInfo.DF != wantInfo.DF {
			t.Errorf("df(%q) = %d, want %d", term, gotInfo.DF, wantInfo.DF)
		}
		if len(loaded.Postings(term)) != len(built.Postings(term)) {
			t.Errorf("postings(%q) = %d, want %d", term, len(loaded.Postings(term)), len(built.Postings(term)))
		}
	}

	// Tabs and newlines in titles are flattened to spaces on write.
	meta, ok := loaded.Doc("2")
	if !ok {
		t.Fatal("doc 2 missing after round trip")
	}
	if strings.ContainsAny(meta.Title, "\t\n") {
		t.Errorf("title not sanitized: %q", meta.Title)
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, apperrors.ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	b, dir := buildSmallIndex(t)
	built, _ := b.Finalize()
	if err := Write(dir, built); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, PostingsFile)); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if !errors.Is(err, apperrors.ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	b, dir := buildSmallIndex(t)
	built, _ := b.Finalize()
	if err := Write(dir, built); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Append garbage rows; loading should drop them and keep the rest.
	f, err := os.OpenFile(filepath.Join(dir, TermsFile), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("brokenrow\n")
	f.WriteString("badterm\tnotanumber\t0.5\n")
	f.Close()

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded.Term("badterm"); ok {
		t.Error("malformed term row survived load")
	}
	if loaded.TermCount() != built.TermCount() {
		t.Errorf("TermCount = %d, want %d", loaded.TermCount(), built.TermCount())
	}
}

func TestLoadDropsPostingsForUnknownTerms(t *testing.T) {
	b, dir := buildSmallIndex(t)
	built, _ := b.Finalize()
	if err := Write(dir, built); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, PostingsFile), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("phantom\ttitle\t1\t4\n")
	f.Close()

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded.Postings("phantom"); len(got) != 0 {
		t.Errorf("postings for unknown term survived: %v", got)
	}
}

func TestLoadEmptyIndexFatal(t *testing.T) {
	dir := t.TempDir()
	for name, header := range map[string]string{
		TermsFile:    "term\tdf\tidf",
		PostingsFile: "term\tfield\tdocId\ttf",
		DocMetaFile:  "docId\turl\ttitle\tlen_title\tlen_ing\tlen_instr",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(header+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := Load(dir)
	if !errors.Is(err, apperrors.ErrNoDocuments) {
		t.Errorf("err = %v, want ErrNoDocuments", err)
	}
}

func TestLoadToleratesHeaderDrift(t *testing.T) {
	b, dir := buildSmallIndex(t)
	built, _ := b.Finalize()
	if err := Write(dir, built); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(dir, TermsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.SplitN(string(data), "\n", 2)
	if err := os.WriteFile(path, []byte("term\tdf\tidf\textra\n"+lines[1]), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err != nil {
		t.Errorf("Load with drifted header: %v", err)
	}
}
