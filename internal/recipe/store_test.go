package recipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCorpus(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.jsonl")
	var data []byte
	for _, line := range lines {
		data = append(data, line...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestJSONLStoreLoadBatch(t *testing.T) {
	path := writeCorpus(t,
		`{"id":"1","title":"Garlic Soup"}`,
		``,
		`{this line is not json`,
		`{"id":"2","title":"Tomato Salad","times":{"total":15}}`,
		`{"id":"3","title":"Bread"}`,
	)
	store := NewJSONLStore(path)

	got, err := store.LoadBatch(context.Background(), []string{"2", "1", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got["1"].Title != "Garlic Soup" {
		t.Errorf("title = %q", got["1"].Title)
	}
	if float64(got["2"].Times.Total) != 15 {
		t.Errorf("total = %v, want 15", got["2"].Times.Total)
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing id should be absent, not present")
	}
}

func TestJSONLStoreEmptyIDList(t *testing.T) {
	store := NewJSONLStore(filepath.Join(t.TempDir(), "does-not-exist.jsonl"))
	got, err := store.LoadBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty id list should not open the file: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestJSONLStoreMissingFile(t *testing.T) {
	store := NewJSONLStore(filepath.Join(t.TempDir(), "does-not-exist.jsonl"))
	if _, err := store.LoadBatch(context.Background(), []string{"1"}); err == nil {
		t.Error("missing corpus file should error")
	}
}

func TestJSONLStoreAppendThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.jsonl")
	store := NewJSONLStore(path)

	ctx := context.Background()
	if err := store.Append(ctx, &Record{ID: "7", Title: "Lemon Tart"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(ctx, &Record{ID: "8", Title: "Apple Pie"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadBatch(context.Background(), []string{"7", "8"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got["7"].Title != "Lemon Tart" {
		t.Errorf("title = %q", got["7"].Title)
	}
}

func TestJSONLStoreCancelledContext(t *testing.T) {
	path := writeCorpus(t, `{"id":"1","title":"Garlic Soup"}`)
	store := NewJSONLStore(path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.LoadBatch(ctx, []string{"1"}); err == nil {
		t.Error("cancelled context should surface an error")
	}
}
