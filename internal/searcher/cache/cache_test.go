package cache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/searcher/executor"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key(executor.MetricBM25, []string{"garlic", "butter"}, "max_total_minutes=30", 0, 10)
	b := Key(executor.MetricBM25, []string{"butter", "garlic"}, "max_total_minutes=30", 0, 10)
	if a != b {
		t.Error("term order changed the cache key")
	}
	if !strings.HasPrefix(a, "search:") {
		t.Errorf("key %q missing namespace prefix", a)
	}
}

func TestKeyDiscriminates(t *testing.T) {
	base := Key(executor.MetricBM25, []string{"garlic"}, "", 0, 10)
	variants := []string{
		Key(executor.MetricTFIDF, []string{"garlic"}, "", 0, 10),
		Key(executor.MetricBM25, []string{"butter"}, "", 0, 10),
		Key(executor.MetricBM25, []string{"garlic"}, "cuisine=[\"thai\"]", 0, 10),
		Key(executor.MetricBM25, []string{"garlic"}, "", 10, 10),
		Key(executor.MetricBM25, []string{"garlic"}, "", 0, 20),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with the base key", i)
		}
	}
}

func TestNilCacheBypasses(t *testing.T) {
	var c *QueryCache
	want := &Entry{TotalResults: 3}

	entry, status, err := c.GetOrCompute(context.Background(), "search:abc", func() (*Entry, error) {
		return want, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if status != "bypass" {
		t.Errorf("status = %q, want bypass", status)
	}
	if entry != want {
		t.Error("bypass did not return the computed entry")
	}

	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Errorf("nil cache stats = %+v", s)
	}
	if n, err := c.Invalidate(context.Background()); err != nil || n != 0 {
		t.Errorf("nil cache Invalidate = %d, %v", n, err)
	}
}

func TestNilCachePropagatesComputeError(t *testing.T) {
	var c *QueryCache
	wantErr := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "k", func() (*Entry, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
