package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Corpus.Backend != "jsonl" {
		t.Errorf("Corpus.Backend = %q", cfg.Corpus.Backend)
	}
	if cfg.Search.DefaultMetric != "bm25" {
		t.Errorf("Search.DefaultMetric = %q", cfg.Search.DefaultMetric)
	}
	if cfg.Search.FilterScanCap != 2000 || cfg.Search.FilterResultCap != 1000 {
		t.Errorf("filter caps = %d/%d", cfg.Search.FilterScanCap, cfg.Search.FilterResultCap)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
search:
  defaultMetric: tfidf
  queryTimeout: 2s
indexer:
  indexDir: /var/lib/recipes/index
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultMetric != "tfidf" {
		t.Errorf("DefaultMetric = %q", cfg.Search.DefaultMetric)
	}
	if cfg.Search.QueryTimeout != 2*time.Second {
		t.Errorf("QueryTimeout = %v", cfg.Search.QueryTimeout)
	}
	// Untouched sections keep their defaults.
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("DefaultLimit = %d", cfg.Search.DefaultLimit)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RS_SERVER_PORT", "7070")
	t.Setenv("RS_SEARCH_DEFAULT_METRIC", "tfidf")
	t.Setenv("RS_CORPUS_BACKEND", "postgres")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultMetric != "tfidf" {
		t.Errorf("DefaultMetric = %q", cfg.Search.DefaultMetric)
	}
	if cfg.Corpus.Backend != "postgres" {
		t.Errorf("Corpus.Backend = %q", cfg.Corpus.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicit missing config file should error")
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg, _ := Load("")
	dsn := cfg.Postgres.DSN()
	for _, part := range []string{"host=localhost", "port=5432", "dbname=recipesearch", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN %q missing %q", dsn, part)
		}
	}
}
