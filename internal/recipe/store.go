package recipe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Store loads full recipe records by document id. Implementations decide the
// corpus access strategy (line-scan, database, cache) independently of the
// filter logic.
type Store interface {
	// LoadBatch returns the records found for the given ids. Missing ids are
	// simply absent from the result map, not an error.
	LoadBatch(ctx context.Context, ids []string) (map[string]*Record, error)
}

// corpus line buffers need headroom for long instruction lists
const maxLineBytes = 4 * 1024 * 1024

// JSONLStore is a Store over a newline-delimited JSON corpus file. Each
// LoadBatch is a single forward scan with early termination once every
// requested id has been found.
type JSONLStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONLStore creates a store over the given corpus file.
func NewJSONLStore(path string) *JSONLStore {
	return &JSONLStore{
		path:   path,
		logger: slog.Default().With("component", "recipe-store"),
	}
}

// Path returns the corpus file path, for health checks.
func (s *JSONLStore) Path() string {
	return s.path
}

// LoadBatch scans the corpus once, collecting the requested records.
// Malformed lines are skipped.
func (s *JSONLStore) LoadBatch(ctx context.Context, ids []string) (map[string]*Record, error) {
	if len(ids) == 0 {
		return map[string]*Record{}, nil
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	defer f.Close()

	found := make(map[string]*Record, len(ids))
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Debug("skipping malformed corpus line", "error", err)
			continue
		}
		if _, ok := wanted[rec.ID]; !ok {
			continue
		}
		r := rec
		found[rec.ID] = &r
		if len(found) == len(wanted) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return found, fmt.Errorf("scanning corpus file: %w", err)
	}
	return found, nil
}

// Append writes a record to the end of the corpus file, creating it if
// needed. Used by the Kafka record consumer to persist streamed records.
func (s *JSONLStore) Append(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record %s: %w", rec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening corpus file for append: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending record %s: %w", rec.ID, err)
	}
	return nil
}
