package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/postgres"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/resilience"
)

// PostgresStore is a Store backed by a recipes table holding the normalized
// record as a JSONB document column. Batch loads use a single ANY() query.
//
// Schema:
//
//	CREATE TABLE recipes (
//	    id  TEXT PRIMARY KEY,
//	    doc JSONB NOT NULL
//	);
type PostgresStore struct {
	client *postgres.Client
	retry  resilience.RetryConfig
	logger *slog.Logger
}

// NewPostgresStore creates a store over the given database client.
func NewPostgresStore(client *postgres.Client) *PostgresStore {
	return &PostgresStore{
		client: client,
		retry:  resilience.RetryConfig{MaxAttempts: 3},
		logger: slog.Default().With("component", "recipe-store-pg"),
	}
}

// LoadBatch fetches the requested records in one query, retrying transient
// failures with backoff.
func (s *PostgresStore) LoadBatch(ctx context.Context, ids []string) (map[string]*Record, error) {
	if len(ids) == 0 {
		return map[string]*Record{}, nil
	}
	found := make(map[string]*Record, len(ids))
	err := resilience.Retry(ctx, "recipes-load-batch", s.retry, func() error {
		rows, err := s.client.DB.QueryContext(ctx,
			`SELECT id, doc FROM recipes WHERE id = ANY($1)`,
			pq.Array(ids),
		)
		if err != nil {
			return fmt.Errorf("querying recipes: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			var doc []byte
			if err := rows.Scan(&id, &doc); err != nil {
				return fmt.Errorf("scanning recipe row: %w", err)
			}
			var rec Record
			if err := json.Unmarshal(doc, &rec); err != nil {
				s.logger.Warn("skipping undecodable recipe document", "id", id, "error", err)
				continue
			}
			if rec.ID == "" {
				rec.ID = id
			}
			found[rec.ID] = &rec
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Append upserts a record document, replacing any prior version of the same
// id. Used by the Kafka record consumer when the corpus lives in postgres.
func (s *PostgresStore) Append(ctx context.Context, rec *Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record %s: %w", rec.ID, err)
	}
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, doc) VALUES ($1, $2)
			 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
			rec.ID, doc,
		)
		return err
	})
}

// Ping verifies database connectivity, for health checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.client.DB.PingContext(ctx)
}
