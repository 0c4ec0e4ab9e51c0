// Package consumer feeds the index builder from a Kafka topic of normalized
// recipe records published by the external parser. Records are appended to
// the corpus file as they arrive (the filter engine reads full records from
// there) and accumulated in the builder; the caller finalizes and persists
// the index once consumption stops.
package consumer

import (
	"context"
	"log/slog"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/indexer"
	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
	"github.com/Marosko123/food-recipes-ir-pipeline/pkg/kafka"
)

// Corpus persists consumed records so the filter engine can load them
// later. Both the JSONL file store and the postgres store satisfy it.
type Corpus interface {
	Append(ctx context.Context, rec *recipe.Record) error
}

// RecordConsumer wraps a Kafka consumer driving the indexing pipeline.
type RecordConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a RecordConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *RecordConsumer {
	return &RecordConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "record-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (rc *RecordConsumer) Start(ctx context.Context) error {
	rc.logger.Info("record consumer starting")
	return rc.consumer.Start(ctx)
}

// HandleRecord returns a Kafka MessageHandler that appends each record to
// the corpus and accumulates it in the builder. Undecodable messages are
// logged and dropped; one bad record never aborts the stream. onRecord, if
// non-nil, is invoked after each successfully indexed record.
func HandleRecord(builder *indexer.Builder, corpus Corpus, onRecord func(*recipe.Record)) kafka.MessageHandler {
	logger := slog.Default().With("component", "record-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		rec, err := kafka.DecodeJSON[recipe.Record](value)
		if err != nil {
			logger.Error("failed to decode recipe record",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		if corpus != nil {
			if err := corpus.Append(ctx, &rec); err != nil {
				return err
			}
		}
		builder.Add(&rec)
		if onRecord != nil {
			onRecord(&rec)
		}
		logger.Debug("record accumulated",
			"doc_id", rec.ID,
			"docs", builder.DocCount(),
		)
		return nil
	}
}
