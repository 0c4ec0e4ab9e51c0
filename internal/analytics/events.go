// Package analytics publishes per-query events to Kafka and aggregates them
// into rolling usage statistics. The searcher emits events; the analytics
// service consumes them and serves the aggregate over HTTP.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventFilterOnly EventType = "filter_only"
	EventIndexDoc   EventType = "index_document"
	EventZeroResult EventType = "zero_result"
)

// SearchEvent describes one executed query, ranked or filter-only.
type SearchEvent struct {
	Type        EventType `json:"type"`
	Query       string    `json:"query"`
	Metric      string    `json:"metric"`
	Terms       []string  `json:"terms"`
	TotalHits   int       `json:"total_hits"`
	Returned    int       `json:"returned"`
	CacheStatus string    `json:"cache_status"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id"`
}

// IndexEvent describes one recipe document added to the index by the
// streaming indexer.
type IndexEvent struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	TokenCount int       `json:"token_count"`
	Timestamp  time.Time `json:"timestamp"`
}
