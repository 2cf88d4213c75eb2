package analytics

import "time"

type EventType string

const (
	EventSearch      EventType = "search"
	EventImageSearch EventType = "image_search"
	EventZeroResult  EventType = "zero_result"
	EventEvaluation  EventType = "evaluation"
)

// Event is anything the collector publishes. The event type is the Kafka
// key, so events of one type keep their order within a partition.
type Event interface {
	EventType() EventType
}

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	ImagePath string    `json:"image_path,omitempty"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

func (e SearchEvent) EventType() EventType { return e.Type }

// EvaluationEvent summarises one run of the evaluation harness.
type EvaluationEvent struct {
	Queries           int       `json:"queries"`
	Evaluated         int       `json:"evaluated"`
	Skipped           int       `json:"skipped"`
	MeanPrecisionAt10 float64   `json:"mean_precision_at_10"`
	MAP               float64   `json:"map"`
	DurationMs        int64     `json:"duration_ms"`
	Timestamp         time.Time `json:"timestamp"`
	RequestID         string    `json:"request_id,omitempty"`
}

func (e EvaluationEvent) EventType() EventType { return EventEvaluation }
