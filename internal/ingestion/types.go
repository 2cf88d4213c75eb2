// Package ingestion defines the document records handed to the indexing
// pipeline and the Kafka event schema used to carry them.
package ingestion

import "time"

// Document is one record of the product feed. Name is the display name
// results are reported under (the product image file) and may be empty
// or of any length; Text is the description that gets indexed.
type Document struct {
	ID       string `json:"id" validate:"required,docid"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Price    string `json:"price,omitempty"`
}

// FeedEvent is the Kafka message payload published for every feed record.
type FeedEvent struct {
	Document   Document  `json:"document"`
	Sequence   int       `json:"sequence"`
	IngestedAt time.Time `json:"ingested_at"`
}
