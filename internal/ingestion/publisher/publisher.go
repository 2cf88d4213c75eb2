// Package publisher copies a document feed onto the Kafka feed topic, so
// that indexers can rebuild from the topic instead of the original file.
// Records are validated first and published in order, in batches.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

// FeedKey is the Kafka key of every feed record.
const FeedKey = "feed"

// Producer writes a batch of events. *kafka.Producer implements it.
type Producer interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type Stats struct {
	Source    string        `json:"source"`
	Published int           `json:"published"`
	Batches   int           `json:"batches"`
	Duration  time.Duration `json:"duration"`
}

type Publisher struct {
	producer  Producer
	validator *validator.Validator
	batchSize int
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

func New(producer Producer, v *validator.Validator, batchSize int) *Publisher {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Publisher{
		producer:  producer,
		validator: v,
		batchSize: batchSize,
		retry: resilience.RetryConfig{
			MaxAttempts:  5,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Retryable: func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			},
		},
		logger: slog.Default().With("component", "feed-publisher"),
	}
}

// Publish validates every record of src and publishes it as a FeedEvent.
// The first invalid record aborts the run; batches already written stay on
// the topic.
func (p *Publisher) Publish(ctx context.Context, src feed.Source) (Stats, error) {
	start := time.Now()
	stats := Stats{Source: src.Name()}
	batch := make([]kafka.Event, 0, p.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := resilience.Retry(ctx, "publish-feed-batch", p.retry, func() error {
			return p.producer.PublishBatch(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("publishing records %d-%d: %w", stats.Published+1, stats.Published+len(batch), err)
		}
		stats.Published += len(batch)
		stats.Batches++
		p.logger.Debug("feed batch published", "records", len(batch), "total", stats.Published)
		batch = batch[:0]
		return nil
	}

	err := src.Each(ctx, func(doc ingestion.Document) error {
		if err := p.validator.Validate(doc); err != nil {
			return err
		}
		batch = append(batch, kafka.Event{
			Key: FeedKey,
			Value: ingestion.FeedEvent{
				Document:   doc,
				Sequence:   stats.Published + len(batch) + 1,
				IngestedAt: time.Now().UTC(),
			},
		})
		if len(batch) >= p.batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	stats.Duration = time.Since(start)
	if err != nil {
		p.logger.Error("feed publishing aborted", "source", stats.Source, "published", stats.Published, "error", err)
		return stats, err
	}
	p.logger.Info("feed published",
		"source", stats.Source,
		"records", stats.Published,
		"batches", stats.Batches,
		"duration", stats.Duration,
	)
	return stats, nil
}
