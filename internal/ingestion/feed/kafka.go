package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
)

// KafkaTopic replays the document feed topic that cmd/ingestion publishes
// to, from the first offset up to the high-water mark.
type KafkaTopic struct {
	cfg  config.KafkaConfig
	idle time.Duration
}

func NewKafkaTopic(cfg config.KafkaConfig, idle time.Duration) *KafkaTopic {
	if idle <= 0 {
		idle = 5 * time.Second
	}
	return &KafkaTopic{cfg: cfg, idle: idle}
}

func (k *KafkaTopic) Name() string { return "kafka:" + k.cfg.Topics.DocumentFeed }

func (k *KafkaTopic) Each(ctx context.Context, fn func(ingestion.Document) error) error {
	consumer := kafka.NewConsumer(k.cfg, k.cfg.Topics.DocumentFeed, HandleFeedEvent(fn))
	defer consumer.Close()
	if _, err := consumer.Drain(ctx, k.idle); err != nil {
		if errors.Is(err, apperrors.ErrFeedUnavailable) || ctx.Err() != nil {
			return err
		}
		var handlerErr *handlerError
		if errors.As(err, &handlerErr) {
			return handlerErr.err
		}
		return fmt.Errorf("%w: %v", apperrors.ErrFeedUnavailable, err)
	}
	return nil
}

// handlerError marks errors raised by the document callback so they reach
// the caller unchanged instead of being reported as a feed failure.
type handlerError struct{ err error }

func (e *handlerError) Error() string { return e.err.Error() }
func (e *handlerError) Unwrap() error { return e.err }

// HandleFeedEvent adapts a document callback to a Kafka MessageHandler.
// Undecodable messages are a feed failure.
func HandleFeedEvent(fn func(ingestion.Document) error) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.FeedEvent](value)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrFeedUnavailable, err)
		}
		if err := fn(event.Document); err != nil {
			if errors.Is(err, ErrStop) {
				return kafka.ErrStop
			}
			return &handlerError{err: err}
		}
		return nil
	}
}
