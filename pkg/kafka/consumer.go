// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. The producer serialises events as JSON; the consumer
// replays a topic partition from its first offset to the current high-water
// mark and hands each message to a MessageHandler.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
)

// ErrStop may be returned by a MessageHandler to end Drain early without
// reporting an error.
var ErrStop = errors.New("stop consuming")

// MessageHandler is a callback invoked for each Kafka message.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer reads one partition of a Kafka topic from the beginning.
type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	handler MessageHandler
}

// NewConsumer creates a Consumer for partition 0 of topic. Feed topics are
// single-partition so that replay order matches publish order.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
	}
}

// Drain fetches messages until the partition's high-water mark is reached,
// no message arrives for idle, or the handler returns ErrStop. Any other
// handler error aborts the drain and is returned. It returns the number of
// messages handled.
func (c *Consumer) Drain(ctx context.Context, idle time.Duration) (int, error) {
	c.logger.Info("draining topic", "idle_timeout", idle)
	handled := 0
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, idle)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return handled, fmt.Errorf("draining topic: %w", ctx.Err())
			}
			if errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("topic idle, drain complete", "messages", handled)
				return handled, nil
			}
			return handled, fmt.Errorf("fetching message: %w", err)
		}
		c.logger.Debug("message received",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"value_size", len(msg.Value),
		)
		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			if errors.Is(err, ErrStop) {
				c.logger.Info("drain stopped by handler", "messages", handled, "offset", msg.Offset)
				return handled, nil
			}
			return handled, fmt.Errorf("handling message at offset %d: %w", msg.Offset, err)
		}
		handled++
		if msg.HighWaterMark > 0 && msg.Offset+1 >= msg.HighWaterMark {
			c.logger.Info("reached high-water mark, drain complete", "messages", handled)
			return handled, nil
		}
	}
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON is a generic helper that unmarshals a Kafka message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
